package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qmmzzdx/kv-storage-server/internal/config"
	"github.com/qmmzzdx/kv-storage-server/internal/dispatch"
	"github.com/qmmzzdx/kv-storage-server/internal/eventloop"
	"github.com/qmmzzdx/kv-storage-server/internal/logging"
	"github.com/qmmzzdx/kv-storage-server/internal/store"
)

func main() {
	Execute()
}

// runServer wires configuration, logging, the two stores, the dispatcher,
// and the event loop together, then blocks serving connections until a
// shutdown signal arrives, mirroring kv_server.cpp's main.
func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat == "json")
	if err != nil {
		return fmt.Errorf("failed to start logger: %w", err)
	}
	defer log.Close()

	strStore := store.NewStringStore()
	zset := store.NewSortedSet(cfg.SkipListMaxLevel, log)

	if err := store.LoadSnapshot(zset, cfg.SnapshotPath); err != nil {
		log.Warnw("failed to load snapshot", "path", cfg.SnapshotPath, "err", err)
	}

	disp := dispatch.New(strStore, zset, log)

	loop := eventloop.New(eventloop.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		PollTimeout: int(cfg.PollTimeout.Milliseconds()),
	}, disp.Dispatch, log)

	fmt.Printf("kv-storage-server v%s listening on %s:%d\n", version, cfg.Host, cfg.Port)

	done := make(chan struct{})
	runErr := make(chan error, 1)
	go func() {
		runErr <- loop.Run(done)
	}()

	go func() {
		waitForShutdownSignal()
		close(done)
	}()

	if err := <-runErr; err != nil {
		return fmt.Errorf("event loop exited: %w", err)
	}

	if err := store.SaveSnapshot(zset, cfg.SnapshotPath); err != nil {
		log.Errorw("failed to save snapshot on shutdown", "path", cfg.SnapshotPath, "err", err)
	}

	fmt.Println("kv-storage-server stopped")
	return nil
}
