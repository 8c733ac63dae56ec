package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qmmzzdx/kv-storage-server/internal/config"
	"github.com/qmmzzdx/kv-storage-server/internal/store"
)

var version = "1.0.0" // set during build with -ldflags

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kv-storage-server",
	Short: "An in-memory key/value store with a binary wire protocol",
	Long: `kv-storage-server is a single-threaded, readiness-driven TCP
server exposing a string store and an indexed sorted set over a
length-prefixed binary protocol.`,
	Version: version,
	RunE:    runServer,
}

// configCmd shows the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Println("kv-storage-server configuration:")
		fmt.Println(strings.Repeat("=", 40))
		fmt.Printf("Host: %s\n", cfg.Host)
		fmt.Printf("Port: %d\n", cfg.Port)
		fmt.Printf("Max Message Size: %d\n", cfg.MaxMsg)
		fmt.Printf("Max Args: %d\n", cfg.MaxArgs)
		fmt.Printf("Skip List Max Level: %d\n", cfg.SkipListMaxLevel)
		fmt.Printf("Poll Timeout: %v\n", cfg.PollTimeout)
		fmt.Printf("Log Level: %s\n", cfg.LogLevel)
		fmt.Printf("Log Format: %s\n", cfg.LogFormat)
		fmt.Printf("Snapshot Path: %s\n", cfg.SnapshotPath)
		return nil
	},
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kv-storage-server v%s\n", version)
		fmt.Printf("Built with Go %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// snapshotCmd dumps the on-disk snapshot as sorted-set contents, without
// starting the server — useful for inspecting persisted state offline.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the members stored in the configured snapshot file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		z := store.NewSortedSet(cfg.SkipListMaxLevel, nil)
		if err := store.LoadSnapshot(z, cfg.SnapshotPath); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		fmt.Printf("%s: %d members\n", cfg.SnapshotPath, z.ZCard())
		z.LevelZero(func(score int64, member string) {
			fmt.Printf("%d: %s\n", score, member)
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("host", "H", "0.0.0.0", "Host to bind to")
	rootCmd.PersistentFlags().IntP("port", "p", 1234, "Port to listen on")
	rootCmd.PersistentFlags().Int("max-msg", 4096, "Maximum request/reply payload size in bytes")
	rootCmd.PersistentFlags().Int("max-args", 1024, "Maximum argument count per request")
	rootCmd.PersistentFlags().Int("skiplist-max-level", 18, "Maximum skip list level for the sorted set")
	rootCmd.PersistentFlags().Duration("poll-timeout", 5000*time.Millisecond, "epoll_wait timeout")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, console)")
	rootCmd.PersistentFlags().String("snapshot-path", "./kv-storage.snapshot", "Sorted set snapshot file path")

	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("max_msg", rootCmd.PersistentFlags().Lookup("max-msg"))
	viper.BindPFlag("max_args", rootCmd.PersistentFlags().Lookup("max-args"))
	viper.BindPFlag("skiplist_max_level", rootCmd.PersistentFlags().Lookup("skiplist-max-level"))
	viper.BindPFlag("poll_timeout", rootCmd.PersistentFlags().Lookup("poll-timeout"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("snapshot_path", rootCmd.PersistentFlags().Lookup("snapshot-path"))

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// Execute is the main entry point for the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// waitForShutdownSignal blocks until SIGINT or SIGTERM is received.
func waitForShutdownSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}
