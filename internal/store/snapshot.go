package store

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SaveSnapshot writes every member of z, in level-0 (ascending score) order,
// to path as "score: member\n" lines — the optional on-disk text format of
// spec.md §4.3/§6, a hard failure on I/O error.
func SaveSnapshot(z *SortedSet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store: create snapshot %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var writeErr error
	z.LevelZero(func(score int64, member string) {
		if writeErr != nil {
			return
		}
		_, writeErr = fmt.Fprintf(w, "%d: %s\n", score, member)
	})
	if writeErr != nil {
		return fmt.Errorf("store: write snapshot %s: %w", path, writeErr)
	}
	return w.Flush()
}

// LoadSnapshot reads a snapshot previously written by SaveSnapshot and
// inserts every entry into z. A missing file is non-fatal and returns nil;
// malformed lines are skipped without error. Only a failure to open an
// existing file or to read it is returned as an error. The delimiter is the
// first ':' followed by one space, per skiplist.h's GetKeyValueFromString.
func LoadSnapshot(z *SortedSet, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("store: open snapshot %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		score, member, ok := parseSnapshotLine(line)
		if !ok {
			continue
		}
		z.ZAdd(score, member)
	}
	return scanner.Err()
}

func parseSnapshotLine(line string) (int64, string, bool) {
	idx := strings.Index(line, ": ")
	if idx < 0 {
		return 0, "", false
	}
	scoreStr, member := line[:idx], line[idx+2:]
	if scoreStr == "" || member == "" {
		return 0, "", false
	}
	score, err := strconv.ParseInt(scoreStr, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return score, member, true
}
