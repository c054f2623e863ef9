package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/par-builder/internal/logger"
)

// SweepStale removes extraction directories under root left behind by
// processes that no longer run, e.g. after a crash or SIGKILL.
// It returns the number of removed directories.
func SweepStale(ctx context.Context, root string) (int, error) {
	if root == "" {
		root = os.TempDir()
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}

		return 0, fmt.Errorf("list extraction root: %w", err)
	}

	processList, err := ps.Processes()
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}

	alive := make(map[int]struct{}, len(processList))
	for _, process := range processList {
		alive[process.Pid()] = struct{}{}
	}

	alive[os.Getpid()] = struct{}{}

	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pid, ok := ownerPID(entry.Name())
		if !ok {
			continue
		}

		if _, running := alive[pid]; running {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		if err = os.RemoveAll(dir); err != nil {
			logger.WarnKV(ctx, "Unable to remove stale extraction directory", "dir", dir, "error", err)
			continue
		}

		logger.DebugKV(ctx, "Removed stale extraction directory", "dir", dir, "pid", pid)

		removed++
	}

	return removed, nil
}

// ownerPID parses "par-extract-<pid>-<suffix>".
func ownerPID(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, ExtractDirPrefix)
	if !ok {
		return 0, false
	}

	digits, _, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, false
	}

	pid, err := strconv.Atoi(digits)
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}
