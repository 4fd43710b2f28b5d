package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/oshokin/asset-sync/internal/domain/asset"
	"github.com/oshokin/asset-sync/internal/logger"
)

// MarkerFilename is the run marker kept in the base directory while an update is in progress.
const MarkerFilename = ".asset-sync.pid"

// Marker guards against two processes updating the same project at once.
// The marker file holds the PID of its owner; a marker whose owner is gone is stale.
type Marker struct {
	path string
}

// NewMarker returns a Marker stored at path.
func NewMarker(path string) *Marker {
	return &Marker{path: path}
}

// Acquire creates the marker, removing a stale one first.
// A marker owned by a live process yields asset.ErrAlreadyRunning.
func (m *Marker) Acquire(ctx context.Context) error {
	logger.Info(ctx, "Checking for the presence of a run marker")

	if m.isHeld(ctx) {
		return fmt.Errorf("marker %s: %w", m.path, asset.ErrAlreadyRunning)
	}

	file, err := os.OpenFile(m.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("marker %s: %w", m.path, asset.ErrAlreadyRunning)
		}

		return fmt.Errorf("create run marker: %w", err)
	}

	if _, err = file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		_ = os.Remove(m.path)

		return fmt.Errorf("write run marker: %w", err)
	}

	return file.Close()
}

// Release removes the marker.
func (m *Marker) Release(ctx context.Context) {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove run marker", "path", m.path, "error", err)
	}
}

// isHeld reports whether a live process owns the marker. Stale markers are removed.
func (m *Marker) isHeld(ctx context.Context) bool {
	contents, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Run marker not found, continuing")
		return false
	}

	if err != nil {
		logger.Infof(ctx, "Unable to read run marker: %v", err)
		return true
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err == nil && pid > 0 {
		process, findErr := ps.FindProcess(pid)
		if findErr == nil && process != nil {
			logger.InfoKV(ctx, "Run marker is held", "pid", pid, "executable", process.Executable())
			return true
		}
	}

	logger.InfoKV(ctx, "The run marker is stale, removing it", "path", m.path)

	if err = os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return true
	}

	return false
}
