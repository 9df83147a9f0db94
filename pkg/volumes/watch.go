// pkg/volumes/watch.go

package volumes

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// MountRoots lists the directories removable media usually appear under.
// Only the ones that exist are returned.
func MountRoots() []string {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{"/Volumes"}
	case "windows":
		return nil
	default:
		candidates = []string{"/media", "/mnt", "/run/media"}
		if user := os.Getenv("USER"); user != "" {
			candidates = append(candidates,
				filepath.Join("/media", user),
				filepath.Join("/run/media", user))
		}
	}

	var roots []string
	for _, dir := range candidates {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			roots = append(roots, dir)
		}
	}
	return roots
}

// Watch calls onChange once up front and again whenever something is
// created or removed under one of roots. Bursts of events inside settle are
// coalesced. A non-zero interval also fires onChange periodically, which
// covers platforms where mounts leave no trace in the watched directories.
// Watch returns when ctx is done.
func Watch(ctx context.Context, roots []string, settle, interval time.Duration, onChange func()) error {
	logger := otelzap.Ctx(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	for _, root := range roots {
		if err := w.Add(root); err != nil {
			logger.Warn("Cannot watch mount root", zap.String("dir", root), zap.Error(err))
			continue
		}
		logger.Debug("Watching mount root", zap.String("dir", root))
	}

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// stopped until the first event arrives
	debounce := time.NewTimer(settle)
	debounce.Stop()
	defer debounce.Stop()

	onChange()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("Mount root changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			debounce.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Mount watcher error", zap.Error(err))
		case <-debounce.C:
			onChange()
		case <-tick:
			onChange()
		case <-ctx.Done():
			return nil
		}
	}
}
