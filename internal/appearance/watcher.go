package appearance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vesaa/calqshell/internal/prefs"
	"go.uber.org/zap"
)

// ReadFile reads a scheme from path. The file holds "light" or "dark".
func ReadFile(path string) (prefs.Scheme, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return prefs.ParseScheme(strings.ToLower(strings.TrimSpace(string(b))))
}

// Watcher feeds a file's scheme into a callback whenever the file changes.
// It watches the parent directory so atomic replace-by-rename is seen, and
// falls back to polling when fsnotify is unavailable.
type Watcher struct {
	path     string
	interval time.Duration
	apply    func(prefs.Scheme)
	log      *zap.Logger
}

// NewWatcher creates a watcher on path. interval is the polling period used
// alongside (or instead of) fsnotify.
func NewWatcher(path string, interval time.Duration, apply func(prefs.Scheme), log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{path: path, interval: interval, apply: apply, log: log.Named("appearance")}
}

// Watch blocks until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	if w.path == "" {
		return errors.New("appearance watcher: empty path")
	}
	w.load()

	var events <-chan fsnotify.Event
	var errs <-chan error
	fw, err := fsnotify.NewWatcher()
	if err == nil {
		defer fw.Close()
		if addErr := fw.Add(filepath.Dir(w.path)); addErr != nil {
			w.log.Warn("fsnotify unavailable, polling only", zap.Error(addErr))
		} else {
			events, errs = fw.Events, fw.Errors
		}
	} else {
		w.log.Warn("fsnotify unavailable, polling only", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	name := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.load()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.log.Warn("fsnotify error", zap.Error(err))
		case <-ticker.C:
			w.load()
		}
	}
}

func (w *Watcher) load() {
	s, err := ReadFile(w.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.log.Warn("unreadable appearance file", zap.String("path", w.path), zap.Error(err))
		}
		return
	}
	w.apply(s)
}
