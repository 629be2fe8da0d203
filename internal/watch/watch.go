package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rjeczalik/notify"
)

const (
	DefaultDebounce = 5 * time.Second
	eventBufferSize = 256
)

// FilterCallback returns true for paths whose events should not trigger a run
type FilterCallback func(path string) bool

// Watcher calls back once filesystem activity under a directory has settled
type Watcher struct {
	root     string
	debounce time.Duration
	filter   FilterCallback
}

func New(root string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: root, debounce: debounce}
}

func (w *Watcher) FilterPaths(filter FilterCallback) {
	w.filter = filter
}

// Run blocks until ctx is done. onChange is never called concurrently with itself.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	rawEvents := make(chan notify.EventInfo, eventBufferSize)
	if err := notify.Watch(filepath.Join(w.root, "..."), rawEvents, notify.All); err != nil {
		return err
	}
	defer notify.Stop(rawEvents)

	slog.Info("file watcher start", "dir", w.root, "debounce", w.debounce)

	paths := make(chan string, eventBufferSize)
	go func() {
		defer close(paths)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-rawEvents:
				select {
				case paths <- ev.Path():
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	err := w.loop(ctx, paths, onChange)
	slog.Info("file watcher stopped")
	return err
}

// loop resets a single timer on every accepted event and fires onChange when it expires
func (w *Watcher) loop(ctx context.Context, paths <-chan string, onChange func(ctx context.Context)) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := 0
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case path, ok := <-paths:
			if !ok {
				return nil
			}
			if w.filter != nil && w.filter(path) {
				continue
			}
			if pending == 0 {
				slog.Debug("file watcher", "path", path, "message", "change detected")
			}
			pending++
			timer.Reset(w.debounce)

		case <-timer.C:
			slog.Debug("file watcher", "events", pending, "message", "changes settled")
			pending = 0
			onChange(ctx)
		}
	}
}
