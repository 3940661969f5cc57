// Package watch invalidates the document cache when the source file changes
// on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the source must stay quiet before onChange runs.
const DefaultDebounce = 250 * time.Millisecond

// ErrNoPath is returned when there is no source file to watch.
var ErrNoPath = errors.New("watch: no source path")

// Watcher reports changes of a single file. The parent directory is watched
// so that files replaced by rename are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(context.Context)
	fsw      *fsnotify.Watcher
	log      *log.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch events.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// New starts watching path. onChange runs on the Run goroutine.
func New(path string, onChange func(context.Context), opts ...Option) (*Watcher, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		onChange: onChange,
		fsw:      fsw,
		log:      log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Run delivers debounced change notifications until ctx is cancelled, then
// releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	// fire is nil while no change is pending
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("Source changed", "path", ev.Name, "op", ev.Op.String())
			fire = time.After(w.debounce)

		case <-fire:
			fire = nil
			w.log.Info("Source file changed, invalidating cache", "path", w.path)
			if w.onChange != nil {
				w.onChange(ctx)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", "err", err)
		}
	}
}

// relevant reports whether ev changes the watched file's content.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
