// Package watcher reloads an outline file when it changes on disk.
//
// Editors write files in bursts (truncate, write, rename), so events are
// debounced: the outline is parsed once the file has been quiet for the
// debounce duration. The watcher observes the file's directory rather than
// the file itself so that atomic saves, which replace the inode, keep
// being seen.
package watcher

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/nodemap/pkg/outline"
)

// DefaultDebounceDuration is the default quiet period before a reload.
const DefaultDebounceDuration = 200 * time.Millisecond

// ErrFileRemoved is reported when the watched file disappears.
var ErrFileRemoved = errors.New("watched file was removed")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnChange sets the callback invoked with each successfully parsed
// version of the file.
func WithOnChange(fn func(*outline.Document)) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on parse and watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// Watcher monitors an outline file.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*outline.Document)
	onError  func(error)
	logger   *log.Logger
}

// New creates a watcher for the outline at path. The format is detected
// from the extension once, up front.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := outline.DetectFormat(abs); err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounceDuration,
		onChange: func(*outline.Document) {},
		onError:  func(error) {},
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

// Run watches until ctx is done. Callbacks run on Run's goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Debug("watching outline", "path", w.path)

	target := filepath.Base(w.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		return
	}
	doc, err := outline.ParseFile(w.path)
	if err != nil {
		w.logger.Warn("outline reload failed", "path", w.path, "err", err)
		w.onError(err)
		return
	}
	w.logger.Debug("outline reloaded", "path", w.path, "items", doc.Len())
	w.onChange(doc)
}
