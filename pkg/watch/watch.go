// Package watch reports changes to a node file.
//
// The watcher observes the file's directory rather than the file itself,
// so editors that save by writing a temp file and renaming it are still
// seen. Bursts of events are coalesced into one [Event] per quiet period.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 100 * time.Millisecond

// Event is one coalesced change to the watched file.
type Event struct {
	Path string
	Time time.Time
}

// Watcher watches a single file.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   *log.Logger
	events   chan Event
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option { return func(w *Watcher) { w.debounce = d } }

// WithLogger logs watcher errors to l.
func WithLogger(l *log.Logger) Option { return func(w *Watcher) { w.logger = l } }

// New creates a watcher for path. Call Run to start delivering events.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: DefaultDebounce,
		logger:   log.Default(),
		events:   make(chan Event, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Events returns the channel of coalesced changes. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event { return w.events }

// Run delivers events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.watcher.Close()

	flush := time.NewTimer(w.debounce)
	flush.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			pending = true
			flush.Reset(w.debounce)

		case <-flush.C:
			if !pending {
				continue
			}
			pending = false
			// Drop a stale undelivered event; the newer one supersedes it.
			select {
			case <-w.events:
			default:
			}
			w.events <- Event{Path: w.path, Time: time.Now()}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}
