package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wile/rsgauges-config/internal/settings"
)

// DefaultDebounce collapses editor save bursts into a single change event.
const DefaultDebounce = 500 * time.Millisecond

// ErrAlreadyStarted is returned when Start is called on a running watcher.
var ErrAlreadyStarted = errors.New("watcher already started")

// Notifier receives change events.
type Notifier func(settings.ChangeEvent)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher detects modifications of a store file made outside this process
// and reports them as change events for one namespace.
type Watcher struct {
	path      string
	namespace string
	notify    Notifier
	debounce  time.Duration
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a watcher for the file at path. Nothing is watched until Start.
func New(path, namespace string, notify Notifier, opts ...Option) *Watcher {
	w := &Watcher{
		path:      filepath.Clean(path),
		namespace: namespace,
		notify:    notify,
		debounce:  DefaultDebounce,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The parent directory is watched rather than the
// file itself so that atomic replacements keep being observed. The watcher
// stops when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch store directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	w.logger.Info("watching store file for changes", zap.String("path", w.path))
	go w.loop(ctx, fsw)

	return nil
}

// Stop terminates a started watcher and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	defer func() {
		_ = fsw.Close()
	}()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("store watcher stopped")
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			w.logger.Debug("store file changed", zap.String("op", event.Op.String()))

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.notify(settings.ChangeEvent{Namespace: w.namespace})

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("store watcher error", zap.Error(err))
		}
	}
}
