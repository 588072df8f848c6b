package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/wile/rsgauges-config/internal/settings"
)

func startWatcher(t *testing.T, path string, debounce time.Duration) (*Watcher, <-chan settings.ChangeEvent) {
	t.Helper()

	events := make(chan settings.ChangeEvent, 16)
	w := New(path, "rsgauges", func(ev settings.ChangeEvent) { events <- ev },
		WithDebounce(debounce),
		WithLogger(zaptest.NewLogger(t)),
	)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, events
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestWatcherEmitsNamespacedEvent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := filepath.Join(t.TempDir(), "settings.yaml")
	w, events := startWatcher(t, path, 20*time.Millisecond)

	writeFile(t, path, "rsgauges:\n  gauge_update_interval: 9\n")

	select {
	case ev := <-events:
		if ev.Namespace != "rsgauges" {
			t.Fatalf("expected namespace rsgauges, got %q", ev.Namespace)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected change event")
	}

	w.Stop()
}

func TestWatcherDebouncesBursts(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := filepath.Join(t.TempDir(), "settings.yaml")
	w, events := startWatcher(t, path, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		writeFile(t, path, "rsgauges: {}\n")
	}

	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected change event")
	}
	select {
	case <-events:
		t.Fatalf("expected a single event for a burst of writes")
	case <-time.After(400 * time.Millisecond):
	}

	w.Stop()
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	w, events := startWatcher(t, filepath.Join(dir, "settings.yaml"), 20*time.Millisecond)

	writeFile(t, filepath.Join(dir, "other.yaml"), "x: 1\n")

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}

	w.Stop()
}

func TestWatcherStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	w := New(filepath.Join(t.TempDir(), "settings.yaml"), "rsgauges", func(settings.ChangeEvent) {})
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := w.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}

	cancel()
	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected watcher loop to exit after cancellation")
	}
	w.Stop()
}

func TestWatcherStartFailsForMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "settings.yaml"), "rsgauges", func(settings.ChangeEvent) {})
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatalf("expected error for missing directory")
	}
}
