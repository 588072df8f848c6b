package storage

import (
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStorageReadWrite(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage(map[string]string{"a": "1"})

	value, ok, err := store.Read("a")
	if err != nil || !ok || value != "1" {
		t.Fatalf("expected seeded value, got %q ok=%v err=%v", value, ok, err)
	}
	if _, ok, _ := store.Read("missing"); ok {
		t.Fatalf("expected missing key to be absent")
	}

	if err := store.Write("b", "true"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value, ok, _ := store.Read("b"); !ok || value != "true" {
		t.Fatalf("expected written value, got %q", value)
	}

	store.Delete("a")
	if _, ok, _ := store.Read("a"); ok {
		t.Fatalf("expected deleted key to be absent")
	}
}

func TestMemoryStorageIsolatesSeedAndSnapshot(t *testing.T) {
	t.Parallel()

	seed := map[string]string{"a": "1"}
	store := NewMemoryStorage(seed)
	seed["a"] = "2"

	snapshot := store.Snapshot()
	if snapshot["a"] != "1" {
		t.Fatalf("expected seed to be copied, got %q", snapshot["a"])
	}

	// ensure mutation safety
	snapshot["a"] = "3"
	if value, _, _ := store.Read("a"); value != "1" {
		t.Fatalf("expected defensive copy, got %q", value)
	}
}

func TestMemoryStorageConcurrentAccess(t *testing.T) {
	store := NewMemoryStorage(nil)
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(offset int) {
			defer wg.Done()
			if err := store.Write(fmt.Sprintf("key_%d", offset%4), fmt.Sprint(offset)); err != nil {
				t.Errorf("Write failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			if _, _, err := store.Read("key_0"); err != nil {
				t.Errorf("Read failed: %v", err)
			}
		}()
	}

	wg.Wait()

	if got := len(store.Snapshot()); got != 4 {
		t.Fatalf("expected 4 keys, got %d", got)
	}
}
