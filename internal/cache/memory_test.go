package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStore_BasicOperations(t *testing.T) {
	store := NewMemoryStore(1024)

	key := "lesson-key"
	value := []byte(`{"title":"Photosynthesis"}`)

	if err := store.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	retrieved, ok := store.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(retrieved) != string(value) {
		t.Errorf("retrieved value mismatch: got %s, want %s", retrieved, value)
	}

	if !store.Contains(key) {
		t.Error("Contains returned false for existing key")
	}
	if got, want := store.Size(), int64(len(value)); got != want {
		t.Errorf("Size = %d, want %d", got, want)
	}

	if err := store.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Contains(key) {
		t.Error("key still exists after delete")
	}
	if store.Size() != 0 {
		t.Errorf("Size after delete = %d, want 0", store.Size())
	}
}

func TestMemoryStore_LRUEviction(t *testing.T) {
	store := NewMemoryStore(100)

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("key-%d", i)
		if err := store.Put(key, make([]byte, 20)); err != nil {
			t.Fatalf("Put failed for %s: %v", key, err)
		}
	}

	// Touch key-0 and key-1 so key-2 becomes the eviction candidate.
	store.Get("key-0")
	store.Get("key-1")

	if err := store.Put("key-new", make([]byte, 30)); err != nil {
		t.Fatalf("Put failed for new key: %v", err)
	}

	if store.Contains("key-2") {
		t.Error("key-2 should have been evicted")
	}
	if !store.Contains("key-0") || !store.Contains("key-1") {
		t.Error("recently used keys should have survived eviction")
	}
	if store.Stats().Evictions == 0 {
		t.Error("eviction counter not incremented")
	}
}

func TestMemoryStore_ItemTooLarge(t *testing.T) {
	store := NewMemoryStore(100)

	if err := store.Put("large", make([]byte, 200)); err != ErrTooLarge {
		t.Errorf("Put oversized item error = %v, want %v", err, ErrTooLarge)
	}
}

func TestMemoryStore_UpdateExisting(t *testing.T) {
	store := NewMemoryStore(1024)

	key := "update-key"
	if err := store.Put(key, []byte("original")); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if err := store.Put(key, []byte("updated-value")); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	retrieved, ok := store.Get(key)
	if !ok {
		t.Fatal("Get failed after update")
	}
	if string(retrieved) != "updated-value" {
		t.Errorf("retrieved value = %s, want updated-value", retrieved)
	}
	if got, want := store.Size(), int64(len("updated-value")); got != want {
		t.Errorf("Size after update = %d, want %d", got, want)
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	store := NewMemoryStore(1024)

	store.Put("key", []byte("value"))
	store.Get("key")
	store.Get("missing")

	stats := store.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats hits/misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("hit rate = %f, want 0.5", stats.HitRate)
	}
	if stats.ItemCount != 1 {
		t.Errorf("item count = %d, want 1", stats.ItemCount)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(10 * 1024)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j)
				store.Put(key, []byte("value"))
				store.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if store.Size() == 0 {
		t.Error("store empty after concurrent writes")
	}
}
