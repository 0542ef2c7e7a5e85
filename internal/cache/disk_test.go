package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestDiskStore_RoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 10*1024, 3)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	defer store.Close()

	key := "lesson-key"
	value := []byte(`{"title":"Photosynthesis","slides":[]}`)

	if err := store.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	retrieved, ok := store.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if !bytes.Equal(retrieved, value) {
		t.Errorf("retrieved value mismatch: got %s, want %s", retrieved, value)
	}
}

func TestDiskStore_CompressionRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 1024*1024, 3)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	defer store.Close()

	// Repetitive payload over the compression floor compresses well.
	value := bytes.Repeat([]byte("the quick brown fox "), 200)
	if err := store.Put("big", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if got := store.Size(); got >= int64(len(value)) {
		t.Errorf("on-disk size %d not smaller than original %d", got, len(value))
	}

	retrieved, ok := store.Get("big")
	if !ok {
		t.Fatal("Get failed after compression")
	}
	if !bytes.Equal(retrieved, value) {
		t.Error("decompressed value differs from original")
	}
}

func TestDiskStore_IndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewDiskStore(dir, 10*1024, 3)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	if err := store.Put("persist", []byte("value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewDiskStore(dir, 10*1024, 3)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	retrieved, ok := reopened.Get("persist")
	if !ok {
		t.Fatal("key lost across reopen")
	}
	if string(retrieved) != "value" {
		t.Errorf("retrieved value = %s, want value", retrieved)
	}
}

func TestDiskStore_RemoveOlderThan(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 10*1024, 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	defer store.Close()

	store.Put("old", []byte("old"))
	store.Put("new", []byte("new"))

	// Backdate one entry past the cutoff.
	store.mu.Lock()
	store.index["old"].Timestamp = time.Now().Add(-48 * time.Hour)
	store.mu.Unlock()

	removed := store.RemoveOlderThan(time.Now().Add(-24 * time.Hour))
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if store.Contains("old") {
		t.Error("expired entry still present")
	}
	if !store.Contains("new") {
		t.Error("fresh entry was removed")
	}
}

func TestDiskStore_EvictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 100, 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	defer store.Close()

	store.Put("a", make([]byte, 40))
	store.Put("b", make([]byte, 40))

	// Touch "a" so "b" is the eviction candidate.
	store.mu.Lock()
	store.index["a"].LastAccess = time.Now()
	store.index["b"].LastAccess = time.Now().Add(-time.Hour)
	store.mu.Unlock()

	store.Put("c", make([]byte, 40))

	if store.Contains("b") {
		t.Error("least recently used entry survived")
	}
	if !store.Contains("a") || !store.Contains("c") {
		t.Error("wrong entry evicted")
	}
}
