package cache

import (
	"container/list"
	"sync"
	"time"
)

// MemoryStore is the L1 tier: a byte-bounded LRU over recently used
// lesson documents.
type MemoryStore struct {
	capacity int64
	size     int64

	items    map[string]*list.Element
	eviction *list.List

	mu    sync.Mutex
	stats Stats
}

type memoryEntry struct {
	key       string
	value     []byte
	size      int64
	timestamp time.Time
	hits      int64
}

// NewMemoryStore creates a memory store bounded to capacity bytes.
func NewMemoryStore(capacity int64) *MemoryStore {
	return &MemoryStore{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats:    Stats{Capacity: capacity},
	}
}

// Get retrieves a value and marks it most recently used.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		m.stats.Misses++
		return nil, false
	}

	m.eviction.MoveToFront(elem)
	entry := elem.Value.(*memoryEntry)
	entry.hits++

	m.stats.Hits++
	m.stats.LastAccess = time.Now()
	return entry.value, true
}

// Put stores a value, evicting least recently used entries to make room.
func (m *MemoryStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	valueSize := int64(len(value))

	if elem, ok := m.items[key]; ok {
		m.eviction.MoveToFront(elem)
		entry := elem.Value.(*memoryEntry)
		m.size += valueSize - entry.size
		entry.value = value
		entry.size = valueSize
		entry.timestamp = time.Now()
		m.stats.Size = m.size
		return nil
	}

	if valueSize > m.capacity {
		return ErrTooLarge
	}

	for m.size+valueSize > m.capacity && m.eviction.Len() > 0 {
		m.evictOldest()
	}

	elem := m.eviction.PushFront(&memoryEntry{
		key:       key,
		value:     value,
		size:      valueSize,
		timestamp: time.Now(),
	})
	m.items[key] = elem
	m.size += valueSize
	m.stats.Size = m.size
	return nil
}

// Delete removes an entry. Missing keys are not an error.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.removeElement(elem)
	}
	return nil
}

// Clear removes all entries.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]*list.Element)
	m.eviction.Init()
	m.size = 0
	m.stats.Size = 0
	return nil
}

// Size returns the current size in bytes.
func (m *MemoryStore) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Contains reports whether a key is present without touching LRU order.
func (m *MemoryStore) Contains(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

// Stats returns a snapshot of the tier's metrics.
func (m *MemoryStore) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats
	stats.Size = m.size
	stats.ItemCount = int64(len(m.items))
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// Prune removes entries older than maxAge and returns how many went.
func (m *MemoryStore) Prune(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	pruned := 0

	elem := m.eviction.Back()
	for elem != nil {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry).timestamp.Before(cutoff) {
			m.removeElement(elem)
			pruned++
		}
		elem = prev
	}
	return pruned
}

// evictOldest and removeElement require the lock to be held.

func (m *MemoryStore) evictOldest() {
	if elem := m.eviction.Back(); elem != nil {
		m.removeElement(elem)
		m.stats.Evictions++
		m.stats.LastEvict = time.Now()
	}
}

func (m *MemoryStore) removeElement(elem *list.Element) {
	m.eviction.Remove(elem)
	entry := elem.Value.(*memoryEntry)
	delete(m.items, entry.key)
	m.size -= entry.size
	m.stats.Size = m.size
}
