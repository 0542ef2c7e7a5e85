package cache

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
)

// Manager coordinates the memory and disk tiers: reads check memory
// first and promote disk hits, writes land in memory immediately and on
// disk in the background, and a sweeper ages out expired entries.
type Manager struct {
	memory *MemoryStore
	disk   *DiskStore
	config *Config

	cleanupStop   chan struct{}
	cleanupTicker *time.Ticker
	cleanupWg     sync.WaitGroup
	writeWg       sync.WaitGroup

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates counters across tiers.
type ManagerStats struct {
	TotalHits   int64
	TotalMisses int64
	MemoryHits  int64
	DiskHits    int64
	Promotions  int64
	CleanupRuns int64
	LastCleanup time.Time

	Memory Stats
	Disk   Stats
}

// NewManager creates a manager. A nil config uses DefaultConfig; an
// unset DiskPath resolves under the user's cache directory.
func NewManager(config *Config) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.DiskPath == "" {
		config.DiskPath = defaultDiskPath()
	}

	disk, err := NewDiskStore(config.DiskPath, config.DiskCapacity, config.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("create disk cache: %w", err)
	}

	m := &Manager{
		memory:      NewMemoryStore(config.MemoryCapacity),
		disk:        disk,
		config:      config,
		cleanupStop: make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		m.startCleanup()
	}
	return m, nil
}

// Get retrieves a value, checking memory before disk. Disk hits are
// promoted into memory for the next lookup.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.mu.Lock()
		m.stats.MemoryHits++
		m.stats.TotalHits++
		m.mu.Unlock()
		return data, true
	}

	if data, ok := m.disk.Get(key); ok {
		m.mu.Lock()
		m.stats.DiskHits++
		m.stats.TotalHits++
		m.stats.Promotions++
		m.mu.Unlock()

		// Promotion is best effort.
		_ = m.memory.Put(key, data)
		return data, true
	}

	m.mu.Lock()
	m.stats.TotalMisses++
	m.mu.Unlock()
	return nil, false
}

// Put stores a value in memory immediately and writes it to disk in the
// background; Close waits for pending disk writes.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.memory.Put(key, value); err != nil && err != ErrTooLarge {
		return fmt.Errorf("memory cache: %w", err)
	}

	m.writeWg.Add(1)
	go func() {
		defer m.writeWg.Done()
		if err := m.disk.Put(key, value); err != nil && err != ErrTooLarge {
			log.Warn("disk cache write failed", "key", key, "error", err)
		}
	}()

	return nil
}

// Delete removes an entry from both tiers.
func (m *Manager) Delete(key string) error {
	if err := m.memory.Delete(key); err != nil {
		return err
	}
	return m.disk.Delete(key)
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	if err := m.memory.Clear(); err != nil {
		return err
	}
	return m.disk.Clear()
}

// Contains reports whether either tier holds the key.
func (m *Manager) Contains(key string) bool {
	return m.memory.Contains(key) || m.disk.Contains(key)
}

// Stats returns aggregated metrics with per-tier snapshots.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()

	stats.Memory = m.memory.Stats()
	stats.Disk = m.disk.Stats()
	return stats
}

// Summary renders the stats for people.
func (m *Manager) Summary() string {
	stats := m.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "memory: %d lessons, %s of %s\n",
		stats.Memory.ItemCount,
		humanize.Bytes(uint64(stats.Memory.Size)),   //nolint:gosec
		humanize.Bytes(uint64(stats.Memory.Capacity))) //nolint:gosec
	fmt.Fprintf(&b, "disk:   %d lessons, %s of %s at %s\n",
		stats.Disk.ItemCount,
		humanize.Bytes(uint64(stats.Disk.Size)),   //nolint:gosec
		humanize.Bytes(uint64(stats.Disk.Capacity)), //nolint:gosec
		m.config.DiskPath)

	if total := stats.TotalHits + stats.TotalMisses; total > 0 {
		fmt.Fprintf(&b, "hits:   %d of %d lookups (%.0f%%)\n",
			stats.TotalHits, total, float64(stats.TotalHits)/float64(total)*100)
	}
	if !stats.LastCleanup.IsZero() {
		fmt.Fprintf(&b, "swept:  %s\n", humanize.Time(stats.LastCleanup))
	}
	return b.String()
}

// Close stops the sweeper, waits for in-flight disk writes, and persists
// the disk index.
func (m *Manager) Close() error {
	if m.cleanupTicker != nil {
		close(m.cleanupStop)
		m.cleanupWg.Wait()
		m.cleanupTicker.Stop()
	}
	m.writeWg.Wait()
	return m.disk.Close()
}

func (m *Manager) startCleanup() {
	m.cleanupTicker = time.NewTicker(m.config.CleanupInterval)
	m.cleanupWg.Add(1)

	go func() {
		defer m.cleanupWg.Done()
		for {
			select {
			case <-m.cleanupTicker.C:
				m.sweep()
			case <-m.cleanupStop:
				return
			}
		}
	}()
}

func (m *Manager) sweep() {
	m.mu.Lock()
	m.stats.CleanupRuns++
	m.stats.LastCleanup = time.Now()
	m.mu.Unlock()

	if m.config.TTLDays > 0 {
		maxAge := time.Duration(m.config.TTLDays) * 24 * time.Hour
		cutoff := time.Now().Add(-maxAge)
		if removed := m.disk.RemoveOlderThan(cutoff); removed > 0 {
			log.Debug("swept expired cache entries", "removed", removed)
		}
		m.memory.Prune(maxAge)
	}
}

func defaultDiskPath() string {
	scope := gap.NewScope(gap.User, "aitutor")
	if dir, err := scope.CacheDir(); err == nil {
		return filepath.Join(dir, "lessons")
	}
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".", ".aitutor", "cache", "lessons")
	}
	return filepath.Join(home, ".aitutor", "cache", "lessons")
}
