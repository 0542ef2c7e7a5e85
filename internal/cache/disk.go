package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// compressFloor skips compression for payloads too small to benefit.
const compressFloor = 1024

// DiskStore is the L2 tier: lesson documents persisted under hashed file
// names with optional zstd compression and a gob-encoded index.
type DiskStore struct {
	basePath string
	capacity int64
	size     int64

	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder

	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats
}

// diskEntry fields are exported for gob.
type diskEntry struct {
	Key          string
	FilePath     string
	Size         int64
	OriginalSize int64
	Timestamp    time.Time
	LastAccess   time.Time
	Hits         int64
	Compressed   bool
}

// NewDiskStore opens (or creates) a disk store rooted at basePath. A
// compressionLevel of zero disables compression.
func NewDiskStore(basePath string, capacity int64, compressionLevel int) (*DiskStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	d := &DiskStore{
		basePath: basePath,
		capacity: capacity,
		compress: compressionLevel > 0,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Capacity: capacity},
	}

	if d.compress {
		var err error
		d.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		d.decoder, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
	}

	// A missing or unreadable index just means a cold start.
	if err := d.loadIndex(); err != nil {
		d.index = make(map[string]*diskEntry)
	}
	d.recalculateSize()

	return d, nil
}

// Get retrieves a value, transparently decompressing it. Entries whose
// backing file is missing or undecodable are dropped from the index.
func (d *DiskStore) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.index[key]
	if !ok {
		d.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.FilePath)
	if err != nil {
		d.dropLocked(key, entry)
		d.stats.Misses++
		return nil, false
	}

	if entry.Compressed && d.compress {
		decompressed, err := d.decoder.DecodeAll(data, nil)
		if err != nil {
			os.Remove(entry.FilePath)
			d.dropLocked(key, entry)
			d.stats.Misses++
			return nil, false
		}
		data = decompressed
	}

	entry.LastAccess = time.Now()
	entry.Hits++
	d.stats.Hits++
	d.stats.LastAccess = entry.LastAccess

	return data, true
}

// Put stores a value, compressing it when that actually shrinks it, and
// evicts least recently used entries to stay within capacity.
func (d *DiskStore) Put(key string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	originalSize := int64(len(value))
	payload := value
	compressed := false
	if d.compress && originalSize > compressFloor {
		if packed := d.encoder.EncodeAll(value, nil); len(packed) < len(value) {
			payload = packed
			compressed = true
		}
	}
	diskSize := int64(len(payload))

	if existing, ok := d.index[key]; ok {
		os.Remove(existing.FilePath)
		d.dropLocked(key, existing)
	}

	if diskSize > d.capacity {
		return ErrTooLarge
	}
	for d.size+diskSize > d.capacity && len(d.index) > 0 {
		d.evictOldest()
	}

	filePath := d.filePathFor(key)
	if err := writeFileAtomic(filePath, payload); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	now := time.Now()
	d.index[key] = &diskEntry{
		Key:          key,
		FilePath:     filePath,
		Size:         diskSize,
		OriginalSize: originalSize,
		Timestamp:    now,
		LastAccess:   now,
		Compressed:   compressed,
	}
	d.size += diskSize
	d.stats.Size = d.size
	d.stats.ItemCount = int64(len(d.index))

	return nil
}

// Delete removes an entry and its backing file.
func (d *DiskStore) Delete(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.index[key]; ok {
		os.Remove(entry.FilePath)
		d.dropLocked(key, entry)
	}
	return nil
}

// Clear removes every entry and persists the empty index.
func (d *DiskStore) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range d.index {
		os.Remove(entry.FilePath)
	}
	d.index = make(map[string]*diskEntry)
	d.size = 0
	d.stats.Size = 0
	d.stats.ItemCount = 0

	return d.saveIndexLocked()
}

// Size returns the on-disk size in bytes.
func (d *DiskStore) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Contains reports whether a key is indexed without touching access time.
func (d *DiskStore) Contains(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.index[key]
	return ok
}

// Stats returns a snapshot of the tier's metrics.
func (d *DiskStore) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := d.stats
	stats.Size = d.size
	stats.ItemCount = int64(len(d.index))
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// RemoveOlderThan deletes entries stored before cutoff and returns how
// many went.
func (d *DiskStore) RemoveOlderThan(cutoff time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for key, entry := range d.index {
		if entry.Timestamp.Before(cutoff) {
			os.Remove(entry.FilePath)
			d.dropLocked(key, entry)
			removed++
		}
	}
	return removed
}

// Close persists the index.
func (d *DiskStore) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saveIndexLocked()
}

func (d *DiskStore) filePathFor(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(d.basePath, hex.EncodeToString(hash[:16])+".cache")
}

func (d *DiskStore) dropLocked(key string, entry *diskEntry) {
	delete(d.index, key)
	d.size -= entry.Size
	d.stats.Size = d.size
	d.stats.ItemCount = int64(len(d.index))
}

func (d *DiskStore) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range d.index {
		if oldestKey == "" || entry.LastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastAccess
		}
	}
	if oldestKey == "" {
		return
	}

	entry := d.index[oldestKey]
	os.Remove(entry.FilePath)
	d.dropLocked(oldestKey, entry)
	d.stats.Evictions++
	d.stats.LastEvict = time.Now()
}

func (d *DiskStore) indexPath() string {
	return filepath.Join(d.basePath, "lessons.index")
}

func (d *DiskStore) loadIndex() error {
	file, err := os.Open(d.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(&d.index); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return nil
}

func (d *DiskStore) saveIndexLocked() error {
	tempPath := d.indexPath() + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	err = gob.NewEncoder(file).Encode(d.index)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, d.indexPath())
}

func (d *DiskStore) recalculateSize() {
	d.size = 0
	for _, entry := range d.index {
		d.size += entry.Size
	}
	d.stats.Size = d.size
	d.stats.ItemCount = int64(len(d.index))
}

// writeFileAtomic writes via a temp file and rename so readers never see
// a partial cache file.
func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, path)
}
