package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrTooLarge is returned when an item exceeds the tier's capacity.
	ErrTooLarge = errors.New("item too large for cache")

	// ErrCorrupted is returned when stored data cannot be decoded.
	ErrCorrupted = errors.New("cache data corrupted")
)

// Level identifies a cache tier.
type Level int

const (
	// LevelMemory is the in-process LRU tier.
	LevelMemory Level = iota
	// LevelDisk is the persistent compressed tier.
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds per-tier cache metrics.
type Stats struct {
	Capacity  int64
	Size      int64
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64

	LastAccess time.Time
	LastEvict  time.Time
}

// Config holds cache configuration.
type Config struct {
	// MemoryCapacity bounds the L1 tier in bytes.
	MemoryCapacity int64

	// DiskCapacity bounds the L2 tier in bytes. DiskPath is the cache
	// directory; CompressionLevel is the zstd level, zero disables
	// compression.
	DiskCapacity     int64
	DiskPath         string
	CompressionLevel int

	// TTLDays ages entries out of the disk tier. CleanupInterval is how
	// often the manager sweeps; zero disables the sweeper.
	TTLDays         int
	CleanupInterval time.Duration
}

// DefaultConfig returns capacities sized for lesson documents, which run
// a few tens of kilobytes each.
func DefaultConfig() *Config {
	return &Config{
		MemoryCapacity:   16 * 1024 * 1024,
		DiskCapacity:     128 * 1024 * 1024,
		CompressionLevel: 3,
		TTLDays:          30,
		CleanupInterval:  time.Hour,
	}
}

// GenerateKey derives a stable cache key from the parameters that shape a
// generated lesson. Topic casing and surrounding space do not produce
// distinct keys.
func GenerateKey(topic, level, language, kind string, slideCount int) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		strings.ToLower(strings.TrimSpace(topic)), level, language, kind, slideCount)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
