package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var (
	// ErrItemTooLarge is returned when a clip exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache closed")
)

// Level identifies a cache tier.
type Level int

const (
	LevelMemory Level = iota
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

// Stats holds counters for a single tier.
type Stats struct {
	Level     Level
	Capacity  int64 // bytes
	Size      int64 // bytes
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Store is implemented by both tiers.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Contains(key string) bool
	Size() int64
	Stats() Stats
}

// Config configures a Manager.
type Config struct {
	MemoryCapacity   int64 // bytes; 0 disables the memory tier
	DiskCapacity     int64 // bytes; 0 disables the disk tier
	Dir              string
	CompressionLevel int           // zstd level, 0 stores clips uncompressed
	TTL              time.Duration // 0 keeps clips until evicted
}

// DefaultConfig returns a configuration with 32MB in memory and 256MB on
// disk under dir.
func DefaultConfig(dir string) Config {
	return Config{
		MemoryCapacity:   32 << 20,
		DiskCapacity:     256 << 20,
		Dir:              dir,
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
	}
}

// GenerateKey derives a stable cache key from the parts that determine a
// clip, such as model, voice, language and text.
func GenerateKey(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h.Sum(nil)[:16])
}
