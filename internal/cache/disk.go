package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	indexFile = "clips.index"

	// Clips smaller than this are stored as is.
	minCompressSize = 1024
)

// DiskCache stores clips as files in a directory, optionally compressed
// with zstd. The index is kept in memory and persisted with gob on Flush
// and Close.
type DiskCache struct {
	mu       sync.Mutex
	dir      string
	capacity int64
	size     int64
	index    map[string]*diskEntry
	dirty    bool
	closed   bool
	now      func() time.Time

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	hits, misses, evictions int64
}

type diskEntry struct {
	Key        string
	File       string // base name inside dir
	Size       int64  // bytes on disk
	RawSize    int64
	Compressed bool
	AddedAt    time.Time
	LastAccess time.Time
}

// NewDiskCache opens (or creates) a disk cache in dir. A compression level
// of 0 disables compression.
func NewDiskCache(dir string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
		now:      time.Now,
	}

	if compressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
	}
	// The decoder is always available so clips written with compression
	// can be read back after the level is set to 0.
	var err error
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	if err := dc.loadIndex(); err != nil {
		// Start empty on a corrupt index.
		dc.index = make(map[string]*diskEntry)
	}
	for _, e := range dc.index {
		dc.size += e.Size
	}

	return dc, nil
}

// Dir returns the directory holding the clips.
func (dc *DiskCache) Dir() string { return dc.dir }

// Get reads and decompresses the clip stored under key. Entries whose file
// vanished or fails to decode are dropped.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	e, ok := dc.index[key]
	if !ok || dc.closed {
		dc.misses++
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(dc.dir, e.File))
	if err == nil && e.Compressed {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		dc.drop(key, e)
		dc.misses++
		return nil, false
	}

	e.LastAccess = dc.now()
	dc.dirty = true
	dc.hits++
	return data, true
}

// Put writes value under key, evicting least recently accessed clips until
// it fits.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return ErrClosed
	}

	data := value
	compressed := false
	if dc.encoder != nil && len(value) > minCompressSize {
		if c := dc.encoder.EncodeAll(value, nil); len(c) < len(value) {
			data, compressed = c, true
		}
	}

	n := int64(len(data))
	if n > dc.capacity {
		return ErrItemTooLarge
	}

	if old, ok := dc.index[key]; ok {
		dc.drop(key, old)
	}
	for dc.size+n > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	name := fileName(key)
	if err := writeFileAtomic(filepath.Join(dc.dir, name), data); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	now := dc.now()
	dc.index[key] = &diskEntry{
		Key:        key,
		File:       name,
		Size:       n,
		RawSize:    int64(len(value)),
		Compressed: compressed,
		AddedAt:    now,
		LastAccess: now,
	}
	dc.size += n
	dc.dirty = true
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if e, ok := dc.index[key]; ok {
		dc.drop(key, e)
	}
	return nil
}

// Clear removes every clip and persists the empty index.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	var errs []error
	for _, e := range dc.index {
		if err := os.Remove(filepath.Join(dc.dir, e.File)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	dc.index = make(map[string]*diskEntry)
	dc.size = 0
	dc.dirty = true

	if err := dc.saveIndex(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	_, ok := dc.index[key]
	return ok
}

func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	return Stats{
		Level:     LevelDisk,
		Capacity:  dc.capacity,
		Size:      dc.size,
		Items:     len(dc.index),
		Hits:      dc.hits,
		Misses:    dc.misses,
		Evictions: dc.evictions,
	}
}

// RemoveOlderThan drops clips added before cutoff.
func (dc *DiskCache) RemoveOlderThan(cutoff time.Time) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	removed := 0
	for key, e := range dc.index {
		if e.AddedAt.Before(cutoff) {
			dc.drop(key, e)
			removed++
		}
	}
	return removed
}

// Keys returns the cached keys, least recently accessed first.
func (dc *DiskCache) Keys() []string {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entries := make([]*diskEntry, 0, len(dc.index))
	for _, e := range dc.index {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Flush persists the index if it changed.
func (dc *DiskCache) Flush() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if !dc.dirty {
		return nil
	}
	return dc.saveIndex()
}

// Close persists the index and releases the encoder.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return nil
	}
	dc.closed = true

	err := dc.saveIndex()
	if dc.encoder != nil {
		_ = dc.encoder.Close()
	}
	dc.decoder.Close()
	return err
}

// drop must be called with dc.mu held.
func (dc *DiskCache) drop(key string, e *diskEntry) {
	_ = os.Remove(filepath.Join(dc.dir, e.File))
	delete(dc.index, key)
	dc.size -= e.Size
	dc.dirty = true
}

func (dc *DiskCache) evictOldest() {
	var oldest *diskEntry
	for _, e := range dc.index {
		if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
			oldest = e
		}
	}
	if oldest != nil {
		dc.drop(oldest.Key, oldest)
		dc.evictions++
	}
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	index := make(map[string]*diskEntry)
	if err := gob.NewDecoder(f).Decode(&index); err != nil {
		return fmt.Errorf("decode cache index: %w", err)
	}
	dc.index = index
	return nil
}

func (dc *DiskCache) saveIndex() error {
	path := filepath.Join(dc.dir, indexFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(f).Encode(dc.index)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save cache index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	dc.dirty = false
	return nil
}

func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16]) + ".clip"
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
