package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager looks clips up in memory first, then on disk, promoting disk hits
// into memory. Writes go to both tiers.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time

	mu         sync.Mutex
	hits       int64
	misses     int64
	promotions int64
}

// ManagerStats aggregates both tiers.
type ManagerStats struct {
	Hits       int64
	Misses     int64
	Promotions int64
	Memory     Stats
	Disk       Stats
	Dir        string
}

// HitRate returns hits / (hits + misses).
func (s ManagerStats) HitRate() float64 {
	return Stats{Hits: s.Hits, Misses: s.Misses}.HitRate()
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for disk failures.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock sets the time source used for TTL pruning.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
		if m.memory != nil {
			m.memory.now = now
		}
		if m.disk != nil {
			m.disk.now = now
		}
	}
}

// NewManager creates the tiers described by cfg. Expired disk clips are
// pruned on open.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	m := &Manager{
		ttl:    cfg.TTL,
		logger: log.Default(),
		now:    time.Now,
	}

	if cfg.MemoryCapacity > 0 {
		m.memory = NewMemoryCache(cfg.MemoryCapacity)
	}
	if cfg.DiskCapacity > 0 {
		if cfg.Dir == "" {
			return nil, errors.New("cache: disk tier needs a directory")
		}
		disk, err := NewDiskCache(cfg.Dir, cfg.DiskCapacity, cfg.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		m.disk = disk
	}

	for _, opt := range opts {
		opt(m)
	}

	if removed := m.Prune(); removed > 0 {
		m.logger.Debug("Pruned expired clips", "count", removed)
	}
	return m, nil
}

// Get returns the clip for key.
func (m *Manager) Get(key string) ([]byte, bool) {
	if m.memory != nil {
		if data, ok := m.memory.Get(key); ok {
			m.count(true, false)
			return data, true
		}
	}
	if m.disk != nil {
		if data, ok := m.disk.Get(key); ok {
			promoted := false
			if m.memory != nil {
				promoted = m.memory.Put(key, data) == nil
			}
			m.count(true, promoted)
			return data, true
		}
	}
	m.count(false, false)
	return nil, false
}

// Put stores the clip in every tier it fits in. Disk failures are logged,
// not returned, so a read-only cache directory never blocks playback.
func (m *Manager) Put(key string, value []byte) error {
	if m.memory != nil {
		if err := m.memory.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
			return err
		}
	}
	if m.disk != nil {
		if err := m.disk.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
			m.logger.Warn("Could not write clip to disk cache", "key", key, "err", err)
		}
	}
	return nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) error {
	var errs []error
	if m.memory != nil {
		errs = append(errs, m.memory.Delete(key))
	}
	if m.disk != nil {
		errs = append(errs, m.disk.Delete(key))
	}
	return errors.Join(errs...)
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	var errs []error
	if m.memory != nil {
		errs = append(errs, m.memory.Clear())
	}
	if m.disk != nil {
		if err := m.disk.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("clear disk cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Prune drops clips older than the TTL from both tiers.
func (m *Manager) Prune() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	removed := 0
	if m.memory != nil {
		removed += m.memory.Prune(cutoff)
	}
	if m.disk != nil {
		removed += m.disk.RemoveOlderThan(cutoff)
	}
	return removed
}

// Stats returns counters for the manager and both tiers.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	s := ManagerStats{
		Hits:       m.hits,
		Misses:     m.misses,
		Promotions: m.promotions,
	}
	m.mu.Unlock()

	if m.memory != nil {
		s.Memory = m.memory.Stats()
	}
	if m.disk != nil {
		s.Disk = m.disk.Stats()
		s.Dir = m.disk.Dir()
	}
	return s
}

// Close persists the disk index.
func (m *Manager) Close() error {
	if m.disk == nil {
		return nil
	}
	if err := m.disk.Close(); err != nil {
		return fmt.Errorf("close disk cache: %w", err)
	}
	return nil
}

func (m *Manager) count(hit, promoted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hit {
		m.hits++
	} else {
		m.misses++
	}
	if promoted {
		m.promotions++
	}
}
