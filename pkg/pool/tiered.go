package pool

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// store is a bounded LIFO guarded by a mutex. The backing array is sized
// once, so push never allocates while the lock is held.
type store[T any] struct {
	mu    sync.Mutex
	items []T
	count atomic.Int64
}

func newStore[T any](capacity int) *store[T] {
	return &store[T]{items: make([]T, 0, capacity)}
}

func (s *store[T]) push(obj T) bool {
	s.mu.Lock()
	if len(s.items) == cap(s.items) {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items, obj)
	s.count.Store(int64(len(s.items)))
	s.mu.Unlock()
	return true
}

func (s *store[T]) pop() (T, bool) {
	var zero T
	s.mu.Lock()
	n := len(s.items)
	if n == 0 {
		s.mu.Unlock()
		return zero, false
	}
	obj := s.items[n-1]
	s.items[n-1] = zero
	s.items = s.items[:n-1]
	s.count.Store(int64(n - 1))
	s.mu.Unlock()
	return obj, true
}

func (s *store[T]) len() int {
	return int(s.count.Load())
}

func (s *store[T]) capacity() int {
	return cap(s.items)
}

// Tiered is a pool safe for concurrent use, backed by a primary store of
// capacity Cp and a backup store of capacity Cb.
//
// Get tries primary, then backup, then the factory, and never fails.
// Release tries primary, then backup, and drops the instance when both are
// full or when a configured gauge shows no headroom. Size never exceeds
// Cp+Cb. No factory call, reset call or allocation happens while a store
// lock is held.
type Tiered[T any] struct {
	name    string
	primary *store[T]
	backup  *store[T]
	factory Factory[T]
	reset   func(T)
	gauge   Gauge
	owned   OwnedMonitor
	ratio   float64
	logger  *zap.Logger

	allocated atomic.Uint64
	hits      atomic.Uint64
	misses    atomic.Uint64
	retained  atomic.Uint64
	discarded atomic.Uint64

	shutdownOnce sync.Once
}

// NewTiered creates a Tiered pool and fills the primary store with
// min(cfg.InitialSize, cfg.PrimaryCapacity) instances. A nil cfg uses
// DefaultConfig.
func NewTiered[T any](cfg *Config, factory Factory[T], opts ...Option[T]) (*Tiered[T], error) {
	cfg = resolveConfig(cfg)
	if err := cfg.ValidateTiered(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "factory is required").
			WithDetail("pool", cfg.Name)
	}

	o := buildOptions(opts)
	t := &Tiered[T]{
		name:    cfg.Name,
		primary: newStore[T](cfg.PrimaryCapacity),
		backup:  newStore[T](cfg.BackupCapacity),
		factory: factory,
		reset:   o.reset,
		gauge:   o.gauge,
		owned:   o.owned,
		ratio:   cfg.HeadroomRatio,
		logger:  o.logger.With(zap.String("pool", cfg.Name), zap.String("kind", "tiered")),
	}

	initial := min(cfg.InitialSize, cfg.PrimaryCapacity)
	for i := 0; i < initial; i++ {
		t.primary.push(factory())
	}
	t.allocated.Store(uint64(initial))

	t.logger.Debug("pool created",
		zap.Int("initial_size", initial),
		zap.Int("primary_capacity", cfg.PrimaryCapacity),
		zap.Int("backup_capacity", cfg.BackupCapacity),
		zap.Bool("memory_gated", t.gauge != nil))
	return t, nil
}

// Get removes an instance from primary, else backup, else constructs one.
// The error is always nil; it exists to satisfy Pool.
func (t *Tiered[T]) Get() (T, error) {
	if obj, ok := t.primary.pop(); ok {
		t.hits.Add(1)
		return obj, nil
	}
	if obj, ok := t.backup.pop(); ok {
		t.hits.Add(1)
		return obj, nil
	}

	t.misses.Add(1)
	t.allocated.Add(1)
	return t.factory(), nil
}

// Release admits obj to primary, else backup, else drops it. With a gauge
// configured, obj is dropped outright while headroom is below threshold.
func (t *Tiered[T]) Release(obj T) {
	if !hasHeadroom(t.gauge, t.ratio) {
		t.discarded.Add(1)
		return
	}
	if t.reset != nil {
		t.reset(obj)
	}
	if t.primary.push(obj) || t.backup.push(obj) {
		t.retained.Add(1)
		return
	}
	t.discarded.Add(1)
}

// Size returns primary plus backup occupancy.
func (t *Tiered[T]) Size() int {
	return t.primary.len() + t.backup.len()
}

// PrimarySize returns the primary store occupancy.
func (t *Tiered[T]) PrimarySize() int {
	return t.primary.len()
}

// BackupSize returns the backup store occupancy.
func (t *Tiered[T]) BackupSize() int {
	return t.backup.len()
}

// Capacity returns Cp+Cb.
func (t *Tiered[T]) Capacity() int {
	return t.primary.capacity() + t.backup.capacity()
}

// Stats returns counters since creation. Safe for concurrent use; the
// fields are read independently and may be mutually skewed under load.
func (t *Tiered[T]) Stats() Stats {
	return Stats{
		Name:      t.name,
		Size:      t.Size(),
		Capacity:  t.Capacity(),
		Allocated: t.allocated.Load(),
		Hits:      t.hits.Load(),
		Misses:    t.misses.Load(),
		Retained:  t.retained.Load(),
		Discarded: t.discarded.Load(),
	}
}

// Name returns the configured pool name.
func (t *Tiered[T]) Name() string {
	return t.name
}

// Shutdown stops an owned monitor. It is idempotent. Get and Release after
// Shutdown are caller errors.
func (t *Tiered[T]) Shutdown() {
	t.shutdownOnce.Do(func() {
		if t.owned != nil {
			t.owned.Shutdown()
		}
		t.logger.Debug("pool shut down",
			zap.Int("size", t.Size()),
			zap.Uint64("allocated", t.allocated.Load()),
			zap.Uint64("discarded", t.discarded.Load()))
	})
}
