package pool

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// Stack is a LIFO recycling pool for a single goroutine.
//
// Stack is not safe for concurrent use. The only cross-goroutine read is the
// gauge, which is an atomic load inside the monitor. An empty free list only
// grows while the gauge shows headroom; otherwise Get fails with an
// ErrorTypeResourceExhausted error and Release drops the instance.
type Stack[T any] struct {
	name    string
	free    []T
	factory Factory[T]
	reset   func(T)
	gauge   Gauge
	owned   OwnedMonitor
	ratio   float64
	logger  *zap.Logger

	allocated uint64
	hits      uint64
	misses    uint64
	exhausted uint64
	retained  uint64
	discarded uint64
	closed    bool
}

// NewStack creates a Stack holding cfg.InitialSize instances built by
// factory. A nil cfg uses DefaultConfig.
func NewStack[T any](cfg *Config, factory Factory[T], opts ...Option[T]) (*Stack[T], error) {
	cfg = resolveConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "factory is required").
			WithDetail("pool", cfg.Name)
	}

	o := buildOptions(opts)
	s := &Stack[T]{
		name:    cfg.Name,
		free:    make([]T, 0, cfg.InitialSize),
		factory: factory,
		reset:   o.reset,
		gauge:   o.gauge,
		owned:   o.owned,
		ratio:   cfg.HeadroomRatio,
		logger:  o.logger.With(zap.String("pool", cfg.Name), zap.String("kind", "stack")),
	}

	for i := 0; i < cfg.InitialSize; i++ {
		s.free = append(s.free, factory())
	}
	s.allocated = uint64(cfg.InitialSize)

	s.logger.Debug("pool created",
		zap.Int("initial_size", cfg.InitialSize),
		zap.Float64("headroom_ratio", cfg.HeadroomRatio),
		zap.Bool("memory_gated", s.gauge != nil))
	return s, nil
}

// Get pops the most recently released instance. On an empty free list it
// constructs a new one if the gauge shows headroom, and otherwise returns an
// ErrorTypeResourceExhausted error.
func (s *Stack[T]) Get() (T, error) {
	if n := len(s.free); n > 0 {
		obj := s.free[n-1]
		var zero T
		s.free[n-1] = zero
		s.free = s.free[:n-1]
		s.hits++
		return obj, nil
	}

	s.misses++
	if !hasHeadroom(s.gauge, s.ratio) {
		s.exhausted++
		var zero T
		return zero, exhaustedError(s.name, s.gauge, s.ratio)
	}

	s.allocated++
	return s.factory(), nil
}

// Release pushes obj onto the free list when the gauge shows headroom and
// drops it otherwise.
func (s *Stack[T]) Release(obj T) {
	if !hasHeadroom(s.gauge, s.ratio) {
		s.discarded++
		return
	}
	if s.reset != nil {
		s.reset(obj)
	}
	s.free = append(s.free, obj)
	s.retained++
}

// Size returns the number of instances on the free list.
func (s *Stack[T]) Size() int {
	return len(s.free)
}

// Stats returns counters since creation. Like every other method it must be
// called from the owning goroutine.
func (s *Stack[T]) Stats() Stats {
	return Stats{
		Name:      s.name,
		Size:      len(s.free),
		Allocated: s.allocated,
		Hits:      s.hits,
		Misses:    s.misses,
		Exhausted: s.exhausted,
		Retained:  s.retained,
		Discarded: s.discarded,
	}
}

// Name returns the configured pool name.
func (s *Stack[T]) Name() string {
	return s.name
}

// Shutdown stops an owned monitor. It is idempotent.
func (s *Stack[T]) Shutdown() {
	if s.closed {
		return
	}
	s.closed = true
	if s.owned != nil {
		s.owned.Shutdown()
	}
	s.logger.Debug("pool shut down",
		zap.Int("size", len(s.free)),
		zap.Uint64("allocated", s.allocated),
		zap.Uint64("discarded", s.discarded))
}
