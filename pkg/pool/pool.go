package pool

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// DefaultHeadroomRatio is the fraction of maximum memory that must remain
// available for a pool to grow.
const DefaultHeadroomRatio = 0.05

// Pool is the capability shared by Stack and Tiered.
type Pool[T any] interface {
	// Get borrows an instance. Only Stack can fail, with an
	// ErrorTypeResourceExhausted error.
	Get() (T, error)
	// Release returns an instance for reuse. It may silently drop it.
	Release(obj T)
	// Size returns the number of instances resident in the free store(s).
	Size() int
}

// Factory constructs a new pooled instance.
type Factory[T any] func() T

// Gauge reports memory headroom. *memory.Monitor implements it.
type Gauge interface {
	// Headroom returns available and maximum bytes from one reading.
	Headroom() (available, max int64)
}

// OwnedMonitor is a Gauge whose lifetime the pool takes over.
type OwnedMonitor interface {
	Gauge
	Shutdown()
}

var (
	_ Pool[*struct{ b byte }] = (*Stack[*struct{ b byte }])(nil)
	_ Pool[*struct{ b byte }] = (*Tiered[*struct{ b byte }])(nil)
)

// Stats describes pool activity since creation.
type Stats struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"` // zero means unbounded
	Allocated uint64 `json:"allocated"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Exhausted uint64 `json:"exhausted"`
	Retained  uint64 `json:"retained"`
	Discarded uint64 `json:"discarded"`
}

// HitRate returns hits / (hits + misses), or zero before any Get.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type options[T any] struct {
	gauge  Gauge
	owned  OwnedMonitor
	reset  func(T)
	logger *zap.Logger
}

// Option configures a pool's collaborators.
type Option[T any] func(*options[T])

// WithGauge makes the pool consult g without taking ownership of it.
func WithGauge[T any](g Gauge) Option[T] {
	return func(o *options[T]) {
		o.gauge = g
	}
}

// WithOwnedMonitor makes the pool consult m and shut it down from the
// pool's own Shutdown.
func WithOwnedMonitor[T any](m OwnedMonitor) Option[T] {
	return func(o *options[T]) {
		o.gauge = m
		o.owned = m
	}
}

// WithReset registers a function applied to an instance before it is put
// back in a free store.
func WithReset[T any](fn func(T)) Option[T] {
	return func(o *options[T]) {
		o.reset = fn
	}
}

// WithLogger sets the logger for lifecycle messages. Pools never log per
// operation.
func WithLogger[T any](l *zap.Logger) Option[T] {
	return func(o *options[T]) {
		o.logger = l
	}
}

func buildOptions[T any](opts []Option[T]) options[T] {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// hasHeadroom reports whether g shows more than ratio of max available.
// A nil gauge always has headroom.
func hasHeadroom(g Gauge, ratio float64) bool {
	if g == nil {
		return true
	}
	available, max := g.Headroom()
	return float64(available) > float64(max)*ratio
}

func exhaustedError(name string, g Gauge, ratio float64) error {
	available, max := g.Headroom()
	return errors.New(errors.ErrorTypeResourceExhausted, "free list empty and memory headroom below threshold").
		WithDetail("pool", name).
		WithDetail("available_bytes", available).
		WithDetail("max_bytes", max).
		WithDetail("headroom_ratio", ratio)
}
