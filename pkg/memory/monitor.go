package memory

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// DefaultInterval is the default sampling period.
const DefaultInterval = time.Second

// MonitorState is the lifecycle state of a Monitor.
type MonitorState int32

const (
	// StateCreated is the state before Start.
	StateCreated MonitorState = iota
	// StateRunning is the state while the sampling goroutine runs.
	StateRunning
	// StateStopped is the terminal state after Shutdown.
	StateStopped
)

func (s MonitorState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MonitorConfig configures a Monitor
type MonitorConfig struct {
	// Interval between samples
	Interval time.Duration
	// Logger receives lifecycle and probe failure messages; nil disables logging
	Logger *zap.Logger
}

// DefaultMonitorConfig returns default configuration
func DefaultMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		Interval: DefaultInterval,
	}
}

// gauge is one published reading. It is immutable once stored so readers
// always see a consistent (available, max) pair.
type gauge struct {
	snapshot  Snapshot
	available int64
	sampledAt time.Time
}

// Monitor samples a Probe on a fixed period from one background goroutine
// and publishes the available headroom for lock-free reads.
//
// Lifecycle is Created → Running → Stopped. Start takes the first sample
// before returning, so a started monitor never reports the zero default.
// Before Start, AvailableMemory returns 0, which pools read as "no
// headroom". After Shutdown the last sampled values stay readable.
//
// A monitor that is started and never shut down leaks its goroutine.
type Monitor struct {
	probe    Probe
	interval time.Duration
	logger   *zap.Logger

	current  atomic.Pointer[gauge]
	samples  atomic.Uint64
	failures atomic.Uint64
	state    atomic.Int32

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a monitor over probe. A nil config uses defaults.
func NewMonitor(probe Probe, config *MonitorConfig) (*Monitor, error) {
	if probe == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "memory probe is required")
	}
	if config == nil {
		config = DefaultMonitorConfig()
	}
	if config.Interval <= 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "sampling interval must be positive").
			WithDetail("interval", config.Interval)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		probe:    probe,
		interval: config.Interval,
		logger:   logger.With(zap.String("component", "memory_monitor")),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start takes a first sample and launches the sampling goroutine. It returns
// a state error if the monitor was already started or shut down.
func (m *Monitor) Start() error {
	if !m.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return errors.New(errors.ErrorTypeState, "memory monitor cannot be started").
			WithDetail("state", m.State().String())
	}

	m.sample()
	go m.run()

	m.logger.Info("memory monitor started",
		zap.Duration("interval", m.interval),
		zap.Int64("available_bytes", m.AvailableMemory()),
		zap.Int64("max_bytes", m.MaxMemory()))
	return nil
}

func (m *Monitor) run() {
	defer close(m.done)

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-timer.C:
			m.sample()
			timer.Reset(m.interval)
		}
	}
}

func (m *Monitor) sample() {
	snap, err := m.probe.Read()
	if err != nil {
		n := m.failures.Add(1)
		m.logger.Warn("memory probe failed, keeping previous reading",
			zap.Error(err),
			zap.Uint64("failures", n))
		return
	}

	m.current.Store(&gauge{
		snapshot:  snap,
		available: snap.Available(),
		sampledAt: time.Now(),
	})
	m.samples.Add(1)
}

// Shutdown stops the sampling goroutine and waits for it to exit. It is
// idempotent and safe to call on a monitor that was never started.
func (m *Monitor) Shutdown() {
	m.stopOnce.Do(func() {
		prev := MonitorState(m.state.Swap(int32(StateStopped)))
		close(m.stop)
		if prev == StateRunning {
			<-m.done
			m.logger.Info("memory monitor stopped",
				zap.Uint64("samples", m.samples.Load()),
				zap.Uint64("failures", m.failures.Load()))
		}
	})
}

// AvailableMemory returns the headroom in bytes from the last successful
// sample, or 0 if none has completed.
func (m *Monitor) AvailableMemory() int64 {
	g := m.current.Load()
	if g == nil {
		return 0
	}
	return g.available
}

// MaxMemory returns the maximum in bytes from the last successful sample,
// or 0 if none has completed.
func (m *Monitor) MaxMemory() int64 {
	g := m.current.Load()
	if g == nil {
		return 0
	}
	return g.snapshot.MaxBytes
}

// Headroom returns available and maximum bytes from the same sample, so the
// pair is always consistent. Both are zero before the first sample.
func (m *Monitor) Headroom() (available, max int64) {
	g := m.current.Load()
	if g == nil {
		return 0, 0
	}
	return g.available, g.snapshot.MaxBytes
}

// Snapshot returns the last successful reading and when it was taken. The
// time is zero if no sample has completed.
func (m *Monitor) Snapshot() (Snapshot, time.Time) {
	g := m.current.Load()
	if g == nil {
		return Snapshot{}, time.Time{}
	}
	return g.snapshot, g.sampledAt
}

// Samples returns the number of successful samples.
func (m *Monitor) Samples() uint64 {
	return m.samples.Load()
}

// Failures returns the number of failed probe reads.
func (m *Monitor) Failures() uint64 {
	return m.failures.Load()
}

// State returns the lifecycle state.
func (m *Monitor) State() MonitorState {
	return MonitorState(m.state.Load())
}

// Interval returns the sampling period.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}
