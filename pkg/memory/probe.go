package memory

import (
	"math"
	"os"
	"runtime/debug"
	"runtime/metrics"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// Probe kinds accepted by NewProbe.
const (
	ProbeRuntime = "runtime"
	ProbeSystem  = "system"
	ProbeProcess = "process"
)

// Snapshot is a point-in-time reading of memory usage.
type Snapshot struct {
	UsedBytes int64 `json:"used_bytes"`
	MaxBytes  int64 `json:"max_bytes"`
}

// Available returns MaxBytes - UsedBytes, or zero when usage has reached
// or passed the maximum.
func (s Snapshot) Available() int64 {
	if s.UsedBytes >= s.MaxBytes {
		return 0
	}
	return s.MaxBytes - s.UsedBytes
}

// Probe reads a memory snapshot. Implementations must be safe to call from
// the monitor goroutine while other goroutines use the pools.
type Probe interface {
	Read() (Snapshot, error)
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func() (Snapshot, error)

// Read calls f.
func (f ProbeFunc) Read() (Snapshot, error) {
	return f()
}

// NewProbe returns the probe registered under kind. limitBytes is the
// ceiling used by the process probe; zero means total system memory.
func NewProbe(kind string, limitBytes int64) (Probe, error) {
	switch strings.ToLower(kind) {
	case "", ProbeRuntime:
		return NewRuntimeProbe(), nil
	case ProbeSystem:
		return NewSystemProbe(), nil
	case ProbeProcess:
		return NewProcessProbe(limitBytes)
	default:
		return nil, errors.New(errors.ErrorTypeValidation, "unknown memory probe").
			WithDetail("kind", kind)
	}
}

// RuntimeProbe reports Go runtime memory against the soft memory limit.
//
// Used is the memory the runtime has mapped and not returned to the OS,
// which is what the garbage collector counts against GOMEMLIMIT. Max is the
// soft limit; when no limit is set it falls back to total system memory.
type RuntimeProbe struct {
	mu      sync.Mutex
	samples []metrics.Sample
}

const (
	metricTotalBytes    = "/memory/classes/total:bytes"
	metricReleasedBytes = "/memory/classes/heap/released:bytes"
)

// NewRuntimeProbe creates a runtime probe.
func NewRuntimeProbe() *RuntimeProbe {
	return &RuntimeProbe{
		samples: []metrics.Sample{
			{Name: metricTotalBytes},
			{Name: metricReleasedBytes},
		},
	}
}

// Read implements Probe.
func (p *RuntimeProbe) Read() (Snapshot, error) {
	p.mu.Lock()
	metrics.Read(p.samples)
	total := p.samples[0].Value
	released := p.samples[1].Value
	p.mu.Unlock()

	if total.Kind() != metrics.KindUint64 || released.Kind() != metrics.KindUint64 {
		return Snapshot{}, errors.New(errors.ErrorTypeProbe, "runtime memory metrics unsupported")
	}

	used := int64(total.Uint64() - released.Uint64())

	limit := debug.SetMemoryLimit(-1)
	if limit == math.MaxInt64 {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return Snapshot{}, errors.Wrap(err, errors.ErrorTypeProbe, "failed to read system memory")
		}
		limit = int64(vm.Total)
	}

	return Snapshot{UsedBytes: used, MaxBytes: limit}, nil
}

// SystemProbe reports host memory: Max is total RAM, Used is total minus
// what the kernel reports as available.
type SystemProbe struct{}

// NewSystemProbe creates a system probe.
func NewSystemProbe() *SystemProbe {
	return &SystemProbe{}
}

// Read implements Probe.
func (p *SystemProbe) Read() (Snapshot, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, errors.ErrorTypeProbe, "failed to read system memory")
	}
	return Snapshot{
		UsedBytes: int64(vm.Total - vm.Available),
		MaxBytes:  int64(vm.Total),
	}, nil
}

// ProcessProbe reports this process's resident set size against a limit.
type ProcessProbe struct {
	proc  *process.Process
	limit int64
}

// NewProcessProbe creates a probe for the current process. A limitBytes of
// zero or less uses total system memory as the limit.
func NewProcessProbe(limitBytes int64) (*ProcessProbe, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeProbe, "failed to open current process")
	}

	if limitBytes <= 0 {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeProbe, "failed to read system memory")
		}
		limitBytes = int64(vm.Total)
	}

	return &ProcessProbe{proc: proc, limit: limitBytes}, nil
}

// Read implements Probe.
func (p *ProcessProbe) Read() (Snapshot, error) {
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, errors.ErrorTypeProbe, "failed to read process memory").
			WithDetail("pid", p.proc.Pid)
	}
	return Snapshot{UsedBytes: int64(info.RSS), MaxBytes: p.limit}, nil
}

// StaticProbe returns a fixed snapshot that tests can change at any time.
// It is also how callers simulate low headroom.
type StaticProbe struct {
	mu   sync.Mutex
	snap Snapshot
	err  error
}

// NewStaticProbe creates a probe reporting used of max bytes.
func NewStaticProbe(used, max int64) *StaticProbe {
	return &StaticProbe{snap: Snapshot{UsedBytes: used, MaxBytes: max}}
}

// Set replaces the reported snapshot and clears any injected failure.
func (p *StaticProbe) Set(used, max int64) {
	p.mu.Lock()
	p.snap = Snapshot{UsedBytes: used, MaxBytes: max}
	p.err = nil
	p.mu.Unlock()
}

// Fail makes subsequent reads return err until Set is called.
func (p *StaticProbe) Fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Read implements Probe.
func (p *StaticProbe) Read() (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap, p.err
}
