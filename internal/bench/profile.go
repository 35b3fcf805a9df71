package bench

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// Profile kinds accepted by ParseProfileTypes.
const (
	ProfileCPU       = "cpu"
	ProfileMemory    = "memory"
	ProfileBlock     = "block"
	ProfileMutex     = "mutex"
	ProfileGoroutine = "goroutine"
)

// ParseProfileTypes parses a comma-separated list such as "cpu,memory".
// "all" selects every kind and "mem" is accepted for memory.
func ParseProfileTypes(s string) ([]string, error) {
	if strings.TrimSpace(s) == "all" {
		return []string{ProfileCPU, ProfileMemory, ProfileBlock, ProfileMutex, ProfileGoroutine}, nil
	}

	var types []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
		case "mem":
			types = append(types, ProfileMemory)
		case ProfileCPU, ProfileMemory, ProfileBlock, ProfileMutex, ProfileGoroutine:
			types = append(types, part)
		default:
			return nil, errors.New(errors.ErrorTypeValidation, "unknown profile type").WithDetail("type", part)
		}
	}
	return types, nil
}

// Profiler captures pprof profiles around a run. CPU profiling spans
// Start to Stop; the other kinds are snapshots taken at Stop.
type Profiler struct {
	dir     string
	types   []string
	logger  *zap.Logger
	cpuFile *os.File
}

// NewProfiler creates a profiler writing <kind>.prof files into dir.
func NewProfiler(dir string, types []string, logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{dir: dir, types: types, logger: logger}
}

func (p *Profiler) enabled(kind string) bool {
	for _, t := range p.types {
		if t == kind {
			return true
		}
	}
	return false
}

// Start creates the output directory and begins CPU profiling when
// requested. Block and mutex sampling are switched on here so Stop has
// something to write.
func (p *Profiler) Start() error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create profile directory").WithDetail("path", p.dir)
	}
	if p.enabled(ProfileBlock) {
		runtime.SetBlockProfileRate(1)
	}
	if p.enabled(ProfileMutex) {
		runtime.SetMutexProfileFraction(1)
	}
	if !p.enabled(ProfileCPU) {
		return nil
	}

	path := filepath.Join(p.dir, "cpu.prof")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create CPU profile").WithDetail("path", path)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to start CPU profile")
	}
	p.cpuFile = f
	p.logger.Info("CPU profiling enabled", zap.String("path", path))
	return nil
}

// Stop ends CPU profiling and writes the remaining profiles. It returns
// the first error but attempts every profile.
func (p *Profiler) Stop() error {
	var first error
	keep := func(err error) {
		if first == nil {
			first = err
		}
	}

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			keep(errors.Wrap(err, errors.ErrorTypeFile, "failed to close CPU profile"))
		}
		p.cpuFile = nil
	}

	for _, kind := range []string{ProfileMemory, ProfileBlock, ProfileMutex, ProfileGoroutine} {
		if !p.enabled(kind) {
			continue
		}
		if err := p.write(kind); err != nil {
			keep(err)
		}
	}

	if p.enabled(ProfileBlock) {
		runtime.SetBlockProfileRate(0)
	}
	if p.enabled(ProfileMutex) {
		runtime.SetMutexProfileFraction(0)
	}
	return first
}

func (p *Profiler) write(kind string) error {
	name := kind
	if kind == ProfileMemory {
		name = "heap"
		runtime.GC()
	}
	profile := pprof.Lookup(name)
	if profile == nil {
		return errors.New(errors.ErrorTypeInternal, "profile not found").WithDetail("type", kind)
	}

	path := filepath.Join(p.dir, kind+".prof")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create profile").WithDetail("path", path)
	}
	defer f.Close()

	if err := profile.WriteTo(f, 0); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write profile").WithDetail("path", path)
	}
	p.logger.Info("profile written", zap.String("type", kind), zap.String("path", path))
	return nil
}
