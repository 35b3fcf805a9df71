// Package memory samples memory usage in the background and publishes the
// remaining headroom for pools to consult without blocking.
//
// # Overview
//
// A Probe reads a Snapshot of (used, max) bytes. Three probes are built in:
//
//   - RuntimeProbe: Go runtime memory against the soft limit (GOMEMLIMIT)
//   - SystemProbe: host memory via gopsutil
//   - ProcessProbe: process RSS via gopsutil against a configured limit
//
// StaticProbe and ProbeFunc make tests deterministic.
//
// A Monitor owns one goroutine that reads its probe every Interval and
// stores the result atomically:
//
//	monitor, err := memory.NewMonitor(memory.NewRuntimeProbe(), nil)
//	if err != nil {
//	    return err
//	}
//	if err := monitor.Start(); err != nil {
//	    return err
//	}
//	defer monitor.Shutdown()
//
//	headroom := monitor.AvailableMemory()
//
// Reads never block and cost one atomic load. The value is at most one
// Interval stale. A failed probe read is logged and the previous value stays
// published until the next successful sample.
package memory
