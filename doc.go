// Package hotpool provides memory-pressure-aware object pools for order
// processing hot paths.
//
// Trading engines allocate orders and execution reports at very high rates.
// hotpool recycles those objects through pools that keep growing while the
// process has memory headroom and stop growing, or start shedding retained
// instances, once available memory falls to a configured fraction of the
// maximum.
//
// # Pools
//
// Two pool kinds share the pool.Pool interface:
//
//   - pool.Stack is an unsynchronized LIFO stack for a single event loop.
//     Get fails with a resource-exhausted error when the free list is empty
//     and memory is low.
//   - pool.Tiered is safe for concurrent use. It keeps a bounded primary
//     tier and a bounded backup tier and never fails on Get.
//
// Both consult a pool.Gauge, normally a memory.Monitor that samples a
// probe in the background:
//
//	monitor, _ := memory.NewMonitor(memory.NewRuntimeProbe(), nil)
//	_ = monitor.Start()
//
//	orders, _ := pool.NewStack(pool.DefaultConfig(), orders.NewOrder,
//	    pool.WithOwnedMonitor[*orders.Order](monitor),
//	    pool.WithReset(func(o *orders.Order) { o.Reset() }),
//	)
//	defer orders.Shutdown()
//
// # Key Packages
//
//	pkg/pool          - Stack and Tiered pools
//	pkg/memory        - Probes and the sampling monitor
//	pkg/orders        - Order and execution report types with their FIX codes
//	pkg/config        - YAML and environment configuration
//	pkg/metrics       - Prometheus collectors for pools and the monitor
//	pkg/observability - OpenTelemetry tracing
//	pkg/compression   - Stream codecs for report files
//	pkg/errors        - Structured error handling
//	pkg/logger        - Structured logging
//	internal/bench    - Order hot-path simulation
//
// # Command Line
//
//	hotpool config                  # print the effective configuration
//	hotpool monitor --count 5       # print memory readings
//	hotpool bench --report out.zst  # run both scenarios
//
// Configuration comes from defaults, an optional YAML file passed with
// --config, and HOTPOOL_* environment variables such as
// HOTPOOL_POOL_PRIMARY_CAPACITY.
package hotpool
