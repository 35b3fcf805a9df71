// Package pool implements memory-pressure-aware object recycling for the
// hot path of the order-processing engine. Callers borrow an instance with
// Get, use it, and hand it back with Release; the pool reuses it instead of
// allocating on every event.
//
// Architecture
//
// Two implementations share the Pool[T] contract and differ only in their
// concurrency regime:
//
//   - Stack[T]: a LIFO free list for exactly one goroutine (one matching
//     engine event loop). No locks, no atomics. The most recently released
//     instance is handed out first so hot objects stay in cache.
//   - Tiered[T]: a pool shared by many goroutines. A small bounded primary
//     store absorbs steady-state reuse, a larger bounded backup store absorbs
//     bursts, and anything beyond Cp+Cb is dropped.
//
// Memory Pressure
//
// Both pools read a Gauge, normally a *memory.Monitor, that publishes the
// remaining headroom. Headroom is sufficient when
//
//	available > max × HeadroomRatio
//
// HeadroomRatio defaults to 0.05. The policies differ on purpose:
//
//   - Stack refuses to grow under pressure. Get on an empty free list
//     returns an ErrorTypeResourceExhausted error instead of calling the
//     factory, and Release drops the instance.
//   - Tiered never refuses a Get; it constructs on a miss. Growth is capped
//     on the Release side, by the store bounds and, when a gauge is
//     configured, by the headroom check.
//
// A pool without a gauge treats headroom as always sufficient. A gauge that
// has not completed a sample reports zero and therefore no headroom.
//
// Usage Patterns
//
// Single event loop:
//
//	monitor, _ := memory.NewMonitor(memory.NewRuntimeProbe(), nil)
//	_ = monitor.Start()
//
//	stack, err := pool.NewStack(pool.DefaultConfig(), orders.NewOrder,
//	    pool.WithOwnedMonitor[*orders.Order](monitor),
//	    pool.WithReset(func(o *orders.Order) { o.Reset() }),
//	)
//	if err != nil {
//	    return err
//	}
//	defer stack.Shutdown()
//
//	o, err := stack.Get()
//	if errors.IsResourceExhausted(err) {
//	    // degrade: drop or defer this event
//	}
//	defer stack.Release(o)
//
// Shared across workers:
//
//	reports, err := pool.NewTiered(cfg, orders.NewExecutionReport)
//	r, _ := reports.Get()
//	defer reports.Release(r)
//
// Release never reports whether the instance was kept. Callers must not
// rely on retention.
//
// Thread Safety
//
// Stack is not safe for concurrent use; this is its contract. Tiered is safe
// for any number of goroutines. Get and Release after Shutdown are caller
// errors with undefined results.
package pool
