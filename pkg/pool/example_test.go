package pool_test

import (
	"fmt"

	"github.com/ajitpratap0/hotpool/pkg/errors"
	"github.com/ajitpratap0/hotpool/pkg/memory"
	"github.com/ajitpratap0/hotpool/pkg/orders"
	"github.com/ajitpratap0/hotpool/pkg/pool"
)

// Example shows the borrow-use-release cycle on a single event loop.
func Example() {
	cfg := pool.DefaultConfig()
	cfg.Name = "orders"
	cfg.InitialSize = 4

	stack, err := pool.NewStack(cfg, orders.NewOrder,
		pool.WithReset(func(o *orders.Order) { o.Reset() }),
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer stack.Shutdown()

	o, _ := stack.Get()
	o.Symbol = "ACME"
	o.Quantity = 100
	fmt.Println("resident while borrowed:", stack.Size())

	stack.Release(o)
	fmt.Println("resident after release:", stack.Size())
	fmt.Printf("symbol after reset: %q\n", o.Symbol)

	// Output:
	// resident while borrowed: 3
	// resident after release: 4
	// symbol after reset: ""
}

// ExampleNewStack_lowHeadroom shows a stack refusing to grow when the
// monitor reports memory pressure.
func ExampleNewStack_lowHeadroom() {
	probe := memory.NewStaticProbe(990, 1000)
	monitor, _ := memory.NewMonitor(probe, nil)
	_ = monitor.Start()

	stack, _ := pool.NewStack(&pool.Config{Name: "orders", HeadroomRatio: 0.05}, orders.NewOrder,
		pool.WithOwnedMonitor[*orders.Order](monitor),
	)
	defer stack.Shutdown()

	_, err := stack.Get()
	fmt.Println(errors.IsResourceExhausted(err))

	stack.Release(orders.NewOrder())
	fmt.Println(stack.Size())

	// Output:
	// true
	// 0
}

// ExampleNewTiered shows the store bound on a shared pool.
func ExampleNewTiered() {
	cfg := &pool.Config{
		Name:            "reports",
		InitialSize:     2,
		PrimaryCapacity: 2,
		BackupCapacity:  3,
	}
	reports, _ := pool.NewTiered(cfg, orders.NewExecutionReport)
	defer reports.Shutdown()

	for i := 0; i < 10; i++ {
		reports.Release(orders.NewExecutionReport())
	}
	stats := reports.Stats()
	fmt.Println(stats.Size, stats.Capacity, stats.Discarded)

	// Output:
	// 5 5 7
}
