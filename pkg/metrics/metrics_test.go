package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/hotpool/pkg/memory"
	"github.com/ajitpratap0/hotpool/pkg/pool"
)

type item struct{ n int }

func TestPoolCollectorTiered(t *testing.T) {
	cfg := &pool.Config{Name: "reports", InitialSize: 2, PrimaryCapacity: 2, BackupCapacity: 1}
	p, err := pool.NewTiered(cfg, func() *item { return &item{} })
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		p.Release(&item{n: i})
	}
	_, _ = p.Get()

	c := NewPoolCollector(p)
	expected := `
# HELP hotpool_pool_size Instances resident in the pool's free stores
# TYPE hotpool_pool_size gauge
hotpool_pool_size{pool="reports"} 2
# HELP hotpool_pool_capacity Maximum resident instances, zero when unbounded
# TYPE hotpool_pool_capacity gauge
hotpool_pool_capacity{pool="reports"} 3
# HELP hotpool_pool_discarded_total Releases dropped for capacity or memory pressure
# TYPE hotpool_pool_discarded_total counter
hotpool_pool_discarded_total{pool="reports"} 4
# HELP hotpool_pool_hits_total Gets served from a free store
# TYPE hotpool_pool_hits_total counter
hotpool_pool_hits_total{pool="reports"} 1
`
	err = testutil.CollectAndCompare(c, strings.NewReader(expected),
		"hotpool_pool_size", "hotpool_pool_capacity", "hotpool_pool_discarded_total", "hotpool_pool_hits_total")
	assert.NoError(t, err)
}

func TestPoolCollectorPublishedStack(t *testing.T) {
	s, err := pool.NewStack(&pool.Config{Name: "orders", InitialSize: 3}, func() *item { return &item{} })
	require.NoError(t, err)

	published := &PublishedStats{}
	c := NewPoolCollector()
	c.Add(published)

	_, _ = s.Get()
	published.Publish(s.Stats())

	assert.Equal(t, 8, testutil.CollectAndCount(c))
	expected := `
# HELP hotpool_pool_size Instances resident in the pool's free stores
# TYPE hotpool_pool_size gauge
hotpool_pool_size{pool="orders"} 2
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "hotpool_pool_size"))
}

func TestPoolCollectorAddReplacesSameName(t *testing.T) {
	first := &PublishedStats{}
	first.Publish(pool.Stats{Name: "orders", Size: 1})
	second := &PublishedStats{}
	second.Publish(pool.Stats{Name: "orders", Size: 5})
	other := &PublishedStats{}
	other.Publish(pool.Stats{Name: "reports", Size: 2})

	c := NewPoolCollector()
	c.Add(first)
	c.Add(other)
	c.Add(second)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	_, err := reg.Gather()
	require.NoError(t, err)

	expected := `
# HELP hotpool_pool_size Instances resident in the pool's free stores
# TYPE hotpool_pool_size gauge
hotpool_pool_size{pool="orders"} 5
hotpool_pool_size{pool="reports"} 2
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "hotpool_pool_size"))
}

func TestPoolCollectorRegisters(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	p, err := pool.NewTiered(&pool.Config{Name: "a", PrimaryCapacity: 1}, func() *item { return &item{} })
	require.NoError(t, err)

	require.NoError(t, reg.Register(NewPoolCollector(p)))
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 8)
}

func TestMonitorCollector(t *testing.T) {
	probe := memory.NewStaticProbe(300, 1000)
	m, err := memory.NewMonitor(probe, &memory.MonitorConfig{Interval: time.Hour})
	require.NoError(t, err)

	c := NewMonitorCollector(m)
	expectedIdle := `
# HELP hotpool_memory_available_bytes Headroom in bytes at the last sample
# TYPE hotpool_memory_available_bytes gauge
hotpool_memory_available_bytes 0
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expectedIdle), "hotpool_memory_available_bytes"))

	require.NoError(t, m.Start())
	defer m.Shutdown()

	expected := `
# HELP hotpool_memory_available_bytes Headroom in bytes at the last sample
# TYPE hotpool_memory_available_bytes gauge
hotpool_memory_available_bytes 700
# HELP hotpool_memory_max_bytes Maximum bytes at the last sample
# TYPE hotpool_memory_max_bytes gauge
hotpool_memory_max_bytes 1000
# HELP hotpool_memory_samples_total Successful probe reads
# TYPE hotpool_memory_samples_total counter
hotpool_memory_samples_total 1
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"hotpool_memory_available_bytes", "hotpool_memory_max_bytes", "hotpool_memory_samples_total"))
	assert.Equal(t, 6, testutil.CollectAndCount(c))
}

func TestLatencyTracker(t *testing.T) {
	l := NewLatencyTracker(4)
	assert.Zero(t, l.Percentile(50))

	for _, d := range []time.Duration{40, 10, 30, 20, 50} {
		l.Record(d)
	}
	// 40 was evicted.
	assert.Equal(t, 4, l.Count())
	assert.Equal(t, time.Duration(10), l.Percentile(0))
	assert.Equal(t, time.Duration(30), l.Percentile(50))
	assert.Equal(t, time.Duration(50), l.Percentile(100))
}

func TestLatencyTrackerKeepsNewestAfterWrapping(t *testing.T) {
	l := NewLatencyTracker(4)
	for d := time.Duration(1); d <= 10; d++ {
		l.Record(d)
	}
	// The window is 7..10 regardless of where the ring head sits.
	assert.Equal(t, 4, l.Count())
	assert.Equal(t, time.Duration(7), l.Percentile(0))
	assert.Equal(t, time.Duration(10), l.Percentile(100))

	l.Record(100)
	assert.Equal(t, time.Duration(8), l.Percentile(0))
	assert.Equal(t, time.Duration(100), l.Percentile(100))
}

func TestLatencyTrackerConcurrent(t *testing.T) {
	l := NewLatencyTracker(100)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Record(time.Duration(j))
				_ = l.Percentile(99)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, l.Count())
}

func TestTimer(t *testing.T) {
	timer := NewTimer("op")
	time.Sleep(time.Millisecond)
	assert.Equal(t, "op", timer.Name())
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
}
