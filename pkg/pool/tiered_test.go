package pool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/hotpool/pkg/errors"
	"github.com/ajitpratap0/hotpool/pkg/testutil"
)

func tieredConfig(initial, primary, backup int) *Config {
	return &Config{
		Name:            "test-tiered",
		InitialSize:     initial,
		PrimaryCapacity: primary,
		BackupCapacity:  backup,
		HeadroomRatio:   DefaultHeadroomRatio,
	}
}

func TestNewTieredValidation(t *testing.T) {
	var c counter

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"zero primary", tieredConfig(0, 0, 10)},
		{"negative backup", tieredConfig(0, 10, -1)},
		{"negative initial", tieredConfig(-1, 10, 10)},
		{"ratio out of range", &Config{PrimaryCapacity: 1, HeadroomRatio: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTiered(tt.cfg, c.factory)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}

	_, err := NewTiered[*widget](tieredConfig(0, 1, 1), nil)
	assert.Error(t, err)
}

func TestTieredPopulationCappedAtPrimary(t *testing.T) {
	var c counter
	p, err := NewTiered(tieredConfig(50, 10, 100), c.factory, WithLogger[*widget](testutil.TestLogger(t)))
	require.NoError(t, err)

	assert.Equal(t, 10, p.Size())
	assert.Equal(t, 10, p.PrimarySize())
	assert.Equal(t, 0, p.BackupSize())
	assert.Equal(t, int64(10), c.next.Load())
	assert.Equal(t, 110, p.Capacity())
}

func TestTieredGetOrder(t *testing.T) {
	var c counter
	p, err := NewTiered(tieredConfig(0, 1, 1), c.factory)
	require.NoError(t, err)

	a, b := c.factory(), c.factory()
	p.Release(a) // primary
	p.Release(b) // backup
	require.Equal(t, 1, p.PrimarySize())
	require.Equal(t, 1, p.BackupSize())

	got, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, a, got, "primary is drained first")

	got, err = p.Get()
	require.NoError(t, err)
	assert.Same(t, b, got, "backup is drained second")

	before := c.next.Load()
	got, err = p.Get()
	require.NoError(t, err)
	assert.Equal(t, before+1, got.id, "empty stores fall through to the factory")
	assert.Equal(t, uint64(1), p.Stats().Misses)
}

func TestTieredReleaseAdmission(t *testing.T) {
	var c counter
	p, err := NewTiered(tieredConfig(0, 2, 3), c.factory)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		p.Release(c.factory())
	}
	assert.Equal(t, 2, p.PrimarySize())
	assert.Equal(t, 3, p.BackupSize())
	assert.Equal(t, 5, p.Size())

	stats := p.Stats()
	assert.Equal(t, uint64(5), stats.Retained)
	assert.Equal(t, uint64(5), stats.Discarded)
}

func TestTieredZeroBackup(t *testing.T) {
	var c counter
	p, err := NewTiered(tieredConfig(0, 1, 0), c.factory)
	require.NoError(t, err)

	p.Release(c.factory())
	p.Release(c.factory())
	assert.Equal(t, 1, p.Size())
}

func TestTieredGetNeverFailsUnderPressure(t *testing.T) {
	var c counter
	g := newFixedGauge(0, 1000)
	p, err := NewTiered(tieredConfig(0, 4, 4), c.factory, WithGauge[*widget](g))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		w, err := p.Get()
		require.NoError(t, err)
		require.NotNil(t, w)
	}
}

func TestTieredDiscardsUnderPressure(t *testing.T) {
	var c counter
	g := newFixedGauge(10, 1000)
	p, err := NewTiered(tieredConfig(2, 4, 4), c.factory, WithGauge[*widget](g))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		p.Release(c.factory())
	}
	assert.Equal(t, 2, p.Size())
	assert.Equal(t, uint64(100), p.Stats().Discarded)

	g.set(900, 1000)
	p.Release(c.factory())
	assert.Equal(t, 3, p.Size())
}

func TestTieredResetBeforeAdmission(t *testing.T) {
	var c counter
	var resets atomic.Int32
	p, err := NewTiered(tieredConfig(0, 1, 0), c.factory, WithReset(func(w *widget) {
		resets.Add(1)
		w.dirty = false
	}))
	require.NoError(t, err)

	w := c.factory()
	w.dirty = true
	p.Release(w)
	assert.False(t, w.dirty)
	assert.Equal(t, int32(1), resets.Load())
}

func TestTieredShutdownOnce(t *testing.T) {
	var c counter
	g := newFixedGauge(900, 1000)
	p, err := NewTiered(tieredConfig(0, 1, 1), c.factory, WithOwnedMonitor[*widget](g))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Shutdown()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), g.shutdowns.Load())
}

func TestTieredConcurrentBound(t *testing.T) {
	var c counter
	const (
		primary = 100
		backup  = 1000
		workers = 20
		cycles  = 10_000
	)
	p, err := NewTiered(tieredConfig(primary, primary, backup), c.factory)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		maxSeen atomic.Int64
		dupes   atomic.Int64
		inUse   sync.Map
	)
	observe := func() {
		n := int64(p.Size())
		for {
			cur := maxSeen.Load()
			if n <= cur || maxSeen.CompareAndSwap(cur, n) {
				return
			}
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			held := make([]*widget, 0, 4)
			for j := 0; j < cycles; j++ {
				// Hold a few at a time so both stores see traffic.
				batch := 1 + (worker+j)%4
				for k := 0; k < batch; k++ {
					w, _ := p.Get()
					if _, loaded := inUse.LoadOrStore(w, struct{}{}); loaded {
						dupes.Add(1)
					}
					held = append(held, w)
				}
				for _, w := range held {
					inUse.Delete(w)
					p.Release(w)
				}
				held = held[:0]
				if j%64 == 0 {
					observe()
				}
			}
		}(i)
	}
	wg.Wait()
	observe()

	assert.Zero(t, dupes.Load(), "an instance was handed to two borrowers at once")
	assert.LessOrEqual(t, p.Size(), primary+backup)
	assert.LessOrEqual(t, maxSeen.Load(), int64(primary+backup))
	assert.LessOrEqual(t, p.PrimarySize(), primary)
	assert.LessOrEqual(t, p.BackupSize(), backup)

	stats := p.Stats()
	assert.Equal(t, stats.Allocated, uint64(c.next.Load()))
	assert.Equal(t, stats.Retained+stats.Discarded, stats.Hits+stats.Misses)
}
