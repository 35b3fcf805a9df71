// Package bench simulates the order-processing hot path against both pool
// kinds and reports reuse, drops and latency.
//
// The stack scenario is one event loop recycling orders.Order through a
// pool.Stack. Each event borrows a batch of orders, fills them and releases
// them. An exhausted Get drops the event, which is the backpressure the
// engine applies under memory pressure.
//
// The tiered scenario is a set of workers recycling orders.ExecutionReport
// through one shared pool.Tiered.
package bench

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/hotpool/pkg/errors"
	"github.com/ajitpratap0/hotpool/pkg/metrics"
	"github.com/ajitpratap0/hotpool/pkg/observability"
	"github.com/ajitpratap0/hotpool/pkg/orders"
	"github.com/ajitpratap0/hotpool/pkg/pool"
)

const (
	// ScenarioStack is the single event-loop scenario.
	ScenarioStack = "stack"
	// ScenarioTiered is the shared worker scenario.
	ScenarioTiered = "tiered"

	// checkEvery is how many events pass between context checks, stats
	// publication and size sampling.
	checkEvery = 1024
	// latencyEvery is the event sampling stride for latency percentiles.
	latencyEvery = 64
)

// Config controls a benchmark run.
type Config struct {
	// Events is the number of events per scenario, split across workers
	Events int `yaml:"events" json:"events"`
	// Batch is the number of instances borrowed per event
	Batch int `yaml:"batch" json:"batch"`
	// Workers is the number of goroutines in the tiered scenario
	Workers int `yaml:"workers" json:"workers"`
	// Scenarios to run, in order
	Scenarios []string `yaml:"scenarios" json:"scenarios"`
	// Pool sizes both pools; the name is suffixed per scenario
	Pool pool.Config `yaml:"pool" json:"pool"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Events:    1_000_000,
		Batch:     4,
		Workers:   runtime.NumCPU(),
		Scenarios: []string{ScenarioStack, ScenarioTiered},
		Pool:      *pool.DefaultConfig(),
	}
}

// Validate checks the run shape.
func (c *Config) Validate() error {
	if c.Events <= 0 {
		return errors.New(errors.ErrorTypeValidation, "events must be positive").WithDetail("value", c.Events)
	}
	if c.Batch <= 0 {
		return errors.New(errors.ErrorTypeValidation, "batch must be positive").WithDetail("value", c.Batch)
	}
	if c.Workers <= 0 {
		return errors.New(errors.ErrorTypeValidation, "workers must be positive").WithDetail("value", c.Workers)
	}
	for _, s := range c.Scenarios {
		if s != ScenarioStack && s != ScenarioTiered {
			return errors.New(errors.ErrorTypeValidation, "unknown scenario").WithDetail("scenario", s)
		}
	}
	return nil
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario  string        `json:"scenario"`
	Workers   int           `json:"workers"`
	Events    uint64        `json:"events"`
	Dropped   uint64        `json:"dropped"`
	Ops       uint64        `json:"ops"`
	MaxSize   int           `json:"max_size"`
	Duration  time.Duration `json:"duration_ns"`
	NsPerOp   float64       `json:"ns_per_op"`
	P50       time.Duration `json:"p50_event_ns"`
	P99       time.Duration `json:"p99_event_ns"`
	Pool      pool.Stats    `json:"pool"`
	HitRate   float64       `json:"hit_rate"`
	Cancelled bool          `json:"cancelled,omitempty"`
}

// Runner executes scenarios.
type Runner struct {
	cfg       *Config
	gauge     pool.Gauge
	logger    *zap.Logger
	tracer    *observability.Tracer
	collector *metrics.PoolCollector
}

// Option configures a Runner.
type Option func(*Runner)

// WithGauge gates both pools on g.
func WithGauge(g pool.Gauge) Option {
	return func(r *Runner) { r.gauge = g }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithTracer wraps every scenario in a span.
func WithTracer(t *observability.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// WithCollector registers each scenario's pool with c while it runs.
func WithCollector(c *metrics.PoolCollector) Option {
	return func(r *Runner) { r.collector = c }
}

// NewRunner validates cfg and creates a Runner. A nil cfg uses defaults.
func NewRunner(cfg *Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.tracer == nil {
		r.tracer = observability.Noop()
	}
	return r, nil
}

// Run executes the configured scenarios in order. A cancelled context stops
// the current scenario early; its partial result is kept and flagged.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(r.cfg.Scenarios))
	runs := make(map[string]int, 2)
	for _, name := range r.cfg.Scenarios {
		runs[name]++
		run := runs[name]
		var res Result
		err := r.tracer.Trace(ctx, "bench."+name, func(ctx context.Context) error {
			var err error
			switch name {
			case ScenarioStack:
				res, err = r.runStack(ctx, run)
			case ScenarioTiered:
				res, err = r.runTiered(ctx, run)
			}
			return err
		}, attribute.String("scenario", name), attribute.Int("events", r.cfg.Events))
		if err != nil {
			return results, err
		}

		r.logger.Info("scenario finished",
			zap.String("scenario", res.Scenario),
			zap.Uint64("events", res.Events),
			zap.Uint64("dropped", res.Dropped),
			zap.Int("max_size", res.MaxSize),
			zap.Float64("ns_per_op", res.NsPerOp),
			zap.Float64("hit_rate", res.HitRate))
		results = append(results, res)

		if ctx.Err() != nil {
			break
		}
	}
	return results, nil
}

// poolConfig names the pool after the scenario. A repeated scenario gets
// its run number appended so collector series stay distinct.
func (r *Runner) poolConfig(suffix string, run int) *pool.Config {
	c := r.cfg.Pool
	if c.Name == "" {
		c.Name = "bench"
	}
	c.Name = c.Name + "-" + suffix
	if run > 1 {
		c.Name += "-" + strconv.Itoa(run)
	}
	return &c
}

func (r *Runner) poolOptions() []pool.Option[*orders.Order] {
	opts := []pool.Option[*orders.Order]{
		pool.WithReset(func(o *orders.Order) { o.Reset() }),
		pool.WithLogger[*orders.Order](r.logger),
	}
	if r.gauge != nil {
		opts = append(opts, pool.WithGauge[*orders.Order](r.gauge))
	}
	return opts
}

func (r *Runner) runStack(ctx context.Context, run int) (Result, error) {
	stack, err := pool.NewStack(r.poolConfig(ScenarioStack, run), orders.NewOrder, r.poolOptions()...)
	if err != nil {
		return Result{}, err
	}
	defer stack.Shutdown()

	var published *metrics.PublishedStats
	if r.collector != nil {
		published = &metrics.PublishedStats{}
		published.Publish(stack.Stats())
		r.collector.Add(published)
	}

	var (
		res      = Result{Scenario: ScenarioStack, Workers: 1}
		batch    = make([]*orders.Order, 0, r.cfg.Batch)
		latency  = metrics.NewLatencyTracker(4096)
		timer    = metrics.NewTimer(ScenarioStack)
		now      = time.Now()
		nextID   uint64
		maxSize  = stack.Size()
		sampleAt time.Time
	)

	for i := 0; i < r.cfg.Events; i++ {
		if i%checkEvery == 0 {
			if ctx.Err() != nil {
				res.Cancelled = true
				break
			}
			now = time.Now()
			if published != nil {
				published.Publish(stack.Stats())
			}
		}
		sampled := i%latencyEvery == 0
		if sampled {
			sampleAt = time.Now()
		}

		dropped := false
		for j := 0; j < r.cfg.Batch; j++ {
			o, err := stack.Get()
			if err != nil {
				if !errors.IsResourceExhausted(err) {
					return res, err
				}
				dropped = true
				break
			}
			nextID++
			o.ID = nextID
			o.Symbol = "ACME"
			o.Type = orders.Limit
			o.Price = 10_000 + int64(j)
			o.Quantity = 100
			o.CreatedAt = now
			batch = append(batch, o)
			res.Ops++
		}
		for _, o := range batch {
			o.Filled = o.Quantity / 2
			_ = o.Reduce(o.Quantity - 10)
			stack.Release(o)
		}
		batch = batch[:0]

		res.Events++
		if dropped {
			res.Dropped++
		}
		if n := stack.Size(); n > maxSize {
			maxSize = n
		}
		if sampled {
			latency.Record(time.Since(sampleAt))
		}
	}

	res.Duration = timer.Stop()
	res.MaxSize = maxSize
	res.Pool = stack.Stats()
	if published != nil {
		published.Publish(res.Pool)
	}
	finish(&res, latency)
	return res, nil
}

func (r *Runner) runTiered(ctx context.Context, run int) (Result, error) {
	reportOpts := []pool.Option[*orders.ExecutionReport]{
		pool.WithReset(func(er *orders.ExecutionReport) { er.Reset() }),
		pool.WithLogger[*orders.ExecutionReport](r.logger),
	}
	if r.gauge != nil {
		reportOpts = append(reportOpts, pool.WithGauge[*orders.ExecutionReport](r.gauge))
	}
	tiered, err := pool.NewTiered(r.poolConfig(ScenarioTiered, run), orders.NewExecutionReport, reportOpts...)
	if err != nil {
		return Result{}, err
	}
	defer tiered.Shutdown()
	if r.collector != nil {
		r.collector.Add(tiered)
	}

	var (
		wg      sync.WaitGroup
		events  atomic.Uint64
		ops     atomic.Uint64
		maxSize atomic.Int64
		stopped atomic.Bool
		latency = metrics.NewLatencyTracker(4096)
		timer   = metrics.NewTimer(ScenarioTiered)
	)
	maxSize.Store(int64(tiered.Size()))

	perWorker := r.cfg.Events / r.cfg.Workers
	extra := r.cfg.Events % r.cfg.Workers

	for w := 0; w < r.cfg.Workers; w++ {
		n := perWorker
		if w < extra {
			n++
		}
		wg.Add(1)
		go func(worker, n int) {
			defer wg.Done()
			order := &orders.Order{ID: uint64(worker), Symbol: "ACME", Type: orders.Limit, Quantity: 1_000_000}
			held := make([]*orders.ExecutionReport, 0, r.cfg.Batch)
			var (
				execID   uint64
				now      = time.Now()
				sampleAt time.Time
			)

			for i := 0; i < n; i++ {
				if i%checkEvery == 0 {
					if ctx.Err() != nil {
						stopped.Store(true)
						return
					}
					observeMax(&maxSize, tiered.Size())
					now = time.Now()
				}
				sampled := i%latencyEvery == 0
				if sampled {
					sampleAt = time.Now()
				}

				for j := 0; j < r.cfg.Batch; j++ {
					er, _ := tiered.Get()
					execID++
					order.Filled++
					side := orders.Maker
					if j%2 == 0 {
						side = orders.Taker
					}
					er.Fill(order, execID, side, 10_000, 1, now)
					held = append(held, er)
				}
				for _, er := range held {
					tiered.Release(er)
				}
				held = held[:0]

				ops.Add(uint64(r.cfg.Batch))
				events.Add(1)
				if sampled {
					latency.Record(time.Since(sampleAt))
				}
			}
		}(w, n)
	}
	wg.Wait()
	observeMax(&maxSize, tiered.Size())

	res := Result{
		Scenario:  ScenarioTiered,
		Workers:   r.cfg.Workers,
		Events:    events.Load(),
		Ops:       ops.Load(),
		MaxSize:   int(maxSize.Load()),
		Duration:  timer.Stop(),
		Pool:      tiered.Stats(),
		Cancelled: stopped.Load(),
	}
	finish(&res, latency)
	return res, nil
}

func observeMax(m *atomic.Int64, size int) {
	n := int64(size)
	for {
		cur := m.Load()
		if n <= cur || m.CompareAndSwap(cur, n) {
			return
		}
	}
}

func finish(res *Result, latency *metrics.LatencyTracker) {
	if res.Ops > 0 {
		res.NsPerOp = float64(res.Duration.Nanoseconds()) / float64(res.Ops)
	}
	res.P50 = latency.Percentile(50)
	res.P99 = latency.Percentile(99)
	res.HitRate = res.Pool.HitRate()
}
