package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/hotpool/internal/bench"
	"github.com/ajitpratap0/hotpool/pkg/config"
	"github.com/ajitpratap0/hotpool/pkg/logger"
	"github.com/ajitpratap0/hotpool/pkg/memory"
	"github.com/ajitpratap0/hotpool/pkg/metrics"
	"github.com/ajitpratap0/hotpool/pkg/observability"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	var writePath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration that results from defaults, the --config file
and HOTPOOL_* environment variables, in that order of precedence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configFile)
			if err != nil {
				return err
			}
			if writePath != "" {
				return config.Save(writePath, cfg)
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&writePath, "write", "w", "", "Write the configuration to this file instead of stdout")
	return cmd
}

func newMonitorCommand(flags *globalFlags) *cobra.Command {
	var (
		count  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Sample the configured memory probe and print each reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(flags)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			monitor, err := cfg.Memory.NewMonitor()
			if err != nil {
				return err
			}
			if err := monitor.Start(); err != nil {
				return err
			}
			defer monitor.Shutdown()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)
			if cfg.Metrics.Enabled {
				g.Go(func() error {
					return serveMetrics(ctx, log, cfg.Metrics, metrics.NewMonitorCollector(monitor))
				})
			}
			g.Go(func() error {
				defer cancel()
				return printSamples(ctx, cmd.OutOrStdout(), monitor, cfg.Pool.HeadroomRatio, count, asJSON)
			})
			return g.Wait()
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after this many readings (0 runs until interrupted)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print readings as JSON lines")
	return cmd
}

type reading struct {
	Time        time.Time `json:"time"`
	UsedBytes   int64     `json:"used_bytes"`
	MaxBytes    int64     `json:"max_bytes"`
	Available   int64     `json:"available_bytes"`
	HasHeadroom bool      `json:"has_headroom"`
	Failures    uint64    `json:"probe_failures"`
}

func printSamples(ctx context.Context, w io.Writer, m *memory.Monitor, ratio float64, count int, asJSON bool) error {
	ticker := time.NewTicker(m.Interval())
	defer ticker.Stop()

	enc := json.NewEncoder(w)
	for printed := 0; count == 0 || printed < count; printed++ {
		snap, at := m.Snapshot()
		r := reading{
			Time:        at,
			UsedBytes:   snap.UsedBytes,
			MaxBytes:    snap.MaxBytes,
			Available:   snap.Available(),
			HasHeadroom: float64(snap.Available()) > float64(snap.MaxBytes)*ratio,
			Failures:    m.Failures(),
		}
		if asJSON {
			if err := enc.Encode(r); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(w, "%s used=%s max=%s available=%s headroom=%t\n",
				r.Time.Format(time.RFC3339), formatBytes(r.UsedBytes), formatBytes(r.MaxBytes),
				formatBytes(r.Available), r.HasHeadroom)
		}

		if count != 0 && printed+1 == count {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func newBenchCommand(flags *globalFlags) *cobra.Command {
	benchCfg := bench.DefaultConfig()
	var (
		reportPath   string
		ungated      bool
		profileDir   string
		profileTypes string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the order hot-path simulation against both pool kinds",
		Long: `Run the stack scenario (one event loop recycling orders) and the tiered
scenario (workers sharing a pool of execution reports). Results are logged and
optionally written as JSON; a .zst, .lz4, .gz, .s2 or .sz extension on
--report compresses the file.

Example:
  hotpool bench --events 5000000 --workers 8 --report bench.json.zst`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(flags)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			benchCfg.Pool = cfg.Pool
			report := bench.NewReport(benchCfg, nil)
			ctx := context.WithValue(cmd.Context(), logger.RunIDKey, report.RunID)
			log = logger.WithContext(ctx).Named("bench")

			// A report on stdout must stay a single JSON document.
			traceOut := cmd.OutOrStdout()
			if reportPath == "" {
				traceOut = cmd.ErrOrStderr()
			}
			tracer, err := observability.InitTo(cfg.Tracing, traceOut)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracer.Shutdown(shutdownCtx); err != nil {
					log.Warn("failed to flush traces", zap.Error(err))
				}
			}()

			poolCollector := metrics.NewPoolCollector()
			opts := []bench.Option{
				bench.WithLogger(log),
				bench.WithTracer(tracer),
				bench.WithCollector(poolCollector),
			}
			promCollectors := []prometheus.Collector{poolCollector}

			var monitor *memory.Monitor
			if !ungated {
				monitor, err = cfg.Memory.NewMonitor()
				if err != nil {
					return err
				}
				if err := monitor.Start(); err != nil {
					return err
				}
				defer monitor.Shutdown()
				opts = append(opts, bench.WithGauge(monitor))
				promCollectors = append(promCollectors, metrics.NewMonitorCollector(monitor))
			}

			runner, err := bench.NewRunner(benchCfg, opts...)
			if err != nil {
				return err
			}

			if profileDir != "" {
				types, err := bench.ParseProfileTypes(profileTypes)
				if err != nil {
					return err
				}
				profiler := bench.NewProfiler(profileDir, types, log)
				if err := profiler.Start(); err != nil {
					return err
				}
				defer func() {
					if err := profiler.Stop(); err != nil {
						log.Warn("failed to write profiles", zap.Error(err))
					}
				}()
			}

			var results []bench.Result
			g, gctx := errgroup.WithContext(ctx)
			serverCtx, stopServer := context.WithCancel(gctx)
			defer stopServer()
			if cfg.Metrics.Enabled {
				g.Go(func() error {
					return serveMetrics(serverCtx, log, cfg.Metrics, promCollectors...)
				})
			}
			g.Go(func() error {
				defer stopServer()
				var err error
				results, err = runner.Run(gctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			report.Results = results
			if monitor != nil {
				snap, _ := monitor.Snapshot()
				report.Probe = cfg.Memory.Probe
				report.Memory = &snap
			}
			if reportPath == "" {
				return report.Encode(cmd.OutOrStdout())
			}
			if err := bench.WriteReport(reportPath, report); err != nil {
				return err
			}
			log.Info("report written", zap.String("path", reportPath))
			return nil
		},
	}

	cmd.Flags().IntVar(&benchCfg.Events, "events", benchCfg.Events, "Events per scenario")
	cmd.Flags().IntVar(&benchCfg.Batch, "batch", benchCfg.Batch, "Instances borrowed per event")
	cmd.Flags().IntVar(&benchCfg.Workers, "workers", benchCfg.Workers, "Goroutines in the tiered scenario")
	cmd.Flags().StringSliceVar(&benchCfg.Scenarios, "scenario", benchCfg.Scenarios, "Scenarios to run (stack, tiered)")
	cmd.Flags().StringVarP(&reportPath, "report", "o", "", "Write the JSON report to this file instead of stdout")
	cmd.Flags().StringVar(&profileDir, "profile-dir", "", "Write pprof profiles for the run into this directory")
	cmd.Flags().StringVar(&profileTypes, "profile-types", "cpu,memory", "Profile types (cpu,memory,block,mutex,goroutine,all)")
	cmd.Flags().BoolVar(&ungated, "ungated", false, "Run without a memory monitor; pools never see pressure")
	return cmd
}

// serveMetrics serves collectors on cfg.Addr until ctx is done.
func serveMetrics(ctx context.Context, log *zap.Logger, cfg config.MetricsConfig, cs ...prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving metrics", zap.String("addr", cfg.Addr), zap.String("path", path))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
