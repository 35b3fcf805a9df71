// Package observability provides OpenTelemetry tracing for hotpool tools.
//
// Spans cover coarse units of work such as one benchmark scenario. Pool
// operations are never traced.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	ServiceName    string        `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string        `yaml:"service_version" mapstructure:"service_version"`
	Environment    string        `yaml:"environment" mapstructure:"environment"`
	SamplingRate   float64       `yaml:"sampling_rate" mapstructure:"sampling_rate"`
	OutputPath     string        `yaml:"output_path" mapstructure:"output_path"` // empty means stdout
	PrettyPrint    bool          `yaml:"pretty_print" mapstructure:"pretty_print"`
	BatchTimeout   time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout"`
}

// DefaultTracingConfig returns default configuration
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:        false,
		ServiceName:    "hotpool",
		ServiceVersion: "dev",
		Environment:    "development",
		SamplingRate:   1.0,
		BatchTimeout:   5 * time.Second,
	}
}

// Validate checks the sampling rate.
func (c TracingConfig) Validate() error {
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return errors.New(errors.ErrorTypeConfig, "tracing sampling_rate must be in [0, 1]").
			WithDetail("value", c.SamplingRate)
	}
	return nil
}

// Tracer starts spans and owns the provider behind them.
type Tracer struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// Init builds a Tracer from cfg and installs its provider globally. A
// disabled config yields a no-op tracer. Without an output path spans go to
// stdout.
func Init(cfg TracingConfig) (*Tracer, error) {
	return InitTo(cfg, os.Stdout)
}

// InitTo is Init with spans written to fallback when cfg has no output
// path.
func InitTo(cfg TracingConfig, fallback io.Writer) (*Tracer, error) {
	if !cfg.Enabled {
		return Noop(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		w      io.Writer = fallback
		closer io.Closer
	)
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create trace output").
				WithDetail("path", cfg.OutputPath)
		}
		w, closer = f, f
	}

	tp, err := NewTracerProvider(cfg, w)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	otel.SetTracerProvider(tp)

	t := NewTracer(tp, cfg.ServiceName)
	t.shutdown = func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closer != nil {
			if cerr := closer.Close(); err == nil {
				err = cerr
			}
		}
		return err
	}
	return t, nil
}

// NewTracerProvider creates an SDK provider exporting spans as JSON to w.
func NewTracerProvider(cfg TracingConfig, w io.Writer) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create trace resource")
	}

	exporterOpts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if cfg.PrettyPrint {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create stdout exporter")
	}

	var sampler sdktrace.Sampler
	if cfg.SamplingRate <= 0 {
		sampler = sdktrace.NeverSample()
	} else if cfg.SamplingRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Second
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
	), nil
}

// NewTracer wraps a provider. Shutdown on the result is a no-op; the caller
// keeps ownership of tp.
func NewTracer(tp trace.TracerProvider, name string) *Tracer {
	if name == "" {
		name = "hotpool"
	}
	return &Tracer{
		tracer:   tp.Tracer(name),
		shutdown: func(context.Context) error { return nil },
	}
}

// Noop returns a tracer whose spans are never recorded.
func Noop() *Tracer {
	return NewTracer(noop.NewTracerProvider(), "")
}

// Start starts a span.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Trace runs fn inside a span named name and records its outcome.
func (t *Tracer) Trace(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := t.Start(ctx, name, attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	span.SetAttributes(attribute.Int64("duration_ns", time.Since(start).Nanoseconds()))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Shutdown flushes pending spans and releases the output.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if err := t.shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer: %w", err)
	}
	return nil
}
