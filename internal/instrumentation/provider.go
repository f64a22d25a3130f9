package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Provider owns the meter and tracer providers of the server process and
// installs them as the otel globals.
type Provider struct {
	enabled  bool
	metrics  *Metrics
	meters   *metric.MeterProvider
	tracers  *sdktrace.TracerProvider
	registry *promclient.Registry
}

// NewProvider builds the providers described by cfg. A disabled config
// yields a provider whose Metrics records nothing.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{metrics: &Metrics{}}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ConsoleWriter == nil {
		// stdout carries the MCP protocol in stdio mode.
		cfg.ConsoleWriter = os.Stderr
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	p := &Provider{enabled: true}

	reader, err := p.newMetricReader(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}
	p.meters = metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(reader))

	p.tracers, err = newTracerProvider(ctx, cfg, res)
	if err != nil {
		if shutdownErr := p.meters.Shutdown(ctx); shutdownErr != nil {
			err = errors.Join(err, shutdownErr)
		}
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}

	otel.SetMeterProvider(p.meters)
	otel.SetTracerProvider(p.tracers)

	p.metrics, err = NewMetrics(p.meters.Meter(cfg.ServiceName), cfg.DetailedLabels)
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
	}
	return p, nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	}

	instance := cfg.ServiceInstanceID
	if instance == "" {
		instance, _ = os.Hostname()
	}
	if instance != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(instance))
	}
	if cfg.K8sNamespace != "" {
		attrs = append(attrs, semconv.K8SNamespaceName(cfg.K8sNamespace))
	}
	if cfg.K8sPodName != "" {
		attrs = append(attrs, semconv.K8SPodName(cfg.K8sPodName))
	}
	return resource.New(ctx, resource.WithAttributes(attrs...))
}

// newMetricReader returns the reader for cfg.MetricsExporter. The prometheus
// exporter registers on a private registry served by MetricsHandler.
func (p *Provider) newMetricReader(ctx context.Context, cfg Config) (metric.Reader, error) {
	switch cfg.MetricsExporter {
	case ExporterPrometheus, "":
		reg := promclient.NewRegistry()
		if err := reg.Register(collectors.NewGoCollector()); err != nil {
			return nil, err
		}
		if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, err
		}
		exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		p.registry = reg
		return exporter, nil

	case ExporterOTLP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return metric.NewPeriodicReader(exporter, metric.WithInterval(DefaultMetricInterval)), nil

	case ExporterStdout:
		slog.Warn("stdout metrics exporter enabled, use for debugging only", "component", "instrumentation")
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.ConsoleWriter))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return metric.NewPeriodicReader(exporter, metric.WithInterval(DefaultMetricInterval)), nil
	}
	return nil, fmt.Errorf("unsupported metrics exporter: %s", cfg.MetricsExporter)
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		return sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.NeverSample()),
		), nil
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TraceSamplingRate))),
	), nil
}

// newSpanExporter returns nil when tracing is off.
func newSpanExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.TracingExporter {
	case ExporterNone, "":
		return nil, nil

	case ExporterOTLP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			// Spans carry goal ids and tool names.
			slog.Warn("OTLP trace export without TLS", "component", "instrumentation", "endpoint", cfg.OTLPEndpoint)
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		return exporter, nil

	case ExporterStdout:
		slog.Warn("stdout trace exporter enabled, use for debugging only", "component", "instrumentation")
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.ConsoleWriter))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		return exporter, nil
	}
	return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.TracingExporter)
}

// Metrics returns the recorder handed to clients and tool handlers.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

// MetricsHandler serves the prometheus registry, or returns nil when the
// provider does not export to prometheus.
func (p *Provider) MetricsHandler() http.Handler {
	if p.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Shutdown flushes pending telemetry.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	var errs []error
	if p.meters != nil {
		if err := p.meters.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	if p.tracers != nil {
		if err := p.tracers.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Enabled reports whether telemetry is being recorded.
func (p *Provider) Enabled() bool {
	return p.enabled
}
