package instrumentation

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"
)

// Config holds the OpenTelemetry settings of the server.
type Config struct {
	ServiceName       string
	ServiceVersion    string
	ServiceInstanceID string // hostname when empty

	// Attached to the resource when set.
	K8sNamespace string
	K8sPodName   string

	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout.
	MetricsExporter string
	// TracingExporter is otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port of the collector, without scheme.
	OTLPEndpoint string
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio in [0, 1].
	TraceSamplingRate float64

	// DetailedLabels adds higher-cardinality labels such as the skip reason
	// of malformed goal tasks.
	DetailedLabels bool

	// ConsoleWriter receives the stdout exporters' output. Defaults to
	// os.Stderr.
	ConsoleWriter io.Writer

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the tool audit trail.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludeArguments adds the raw tool arguments to audit records. Goal
	// titles and notes are personal data, so this is off by default.
	IncludeArguments bool
}

// DefaultConfig reads the config from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from getenv, falling back to defaults for
// unset or unparsable values.
func ConfigFromEnv(getenv func(string) string) Config {
	env := envReader(getenv)
	return Config{
		ServiceName:       env.str("didagoals", "OTEL_SERVICE_NAME"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: env.str("", "OTEL_SERVICE_INSTANCE_ID"),
		K8sNamespace:      env.str("", "K8S_NAMESPACE", "POD_NAMESPACE"),
		K8sPodName:        env.str("", "K8S_POD_NAME", "HOSTNAME"),
		Enabled:           env.boolean("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:   env.str(ExporterPrometheus, "METRICS_EXPORTER"),
		TracingExporter:   env.str(ExporterNone, "TRACING_EXPORTER"),
		OTLPEndpoint:      env.str("", "OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:      env.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate: env.float("OTEL_TRACES_SAMPLER_ARG", 0.1),
		DetailedLabels:    env.boolean("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:          env.boolean("AUDIT_LOGGING_ENABLED", true),
			IncludeArguments: env.boolean("AUDIT_LOGGING_INCLUDE_ARGUMENTS", false),
		},
	}
}

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Validate rejects unknown exporters, sampling rates outside [0, 1] and OTLP
// export without an endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of %v", c.MetricsExporter, metricsExporters)
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of %v", c.TracingExporter, tracingExporters)
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required for the otlp exporter, set OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	return nil
}

type envReader func(string) string

// str returns the first non-empty of keys.
func (e envReader) str(def string, keys ...string) string {
	for _, k := range keys {
		if v := e(k); v != "" {
			return v
		}
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	v, err := strconv.ParseBool(e(key))
	if err != nil {
		return def
	}
	return v
}

func (e envReader) float(key string, def float64) float64 {
	v, err := strconv.ParseFloat(e(key), 64)
	if err != nil {
		return def
	}
	return v
}

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	RefreshResultSuccess = "success"
	RefreshResultFailure = "failure"

	ServiceDida        = "dida"
	ServiceGoogleTasks = "google_tasks"
	ServiceProgress    = "progress"
	ServiceEvents      = "events"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	DefaultMetricInterval = 10 * time.Second
)
