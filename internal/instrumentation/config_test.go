package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	cfg := ConfigFromEnv(envMap(nil))

	assert.Equal(t, "didagoals", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, ExporterPrometheus, cfg.MetricsExporter)
	assert.Equal(t, ExporterNone, cfg.TracingExporter)
	assert.InDelta(t, 0.1, cfg.TraceSamplingRate, 1e-9)
	assert.True(t, cfg.AuditLogging.Enabled)
	assert.False(t, cfg.AuditLogging.IncludeArguments)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	cfg := ConfigFromEnv(envMap(map[string]string{
		"OTEL_SERVICE_NAME":               "goals-staging",
		"INSTRUMENTATION_ENABLED":         "false",
		"METRICS_EXPORTER":                "stdout",
		"TRACING_EXPORTER":                "otlp",
		"OTEL_EXPORTER_OTLP_ENDPOINT":     "collector:4318",
		"OTEL_TRACES_SAMPLER_ARG":         "0.5",
		"METRICS_DETAILED_LABELS":         "true",
		"AUDIT_LOGGING_INCLUDE_ARGUMENTS": "1",
		"POD_NAMESPACE":                   "goals",
	}))

	assert.Equal(t, "goals-staging", cfg.ServiceName)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, ExporterStdout, cfg.MetricsExporter)
	assert.Equal(t, ExporterOTLP, cfg.TracingExporter)
	assert.Equal(t, "collector:4318", cfg.OTLPEndpoint)
	assert.InDelta(t, 0.5, cfg.TraceSamplingRate, 1e-9)
	assert.True(t, cfg.DetailedLabels)
	assert.True(t, cfg.AuditLogging.IncludeArguments)
	assert.Equal(t, "goals", cfg.K8sNamespace, "falls back to POD_NAMESPACE")
}

func TestConfigFromEnv_UnparsableValuesKeepDefaults(t *testing.T) {
	cfg := ConfigFromEnv(envMap(map[string]string{
		"INSTRUMENTATION_ENABLED": "maybe",
		"OTEL_TRACES_SAMPLER_ARG": "half",
	}))

	assert.True(t, cfg.Enabled)
	assert.InDelta(t, 0.1, cfg.TraceSamplingRate, 1e-9)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty exporters", mutate: func(c *Config) { c.MetricsExporter, c.TracingExporter = "", "" }},
		{
			name:    "sampling rate above one",
			mutate:  func(c *Config) { c.TraceSamplingRate = 1.5 },
			wantErr: "trace sampling rate",
		},
		{
			name:    "negative sampling rate",
			mutate:  func(c *Config) { c.TraceSamplingRate = -0.1 },
			wantErr: "trace sampling rate",
		},
		{
			name:    "unknown metrics exporter",
			mutate:  func(c *Config) { c.MetricsExporter = "statsd" },
			wantErr: `invalid metrics exporter "statsd"`,
		},
		{
			name:    "unknown tracing exporter",
			mutate:  func(c *Config) { c.TracingExporter = "jaeger" },
			wantErr: `invalid tracing exporter "jaeger"`,
		},
		{
			name:    "otlp tracing without endpoint",
			mutate:  func(c *Config) { c.TracingExporter = ExporterOTLP },
			wantErr: "OTLP endpoint is required",
		},
		{
			name:    "otlp metrics without endpoint",
			mutate:  func(c *Config) { c.MetricsExporter = ExporterOTLP },
			wantErr: "OTLP endpoint is required",
		},
		{
			name: "otlp with endpoint",
			mutate: func(c *Config) {
				c.MetricsExporter, c.TracingExporter = ExporterOTLP, ExporterOTLP
				c.OTLPEndpoint = "localhost:4318"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConfigFromEnv(envMap(nil))
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
