package instrumentation

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	for _, key := range []string{"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER", "TRACING_EXPORTER", "OTEL_TRACES_SAMPLER_ARG"} {
		t.Setenv(key, "")
	}

	config := DefaultConfig()

	if config.ServiceName != "mailmcp" {
		t.Errorf("expected ServiceName 'mailmcp', got %q", config.ServiceName)
	}
	if !config.Enabled {
		t.Error("expected Enabled to be true by default")
	}
	if config.MetricsExporter != ExporterPrometheus {
		t.Errorf("expected MetricsExporter 'prometheus', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterNone {
		t.Errorf("expected TracingExporter 'none', got %q", config.TracingExporter)
	}
	if config.TraceSamplingRate != 0.1 {
		t.Errorf("expected TraceSamplingRate 0.1, got %f", config.TraceSamplingRate)
	}
	if !config.AuditLogging.Enabled || config.AuditLogging.IncludePII {
		t.Errorf("unexpected audit defaults: %+v", config.AuditLogging)
	}
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "mail-test")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("TRACING_EXPORTER", "stdout")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "true")

	config := DefaultConfig()

	if config.ServiceName != "mail-test" {
		t.Errorf("expected ServiceName 'mail-test', got %q", config.ServiceName)
	}
	if config.Enabled {
		t.Error("expected Enabled to be false")
	}
	if config.MetricsExporter != ExporterStdout || config.TracingExporter != ExporterStdout {
		t.Errorf("expected stdout exporters, got %q/%q", config.MetricsExporter, config.TracingExporter)
	}
	if config.TraceSamplingRate != 0.5 {
		t.Errorf("expected TraceSamplingRate 0.5, got %f", config.TraceSamplingRate)
	}
	if !config.AuditLogging.IncludePII {
		t.Error("expected IncludePII to be true")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		errContains string
	}{
		{
			name:   "prometheus without tracing",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone},
		},
		{
			name:   "otlp tracing with endpoint",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
		{name: "negative sampling rate", config: Config{TraceSamplingRate: -0.5}, errContains: "sampling rate"},
		{name: "sampling rate above 1", config: Config{TraceSamplingRate: 1.5}, errContains: "sampling rate"},
		{name: "unknown metrics exporter", config: Config{MetricsExporter: "statsd"}, errContains: "invalid metrics exporter"},
		{name: "unknown tracing exporter", config: Config{TracingExporter: "zipkin"}, errContains: "invalid tracing exporter"},
		{name: "otlp tracing without endpoint", config: Config{TracingExporter: ExporterOTLP}, errContains: "OTLP endpoint is required"},
		{name: "otlp metrics without endpoint", config: Config{MetricsExporter: ExporterOTLP}, errContains: "OTLP endpoint is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("MAILMCP_TEST_BOOL", "true")
	t.Setenv("MAILMCP_TEST_BAD_BOOL", "yes please")
	t.Setenv("MAILMCP_TEST_FLOAT", "0.75")
	t.Setenv("MAILMCP_TEST_BAD_FLOAT", "three quarters")

	v := viper.New()
	v.AutomaticEnv()

	if !envBool(v, "MAILMCP_TEST_BOOL", false) {
		t.Error("expected true")
	}
	if !envBool(v, "MAILMCP_TEST_BAD_BOOL", true) {
		t.Error("expected default for unparseable bool")
	}
	if envBool(v, "MAILMCP_TEST_UNSET", false) {
		t.Error("expected default for unset bool")
	}
	if f := envFloat(v, "MAILMCP_TEST_FLOAT", 0.5); f != 0.75 {
		t.Errorf("envFloat() = %f, want 0.75", f)
	}
	if f := envFloat(v, "MAILMCP_TEST_BAD_FLOAT", 0.5); f != 0.5 {
		t.Errorf("envFloat() = %f, want default 0.5", f)
	}
}

func TestDefaultConfig_BadValuesFallBack(t *testing.T) {
	t.Setenv("INSTRUMENTATION_ENABLED", "maybe")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "often")

	config := DefaultConfig()
	if !config.Enabled {
		t.Error("expected Enabled default for unparseable value")
	}
	if config.TraceSamplingRate != 0.1 {
		t.Errorf("expected default sampling rate, got %f", config.TraceSamplingRate)
	}
}
