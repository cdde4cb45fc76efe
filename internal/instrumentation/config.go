package instrumentation

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Label values and exporter names.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// DefaultMetricInterval is the push interval of the periodic exporters.
	DefaultMetricInterval = 10 * time.Second
)

// Environment variables read by DefaultConfig.
const (
	envServiceName      = "OTEL_SERVICE_NAME"
	envInstanceID       = "OTEL_SERVICE_INSTANCE_ID"
	envEnabled          = "INSTRUMENTATION_ENABLED"
	envMetricsExporter  = "METRICS_EXPORTER"
	envTracingExporter  = "TRACING_EXPORTER"
	envOTLPEndpoint     = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPInsecure     = "OTEL_EXPORTER_OTLP_INSECURE"
	envSamplingRate     = "OTEL_TRACES_SAMPLER_ARG"
	envDetailedLabels   = "METRICS_DETAILED_LABELS"
	envAuditEnabled     = "AUDIT_LOGGING_ENABLED"
	envAuditIncludePII  = "AUDIT_LOGGING_INCLUDE_PII"
	defaultServiceName  = "mailmcp"
	defaultSamplingRate = 0.1
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config controls metrics, tracing and audit logging.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID defaults to the hostname.
	ServiceInstanceID string

	// Enabled turns the whole layer on or off. A disabled provider hands out
	// no-op metrics and tracers.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port of the collector, without scheme.
	OTLPEndpoint string

	// OTLPInsecure disables TLS towards the collector. Development only.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio, 0.0 to 1.0.
	TraceSamplingRate float64

	// DetailedLabels adds the mailbox user's domain to tool metrics.
	// Keep it disabled when one server instance serves many mailboxes.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs the full mailbox address instead of its hash and domain.
	IncludePII bool
}

// DefaultConfig reads the instrumentation settings from the environment.
// Unparseable values fall back to their defaults.
func DefaultConfig() Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(envServiceName, defaultServiceName)
	v.SetDefault(envMetricsExporter, ExporterPrometheus)
	v.SetDefault(envTracingExporter, ExporterNone)

	return Config{
		ServiceName:       v.GetString(envServiceName),
		ServiceVersion:    "unknown",
		ServiceInstanceID: v.GetString(envInstanceID),
		Enabled:           envBool(v, envEnabled, true),
		MetricsExporter:   v.GetString(envMetricsExporter),
		TracingExporter:   v.GetString(envTracingExporter),
		OTLPEndpoint:      v.GetString(envOTLPEndpoint),
		OTLPInsecure:      envBool(v, envOTLPInsecure, false),
		TraceSamplingRate: envFloat(v, envSamplingRate, defaultSamplingRate),
		DetailedLabels:    envBool(v, envDetailedLabels, false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    envBool(v, envAuditEnabled, true),
			IncludePII: envBool(v, envAuditIncludePII, false),
		},
	}
}

// Validate checks exporter names, the sampling rate and the OTLP endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}
	if c.OTLPEndpoint == "" {
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		}
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	}
	return nil
}

func envBool(v *viper.Viper, key string, def bool) bool {
	raw := v.GetString(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func envFloat(v *viper.Viper, key string, def float64) float64 {
	raw := v.GetString(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}
