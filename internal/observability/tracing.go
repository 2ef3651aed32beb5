package observability

import (
	"context"

	"github.com/riskibarqy/matchmaker/internal/config"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

// InitTracing installs the global OpenTelemetry providers pointing at Uptrace.
// The returned shutdown flushes pending spans.
func InitTracing(cfg config.Config, logger *logging.Logger) func(context.Context) error {
	if logger == nil {
		logger = logging.Default()
	}

	if !TracingEnabled(cfg) {
		logger.Info("tracing disabled", "uptrace_enabled", cfg.UptraceEnabled)
		return func(context.Context) error { return nil }
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)
	logger.Info("tracing enabled",
		"exporter", "uptrace",
		"service_name", cfg.ServiceName,
		"environment", cfg.AppEnv,
	)

	return uptrace.Shutdown
}

// TracingEnabled reports whether spans leave the process at all.
func TracingEnabled(cfg config.Config) bool {
	return cfg.UptraceEnabled && cfg.UptraceDSN != ""
}
