package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/matchmaker/internal/config"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
)

func TestTracingEnabled(t *testing.T) {
	if TracingEnabled(config.Config{UptraceEnabled: true}) {
		t.Fatalf("expected tracing off without dsn")
	}
	if TracingEnabled(config.Config{UptraceDSN: "https://token@api.uptrace.dev/1"}) {
		t.Fatalf("expected tracing off when not enabled")
	}
	if !TracingEnabled(config.Config{UptraceEnabled: true, UptraceDSN: "https://token@api.uptrace.dev/1"}) {
		t.Fatalf("expected tracing on")
	}
}

func TestInitTracing_DisabledShutdownIsNoop(t *testing.T) {
	shutdown := InitTracing(config.Config{}, logging.NewNop())
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
}

func TestProfilingDisabled(t *testing.T) {
	stop, err := InitProfiling(config.Config{}, logging.NewNop())
	if err != nil {
		t.Fatalf("init profiling: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop profiling: %v", err)
	}
	if srv := StartPprofServer(config.Config{}, logging.NewNop()); srv != nil {
		t.Fatalf("expected no pprof server when disabled")
	}
	if err := StopPprofServer(context.Background(), nil); err != nil {
		t.Fatalf("stop nil pprof server: %v", err)
	}
}
