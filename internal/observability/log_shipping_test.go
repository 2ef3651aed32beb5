package observability

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchmaker/internal/config"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"go.uber.org/zap/zapcore"
)

type shipSink struct {
	mu       sync.Mutex
	requests int
	lines    int
	auth     string
	ctype    string
}

func (s *shipSink) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		scanner := bufio.NewScanner(bytes.NewReader(body))
		count := 0
		for scanner.Scan() {
			if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
				count++
			}
		}

		s.mu.Lock()
		s.requests++
		s.lines += count
		s.auth = r.Header.Get("Authorization")
		s.ctype = r.Header.Get("Content-Type")
		s.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	})
}

func newShippingLogger(t *testing.T, cfg config.Config) (*logging.Logger, *LogShipping) {
	t.Helper()
	shipping, err := NewLogShipping(cfg)
	if err != nil {
		t.Fatalf("new log shipping: %v", err)
	}
	logger := logging.New(logging.Options{
		Level:  logging.LevelDebug,
		Output: zapcore.AddSync(io.Discard),
		Extra:  shipping.Extra(),
	})
	return logger, shipping
}

func TestLogShipping_BatchesWarnings(t *testing.T) {
	t.Parallel()

	sink := &shipSink{}
	server := httptest.NewServer(sink.handler())
	defer server.Close()

	logger, shipping := newShippingLogger(t, config.Config{
		BetterStackEnabled:  true,
		BetterStackEndpoint: server.URL,
		BetterStackToken:    "secret-token",
		BetterStackTimeout:  2 * time.Second,
		BetterStackMinLevel: logging.LevelWarn,
	})

	logger.WarnContext(context.Background(), "reconciliation fetch failed", "group_id", "g-1")
	logger.ErrorContext(context.Background(), "notification enqueue failed", "session_id", "s-1")
	logger.InfoContext(context.Background(), "http request", "path", "/v1/sessions")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shipping.Close(ctx); err != nil {
		t.Fatalf("close shipping: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.requests != 1 {
		t.Fatalf("expected one batched request, got %d", sink.requests)
	}
	if sink.lines != 2 {
		t.Fatalf("expected warn and error lines only, got %d", sink.lines)
	}
	if sink.auth != "Bearer secret-token" {
		t.Fatalf("unexpected authorization header: %q", sink.auth)
	}
	if sink.ctype != "application/x-ndjson" {
		t.Fatalf("unexpected content type: %q", sink.ctype)
	}
}

func TestLogShipping_DisabledIsNil(t *testing.T) {
	shipping, err := NewLogShipping(config.Config{})
	if err != nil {
		t.Fatalf("new log shipping: %v", err)
	}
	if shipping != nil {
		t.Fatalf("expected nil shipping when disabled")
	}
	if shipping.Extra() != nil {
		t.Fatalf("expected no extra cores")
	}
	if err := shipping.Close(context.Background()); err != nil {
		t.Fatalf("close nil shipping: %v", err)
	}
}

func TestLogShipping_WriteAfterCloseIsDropped(t *testing.T) {
	sink := &shipSink{}
	server := httptest.NewServer(sink.handler())
	defer server.Close()

	shipper := newLogShipper(server.URL, "", time.Second, time.Hour)
	if err := shipper.Close(context.Background()); err != nil {
		t.Fatalf("close shipper: %v", err)
	}
	if n, err := shipper.Write([]byte(`{"msg":"late"}`)); err != nil || n == 0 {
		t.Fatalf("expected silent drop, got n=%d err=%v", n, err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.requests != 0 {
		t.Fatalf("expected no request after close, got %d", sink.requests)
	}
}

func TestNormalizeShipEndpoint(t *testing.T) {
	cases := map[string]string{
		"":                          "",
		"in.logs.betterstack.com":   "https://in.logs.betterstack.com",
		"http://localhost:9000/ing": "http://localhost:9000/ing",
	}
	for in, want := range cases {
		if got := normalizeShipEndpoint(in); got != want {
			t.Fatalf("normalizeShipEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
