package jobqueue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchmaker/internal/domain/notification"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"github.com/riskibarqy/matchmaker/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errQStashTransient = crerr.New("qstash transient failure")

const notificationPathPrefix = "/v1/jobs/notifications/"

type QStashPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// QStashPublisher hands notification jobs to QStash, which calls the delivery
// worker at TargetBaseURL. Upstash deduplicates on the job key.
type QStashPublisher struct {
	client           *http.Client
	baseURL          string
	token            string
	targetBaseURL    string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) *QStashPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	p := &QStashPublisher{
		client:           &http.Client{Timeout: timeout},
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:            strings.TrimSpace(cfg.Token),
		targetBaseURL:    strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		retries:          cfg.Retries,
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger,
		breaker:          resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}
	p.breaker.OnStateChange(func(from, to resilience.CircuitState) {
		if to == resilience.CircuitStateOpen {
			logger.Warn("qstash circuit breaker opened", "from", string(from))
			return
		}
		logger.Info("qstash circuit breaker state changed", "from", string(from), "to", string(to))
	})
	return p
}

func (p *QStashPublisher) Enqueue(ctx context.Context, job notification.Job) error {
	if strings.TrimSpace(string(job.Kind)) == "" || strings.TrimSpace(job.SessionID) == "" {
		return crerr.New("notification kind and session id are required")
	}

	baseURL, err := validateHTTPBaseURL(p.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	path := notificationPathPrefix + url.PathEscape(string(job.Kind))
	targetURL := targetBaseURL + path
	publishURL := baseURL + "/v2/publish/" + targetURL
	dedupID := deduplicationID(job)

	body, err := sonic.Marshal(job)
	if err != nil {
		return crerr.Wrap(err, "marshal notification job")
	}
	bodyText := truncateForLog(string(body), 4096)
	curlPreview := buildQStashCurlPreview(publishURL, path, p.retries, dedupID, bodyText, p.internalJobToken != "")

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.publish_url", publishURL),
			attribute.String("qstash.target_url", targetURL),
			attribute.String("qstash.deduplication_id", dedupID),
			attribute.String("qstash.request_curl_preview", curlPreview),
		)
	}
	p.logger.DebugContext(ctx, "qstash publish request", "kind", string(job.Kind), "session_id", job.SessionID, "curl_preview", curlPreview)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	req.Header.Set("Upstash-Deduplication-Id", dedupID)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if p.internalJobToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Job-Token", p.internalJobToken)
	}

	err = p.breaker.Execute(func() error { return p.send(req, job) }, isQStashTransient)
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", string(p.breaker.State()), "session_id", job.SessionID)
		return crerr.Wrap(err, "qstash is temporarily unavailable")
	}
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "notification job published",
		"kind", string(job.Kind),
		"session_id", job.SessionID,
		"recipients", len(job.RecipientIDs),
		"deduplication_id", dedupID,
	)
	return nil
}

func (p *QStashPublisher) send(req *http.Request, job notification.Job) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return crerr.Mark(crerr.Wrapf(err, "publish notification session=%s kind=%s", job.SessionID, job.Kind), errQStashTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	callErr := crerr.Newf("publish notification status=%d session=%s kind=%s body=%s",
		resp.StatusCode, job.SessionID, job.Kind, strings.TrimSpace(string(raw)))
	if isQStashRetryableStatus(resp.StatusCode) {
		callErr = crerr.Mark(callErr, errQStashTransient)
	}
	return callErr
}

// deduplicationID turns the job key into a header-safe id.
func deduplicationID(job notification.Job) string {
	return strings.NewReplacer(":", "-", "/", "-", " ", "-").Replace(job.DedupKey())
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func buildQStashCurlPreview(publishURL, path string, retries int, dedupID, body string, withForwardToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	header := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(publishURL))
	header("Authorization: Bearer ***")
	header("Content-Type: application/json")
	header("Upstash-Method: POST")
	header("Upstash-Deduplication-Id: " + dedupID)
	if retries > 0 {
		header("Upstash-Retries: " + strconv.Itoa(retries))
	}
	if withForwardToken {
		header("Upstash-Forward-X-Internal-Job-Token: ***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))
	appendPart("#")
	appendPart(shellQuote("path=" + path))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

// isQStashTransient keeps 4xx rejections from tripping the breaker.
func isQStashTransient(err error) bool {
	return crerr.Is(err, errQStashTransient)
}

func isQStashRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

// LogPublisher records jobs in the log instead of delivering them. Used when
// QStash is disabled.
type LogPublisher struct {
	logger *logging.Logger
}

func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Enqueue(ctx context.Context, job notification.Job) error {
	p.logger.InfoContext(ctx, "notification job skipped, qstash disabled",
		"kind", string(job.Kind),
		"session_id", job.SessionID,
		"group_id", job.GroupID,
		"recipients", fmt.Sprint(job.RecipientIDs),
	)
	return nil
}
