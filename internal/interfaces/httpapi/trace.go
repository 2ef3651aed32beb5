package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("matchmaker/internal/interfaces/httpapi")

// routeParams lists the path wildcards copied onto handler spans.
var routeParams = []struct {
	name string
	key  attribute.Key
}{
	{name: "groupID", key: "matchmaker.group_id"},
	{name: "sessionID", key: "matchmaker.session_id"},
}

// startHandlerSpan opens "httpapi.Handler.<op>" below the request span. Untraced
// requests such as /healthz get the existing non-recording span back.
func startHandlerSpan(r *http.Request, op string) (context.Context, trace.Span) {
	ctx := r.Context()
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, parent
	}
	return apiTracer.Start(ctx, handlerSpanName(op), trace.WithAttributes(routeAttributes(r)...))
}

func handlerSpanName(op string) string {
	return "httpapi.Handler." + op
}

func routeAttributes(r *http.Request) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, p := range routeParams {
		if v := strings.TrimSpace(r.PathValue(p.name)); v != "" {
			attrs = append(attrs, p.key.String(v))
		}
	}
	return attrs
}

// recordSpanError tags the active span with the API error reason. Only server
// side failures mark the span as errored.
func recordSpanError(ctx context.Context, err error, mapped mappedError) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.String("matchmaker.error_reason", mapped.Reason),
		attribute.Int("http.response.status_code", mapped.HTTPStatus),
	)
	if mapped.HTTPStatus >= http.StatusInternalServerError {
		span.RecordError(err)
		span.SetStatus(codes.Error, mapped.Status)
	}
}
