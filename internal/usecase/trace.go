package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("matchmaker/internal/usecase")

const (
	attrGroupID   = attribute.Key("matchmaker.group_id")
	attrSessionID = attribute.Key("matchmaker.session_id")
	attrPlayerID  = attribute.Key("matchmaker.player_id")
)

// startUsecaseSpan opens a child span tagged with the ids the operation works
// on. Untraced callers get their own (non-recording) span back.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, parent
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(nonEmptyAttrs(attrs)...))
}

// nonEmptyAttrs drops blank string ids so spans do not carry empty tags.
func nonEmptyAttrs(attrs []attribute.KeyValue) []attribute.KeyValue {
	out := attrs[:0:0]
	for _, kv := range attrs {
		if kv.Value.Type() == attribute.STRING && kv.Value.AsString() == "" {
			continue
		}
		out = append(out, kv)
	}
	return out
}
