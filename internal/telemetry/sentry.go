package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

const serviceName = "relayline"

// Init configures Sentry error reporting and tracing. An empty DSN disables
// telemetry entirely; every helper below becomes a no-op.
func Init(dsn, environment string, debug bool) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		ServerName:       serviceName,
		Debug:            debug,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		return fmt.Errorf("initialize sentry: %w", err)
	}
	return nil
}

// Close flushes buffered events before shutdown.
func Close() {
	sentry.Flush(2 * time.Second)
}

// CaptureError reports an error with optional key/value tags.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// SpanAttributes annotates a traced operation.
type SpanAttributes struct {
	RequestID string
	Question  string
}

// Span wraps a sentry span so callers do not import the sentry SDK.
type Span struct {
	span *sentry.Span
}

// StartSpan begins a traced operation. The returned context carries the span
// so nested operations attach to it.
func StartSpan(ctx context.Context, operation string, attrs *SpanAttributes) (context.Context, *Span) {
	span := sentry.StartSpan(ctx, operation)
	if attrs != nil {
		if attrs.RequestID != "" {
			span.SetTag("request_id", attrs.RequestID)
		}
		if attrs.Question != "" {
			span.SetData("question", attrs.Question)
		}
	}
	return span.Context(), &Span{span: span}
}

func (s *Span) SetData(key string, value any) {
	s.span.SetData(key, value)
}

func (s *Span) Finish() {
	s.span.Finish()
}
