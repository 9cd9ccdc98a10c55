package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope for all dialog-pipeline spans.
const tracerName = "github.com/voxmenu/voxmenu"

// Tracer returns the package tracer from the globally registered
// [trace.TracerProvider].
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan opens a span under the active trace in ctx. The caller must end
// it. The dialog manager opens one span per turn; nested work (extraction,
// delegate calls, sink appends) shows up as child spans of that turn.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// CorrelationID returns the active trace ID, the identifier that ties one
// caller turn together across log lines. Empty when ctx carries no sampled
// span.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default slog logger with trace_id and span_id attached
// when ctx carries an active span, and unchanged otherwise. Handlers that
// log inside a turn use this so every line of a call is greppable by trace.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
