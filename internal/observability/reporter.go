package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
)

// Reporter is the fire-and-forget error sink. A failure to report must
// never affect the stream it is reporting about.
type Reporter interface {
	ReportError(ctx context.Context, err error, attrs map[string]string)
}

type reporter struct {
	log *logger.Logger
}

func NewReporter(baseLog *logger.Logger) Reporter {
	return &reporter{log: baseLog.With("component", "ErrorReporter")}
}

func (r *reporter) ReportError(ctx context.Context, err error, attrs map[string]string) {
	defer func() {
		_ = recover()
	}()
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		kv := make([]attribute.KeyValue, 0, len(attrs))
		for k, v := range attrs {
			kv = append(kv, attribute.String(k, v))
		}
		span.RecordError(err, trace.WithAttributes(kv...))
	}
	fields := []interface{}{"error", err}
	for k, v := range attrs {
		fields = append(fields, k, v)
	}
	r.log.Error("pipeline error reported", fields...)
}
