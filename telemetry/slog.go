package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/event"
)

// SlogHandler writes log events to a *slog.Logger and ignores metrics.
// An "error" label raises the record to slog.LevelError. When the context
// carries a recording span, its ids are attached and an error marks the
// span as failed.
type SlogHandler struct {
	logger       *slog.Logger
	errorHandler ErrorHandler
}

var _ event.Handler = (*SlogHandler)(nil)

// SlogHandlerOption configures an SlogHandler.
type SlogHandlerOption func(*SlogHandler)

// WithSlogErrorHandler receives errors returned by the slog.Handler.
func WithSlogErrorHandler(fn ErrorHandler) SlogHandlerOption {
	return func(s *SlogHandler) {
		s.errorHandler = fn
	}
}

func NewSlogHandler(logger *slog.Logger, opts ...SlogHandlerOption) (*SlogHandler, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}

	h := &SlogHandler{logger: logger}
	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

func (h *SlogHandler) Event(ctx context.Context, ev *event.Event) context.Context {
	switch {
	case ev == nil:
		handleError(h.errorHandler, ErrNilEvent)
		return ctx
	case ev.Kind != event.LogKind:
		return ctx
	}

	rctx := ctx
	if rctx == nil {
		rctx = context.Background()
	}

	msg, failed, attrs := convert(ev)
	level := slog.LevelInfo
	if failed {
		level = slog.LevelError
	}
	if !h.logger.Enabled(rctx, level) {
		return ctx
	}
	attrs = append(attrs, correlate(rctx, msg, failed)...)

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	r := slog.NewRecord(at, level, msg, callerPC())
	r.AddAttrs(attrs...)
	if err := h.logger.Handler().Handle(rctx, r); err != nil {
		handleError(h.errorHandler, err)
	}

	return ctx
}

// convert splits ev into its message, whether it reports an error, and the
// remaining labels as attributes.
func convert(ev *event.Event) (msg string, failed bool, attrs []slog.Attr) {
	src := []struct{ key, val string }{
		{"in", ev.Source.Space},
		{"owner", ev.Source.Owner},
		{"name", ev.Source.Name},
	}
	for _, s := range src {
		if s.val != "" {
			attrs = append(attrs, slog.String(s.key, s.val))
		}
	}
	if ev.Parent != 0 {
		attrs = append(attrs, slog.Uint64("parent", ev.Parent))
	}

	for _, l := range ev.Labels {
		if !l.HasValue() || l.Name == "" {
			continue
		}

		switch l.Name {
		case "msg":
			msg = l.String()
			continue
		case "error":
			failed = true
		}
		attrs = append(attrs, toAttr(l))
	}

	return msg, failed, attrs
}

// correlate returns the trace and span ids of the recording span in ctx.
func correlate(ctx context.Context, msg string, failed bool) []slog.Attr {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return nil
	}
	if failed {
		span.SetStatus(codes.Error, msg)
	}

	sc := span.SpanContext()
	var attrs []slog.Attr
	if sc.HasTraceID() {
		attrs = append(attrs, slog.String("traceId", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		attrs = append(attrs, slog.String("spanId", sc.SpanID().String()))
	}

	return attrs
}

// callerPC skips runtime.Callers, callerPC, Event, the exporter and event.Log.
func callerPC() uintptr {
	var pcs [1]uintptr
	runtime.Callers(5, pcs[:])
	return pcs[0]
}

func toAttr(l event.Label) slog.Attr {
	switch {
	case l.IsString():
		return slog.String(l.Name, l.String())
	case l.IsInt64():
		return slog.Int64(l.Name, l.Int64())
	case l.IsUint64():
		return slog.Uint64(l.Name, l.Uint64())
	case l.IsFloat64():
		return slog.Float64(l.Name, l.Float64())
	case l.IsBool():
		return slog.Bool(l.Name, l.Bool())
	case l.IsBytes():
		return slog.String(l.Name, string(l.Bytes()))
	}

	switch v := l.Interface().(type) {
	case error:
		return slog.String(l.Name, v.Error())
	case fmt.Stringer:
		return slog.String(l.Name, v.String())
	default:
		return slog.Any(l.Name, v)
	}
}
