// Package telemetry routes golang.org/x/exp/event logs and metrics to
// log/slog, Prometheus and OpenTelemetry.
//
//	reg := prometheus.NewRegistry()
//	prom, _ := telemetry.NewPrometheusHandler(reg)
//	logs, _ := telemetry.NewSlogHandler(slog.Default())
//	exp := event.NewExporter(telemetry.NewMultiHandler(prom, logs), nil)
//
//	m := chainmap.Default[string, int](chainmap.WithExporter(exp))
package telemetry

import (
	"context"
	"errors"

	"github.com/alextanhongpin/chainmap/internal"
	"golang.org/x/exp/event"
)

var (
	ErrNilEvent      = errors.New("telemetry: event cannot be nil")
	ErrNilLogger     = errors.New("telemetry: logger cannot be nil")
	ErrNilMeter      = errors.New("telemetry: meter cannot be nil")
	ErrNilRegisterer = errors.New("telemetry: registerer cannot be nil")
)

// MultiHandler fans an event out to every non-nil handler in order. Each
// handler receives the context returned by the previous one. A typed nil
// such as (*PrometheusHandler)(nil) is only skipped when the slice is built
// with NewMultiHandler.
type MultiHandler []event.Handler

var _ event.Handler = MultiHandler(nil)

// NewMultiHandler returns a MultiHandler of hs without nil handlers,
// including typed nil pointers.
func NewMultiHandler(hs ...event.Handler) MultiHandler {
	out := make(MultiHandler, 0, len(hs))
	for _, h := range hs {
		if internal.IsNil(h) {
			continue
		}
		out = append(out, h)
	}

	return out
}

func (hs MultiHandler) Event(ctx context.Context, ev *event.Event) context.Context {
	if ev == nil {
		return ctx
	}

	for _, h := range hs {
		if h == nil {
			continue
		}

		ctx = h.Event(ctx, ev)
	}

	return ctx
}

// ErrorHandler receives errors that handlers cannot return to the caller.
type ErrorHandler func(error)

func handleError(fn ErrorHandler, err error) {
	if fn != nil {
		fn(err)
	}
}

func isMetricLabel(l event.Label) bool {
	return l.Name == string(event.MetricKey) || l.Name == string(event.MetricVal)
}
