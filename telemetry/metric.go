package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/exp/event"
)

// MetricHandler is an event.Handler for OpenTelemetry metrics.
// Its Event method handles Metric events and ignores all others.
type MetricHandler struct {
	meter        metric.Meter
	errorHandler ErrorHandler

	mu sync.Mutex
	// Instruments are created once per event.Metric and closed over by the
	// record function.
	recordFuncs map[event.Metric]recordFunc
}

type recordFunc func(context.Context, event.Label, []event.Label)

var _ event.Handler = (*MetricHandler)(nil)

// MetricOption configures a MetricHandler.
type MetricOption func(*MetricHandler)

// WithErrorHandler sets the callback for events that cannot be recorded.
func WithErrorHandler(fn ErrorHandler) MetricOption {
	return func(h *MetricHandler) {
		h.errorHandler = fn
	}
}

// NewMetricHandler creates a new MetricHandler.
func NewMetricHandler(m metric.Meter, opts ...MetricOption) (*MetricHandler, error) {
	if m == nil {
		return nil, ErrNilMeter
	}

	h := &MetricHandler{
		meter:       m,
		recordFuncs: make(map[event.Metric]recordFunc),
	}
	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

func (m *MetricHandler) Event(ctx context.Context, e *event.Event) context.Context {
	if e == nil {
		handleError(m.errorHandler, ErrNilEvent)
		return ctx
	}
	if e.Kind != event.MetricKind {
		return ctx
	}

	mi, ok := event.MetricKey.Find(e)
	if !ok {
		handleError(m.errorHandler, errors.New("telemetry: no metric key for metric event"))
		return ctx
	}
	em := mi.(event.Metric)
	lval := e.Find(event.MetricVal)
	if !lval.HasValue() {
		handleError(m.errorHandler, errors.New("telemetry: no metric value for metric event"))
		return ctx
	}

	rf, err := m.getRecordFunc(em)
	if err != nil {
		handleError(m.errorHandler, err)
		return ctx
	}
	rf(ctx, lval, e.Labels)

	return ctx
}

func (m *MetricHandler) getRecordFunc(em event.Metric) (recordFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.recordFuncs[em]; ok {
		return f, nil
	}

	f, err := m.newRecordFunc(em)
	if err != nil {
		return nil, err
	}
	m.recordFuncs[em] = f

	return f, nil
}

func (m *MetricHandler) newRecordFunc(em event.Metric) (recordFunc, error) {
	opts := em.Options()
	name := em.Name()
	if opts.Namespace != "" {
		name = opts.Namespace + "_" + name
	}

	switch em.(type) {
	case *event.Counter:
		c, err := m.meter.Int64Counter(name,
			metric.WithDescription(opts.Description),
			metric.WithUnit(string(opts.Unit)), // cast OK: same strings
		)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, l event.Label, attrs []event.Label) {
			c.Add(ctx, l.Int64(), metric.WithAttributes(labelsToAttributes(attrs)...))
		}, nil

	case *event.FloatGauge:
		g, err := m.meter.Float64Gauge(name,
			metric.WithDescription(opts.Description),
			metric.WithUnit(string(opts.Unit)),
		)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, l event.Label, attrs []event.Label) {
			g.Record(ctx, l.Float64(), metric.WithAttributes(labelsToAttributes(attrs)...))
		}, nil

	case *event.DurationDistribution:
		r, err := m.meter.Int64Histogram(name,
			metric.WithDescription(opts.Description),
			metric.WithUnit("ns"),
		)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, l event.Label, attrs []event.Label) {
			r.Record(ctx, l.Duration().Nanoseconds(), metric.WithAttributes(labelsToAttributes(attrs)...))
		}, nil

	default:
		return nil, fmt.Errorf("telemetry: unsupported metric type for MetricHandler: %s", em.Name())
	}
}

func labelsToAttributes(ls []event.Label) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, l := range ls {
		if isMetricLabel(l) {
			continue
		}
		attrs = append(attrs, labelToAttribute(l))
	}

	return attrs
}

func labelToAttribute(l event.Label) attribute.KeyValue {
	switch {
	case l.IsString():
		return attribute.String(l.Name, l.String())
	case l.IsInt64():
		return attribute.Int64(l.Name, l.Int64())
	case l.IsFloat64():
		return attribute.Float64(l.Name, l.Float64())
	case l.IsBool():
		return attribute.Bool(l.Name, l.Bool())
	default:
		return attribute.String(l.Name, fmt.Sprint(l.Interface()))
	}
}
