package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/event"
)

// PrometheusHandler is an event.Handler that turns metric events into
// Prometheus collectors. Collectors are created and registered on first
// use, named <namespace>_<name>, with the event labels as label names.
type PrometheusHandler struct {
	client       prometheus.Registerer
	errorHandler ErrorHandler

	mu         sync.Mutex
	collectors map[string]prometheus.Collector
}

var _ event.Handler = (*PrometheusHandler)(nil)

// PrometheusOption configures a PrometheusHandler.
type PrometheusOption func(*PrometheusHandler)

// WithPrometheusErrorHandler sets the callback for events that cannot be
// recorded.
func WithPrometheusErrorHandler(fn ErrorHandler) PrometheusOption {
	return func(h *PrometheusHandler) {
		h.errorHandler = fn
	}
}

// NewPrometheusHandler creates a new PrometheusHandler.
func NewPrometheusHandler(client prometheus.Registerer, opts ...PrometheusOption) (*PrometheusHandler, error) {
	if client == nil {
		return nil, ErrNilRegisterer
	}

	h := &PrometheusHandler{
		client:     client,
		collectors: make(map[string]prometheus.Collector),
	}
	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

func (m *PrometheusHandler) Event(ctx context.Context, e *event.Event) context.Context {
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

	if err := m.record(em, lval, e.Labels); err != nil {
		handleError(m.errorHandler, err)
	}

	return ctx
}

// Collector returns the collector created for the metric name.
func (m *PrometheusHandler) Collector(name string) (prometheus.Collector, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collectors[name]
	return c, ok
}

func (m *PrometheusHandler) record(em event.Metric, lval event.Label, labels []event.Label) error {
	name := em.Name()
	opts := em.Options()
	keys, vals := labelsToKeyVals(labels)

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collectors[name]
	if !ok {
		var err error
		c, err = newCollector(em, keys)
		if err != nil {
			return err
		}
		if err := m.client.Register(c); err != nil {
			return fmt.Errorf("telemetry: register %s: %w", name, err)
		}
		m.collectors[name] = c
	}

	switch col := c.(type) {
	case *prometheus.CounterVec:
		n := lval.Int64()
		if n < 0 {
			return fmt.Errorf("telemetry: %s: counter value cannot be negative: %d", name, n)
		}
		counter, err := col.GetMetricWithLabelValues(vals...)
		if err != nil {
			return err
		}
		counter.Add(float64(n))
	case *prometheus.GaugeVec:
		gauge, err := col.GetMetricWithLabelValues(vals...)
		if err != nil {
			return err
		}
		gauge.Set(lval.Float64())
	case *prometheus.HistogramVec:
		obs, err := col.GetMetricWithLabelValues(vals...)
		if err != nil {
			return err
		}
		d := lval.Duration().Seconds()
		if opts.Unit == event.UnitMilliseconds {
			d = float64(lval.Duration().Milliseconds())
		}
		obs.Observe(d)
	default:
		return fmt.Errorf("telemetry: unsupported collector type for %s", name)
	}

	return nil
}

func newCollector(em event.Metric, keys []string) (prometheus.Collector, error) {
	opts := em.Options()
	name := em.Name()
	if opts.Unit == event.UnitBytes {
		name += "_bytes"
	}

	switch em.(type) {
	case *event.Counter:
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Help:      opts.Description,
			Name:      name,
			Namespace: opts.Namespace,
		}, keys), nil
	case *event.FloatGauge:
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Help:      opts.Description,
			Name:      name,
			Namespace: opts.Namespace,
		}, keys), nil
	case *event.DurationDistribution:
		switch opts.Unit {
		case event.UnitMilliseconds:
			name += "_milliseconds"
		default:
			name += "_seconds"
		}
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Help:      opts.Description,
			Name:      name,
			Namespace: opts.Namespace,
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, keys), nil
	default:
		return nil, fmt.Errorf("telemetry: unsupported metric type for PrometheusHandler: %s", em.Name())
	}
}

func labelsToKeyVals(labels []event.Label) (keys []string, vals []string) {
	for _, l := range labels {
		if isMetricLabel(l) {
			continue
		}
		keys = append(keys, l.Name)
		vals = append(vals, l.String())
	}

	return
}
