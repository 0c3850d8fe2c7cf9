package chainmap

import (
	"time"

	"golang.org/x/exp/event"
)

const namespace = "chainmap"

var (
	resizesTotal = event.NewCounter("resizes", &event.MetricOptions{
		Namespace:   namespace,
		Description: "Number of table resizes.",
	})

	bucketsGauge = event.NewFloatGauge("buckets", &event.MetricOptions{
		Namespace:   namespace,
		Description: "Length of the bucket table.",
	})

	entriesGauge = event.NewFloatGauge("entries", &event.MetricOptions{
		Namespace:   namespace,
		Description: "Number of entries in the map.",
	})

	resizeDuration = event.NewDuration("resize_duration", &event.MetricOptions{
		Namespace:   namespace,
		Description: "Time spent growing the bucket table.",
	})
)

// recordResize is called with the lock held.
func (m *Map[K, V]) recordResize(from, to int, took time.Duration) {
	if m.opts.exporter == nil {
		return
	}

	labels := m.labels()
	resizesTotal.Record(m.ctx, 1, labels...)
	bucketsGauge.Record(m.ctx, float64(to), labels...)
	entriesGauge.Record(m.ctx, float64(m.count.Load()), labels...)
	resizeDuration.Record(m.ctx, took, labels...)

	event.Log(m.ctx, "chainmap: table resized",
		event.String("map", m.opts.name),
		event.String("policy", m.opts.policy.String()),
		event.Int64("from", int64(from)),
		event.Int64("to", int64(to)),
		event.Int64("entries", m.count.Load()),
	)
}

// recordEntries is called with the lock held.
func (m *Map[K, V]) recordEntries() {
	if m.opts.exporter == nil {
		return
	}

	entriesGauge.Record(m.ctx, float64(m.count.Load()), m.labels()...)
}

func (m *Map[K, V]) labels() []event.Label {
	return []event.Label{
		event.String("map", m.opts.name),
		event.String("policy", m.opts.policy.String()),
	}
}
