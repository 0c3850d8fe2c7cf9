package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/alextanhongpin/chainmap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/event"
	"golang.org/x/exp/event/eventtest"
)

type countingHandler struct {
	n int
}

func (h *countingHandler) Event(ctx context.Context, e *event.Event) context.Context {
	h.n++
	return ctx
}

func TestMultiHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("nil event", func(t *testing.T) {
		a := &countingHandler{}
		assert.Equal(t, ctx, MultiHandler{a}.Event(ctx, nil))
		assert.Equal(t, 0, a.n)
	})

	t.Run("fan out", func(t *testing.T) {
		a, b := &countingHandler{}, &countingHandler{}
		h := MultiHandler{a, nil, b}

		ctx := event.WithExporter(ctx, event.NewExporter(h, eventtest.ExporterOptions()))
		event.Log(ctx, "hello")
		event.Log(ctx, "world")

		assert.Equal(t, 2, a.n)
		assert.Equal(t, 2, b.n)
	})

	t.Run("typed nil handlers are dropped", func(t *testing.T) {
		a := &countingHandler{}
		var prom *PrometheusHandler
		var logs *SlogHandler

		h := NewMultiHandler(prom, a, nil, logs)
		assert.Len(t, h, 1)

		ctx := event.WithExporter(ctx, event.NewExporter(h, eventtest.ExporterOptions()))
		assert.NotPanics(t, func() {
			event.Log(ctx, "hello")
		})
		assert.Equal(t, 1, a.n)
	})
}

func TestChainmapInstrumentation(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPrometheusHandler(reg)
	require.NoError(t, err)

	var buf bytes.Buffer
	logs, err := NewSlogHandler(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)

	exp := event.NewExporter(NewMultiHandler(prom, logs), eventtest.ExporterOptions())

	m, err := chainmap.New[int, int](2, 0.75,
		chainmap.WithExporter(exp),
		chainmap.WithName("test"),
	)
	require.NoError(t, err)

	// 2/2 > 0.75 triggers the first resize, 4/4 the second.
	for i := range 4 {
		m.Put(i, i)
	}

	is := assert.New(t)

	resizes, ok := prom.Collector("resizes")
	is.True(ok)
	is.Equal(2.0, testutil.ToFloat64(resizes))

	buckets, ok := prom.Collector("buckets")
	is.True(ok)
	is.Equal(8.0, testutil.ToFloat64(buckets))

	entries, ok := prom.Collector("entries")
	is.True(ok)
	is.Equal(4.0, testutil.ToFloat64(entries))

	m.Remove(0)
	is.Equal(3.0, testutil.ToFloat64(entries))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	is.Len(lines, 2)
	is.Contains(lines[0], `"msg":"chainmap: table resized"`)
	is.Contains(lines[0], `"from":2`)
	is.Contains(lines[0], `"to":4`)
	is.Contains(lines[1], `"policy":"redistribute"`)

	n, err := testutil.GatherAndCount(reg, "chainmap_resizes", "chainmap_resize_duration_seconds")
	is.NoError(err)
	is.Equal(2, n)
}
