package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/alextanhongpin/chainmap"
	"github.com/alextanhongpin/chainmap/config"
	"github.com/alextanhongpin/chainmap/telemetry"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/exp/event"
	"golang.org/x/sync/errgroup"
)

var cmdStress = &cobra.Command{
	Use:   "stress",
	Short: "Run a concurrent mixed workload",
	Long: `
The "stress" command starts --workers goroutines that each issue --ops random
operations (put, get, remove, contains) over a keyspace of --keys random
UUIDs, then logs the final table statistics.

EXIT STATUS
===========

Exit status is 0 if the workload completed and the final size matches the
number of live keys, and non-zero otherwise.
`,
	DisableAutoGenTag: true,
	Args:              cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalOptions.Config)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		if f.Changed("workers") {
			cfg.Workers = stressOptions.Workers
		}
		if f.Changed("ops") {
			cfg.Ops = stressOptions.Ops
		}
		if f.Changed("keys") {
			cfg.Keys = stressOptions.Keys
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		return runStress(cmd.Context(), cfg, newLogger(), cmd.OutOrStdout())
	},
}

// StressOptions bundles the flags of the stress command.
type StressOptions struct {
	Workers int
	Ops     int
	Keys    int
	Metrics bool
}

var stressOptions StressOptions

func init() {
	cmdRoot.AddCommand(cmdStress)

	f := cmdStress.Flags()
	f.IntVar(&stressOptions.Workers, "workers", 0, "number of concurrent workers (overrides config)")
	f.IntVar(&stressOptions.Ops, "ops", 0, "operations per worker (overrides config)")
	f.IntVar(&stressOptions.Keys, "keys", 0, "size of the keyspace (overrides config)")
	f.BoolVar(&stressOptions.Metrics, "metrics", false, "print Prometheus metrics when done")
}

type opCounts struct {
	puts, gets, removes, contains atomic.Int64
}

func runStress(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer) error {
	reg := prometheus.NewRegistry()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.WithoutCancel(ctx))
	otel.SetMeterProvider(provider)

	exp, err := newExporter(reg, provider.Meter("chainmap"), logger)
	if err != nil {
		return err
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	m, err := chainmap.New[string, int](cfg.Capacity, cfg.LoadFactor, append(opts, chainmap.WithExporter(exp))...)
	if err != nil {
		return err
	}

	keys := make([]string, cfg.Keys)
	for i := range keys {
		keys[i] = uuid.NewString()
	}

	var counts opCounts
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		g.Go(func() error {
			for i := range cfg.Ops {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}

				k := keys[rand.IntN(len(keys))]
				switch n := rand.IntN(100); {
				case n < 50:
					m.Put(k, i)
					counts.puts.Add(1)
				case n < 70:
					m.Remove(k)
					counts.removes.Add(1)
				case n < 95:
					m.Get(k)
					counts.gets.Add(1)
				case n < 99:
					m.ContainsKey(k)
					counts.contains.Add(1)
				default:
					m.ContainsValue(i)
					counts.contains.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	took := time.Since(start)
	stats := m.Stats()

	var live int
	for _, k := range keys {
		if m.ContainsKey(k) {
			live++
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return err
	}

	logger.Info("stress completed",
		slog.String("map", cfg.Name),
		slog.String("resize", cfg.Resize),
		slog.Duration("took", took),
		slog.Int64("puts", counts.puts.Load()),
		slog.Int64("gets", counts.gets.Load()),
		slog.Int64("removes", counts.removes.Load()),
		slog.Int64("contains", counts.contains.Load()),
		slog.Int("entries", stats.Entries),
		slog.Int("live", live),
		slog.Int("buckets", stats.Buckets),
		slog.Int("usedBuckets", stats.UsedBuckets),
		slog.Int("longestChain", stats.LongestChain),
		slog.Int("resizes", stats.Resizes),
		slog.Int64("otelResizes", sumCounter(rm, "chainmap_resizes")),
		slog.Float64("load", stats.Load),
	)

	if stressOptions.Metrics {
		if err := writeMetrics(w, reg); err != nil {
			return err
		}
	}

	// Under the extend policy keys can be stranded, so only the
	// redistributing table guarantees every counted entry is reachable.
	if cfg.Resize == chainmap.ResizeRedistribute.String() && live != stats.Entries {
		return fmt.Errorf("stress: size %d does not match %d live keys", stats.Entries, live)
	}

	return nil
}

func newExporter(reg prometheus.Registerer, meter metric.Meter, logger *slog.Logger) (*event.Exporter, error) {
	onError := func(err error) {
		logger.Error("telemetry", slog.String("error", err.Error()))
	}

	prom, err := telemetry.NewPrometheusHandler(reg, telemetry.WithPrometheusErrorHandler(onError))
	if err != nil {
		return nil, err
	}

	otelh, err := telemetry.NewMetricHandler(meter, telemetry.WithErrorHandler(onError))
	if err != nil {
		return nil, err
	}

	logs, err := telemetry.NewSlogHandler(logger, telemetry.WithSlogErrorHandler(onError))
	if err != nil {
		return nil, err
	}

	return event.NewExporter(telemetry.NewMultiHandler(prom, otelh, logs), nil), nil
}

// sumCounter adds up every data point of the named OpenTelemetry counter.
func sumCounter(rm metricdata.ResourceMetrics, name string) int64 {
	var n int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					n += dp.Value
				}
			}
		}
	}

	return n
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}

	return nil
}
