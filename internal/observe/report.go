package observe

import (
	"context"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// Reporter owns an in-process meter provider whose totals are logged once a
// session ends. There is no exporter; melcap is a one-shot CLI.
type Reporter struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	log      *zap.Logger
}

// NewReporter creates a provider backed by a manual reader.
func NewReporter(log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	reader := sdkmetric.NewManualReader()
	return &Reporter{
		reader:   reader,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		log:      log,
	}
}

// Provider returns the meter provider to build Metrics on.
func (r *Reporter) Provider() *sdkmetric.MeterProvider {
	return r.provider
}

// Report collects every instrument and logs one line per series.
func (r *Reporter) Report(ctx context.Context) error {
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					r.log.Info("Metric", zap.String("name", m.Name), zap.Int64("value", dp.Value))
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					fields := []zap.Field{
						zap.String("name", m.Name),
						zap.Uint64("count", dp.Count),
						zap.Float64("sum", dp.Sum),
					}
					if v, ok := dp.Min.Value(); ok {
						fields = append(fields, zap.Float64("min", v))
					}
					if v, ok := dp.Max.Value(); ok {
						fields = append(fields, zap.Float64("max", v))
					}
					if ch, ok := dp.Attributes.Value("channel"); ok {
						fields = append(fields, zap.String("channel", ch.AsString()))
					}
					r.log.Info("Metric", fields...)
				}
			}
		}
	}
	return nil
}

// Shutdown stops the provider.
func (r *Reporter) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}
