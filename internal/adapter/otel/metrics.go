package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "runbeam"

// Metrics holds all runbeam metric instruments. A nil *Metrics is valid and
// records nothing, so callers never have to guard instrumentation sites.
type Metrics struct {
	QueriesExecuted  metric.Int64Counter
	QueryDuration    metric.Float64Histogram
	LagCorrectedRows metric.Int64Counter
	AlertsDispatched metric.Int64Counter
	AlertsDeduped    metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.QueriesExecuted, err = meter.Int64Counter("runbeam.queries.executed",
		metric.WithDescription("Number of analytical queries executed"))
	if err != nil {
		return nil, err
	}

	m.QueryDuration, err = meter.Float64Histogram("runbeam.query.duration_seconds",
		metric.WithDescription("Analytical query duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.LagCorrectedRows, err = meter.Int64Counter("runbeam.runs.lag_corrected_rows",
		metric.WithDescription("Rows dropped from pages by the authoritative status re-check"))
	if err != nil {
		return nil, err
	}

	m.AlertsDispatched, err = meter.Int64Counter("runbeam.alerts.dispatched",
		metric.WithDescription("Alerts handed to the notifier layer"))
	if err != nil {
		return nil, err
	}

	m.AlertsDeduped, err = meter.Int64Counter("runbeam.alerts.deduped",
		metric.WithDescription("Alerts suppressed by delivery dedup"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordQuery records one analytical query execution of the given shape
// ("list" or "count").
func (m *Metrics) RecordQuery(ctx context.Context, shape string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("shape", shape))
	m.QueriesExecuted.Add(ctx, 1, attrs)
	m.QueryDuration.Record(ctx, d.Seconds(), attrs)
}

// AddLagCorrectedRows counts rows removed by the replication-lag status re-check.
func (m *Metrics) AddLagCorrectedRows(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.LagCorrectedRows.Add(ctx, n)
}

// AddAlertDispatched counts one alert fan-out.
func (m *Metrics) AddAlertDispatched(ctx context.Context) {
	if m == nil {
		return
	}
	m.AlertsDispatched.Add(ctx, 1)
}

// AddAlertDeduped counts one suppressed duplicate alert.
func (m *Metrics) AddAlertDeduped(ctx context.Context) {
	if m == nil {
		return
	}
	m.AlertsDeduped.Add(ctx, 1)
}
