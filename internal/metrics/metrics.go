package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const planningMeterName = "planning.service"

// Sync outcomes.
const (
	OutcomeSynced   = "synced"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// PlanningMetrics records service counters. A nil *PlanningMetrics is a no-op.
type PlanningMetrics struct {
	syncTotal          metric.Int64Counter
	autoEntries        metric.Int64Counter
	fallbacks          metric.Int64Counter
	breakerTransitions metric.Int64Counter
	ensureDuration     metric.Float64Histogram
}

// NewPlanningMetrics registers the instruments on mp, or on the global
// provider when mp is nil.
func NewPlanningMetrics(mp metric.MeterProvider) (*PlanningMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(planningMeterName)

	syncTotal, err := meter.Int64Counter(
		"planning_sync_total",
		metric.WithDescription("Telework request snapshots reconciled, by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	autoEntries, err := meter.Int64Counter(
		"planning_auto_entries_total",
		metric.WithDescription("Planning entries created by the automatic scheduler"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"planning_collaborator_fallbacks_total",
		metric.WithDescription("Collaborator calls answered with a fallback value"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	breakerTransitions, err := meter.Int64Counter(
		"planning_breaker_transitions_total",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	ensureDuration, err := meter.Float64Histogram(
		"planning_ensure_duration_seconds",
		metric.WithDescription("Time spent ensuring one user's planning"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	return &PlanningMetrics{
		syncTotal:          syncTotal,
		autoEntries:        autoEntries,
		fallbacks:          fallbacks,
		breakerTransitions: breakerTransitions,
		ensureDuration:     ensureDuration,
	}, nil
}

func (m *PlanningMetrics) RecordSync(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.syncTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *PlanningMetrics) RecordAutoEntries(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.autoEntries.Add(ctx, int64(n))
}

func (m *PlanningMetrics) RecordFallback(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
	))
}

func (m *PlanningMetrics) RecordBreakerTransition(ctx context.Context, endpoint, from, to string) {
	if m == nil {
		return
	}
	m.breakerTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *PlanningMetrics) RecordEnsureDuration(ctx context.Context, duration time.Duration) {
	if m == nil {
		return
	}
	m.ensureDuration.Record(ctx, duration.Seconds())
}
