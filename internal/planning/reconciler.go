package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"telework-planning-backend/internal/logging"
	"telework-planning-backend/internal/metrics"
	"telework-planning-backend/internal/model"
	"telework-planning-backend/internal/store"
)

// NameResolver returns a display name for a user and never fails.
type NameResolver interface {
	Resolve(ctx context.Context, userID int64) string
}

// Reconciler turns request snapshots into planning entries.
type Reconciler struct {
	store   store.Store
	names   NameResolver
	metrics *metrics.PlanningMetrics
	logger  *slog.Logger
}

func NewReconciler(s store.Store, names NameResolver, m *metrics.PlanningMetrics, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:   s,
		names:   names,
		metrics: m,
		logger:  logger,
	}
}

// SyncOne applies one snapshot. Every accepted snapshot counts as a change;
// re-delivering it converges to the same stored row.
func (r *Reconciler) SyncOne(ctx context.Context, snap model.TeleworkRequestSnapshot) (bool, error) {
	if _, err := r.apply(ctx, snap); err != nil {
		return false, err
	}
	return true, nil
}

// ReconcileUser applies a batch of one user's snapshots. Snapshots without a
// user id inherit userID; snapshots that still fail validation are skipped.
func (r *Reconciler) ReconcileUser(ctx context.Context, userID int64, snaps []model.TeleworkRequestSnapshot) ([]model.PlanningEntry, error) {
	entries := make([]model.PlanningEntry, 0, len(snaps))
	for _, snap := range snaps {
		if snap.UserID == 0 {
			snap.UserID = userID
		}
		entry, err := r.apply(ctx, snap)
		if errors.Is(err, model.ErrInvalidSyncPayload) {
			continue
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *Reconciler) apply(ctx context.Context, snap model.TeleworkRequestSnapshot) (model.PlanningEntry, error) {
	logger := logging.FromContext(ctx, r.logger).With(
		slog.Int64("telework_request_id", snap.RequestID),
		slog.Int64("user_id", snap.UserID),
	)

	if err := validate(snap); err != nil {
		logger.WarnContext(ctx, "rejecting telework request snapshot", slog.String("error", err.Error()))
		r.metrics.RecordSync(ctx, metrics.OutcomeRejected)
		return model.PlanningEntry{}, err
	}

	entry := EntryFromSnapshot(snap, r.names.Resolve(ctx, snap.UserID))

	mode := store.KeepStatus
	if entry.Status != "" {
		mode = store.OverwriteStatus
	}

	stored, err := r.store.Upsert(ctx, entry, mode)
	if err != nil {
		logger.ErrorContext(ctx, "failed to store planning entry", slog.String("error", err.Error()))
		r.metrics.RecordSync(ctx, metrics.OutcomeFailed)
		return model.PlanningEntry{}, err
	}
	logger.DebugContext(ctx, "planning entry stored",
		slog.Int64("planning_id", stored.ID),
		slog.String("date", stored.Date.String()),
		slog.String("status", string(stored.Status)),
	)

	r.metrics.RecordSync(ctx, metrics.OutcomeSynced)
	return stored, nil
}

func validate(snap model.TeleworkRequestSnapshot) error {
	switch {
	case snap.UserID <= 0:
		return fmt.Errorf("%w: missing user id", model.ErrInvalidSyncPayload)
	case snap.Date.IsZero():
		return fmt.Errorf("%w: missing date", model.ErrInvalidSyncPayload)
	}
	return nil
}
