package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"telework-planning-backend/internal/logging"
	"telework-planning-backend/internal/metrics"
	"telework-planning-backend/internal/model"
	"telework-planning-backend/internal/store"
	"telework-planning-backend/internal/worker"
)

// RequestSource is the fail-open view of the request-intake service.
type RequestSource interface {
	FetchUserRequests(ctx context.Context, userID int64, authorization string) []model.TeleworkRequestSnapshot
	ListAllRequestsInRange(ctx context.Context, start, end model.Date) []model.TeleworkRequestSnapshot
	DeleteRequest(ctx context.Context, userID int64, date model.Date) error
}

// BatchRunner reconciles many users at once.
type BatchRunner interface {
	Run(ctx context.Context, batches map[int64][]model.TeleworkRequestSnapshot) ([]worker.Result, error)
}

// Service exposes the planning operations.
type Service struct {
	store      store.Store
	reconciler *Reconciler
	scheduler  *Scheduler
	requests   RequestSource
	batches    BatchRunner
	metrics    *metrics.PlanningMetrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(
	s store.Store,
	reconciler *Reconciler,
	scheduler *Scheduler,
	requests RequestSource,
	batches BatchRunner,
	m *metrics.PlanningMetrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      s,
		reconciler: reconciler,
		scheduler:  scheduler,
		requests:   requests,
		batches:    batches,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// CurrentMonth returns the first and last day of the current month.
func (s *Service) CurrentMonth() (model.Date, model.Date) {
	today := model.DateOf(s.now())
	first := model.NewDate(today.Year, today.Month, 1)
	// AddDays normalizes month 13 into January of the next year.
	last := model.NewDate(today.Year, today.Month+1, 1).AddDays(-1)
	return first, last
}

// SyncOne applies one inbound request snapshot.
func (s *Service) SyncOne(ctx context.Context, snap model.TeleworkRequestSnapshot) (bool, error) {
	return s.reconciler.SyncOne(ctx, snap)
}

// EnsurePlanningForUser reconciles the user's requests dated in [start, end]
// and, when the user had no planning there yet, fills the gaps
// automatically. It returns every entry of the user in the range. An
// unavailable intake service only means fewer requests are reconciled.
func (s *Service) EnsurePlanningForUser(ctx context.Context, userID int64, start, end model.Date, authorization string) ([]model.PlanningEntry, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	started := time.Now()
	defer func() { s.metrics.RecordEnsureDuration(ctx, time.Since(started)) }()

	logger := logging.FromContext(ctx, s.logger).With(slog.Int64("user_id", userID))

	covered, err := s.store.ExistsForUserInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	snaps := inRange(s.requests.FetchUserRequests(ctx, userID, authorization), start, end)
	reconciled, err := s.reconciler.ReconcileUser(ctx, userID, snaps)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "reconciled telework requests",
		slog.Int("requests", len(snaps)),
		slog.Int("entries", len(reconciled)),
		slog.Bool("had_coverage", covered),
	)

	if !covered {
		if _, err := s.scheduler.Schedule(ctx, userID, start, end); err != nil {
			return nil, err
		}
	}

	return s.store.FindByUserInRange(ctx, userID, start, end)
}

// GeneratePlanning reconciles every request dated in [start, end], one
// worker job per user, and returns all entries touched.
func (s *Service) GeneratePlanning(ctx context.Context, start, end model.Date) ([]model.PlanningEntry, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx, s.logger)

	batches := make(map[int64][]model.TeleworkRequestSnapshot)
	for _, snap := range inRange(s.requests.ListAllRequestsInRange(ctx, start, end), start, end) {
		if snap.UserID <= 0 {
			logger.WarnContext(ctx, "skipping telework request without user", slog.Int64("telework_request_id", snap.RequestID))
			s.metrics.RecordSync(ctx, metrics.OutcomeRejected)
			continue
		}
		batches[snap.UserID] = append(batches[snap.UserID], snap)
	}

	results, runErr := s.batches.Run(ctx, batches)

	var entries []model.PlanningEntry
	var errs []error
	for _, r := range results {
		entries = append(entries, r.Entries...)
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", r.UserID, r.Err))
		}
	}
	if runErr != nil {
		errs = append(errs, runErr)
	}
	sortEntries(entries)

	logger.InfoContext(ctx, "generated planning from requests",
		slog.Int("users", len(batches)),
		slog.Int("entries", len(entries)),
		slog.Int("failures", len(errs)),
	)
	return entries, errors.Join(errs...)
}

// GenerateAutomaticPlanning runs the automatic scheduler alone.
func (s *Service) GenerateAutomaticPlanning(ctx context.Context, userID int64, start, end model.Date) ([]model.PlanningEntry, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	return s.scheduler.Schedule(ctx, userID, start, end)
}

func (s *Service) ListPlanningForUser(ctx context.Context, userID int64, start, end model.Date) ([]model.PlanningEntry, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	return s.store.FindByUserInRange(ctx, userID, start, end)
}

func (s *Service) ListPlanningInRange(ctx context.Context, start, end model.Date) ([]model.PlanningEntry, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	return s.store.FindInRange(ctx, start, end)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status model.PlanningStatus) (model.PlanningEntry, error) {
	entry, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return model.PlanningEntry{}, err
	}
	logging.FromContext(ctx, s.logger).InfoContext(ctx, "planning status updated",
		slog.Int64("planning_id", id),
		slog.String("status", string(status)),
	)
	return entry, nil
}

// DeletePlanning removes the entry and then, best effort, the intake
// request it came from.
func (s *Service) DeletePlanning(ctx context.Context, id int64) error {
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	logger := logging.FromContext(ctx, s.logger).With(
		slog.Int64("planning_id", id),
		slog.Int64("user_id", entry.UserID),
	)
	if err := s.requests.DeleteRequest(ctx, entry.UserID, entry.Date); err != nil {
		logger.WarnContext(ctx, "planning deleted but intake request was not", slog.String("error", err.Error()))
		return nil
	}
	logger.InfoContext(ctx, "planning deleted")
	return nil
}

func checkRange(start, end model.Date) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: both dates are required", model.ErrInvalidRange)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: %s > %s", model.ErrInvalidRange, start, end)
	}
	return nil
}

func inRange(snaps []model.TeleworkRequestSnapshot, start, end model.Date) []model.TeleworkRequestSnapshot {
	out := make([]model.TeleworkRequestSnapshot, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Date.Between(start, end) {
			out = append(out, snap)
		}
	}
	return out
}

func sortEntries(entries []model.PlanningEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].UserID < entries[j].UserID
	})
}
