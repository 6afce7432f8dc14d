package planning

import (
	"context"
	"log/slog"
	"time"

	"telework-planning-backend/internal/logging"
	"telework-planning-backend/internal/metrics"
	"telework-planning-backend/internal/model"
	"telework-planning-backend/internal/store"
)

// Policy bounds the automatic scheduler.
type Policy struct {
	// MaxDaysPerWeek caps covered days per Monday-anchored window.
	MaxDaysPerWeek int
	// MaxConsecutiveDays is the minimum distance, in days, kept free on
	// either side of a chosen day.
	MaxConsecutiveDays int
}

// DefaultPolicy allows two non-adjacent days a week.
func DefaultPolicy() Policy {
	return Policy{MaxDaysPerWeek: 2, MaxConsecutiveDays: 1}
}

var (
	preferredDays = []time.Weekday{time.Tuesday, time.Thursday}
	workingDays   = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
)

// Scheduler fills uncovered weeks with synthetic planning entries.
type Scheduler struct {
	store   store.Store
	names   NameResolver
	policy  Policy
	metrics *metrics.PlanningMetrics
	logger  *slog.Logger
}

func NewScheduler(s store.Store, names NameResolver, policy Policy, m *metrics.PlanningMetrics, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:   s,
		names:   names,
		policy:  policy,
		metrics: m,
		logger:  logger,
	}
}

// Schedule picks and persists new days for userID in [start, end] and
// returns the stored entries.
func (s *Scheduler) Schedule(ctx context.Context, userID int64, start, end model.Date) ([]model.PlanningEntry, error) {
	if end.Before(start) {
		return nil, model.ErrInvalidRange
	}
	logger := logging.FromContext(ctx, s.logger).With(slog.Int64("user_id", userID))

	// Neighbours just outside the range still constrain spacing.
	margin := s.policy.MaxConsecutiveDays
	existing, err := s.store.FindByUserInRange(ctx, userID, start.AddDays(-margin), end.AddDays(margin))
	if err != nil {
		return nil, err
	}
	covered := make(map[model.Date]bool, len(existing))
	for _, e := range existing {
		covered[e.Date] = true
	}

	days := s.policy.Select(covered, start, end)
	if len(days) == 0 {
		logger.InfoContext(ctx, "no automatic planning needed",
			slog.String("start", start.String()),
			slog.String("end", end.String()),
		)
		return nil, nil
	}

	name := s.names.Resolve(ctx, userID)
	entries := make([]model.PlanningEntry, 0, len(days))
	for _, d := range days {
		entries = append(entries, AutomaticEntry(userID, name, d))
	}

	stored, err := s.store.SaveAll(ctx, entries)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAutoEntries(ctx, len(stored))
	logger.InfoContext(ctx, "generated automatic planning",
		slog.Int("entries", len(stored)),
		slog.String("start", start.String()),
		slog.String("end", end.String()),
	)
	return stored, nil
}

// Select chooses new days in [start, end] given the already covered dates.
// covered is extended with every chosen day. Windows are visited in
// chronological order; within a window Tuesday and Thursday are tried
// first, then the remaining weekdays Monday to Friday.
func (p Policy) Select(covered map[model.Date]bool, start, end model.Date) []model.Date {
	var chosen []model.Date
	for monday := start.Monday(); !monday.After(end); monday = monday.AddDays(7) {
		from, to := clip(monday, monday.AddDays(6), start, end)

		// A window already at quota is left alone; otherwise up to
		// MaxDaysPerWeek new days may be added.
		remaining := p.MaxDaysPerWeek
		if countCovered(covered, from, to) >= p.MaxDaysPerWeek {
			remaining = 0
		}
		tried := make(map[time.Weekday]bool, len(workingDays))

		try := func(days []time.Weekday) {
			for _, wd := range days {
				if remaining <= 0 {
					return
				}
				if tried[wd] {
					continue
				}
				tried[wd] = true

				d := monday.AddDays(offsetFromMonday(wd))
				if !d.Between(from, to) || !p.accepts(covered, d) {
					continue
				}
				covered[d] = true
				chosen = append(chosen, d)
				remaining--
			}
		}
		try(preferredDays)
		try(workingDays)
	}
	return chosen
}

// accepts reports whether d is a free working day with no covered day
// within MaxConsecutiveDays of it.
func (p Policy) accepts(covered map[model.Date]bool, d model.Date) bool {
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if covered[d] {
		return false
	}
	for i := 1; i <= p.MaxConsecutiveDays; i++ {
		if covered[d.AddDays(-i)] || covered[d.AddDays(i)] {
			return false
		}
	}
	return true
}

func clip(from, to, start, end model.Date) (model.Date, model.Date) {
	if from.Before(start) {
		from = start
	}
	if to.After(end) {
		to = end
	}
	return from, to
}

func countCovered(covered map[model.Date]bool, from, to model.Date) int {
	n := 0
	for d := from; !d.After(to); d = d.AddDays(1) {
		if covered[d] {
			n++
		}
	}
	return n
}

func offsetFromMonday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
