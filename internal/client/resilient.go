package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"telework-planning-backend/internal/breaker"
	"telework-planning-backend/internal/metrics"
	"telework-planning-backend/internal/model"
)

// Breaker endpoint names, one breaker each.
const (
	EndpointIntakeForUser   = "intake.list_for_user"
	EndpointIntakeInRange   = "intake.list_in_range"
	EndpointIntakeDelete    = "intake.delete_request"
	EndpointIntakeTeam      = "intake.list_for_team"
	EndpointDirectoryLookup = "directory.display_name"
	EndpointDirectoryTeam   = "directory.team_members"
)

// IntakeAPI is the raw intake collaborator.
type IntakeAPI interface {
	ListRequestsForUser(ctx context.Context, userID int64, authorization string) ([]TeleworkRequest, error)
	ListRequestsInRange(ctx context.Context, start, end model.Date) ([]TeleworkRequest, error)
	DeleteRequestByUserAndDate(ctx context.Context, userID int64, date model.Date) error
	ListTeamRequests(ctx context.Context, team string, start, end model.Date, authorization string) ([]TeleworkRequest, error)
}

// DirectoryAPI is the raw identity collaborator.
type DirectoryAPI interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
	TeamMembers(ctx context.Context, team string) ([]TeamMemberResponse, error)
}

// ResilientIntake guards IntakeAPI with per-endpoint breakers. Reads fail
// open: any failure yields an empty result and a logged fallback.
type ResilientIntake struct {
	api       IntakeAPI
	forUser   *breaker.Breaker
	inRange   *breaker.Breaker
	deletions *breaker.Breaker
	team      *breaker.Breaker
	metrics   *metrics.PlanningMetrics
	logger    *slog.Logger
}

func NewResilientIntake(api IntakeAPI, settings breaker.Settings, m *metrics.PlanningMetrics, logger *slog.Logger) *ResilientIntake {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResilientIntake{
		api:       api,
		forUser:   breaker.New(EndpointIntakeForUser, settings, logger, m),
		inRange:   breaker.New(EndpointIntakeInRange, settings, logger, m),
		deletions: breaker.New(EndpointIntakeDelete, settings, logger, m),
		team:      breaker.New(EndpointIntakeTeam, settings, logger, m),
		metrics:   m,
		logger:    logger,
	}
}

// FetchUserRequests never fails; an unavailable intake yields no snapshots.
func (r *ResilientIntake) FetchUserRequests(ctx context.Context, userID int64, authorization string) []model.TeleworkRequestSnapshot {
	requests, err := breaker.Do(ctx, r.forUser, func(ctx context.Context) ([]TeleworkRequest, error) {
		return r.api.ListRequestsForUser(ctx, userID, authorization)
	})
	if err != nil {
		r.fallback(ctx, EndpointIntakeForUser, err, slog.Int64("user_id", userID))
		return nil
	}
	return Snapshots(ctx, requests)
}

// ListAllRequestsInRange never fails; an unavailable intake yields no snapshots.
func (r *ResilientIntake) ListAllRequestsInRange(ctx context.Context, start, end model.Date) []model.TeleworkRequestSnapshot {
	requests, err := breaker.Do(ctx, r.inRange, func(ctx context.Context) ([]TeleworkRequest, error) {
		return r.api.ListRequestsInRange(ctx, start, end)
	})
	if err != nil {
		r.fallback(ctx, EndpointIntakeInRange, err,
			slog.String("start", start.String()),
			slog.String("end", end.String()),
		)
		return nil
	}
	return Snapshots(ctx, requests)
}

// DeleteRequest pushes a planning deletion upstream. The error is returned
// for the caller to log; it always wraps model.ErrCollaboratorUnavailable.
func (r *ResilientIntake) DeleteRequest(ctx context.Context, userID int64, date model.Date) error {
	err := r.deletions.Execute(ctx, func(ctx context.Context) error {
		return r.api.DeleteRequestByUserAndDate(ctx, userID, date)
	})
	if err != nil {
		r.fallback(ctx, EndpointIntakeDelete, err,
			slog.Int64("user_id", userID),
			slog.String("date", date.String()),
		)
		return unavailable(EndpointIntakeDelete, err)
	}
	return nil
}

// ListTeamRequests never fails; an unavailable intake yields no snapshots.
func (r *ResilientIntake) ListTeamRequests(ctx context.Context, team string, start, end model.Date, authorization string) []model.TeleworkRequestSnapshot {
	requests, err := breaker.Do(ctx, r.team, func(ctx context.Context) ([]TeleworkRequest, error) {
		return r.api.ListTeamRequests(ctx, team, start, end, authorization)
	})
	if err != nil {
		r.fallback(ctx, EndpointIntakeTeam, err, slog.String("team", team))
		return nil
	}
	return Snapshots(ctx, requests)
}

// Breakers exposes the guards for health reporting.
func (r *ResilientIntake) Breakers() []*breaker.Breaker {
	return []*breaker.Breaker{r.forUser, r.inRange, r.deletions, r.team}
}

func (r *ResilientIntake) fallback(ctx context.Context, endpoint string, err error, attrs ...slog.Attr) {
	logFallback(ctx, r.logger, r.metrics, endpoint, err, attrs...)
}

// ResilientDirectory guards DirectoryAPI with per-endpoint breakers. Name
// lookups return failures wrapped in model.ErrCollaboratorUnavailable; team
// listings fail open.
type ResilientDirectory struct {
	api     DirectoryAPI
	guard   *breaker.Breaker
	team    *breaker.Breaker
	metrics *metrics.PlanningMetrics
	logger  *slog.Logger
}

func NewResilientDirectory(api DirectoryAPI, settings breaker.Settings, m *metrics.PlanningMetrics, logger *slog.Logger) *ResilientDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResilientDirectory{
		api:     api,
		guard:   breaker.New(EndpointDirectoryLookup, settings, logger, m),
		team:    breaker.New(EndpointDirectoryTeam, settings, logger, m),
		metrics: m,
		logger:  logger,
	}
}

func (d *ResilientDirectory) DisplayName(ctx context.Context, userID int64) (string, error) {
	name, err := breaker.Do(ctx, d.guard, func(ctx context.Context) (string, error) {
		return d.api.DisplayName(ctx, userID)
	})
	if err != nil {
		logFallback(ctx, d.logger, d.metrics, EndpointDirectoryLookup, err, slog.Int64("user_id", userID))
		return "", unavailable(EndpointDirectoryLookup, err)
	}
	return name, nil
}

// TeamMembers never fails; an unavailable directory yields no members.
func (d *ResilientDirectory) TeamMembers(ctx context.Context, team string) []model.TeamMember {
	members, err := breaker.Do(ctx, d.team, func(ctx context.Context) ([]TeamMemberResponse, error) {
		return d.api.TeamMembers(ctx, team)
	})
	if err != nil {
		logFallback(ctx, d.logger, d.metrics, EndpointDirectoryTeam, err, slog.String("team", team))
		return nil
	}
	out := make([]model.TeamMember, 0, len(members))
	for _, m := range members {
		out = append(out, m.ToMember())
	}
	return out
}

// Breakers exposes the guards for health reporting.
func (d *ResilientDirectory) Breakers() []*breaker.Breaker {
	return []*breaker.Breaker{d.guard, d.team}
}

func logFallback(ctx context.Context, logger *slog.Logger, m *metrics.PlanningMetrics, endpoint string, err error, attrs ...slog.Attr) {
	args := []any{
		slog.String("endpoint", endpoint),
		slog.String("error", err.Error()),
	}
	for _, a := range attrs {
		args = append(args, a)
	}
	logger.ErrorContext(ctx, "collaborator unavailable, using fallback", args...)
	m.RecordFallback(ctx, endpoint)
}

func unavailable(endpoint string, err error) error {
	if errors.Is(err, model.ErrCollaboratorUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", endpoint, model.ErrCollaboratorUnavailable, err)
}
