package refresher

import (
	"context"
	"log/slog"
	"time"

	"telework-planning-backend/config"
	"telework-planning-backend/internal/model"
)

// Generator is the bulk planning operation the refresher drives.
type Generator interface {
	CurrentMonth() (model.Date, model.Date)
	GeneratePlanning(ctx context.Context, start, end model.Date) ([]model.PlanningEntry, error)
}

// Service periodically regenerates the current month's planning from the
// intake service.
type Service struct {
	cfg       config.RefresherConfig
	generator Generator
	logger    *slog.Logger
}

func NewService(cfg config.RefresherConfig, generator Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:       cfg,
		generator: generator,
		logger:    logger,
	}
}

// Run refreshes once immediately and then every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("planning refresher is disabled, not starting")
		return
	}
	s.logger.Info("starting planning refresher", slog.Duration("interval", s.cfg.Interval))

	s.RefreshOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("planning refresher shutting down")
			return
		case <-timer.C:
			s.RefreshOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// RefreshOnce regenerates the current month. Failures are logged and the
// next cycle tries again.
func (s *Service) RefreshOnce(ctx context.Context) {
	start, end := s.generator.CurrentMonth()
	began := time.Now()

	entries, err := s.generator.GeneratePlanning(ctx, start, end)
	if err != nil {
		s.logger.Error("planning refresh failed",
			slog.String("start", start.String()),
			slog.String("end", end.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("planning refresh complete",
		slog.Int("entries", len(entries)),
		slog.Duration("took", time.Since(began)),
	)
}
