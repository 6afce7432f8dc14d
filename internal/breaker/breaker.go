package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"telework-planning-backend/internal/metrics"
	"telework-planning-backend/internal/model"
)

// State mirrors the breaker state for callers that must not import gobreaker.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Settings tunes one breaker.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold int
	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration
}

// Breaker guards one remote endpoint.
type Breaker struct {
	endpoint string
	cb       *gobreaker.CircuitBreaker[any]
	logger   *slog.Logger
	metrics  *metrics.PlanningMetrics
}

// New creates a closed breaker for endpoint.
func New(endpoint string, s Settings, logger *slog.Logger, m *metrics.PlanningMetrics) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := s.FailureThreshold
	if threshold <= 0 {
		threshold = 5
	}
	timeout := s.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	b := &Breaker{
		endpoint: endpoint,
		logger:   logger.With(slog.String("endpoint", endpoint)),
		metrics:  m,
	}
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        endpoint,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: b.onStateChange,
		IsSuccessful: func(err error) bool {
			// A caller giving up is not evidence against the endpoint.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return b
}

// Endpoint returns the guarded endpoint's name.
func (b *Breaker) Endpoint() string {
	return b.endpoint
}

// State reports the current breaker state.
func (b *Breaker) State() State {
	return fromGobreaker(b.cb.State())
}

// Execute runs fn unless the breaker is open. A short-circuited call returns
// an error wrapping model.ErrCollaboratorUnavailable without invoking fn.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %w", b.endpoint, model.ErrCollaboratorUnavailable, err)
	}
	return err
}

func (b *Breaker) onStateChange(_ string, from, to gobreaker.State) {
	f, t := fromGobreaker(from), fromGobreaker(to)
	b.logger.Warn("circuit breaker state changed",
		slog.String("from", string(f)),
		slog.String("to", string(t)),
	)
	b.metrics.RecordBreakerTransition(context.Background(), b.endpoint, string(f), string(t))
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Do runs fn through b and returns its value. It exists because methods
// cannot carry type parameters.
func Do[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := b.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
