package worker

import (
	"context"
	"log/slog"
	"sort"

	"telework-planning-backend/internal/model"
)

// Reconciler applies one user's request snapshots to the planning store.
type Reconciler interface {
	ReconcileUser(ctx context.Context, userID int64, snapshots []model.TeleworkRequestSnapshot) ([]model.PlanningEntry, error)
}

// Job is one user's batch of snapshots.
type Job struct {
	UserID    int64
	Snapshots []model.TeleworkRequestSnapshot
	results   chan<- Result
}

// Result reports the outcome of one Job.
type Result struct {
	UserID  int64
	Entries []model.PlanningEntry
	Err     error
}

// WorkerPool reconciles users concurrently with a fixed number of workers.
type WorkerPool struct {
	size       int
	jobs       chan Job
	reconciler Reconciler
	logger     *slog.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, reconciler Reconciler, logger *slog.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		size:       size,
		jobs:       make(chan Job, size), // Buffered channel
		reconciler: reconciler,
		logger:     logger,
	}
}

// Start launches the worker goroutines. They exit when ctx is done.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Debug("worker started", slog.Int("worker", id))
	for {
		select {
		case job := <-wp.jobs:
			wp.logger.Debug("worker reconciling user",
				slog.Int("worker", id),
				slog.Int64("user_id", job.UserID),
				slog.Int("snapshots", len(job.Snapshots)),
			)
			entries, err := wp.reconciler.ReconcileUser(ctx, job.UserID, job.Snapshots)
			if err != nil {
				wp.logger.Error("failed to reconcile user",
					slog.Int64("user_id", job.UserID),
					slog.String("error", err.Error()),
				)
			}
			job.results <- Result{UserID: job.UserID, Entries: entries, Err: err}
		case <-ctx.Done():
			wp.logger.Debug("worker shutting down", slog.Int("worker", id))
			return
		}
	}
}

// Dispatch hands a job to the pool, blocking until a worker slot frees up.
func (wp *WorkerPool) Dispatch(ctx context.Context, job Job) error {
	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run reconciles every user in batches and waits for all of them. Results
// are ordered by user id. A canceled ctx stops dispatching and returns the
// results collected so far together with ctx.Err().
func (wp *WorkerPool) Run(ctx context.Context, batches map[int64][]model.TeleworkRequestSnapshot) ([]Result, error) {
	userIDs := make([]int64, 0, len(batches))
	for id := range batches {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	results := make(chan Result, len(userIDs))
	dispatched := 0
	var dispatchErr error
	for _, id := range userIDs {
		if err := wp.Dispatch(ctx, Job{UserID: id, Snapshots: batches[id], results: results}); err != nil {
			dispatchErr = err
			break
		}
		dispatched++
	}

	out := make([]Result, 0, dispatched)
	for i := 0; i < dispatched; i++ {
		select {
		case r := <-results:
			out = append(out, r)
		case <-ctx.Done():
			sortResults(out)
			return out, ctx.Err()
		}
	}
	sortResults(out)
	return out, dispatchErr
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool { return results[i].UserID < results[j].UserID })
}
