package planning

import (
	"context"
	"sync"
	"testing"
	"time"

	"telework-planning-backend/internal/model"
	"telework-planning-backend/internal/namecache"
	"telework-planning-backend/internal/store"
	"telework-planning-backend/internal/testutil"
	"telework-planning-backend/internal/worker"
)

type fakeNames struct {
	names map[int64]string
}

func (f *fakeNames) Resolve(_ context.Context, userID int64) string {
	if name, ok := f.names[userID]; ok {
		return name
	}
	return namecache.Placeholder(userID)
}

type fakeRequests struct {
	mu       sync.Mutex
	byUser   map[int64][]model.TeleworkRequestSnapshot
	all      []model.TeleworkRequestSnapshot
	auth     []string
	deleted  []model.Date
	deleteFn func() error
}

func (f *fakeRequests) FetchUserRequests(_ context.Context, userID int64, authorization string) []model.TeleworkRequestSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, authorization)
	return f.byUser[userID]
}

func (f *fakeRequests) ListAllRequestsInRange(context.Context, model.Date, model.Date) []model.TeleworkRequestSnapshot {
	return f.all
}

func (f *fakeRequests) DeleteRequest(_ context.Context, _ int64, date model.Date) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, date)
	if f.deleteFn != nil {
		return f.deleteFn()
	}
	return nil
}

type fixture struct {
	svc      *Service
	store    store.Store
	requests *fakeRequests
}

func newFixture(t *testing.T, requests RequestSource) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := store.NewGormStore(testutil.NewSQLiteDB(t))
	names := &fakeNames{names: map[int64]string{7: "Ada Lovelace"}}
	reconciler := NewReconciler(s, names, nil, nil)
	scheduler := NewScheduler(s, names, DefaultPolicy(), nil, nil)

	pool := worker.NewWorkerPool(2, reconciler, nil)
	pool.Start(ctx)

	fake, _ := requests.(*fakeRequests)
	return &fixture{
		svc:      NewService(s, reconciler, scheduler, requests, pool, nil, nil),
		store:    s,
		requests: fake,
	}
}

func day(month time.Month, d int) model.Date {
	return model.NewDate(2024, month, d)
}

func dates(entries []model.PlanningEntry) []model.Date {
	out := make([]model.Date, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Date)
	}
	return out
}
