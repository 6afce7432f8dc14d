package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telework-planning-backend/internal/api"
	"telework-planning-backend/internal/breaker"
	"telework-planning-backend/internal/client"
	"telework-planning-backend/internal/health"
	"telework-planning-backend/internal/model"
	"telework-planning-backend/internal/namecache"
	"telework-planning-backend/internal/planning"
	"telework-planning-backend/internal/store"
	"telework-planning-backend/internal/testutil"
	"telework-planning-backend/internal/worker"
)

const testSecret = "integration-secret"

// fakeUpstream plays both the intake and the directory service.
type fakeUpstream struct {
	mu       sync.Mutex
	requests map[int64][]client.TeleworkRequest
	deleted  []string
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/teletravail/user/{id}", func(w http.ResponseWriter, r *http.Request) {
		var id int64
		fmt.Sscan(r.PathValue("id"), &id)
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(f.requests[id])
	})
	mux.HandleFunc("GET /api/teletravail/planning/all", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		all := []client.TeleworkRequest{}
		for _, rs := range f.requests {
			all = append(all, rs...)
		}
		json.NewEncoder(w).Encode(all)
	})
	mux.HandleFunc("DELETE /api/teletravail/by-user-and-date/{id}/{date}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deleted = append(f.deleted, r.PathValue("id")+"/"+r.PathValue("date"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/teletravail/team/{team}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		all := []client.TeleworkRequest{}
		for _, rs := range f.requests {
			all = append(all, rs...)
		}
		json.NewEncoder(w).Encode(all)
	})
	mux.HandleFunc("GET /api/users/team/{team}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("team") != "DEV" {
			json.NewEncoder(w).Encode([]client.TeamMemberResponse{})
			return
		}
		json.NewEncoder(w).Encode([]client.TeamMemberResponse{
			{ID: 7, FirstName: "Jane", LastName: "Doe", Role: "EMPLOYEE"},
			{ID: 8, EmployeeName: "John Roe", Role: "TEAM_LEADER"},
		})
	})
	mux.HandleFunc("GET /api/users/public/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"firstName": "Jane", "lastName": "Doe"})
	})
	return mux
}

func newTestRouter(t *testing.T, upstreamURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	planningStore := store.NewGormStore(testutil.NewSQLiteDB(t))
	settings := breaker.Settings{FailureThreshold: 5, OpenTimeout: time.Minute}
	intake := client.NewResilientIntake(client.NewIntakeClient(upstreamURL, time.Second), settings, nil, logger)
	directory := client.NewResilientDirectory(client.NewDirectoryClient(upstreamURL, time.Second), settings, nil, logger)
	resolver := namecache.NewResolver(namecache.NewMemory(time.Minute), directory)

	reconciler := planning.NewReconciler(planningStore, resolver, nil, logger)
	scheduler := planning.NewScheduler(planningStore, resolver, planning.DefaultPolicy(), nil, logger)
	pool := worker.NewWorkerPool(2, reconciler, logger)
	pool.Start(ctx)

	svc := planning.NewService(planningStore, reconciler, scheduler, intake, pool, nil, logger)
	checker := health.NewChecker(planningStore, nil, append(intake.Breakers(), directory.Breakers()...), "test")

	return api.NewRouter(api.NewHandler(svc, planning.NewCalendar(directory, intake, logger), logger), checker, api.RouterConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		JWTSecret:       testSecret,
		ManagerRoles:    []string{"MANAGER"},
	}, logger)
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "7",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func do(t *testing.T, router http.Handler, method, target, authorization string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEntries(t *testing.T, w *httptest.ResponseRecorder) []model.PlanningEntry {
	t.Helper()
	var entries []model.PlanningEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	return entries
}

// TestPlanningLifecycle drives one user's week through the HTTP surface:
// ensure, inbound sync, status decision and deletion.
func TestPlanningLifecycle(t *testing.T) {
	upstream := &fakeUpstream{requests: map[int64][]client.TeleworkRequest{
		7: {{
			ID:              1,
			UserID:          7,
			TravailType:     "Regular",
			TeletravailDate: "2025-03-04",
			TravailMaison:   "oui",
			Reason:          "focus day",
			Status:          "APPROVED",
		}},
	}}
	server := httptest.NewServer(upstream.handler())
	defer server.Close()

	router := newTestRouter(t, server.URL)
	week := "startDate=2025-03-03&endDate=2025-03-09"

	// 1. Ensure: the approved Tuesday is reconciled and Thursday is filled in.
	w := do(t, router, http.MethodPost, "/api/planning/update-for-user/7?"+week, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entries := decodeEntries(t, w)
	require.Len(t, entries, 2)

	assert.Equal(t, "2025-03-04", entries[0].Date.String())
	assert.Equal(t, model.StatusApproved, entries[0].Status)
	assert.Equal(t, "Jane Doe", entries[0].UserName)
	assert.Equal(t, model.LocationHome, entries[0].Location)

	assert.Equal(t, "2025-03-06", entries[1].Date.String())
	assert.Equal(t, model.StatusPlanned, entries[1].Status)
	assert.Equal(t, model.AutomaticReason, entries[1].Reason)
	thursdayID := entries[1].ID

	// 2. A second ensure changes nothing.
	w = do(t, router, http.MethodPost, "/api/planning/update-for-user/7?"+week, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	again := decodeEntries(t, w)
	require.Len(t, again, 2)
	assert.Equal(t, entries[0].ID, again[0].ID)
	assert.Equal(t, thursdayID, again[1].ID)

	// 3. The intake service pushes a refusal for Thursday.
	w = do(t, router, http.MethodPost, "/api/planning/sync-teletravail", "", client.TeleworkRequest{
		ID:              2,
		UserID:          7,
		TravailType:     "Regular",
		TeletravailDate: "2025-03-06",
		TravailMaison:   "oui",
		Status:          "REFUSED",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 4. Reads need a token.
	w = do(t, router, http.MethodGet, "/api/planning/user/7?"+week, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/api/planning/user/7?"+week, bearer(t, "EMPLOYEE"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries = decodeEntries(t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, thursdayID, entries[1].ID)
	assert.Equal(t, model.StatusRejected, entries[1].Status)

	// 5. Status decisions are reserved to managers.
	statusURL := fmt.Sprintf("/api/planning/%d/status?status=APPROVED", thursdayID)
	w = do(t, router, http.MethodPut, statusURL, bearer(t, "EMPLOYEE"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodPut, statusURL, bearer(t, "MANAGER"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated model.PlanningEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, model.StatusApproved, updated.Status)

	// 6. Deleting the entry also removes the upstream request.
	w = do(t, router, http.MethodDelete, fmt.Sprintf("/api/planning/%d", thursdayID), bearer(t, "MANAGER"), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	upstream.mu.Lock()
	assert.Equal(t, []string{"7/2025-03-06"}, upstream.deleted)
	upstream.mu.Unlock()

	w = do(t, router, http.MethodDelete, fmt.Sprintf("/api/planning/%d", thursdayID), bearer(t, "MANAGER"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 7. The service reports ready.
	w = do(t, router, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestGeneratePlanningAcrossUsers covers the bulk manager endpoint.
func TestGeneratePlanningAcrossUsers(t *testing.T) {
	upstream := &fakeUpstream{requests: map[int64][]client.TeleworkRequest{
		7: {{ID: 1, UserID: 7, TravailType: "Regular", TeletravailDate: "2025-03-04", TravailMaison: "oui", Status: "APPROVED"}},
		8: {
			{ID: 2, UserID: 8, TravailType: "Exceptionnel", TeletravailDate: "2025-03-05", TravailMaison: "non", SelectedPays: "Tunisie", SelectedGouvernorat: "Sfax", Status: "PENDING"},
			{ID: 3, UserID: 8, TravailType: "Regular", TeletravailDate: "2025-04-01", TravailMaison: "oui", Status: "APPROVED"},
		},
	}}
	server := httptest.NewServer(upstream.handler())
	defer server.Close()

	router := newTestRouter(t, server.URL)

	body := map[string]string{"startDate": "2025-03-01", "endDate": "2025-03-31"}
	w := do(t, router, http.MethodPost, "/api/planning/generate", bearer(t, "EMPLOYEE"), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodPost, "/api/planning/generate", bearer(t, "MANAGER"), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entries := decodeEntries(t, w)
	require.Len(t, entries, 2)

	assert.Equal(t, int64(7), entries[0].UserID)
	assert.Equal(t, model.StatusApproved, entries[0].Status)

	assert.Equal(t, int64(8), entries[1].UserID)
	assert.Equal(t, "2025-03-05", entries[1].Date.String())
	assert.Equal(t, model.StatusPlanned, entries[1].Status)
	assert.Equal(t, model.WorkTypeExceptional, entries[1].WorkType)
	assert.Equal(t, "Tunisie - Sfax", entries[1].Location)

	w = do(t, router, http.MethodGet, "/api/planning?startDate=2025-03-01&endDate=2025-03-31", bearer(t, "EMPLOYEE"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeEntries(t, w), 2)
}

// TestTeamCalendar reads a team's week through both collaborators.
func TestTeamCalendar(t *testing.T) {
	upstream := &fakeUpstream{requests: map[int64][]client.TeleworkRequest{
		7: {{ID: 1, UserID: 7, TeletravailDate: "2025-03-04", TravailMaison: "oui", Status: "APPROVED"}},
		8: {{ID: 2, UserID: 8, TeletravailDate: "2025-03-06", TravailMaison: "oui", Status: "PENDING"}},
	}}
	server := httptest.NewServer(upstream.handler())
	defer server.Close()

	router := newTestRouter(t, server.URL)

	w := do(t, router, http.MethodGet, "/api/calendar/team/dev?startDate=2025-03-03&endDate=2025-03-07", bearer(t, "EMPLOYEE"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cal model.TeamCalendar
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cal))
	assert.Equal(t, "DEV", cal.TeamName)
	require.Len(t, cal.Members, 2)

	assert.Equal(t, "Jane Doe", cal.Members[0].EmployeeName)
	require.Len(t, cal.Members[0].DailyStatuses, 5)
	assert.Equal(t, model.WorkStatusTelework, cal.Members[0].DailyStatuses[1].Status)
	assert.Equal(t, model.WorkStatusOffice, cal.Members[0].DailyStatuses[3].Status)

	assert.Equal(t, "John Roe", cal.Members[1].EmployeeName)
	assert.Equal(t, model.WorkStatusPending, cal.Members[1].DailyStatuses[3].Status)

	// Unknown teams give an empty calendar, not an error.
	w = do(t, router, http.MethodGet, "/api/calendar/team/QA?startDate=2025-03-03&endDate=2025-03-07", bearer(t, "EMPLOYEE"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cal))
	assert.Empty(t, cal.Members)
}
