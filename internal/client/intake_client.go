package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"telework-planning-backend/internal/model"
)

// IntakeClient talks to the telework request intake service.
type IntakeClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewIntakeClient(baseURL string, timeout time.Duration) *IntakeClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IntakeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListRequestsForUser fetches every request of one user, forwarding the
// caller's Authorization header.
func (c *IntakeClient) ListRequestsForUser(ctx context.Context, userID int64, authorization string) ([]TeleworkRequest, error) {
	u, err := c.endpoint("/api/teletravail/user/" + strconv.FormatInt(userID, 10))
	if err != nil {
		return nil, err
	}

	slog.Debug("fetching telework requests for user",
		slog.Int64("user_id", userID),
		slog.String("url", u.String()),
	)

	var requests []TeleworkRequest
	if err := c.do(ctx, http.MethodGet, u, authorization, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ListRequestsInRange fetches all users' requests dated within [start, end].
func (c *IntakeClient) ListRequestsInRange(ctx context.Context, start, end model.Date) ([]TeleworkRequest, error) {
	u, err := c.endpoint("/api/teletravail/planning/all")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("startDate", start.String())
	q.Set("endDate", end.String())
	u.RawQuery = q.Encode()

	slog.Debug("fetching telework requests in range",
		slog.String("url", u.String()),
	)

	var requests []TeleworkRequest
	if err := c.do(ctx, http.MethodGet, u, "", &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ListTeamRequests fetches a team's requests dated within [start, end],
// forwarding the caller's Authorization header.
func (c *IntakeClient) ListTeamRequests(ctx context.Context, team string, start, end model.Date, authorization string) ([]TeleworkRequest, error) {
	u, err := c.endpoint("/api/teletravail/team/" + team)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("startDate", start.String())
	q.Set("endDate", end.String())
	u.RawQuery = q.Encode()

	var requests []TeleworkRequest
	if err := c.do(ctx, http.MethodGet, u, authorization, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// DeleteRequestByUserAndDate removes the intake record behind a deleted planning entry.
func (c *IntakeClient) DeleteRequestByUserAndDate(ctx context.Context, userID int64, date model.Date) error {
	u, err := c.endpoint(fmt.Sprintf("/api/teletravail/by-user-and-date/%d/%s", userID, date))
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, u, "", nil)
}

func (c *IntakeClient) endpoint(path string) (*url.URL, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = path
	return u, nil
}

func (c *IntakeClient) do(ctx context.Context, method string, u *url.URL, authorization string, out any) error {
	return doJSON(ctx, c.httpClient, method, u, authorization, out)
}

func doJSON(ctx context.Context, httpClient *http.Client, method string, u *url.URL, authorization string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, URL: u.String(), StatusCode: resp.StatusCode}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError reports a non-2xx answer from a collaborator.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code: %d", e.Method, e.URL, e.StatusCode)
}
