package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DirectoryClient resolves users through the identity service.
type DirectoryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewDirectoryClient(baseURL string, timeout time.Duration) *DirectoryClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &DirectoryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DisplayName returns "<first> <last>" for the user. An empty result means
// the directory knows the user but holds no name.
func (c *DirectoryClient) DisplayName(ctx context.Context, userID int64) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = fmt.Sprintf("/api/users/public/%d", userID)

	var user publicUser
	if err := doJSON(ctx, c.httpClient, http.MethodGet, u, "", &user); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName)), nil
}

// TeamMembers lists the users of a team.
func (c *DirectoryClient) TeamMembers(ctx context.Context, team string) ([]TeamMemberResponse, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = "/api/users/team/" + team

	var members []TeamMemberResponse
	if err := doJSON(ctx, c.httpClient, http.MethodGet, u, "", &members); err != nil {
		return nil, err
	}
	return members, nil
}
