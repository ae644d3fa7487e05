package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PlaylistInfo is the playlist metadata needed for history entries.
type PlaylistInfo struct {
	ID         string
	Name       string
	TrackCount int
}

// TokenSource supplies a bearer token for API calls.
type TokenSource interface {
	AccessToken() string
}

// APIClient fetches playlist metadata from the streaming service's Web API.
type APIClient struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewAPIClient creates a Web API client authenticated by the token source.
func NewAPIClient(baseURL string, tokens TokenSource, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type playlistResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// GetPlaylist fetches name and track count for a playlist id.
func (c *APIClient) GetPlaylist(ctx context.Context, playlistID string) (*PlaylistInfo, error) {
	reqURL := fmt.Sprintf("%s/playlists/%s", c.baseURL, playlistID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.tokens.AccessToken())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}

	var result playlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.ID == "" {
		return nil, fmt.Errorf("malformed playlist response")
	}

	return &PlaylistInfo{
		ID:         result.ID,
		Name:       result.Name,
		TrackCount: result.Tracks.Total,
	}, nil
}
