package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kalambet/mocktalk/internal/config"
)

// apiClient reads server state from a running `mocktalk serve`.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

var newAPIClient = func(cfg config.Config) *apiClient {
	return &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// serverError is the {"error": {...}} envelope the API writes on failure.
type serverError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *serverError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Type, e.Message)
}

// savedSession is the part of a history listing the CLI shows.
type savedSession struct {
	N     int    `json:"n"`
	Label string `json:"label"`
}

// healthy reports whether the server answers /health with 200.
func (c *apiClient) healthy(ctx context.Context) (bool, error) {
	err := c.getJSON(ctx, "/health", nil)
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*serverError); ok {
		return false, err
	}
	return false, fmt.Errorf("server not reachable, is mocktalk serve running? (%w)", err)
}

func (c *apiClient) savedSessions(ctx context.Context) ([]savedSession, error) {
	var list []savedSession
	if err := c.getJSON(ctx, "/api/history", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// getJSON decodes a 2xx body into v, or the error envelope into a
// *serverError. A nil v discards the body.
func (c *apiClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var env struct {
			Error serverError `json:"error"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(body, &env)
		env.Error.Status = resp.StatusCode
		return &env.Error
	}
	if v == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
