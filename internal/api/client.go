package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "VBOARD_HTTP_TIMEOUT"

	// UserIDHeader carries the caller identity on owner-scoped endpoints.
	UserIDHeader = "X-User-Id"
)

// Client is a simple HTTP client for the vboard API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
	}
}

// Ping checks whether the API server is reachable. It hits the info
// endpoint, which answers even when the database is down.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/", nil, "", nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/", nil, "", nil, &resp)
	return resp, err
}

func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, "", nil, &resp)
	return resp, err
}

func (c *Client) GetPost(ctx context.Context, id int64) (PostResponse, error) {
	var resp PostResponse
	err := c.do(ctx, http.MethodGet, "/api/posts/"+idPath(id), nil, "", nil, &resp)
	return resp, err
}

func (c *Client) ImageHealthStatus(ctx context.Context) (ImageHealthStatusResponse, error) {
	var resp ImageHealthStatusResponse
	err := c.do(ctx, http.MethodGet, "/api/image-health/status", nil, "", nil, &resp)
	return resp, err
}

// TriggerImageCheck schedules a verification batch. A non-empty userID narrows it to that owner.
func (c *Client) TriggerImageCheck(ctx context.Context, userID string) (ImageCheckAckResponse, error) {
	var resp ImageCheckAckResponse
	err := c.do(ctx, http.MethodPost, "/api/image-health/check", nil, userID, nil, &resp)
	return resp, err
}

func (c *Client) CheckSinglePost(ctx context.Context, id int64) (SingleCheckResponse, error) {
	var resp SingleCheckResponse
	err := c.do(ctx, http.MethodPost, "/api/image-health/check-single/"+idPath(id), nil, "", nil, &resp)
	return resp, err
}

// ReactivatePost reactivates a post owned by userID, optionally replacing its image URL.
func (c *Client) ReactivatePost(ctx context.Context, id int64, userID, newImageURL string) (ReactivateResponse, error) {
	var resp ReactivateResponse
	var body any
	if newImageURL != "" {
		body = ReactivateRequest{NewImageURL: &newImageURL}
	}
	err := c.do(ctx, http.MethodPost, "/api/image-health/reactivate/"+idPath(id), nil, userID, body, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, userID string, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID = strings.TrimSpace(userID); userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func idPath(id int64) string {
	return url.PathEscape(strconv.FormatInt(id, 10))
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
