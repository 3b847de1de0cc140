package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vboard/internal/models"
)

const (
	DefaultBaseURL   = "https://api.unsplash.com"
	DefaultCount     = 30
	MaxCount         = 50
	DefaultCacheSize = 32
	DefaultCacheTTL  = time.Minute

	requestTimeout = 10 * time.Second
	healthTimeout  = 5 * time.Second
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vboard_discover_cache_hits_total",
		Help: "Discover feed requests served from cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vboard_discover_cache_misses_total",
		Help: "Discover feed requests that went to the upstream API.",
	})
)

// Config configures the Unsplash client.
type Config struct {
	BaseURL   string
	AccessKey string
	CacheSize int
	CacheTTL  time.Duration
	Client    *http.Client
	Logger    *slog.Logger
}

// Client fetches random photos from Unsplash.
type Client struct {
	baseURL   string
	accessKey string
	http      *http.Client
	cache     *expirable.LRU[int, []models.DiscoverItem]
	logger    *slog.Logger
}

// NewClient creates a discover client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   baseURL,
		accessKey: strings.TrimSpace(cfg.AccessKey),
		http:      httpClient,
		cache:     expirable.NewLRU[int, []models.DiscoverItem](size, nil, ttl),
		logger:    logger.With("component", "discover"),
	}
}

// Configured reports whether an access key is set.
func (c *Client) Configured() bool {
	return c.accessKey != ""
}

type unsplashPhoto struct {
	ID             string  `json:"id"`
	Description    *string `json:"description"`
	AltDescription *string `json:"alt_description"`
	Likes          int     `json:"likes"`
	URLs           struct {
		Regular string `json:"regular"`
	} `json:"urls"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

// RandomPhotos returns up to count random photos. Upstream failures are
// logged and yield an empty list.
func (c *Client) RandomPhotos(ctx context.Context, count int) []models.DiscoverItem {
	count = ClampCount(count)
	if items, ok := c.cache.Get(count); ok {
		cacheHitsTotal.Inc()
		return items
	}
	cacheMissesTotal.Inc()

	items, err := c.fetchRandom(ctx, count)
	if err != nil {
		c.logger.Warn("fetch from unsplash failed", "count", count, "error", err)
		return []models.DiscoverItem{}
	}
	c.cache.Add(count, items)
	return items
}

func (c *Client) fetchRandom(ctx context.Context, count int) ([]models.DiscoverItem, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	resp, err := c.get(ctx, "/photos/random?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unsplash status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var photos []unsplashPhoto
	if err := json.NewDecoder(resp.Body).Decode(&photos); err != nil {
		return nil, fmt.Errorf("decode unsplash response: %w", err)
	}

	items := make([]models.DiscoverItem, 0, len(photos))
	for _, photo := range photos {
		items = append(items, transformPhoto(photo))
	}
	return items, nil
}

// CheckHealth reports whether the Unsplash API answers.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	resp, err := c.get(ctx, "/")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode == http.StatusOK
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")
	return c.http.Do(req)
}

func transformPhoto(photo unsplashPhoto) models.DiscoverItem {
	title := ""
	if photo.Description != nil && *photo.Description != "" {
		title = *photo.Description
	} else if photo.AltDescription != nil {
		title = *photo.AltDescription
	}
	return models.DiscoverItem{
		ID:        photo.ID,
		Title:     title,
		ImageURL:  photo.URLs.Regular,
		Author:    photo.User.Name,
		AuthorURL: photo.User.Links.HTML,
		Likes:     photo.Likes,
		Source:    models.DiscoverSourceUnsplash,
	}
}

// ClampCount bounds count to 1..MaxCount, using DefaultCount for non-positive values.
func ClampCount(count int) int {
	if count <= 0 {
		return DefaultCount
	}
	if count > MaxCount {
		return MaxCount
	}
	return count
}
