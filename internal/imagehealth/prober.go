package imagehealth

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// UploadPathPrefix is the route under which uploaded images are served.
const UploadPathPrefix = "/api/upload/images/"

const (
	DefaultProbeTimeout     = 5 * time.Second
	DefaultProbeConcurrency = 8
)

// Prober decides whether an image reference currently resolves.
// Every failure is reported as false.
type Prober interface {
	Probe(ctx context.Context, ref string) bool
}

// UploadResolver maps an upload file name to a path inside the upload root.
type UploadResolver interface {
	Resolve(name string) (string, error)
}

// ProberConfig configures an HTTPProber.
type ProberConfig struct {
	PublicURL               string
	Uploads                 UploadResolver
	Timeout                 time.Duration
	Concurrency             int
	RequireImageContentType bool
	Client                  *http.Client
}

// HTTPProber checks local uploads on disk and external images over HTTP.
type HTTPProber struct {
	localPrefixes      []string
	uploads            UploadResolver
	timeout            time.Duration
	requireContentType bool
	client             *http.Client
	sem                *semaphore.Weighted
}

// NewHTTPProber builds a prober. The concurrency limit applies to outbound
// probes across every caller sharing this prober.
func NewHTTPProber(cfg ProberConfig) *HTTPProber {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultProbeConcurrency
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	prefixes := []string{}
	if public := strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/"); public != "" {
		prefixes = append(prefixes, public+UploadPathPrefix)
	}
	prefixes = append(prefixes, UploadPathPrefix)

	return &HTTPProber{
		localPrefixes:      prefixes,
		uploads:            cfg.Uploads,
		timeout:            timeout,
		requireContentType: cfg.RequireImageContentType,
		client:             client,
		sem:                semaphore.NewWeighted(int64(concurrency)),
	}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context, ref string) bool {
	ref = strings.TrimSpace(ref)
	start := time.Now()

	target := "external"
	var ok bool
	if name, local := p.localName(ref); local {
		target = "local"
		ok = p.probeLocal(name)
	} else {
		ok = p.probeExternal(ctx, ref)
	}

	probesTotal.WithLabelValues(target, verdictLabel(ok)).Inc()
	probeDuration.WithLabelValues(target).Observe(time.Since(start).Seconds())
	return ok
}

// localName reports whether ref points at this server's upload store and
// returns the upload file name.
func (p *HTTPProber) localName(ref string) (string, bool) {
	for _, prefix := range p.localPrefixes {
		if !strings.HasPrefix(ref, prefix) {
			continue
		}
		rest := ref[len(prefix):]
		if i := strings.IndexAny(rest, "?#"); i >= 0 {
			rest = rest[:i]
		}
		name, err := url.PathUnescape(rest)
		if err != nil {
			return "", true
		}
		return name, true
	}
	return "", false
}

func (p *HTTPProber) probeLocal(name string) bool {
	if p.uploads == nil || name == "" {
		return false
	}
	path, err := p.uploads.Resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

func (p *HTTPProber) probeExternal(ctx context.Context, ref string) bool {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.do(ctx, http.MethodHead, u.String())
	if err != nil {
		return false
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		closeBody(resp)
		resp, err = p.do(ctx, http.MethodGet, u.String())
		if err != nil {
			return false
		}
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	if p.requireContentType && !isImageContentType(resp.Header.Get("Content-Type")) {
		return false
	}
	return true
}

func (p *HTTPProber) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")
	if method == http.MethodGet {
		// Servers without HEAD support still answer a one-byte range cheaply.
		req.Header.Set("Range", "bytes=0-0")
	}
	return p.client.Do(req)
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

func isImageContentType(value string) bool {
	value = strings.ToLower(value)
	return strings.Contains(value, "image/") || strings.Contains(value, "img/")
}
