package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/transitions/internal/cache"
	"github.com/ppiankov/transitions/internal/util"
	"github.com/ppiankov/transitions/internal/worker"
)

const fetchMaxRetries = 3

// fetchSleepFunc is replaced in tests to skip backoff delays
var fetchSleepFunc = time.Sleep

// ErrDisallowed is returned for URLs excluded by robots.txt
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-2xx HTTP response
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, e.Status)
}

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	Timeout       time.Duration
	UserAgent     string
	MaxBytes      int64
	RespectRobots bool
	HTTPProxy     string
	HTTPSProxy    string
	NoProxy       string

	// Limiter throttles requests per host; nil means unlimited
	Limiter *worker.Limiter

	// Pages caches successful responses; nil disables caching
	Pages *cache.PageStore

	Logger *slog.Logger
}

// Fetcher fetches HTML pages politely: robots.txt, per-host rate limit, cache and retries
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	pages      *cache.PageStore
	logger     *slog.Logger
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML        string
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	FromCache   bool
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  opts.UserAgent,
		maxBytes:   maxBytes,
		limiter:    opts.Limiter,
		pages:      opts.Pages,
		logger:     logger.With("component", "fetcher"),
	}
	if f.pages == nil {
		f.pages = cache.NewPageStore(nil, 0)
	}
	if opts.RespectRobots {
		f.robots = util.NewRobotsChecker(client, opts.UserAgent, opts.Timeout)
	}
	return f
}

// Fetch retrieves one page, without retries
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if page, ok := f.pages.Get(rawURL); ok {
		f.logger.Debug("cache hit", "url", rawURL)
		return &FetchResult{
			HTML:        string(page.Body),
			URL:         rawURL,
			FinalURL:    page.URL,
			StatusCode:  page.StatusCode,
			ContentType: page.ContentType,
			FromCache:   true,
		}, nil
	}

	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		if f.limiter != nil {
			f.limiter.ApplyCrawlDelay(rawURL, crawlDelay)
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	result := &FetchResult{
		HTML:        string(body),
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if err := f.pages.Put(&cache.Page{
		URL:         rawURL,
		StatusCode:  result.StatusCode,
		ContentType: result.ContentType,
		Body:        body,
		FetchedAt:   time.Now(),
	}); err != nil {
		f.logger.Warn("cache write failed", "url", rawURL, "error", err)
	}

	return result, nil
}

// FetchWithRetry retries transient failures with exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < fetchMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			f.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt+1, "backoff", backoff, "error", err)
			fetchSleepFunc(backoff)
		}
	}
	return nil, lastErr
}

// CacheStats reports page cache hits and misses
func (f *Fetcher) CacheStats() cache.Stats {
	return f.pages.Stats()
}

// isRetryableFetchError returns true for 5xx, 429 and transient network failures
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}

	s := strings.ToLower(err.Error())
	if !strings.HasPrefix(s, "fetch: ") {
		return false
	}
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "eof")
}
