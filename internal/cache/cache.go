// Package cache keeps fetched pages between scraper runs so a re-scrape
// of an unchanged site does not hit the network again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
)

// Cache defines the byte-level store shared by all layers
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from a URL. Fragments and trailing slashes do not
// produce distinct entries.
func CacheKey(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		url = url[:i]
	}
	url = strings.TrimRight(url, "/")
	hash := sha256.Sum256([]byte(url))
	return "transitions:v1:" + hex.EncodeToString(hash[:])
}

// Page is a successful fetch as stored in the cache
type Page struct {
	URL         string    `json:"url"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Stats counts page lookups
type Stats struct {
	Hits   int64
	Misses int64
}

// PageStore stores fetched pages keyed by URL on top of a Cache
type PageStore struct {
	backend Cache
	ttl     time.Duration
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewPageStore wraps backend. A nil backend disables caching.
func NewPageStore(backend Cache, ttl time.Duration) *PageStore {
	if backend == nil {
		backend = Noop{}
	}
	return &PageStore{backend: backend, ttl: ttl}
}

// Get returns the cached page for url
func (s *PageStore) Get(url string) (*Page, bool) {
	raw, ok := s.backend.Get(CacheKey(url))
	if !ok {
		s.misses.Add(1)
		return nil, false
	}

	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		// Corrupt entry; treat as a miss and drop it
		_ = s.backend.Delete(CacheKey(url))
		s.misses.Add(1)
		return nil, false
	}

	s.hits.Add(1)
	return &page, true
}

// Put stores page under its URL
func (s *PageStore) Put(page *Page) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return s.backend.Set(CacheKey(page.URL), raw, s.ttl)
}

// Clear drops every cached page
func (s *PageStore) Clear() error {
	return s.backend.Clear()
}

// Stats returns hit and miss counters since creation
func (s *PageStore) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}

// Noop is a Cache that stores nothing
type Noop struct{}

func (Noop) Get(string) ([]byte, bool) { return nil, false }
func (Noop) Set(string, []byte, time.Duration) error { return nil }
func (Noop) Delete(string) error { return nil }
func (Noop) Clear() error { return nil }
