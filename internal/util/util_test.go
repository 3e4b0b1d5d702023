package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "Transitions", NormalizeUserAgent("Transitions/0.1 (+https://example.org)"))
	assert.Equal(t, "bot", NormalizeUserAgent("bot"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}

func TestRobotsChecker_DisallowAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			fmt.Fprint(w, "User-agent: Transitions\nDisallow: /private/\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rc := NewRobotsChecker(srv.Client(), "Transitions/0.1", 5*time.Second)
	ctx := context.Background()

	allowed, delay, err := rc.CanFetch(ctx, srv.URL+"/les-fiches/")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	allowed, _, err = rc.CanFetch(ctx, srv.URL+"/private/page")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int32(1), hits.Load(), "robots.txt is fetched once per host")
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	rc := NewRobotsChecker(nil, "Transitions/0.1", 5*time.Second)
	allowed, delay, err := rc.CanFetch(context.Background(), srv.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, delay)
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	rc := NewRobotsChecker(nil, "Transitions/0.1", time.Second)
	allowed, _, _ := rc.CanFetch(context.Background(), "http://127.0.0.1:1/page")
	assert.True(t, allowed)
}

func TestNewProxyFunc(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://solutionstransitions.fr/faq/", nil)

	proxy, err := NewProxyFunc("http://proxy.local:3128", "", "")(req)
	require.NoError(t, err)
	require.NotNil(t, proxy)
	assert.Equal(t, "proxy.local:3128", proxy.Host)

	proxy, err = NewProxyFunc("http://proxy.local:3128", "http://secure.local:3129", "")(req)
	require.NoError(t, err)
	assert.Equal(t, "secure.local:3129", proxy.Host)

	proxy, err = NewProxyFunc("http://proxy.local:3128", "", "solutionstransitions.fr")(req)
	require.NoError(t, err)
	assert.Nil(t, proxy, "no_proxy hosts bypass the proxy")
}
