package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/transitions/internal/cache"
	"github.com/ppiankov/transitions/internal/chat"
	"github.com/ppiankov/transitions/internal/corpus"
	"github.com/ppiankov/transitions/internal/llm"
	"github.com/ppiankov/transitions/internal/model"
	"github.com/ppiankov/transitions/internal/scrape"
	"github.com/ppiankov/transitions/internal/search"
	"github.com/ppiankov/transitions/internal/worker"
)

// loadCorpus reads the data directory and reports what was found
func loadCorpus(cfg *model.Config) (*corpus.Corpus, error) {
	c, err := corpus.Load(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if c.Len() == 0 {
		fmt.Fprintf(os.Stderr, "⚠️  No documents found in %s (run 'transitions scrape' first)\n", cfg.Data.Dir)
	} else if verbose {
		counts := c.Counts()
		fmt.Fprintf(os.Stderr, "✓ Loaded %d documents from %s (%d fiches, %d ressources)\n",
			c.Len(), cfg.Data.Dir, counts[model.KindFiche], counts[model.KindRessource])
	}
	return c, nil
}

func newScorer(cfg *model.Config) (*search.Scorer, error) {
	policy, err := search.PolicyByName(cfg.Search.Policy)
	if err != nil {
		return nil, err
	}
	return search.NewScorer(policy), nil
}

// newChatService builds the chat service. A missing provider is not an error:
// the service then answers every question with ErrProviderNotConfigured.
func newChatService(cfg *model.Config, docs chat.Documents) (*chat.Service, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if provider == nil {
		slog.Warn("no LLM provider configured, chat is disabled", "provider", cfg.LLM.Provider)
	}

	scorer, err := newScorer(cfg)
	if err != nil {
		return nil, err
	}

	return chat.NewService(provider, docs,
		chat.WithScorer(scorer),
		chat.WithTopK(cfg.Search.TopK),
		chat.WithHistorySize(cfg.LLM.HistorySize),
	), nil
}

// newPageStore opens the page cache, emptied first when reset is set.
// A disabled cache is still cleared on request; the result is then nil.
func newPageStore(cfg *model.Config, reset bool) (*cache.PageStore, error) {
	if !cfg.Cache.Enabled && !reset {
		return nil, nil
	}

	pages := cache.NewPageStore(cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL), cfg.Cache.DiskTTL)
	if reset {
		if err := pages.Clear(); err != nil {
			return nil, fmt.Errorf("clear cache %s: %w", cfg.Cache.Dir, err)
		}
	}
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	return pages, nil
}

// checkProvider warns when the configured provider does not answer.
// The server starts anyway; chat requests then fail with the provider's error.
func checkProvider(ctx context.Context, svc *chat.Service, name string, timeout time.Duration) bool {
	if !svc.Configured() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if !svc.Available(ctx) {
		slog.Warn("LLM provider did not answer its health check, chat may fail", "provider", name)
		return false
	}
	return true
}

// newFetcher wires the scraper's HTTP stack: cache, per-host limiter and robots.txt
func newFetcher(cfg *model.Config, pages *cache.PageStore) *scrape.Fetcher {
	return scrape.NewFetcher(scrape.FetcherOptions{
		Timeout:       cfg.HTTP.Timeout,
		UserAgent:     cfg.HTTP.UserAgent,
		MaxBytes:      cfg.HTTP.MaxBodyBytes,
		RespectRobots: cfg.HTTP.RespectRobots,
		HTTPProxy:     cfg.HTTP.HTTPProxy,
		HTTPSProxy:    cfg.HTTP.HTTPSProxy,
		NoProxy:       cfg.HTTP.NoProxy,
		Limiter:       worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		Pages:         pages,
	})
}
