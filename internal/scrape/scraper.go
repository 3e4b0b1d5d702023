// Package scrape crawls solutionstransitions.fr and writes the JSON
// collections the corpus is loaded from.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/transitions/internal/corpus"
	"github.com/ppiankov/transitions/internal/model"
	"github.com/ppiankov/transitions/internal/worker"
)

// Site sections relative to the base URL
const (
	FichesPath     = "les-fiches/"
	RessourcesPath = "les-ressources/"
	FAQPath        = "faq/"
)

// Options configures a Scraper
type Options struct {
	BaseURL   string
	OutputDir string
	Workers   int
	Logger    *slog.Logger
}

// Scraper crawls the listing pages and the detail pages they link to
type Scraper struct {
	fetcher *Fetcher
	base    *url.URL
	outDir  string
	workers int
	logger  *slog.Logger
}

// Result summarizes one scraping run
type Result struct {
	Fiches     int
	Ressources int
	Skipped    []string
	CacheHits  int64
}

// New creates a Scraper. The base URL must be absolute.
func New(fetcher *Fetcher, opts Options) (*Scraper, error) {
	raw := opts.BaseURL
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL must be absolute: %s", opts.BaseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Scraper{
		fetcher: fetcher,
		base:    base,
		outDir:  opts.OutputDir,
		workers: workers,
		logger:  logger.With("component", "scraper"),
	}, nil
}

// Run scrapes every section and writes the four files to the output directory.
// Nothing is written when a fact sheet or a single page fails.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	fiches, err := s.ScrapeFiches(ctx)
	if err != nil {
		return nil, err
	}

	ressources, skipped, err := s.ScrapeRessources(ctx)
	if err != nil {
		return nil, err
	}

	faq, err := s.ScrapePage(ctx, s.resolve(FAQPath), "faq")
	if err != nil {
		return nil, err
	}

	home, err := s.ScrapePage(ctx, s.base.String(), "home")
	if err != nil {
		return nil, err
	}

	if err := corpus.WriteCollection(s.outDir, corpus.FichesFile, fiches); err != nil {
		return nil, err
	}
	if err := corpus.WriteCollection(s.outDir, corpus.RessourcesFile, ressources); err != nil {
		return nil, err
	}
	if err := corpus.WritePage(s.outDir, corpus.FAQFile, faq); err != nil {
		return nil, err
	}
	if err := corpus.WritePage(s.outDir, corpus.HomeFile, home); err != nil {
		return nil, err
	}

	s.logger.Info("scrape complete",
		"fiches", len(fiches),
		"ressources", len(ressources),
		"skipped", len(skipped),
		"dir", s.outDir,
	)

	return &Result{
		Fiches:     len(fiches),
		Ressources: len(ressources),
		Skipped:    skipped,
		CacheHits:  s.fetcher.CacheStats().Hits,
	}, nil
}

// ScrapeFiches fetches the fact-sheet listing and every fact sheet. Any failure aborts.
func (s *Scraper) ScrapeFiches(ctx context.Context) ([]model.SourceRecord, error) {
	doc, err := s.fetchDocument(ctx, s.resolve(FichesPath))
	if err != nil {
		return nil, fmt.Errorf("fiches listing: %w", err)
	}

	links := FicheLinks(doc, s.base)
	s.logger.Info("found fiches", "count", len(links))

	results := s.scrapeDetails(ctx, links)

	records := make([]model.SourceRecord, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			return nil, fmt.Errorf("fiche %s: %w", r.URL, r.Error)
		}
		records = append(records, *r.Value)
	}
	return records, nil
}

// ScrapeRessources fetches the resource listing and every resource page.
// Pages answering with an HTTP error are skipped; their URLs are returned.
func (s *Scraper) ScrapeRessources(ctx context.Context) ([]model.SourceRecord, []string, error) {
	doc, err := s.fetchDocument(ctx, s.resolve(RessourcesPath))
	if err != nil {
		return nil, nil, fmt.Errorf("ressources listing: %w", err)
	}

	links := RessourceLinks(doc, s.base)
	s.logger.Info("found ressources", "count", len(links))

	results := s.scrapeDetails(ctx, links)

	records := make([]model.SourceRecord, 0, len(results))
	var skipped []string
	for _, r := range results {
		if r.Error != nil {
			var statusErr *StatusError
			if errors.As(r.Error, &statusErr) || errors.Is(r.Error, ErrDisallowed) {
				s.logger.Warn("skipping ressource", "url", r.URL, "error", r.Error)
				skipped = append(skipped, r.URL)
				continue
			}
			return nil, nil, fmt.Errorf("ressource %s: %w", r.URL, r.Error)
		}
		records = append(records, *r.Value)
	}
	return records, skipped, nil
}

// ScrapePage fetches a single page; its title falls back to slug
func (s *Scraper) ScrapePage(ctx context.Context, pageURL, slug string) (*model.SourceRecord, error) {
	s.logger.Info("scraping page", "url", pageURL)

	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", slug, err)
	}

	content := ExtractSummary(doc)
	title := content.Title
	if title == "" {
		title = slug
	}

	return &model.SourceRecord{
		Slug:       slug,
		URL:        pageURL,
		Title:      title,
		Resume:     content.Resume,
		Paragraphs: content.Paragraphs,
	}, nil
}

// scrapeDetails fetches detail pages concurrently, results in link order
func (s *Scraper) scrapeDetails(ctx context.Context, links []Link) []*worker.URLResult[*model.SourceRecord] {
	byURL := make(map[string]Link, len(links))
	urls := make([]string, 0, len(links))
	for _, l := range links {
		byURL[l.URL] = l
		urls = append(urls, l.URL)
	}

	fn := func(ctx context.Context, pageURL string) (*model.SourceRecord, error) {
		return s.scrapeDetail(ctx, byURL[pageURL])
	}
	return worker.NewBatchProcessor(fn, s.workers).ProcessURLs(ctx, urls)
}

func (s *Scraper) scrapeDetail(ctx context.Context, link Link) (*model.SourceRecord, error) {
	s.logger.Debug("scraping detail", "url", link.URL)

	doc, err := s.fetchDocument(ctx, link.URL)
	if err != nil {
		return nil, err
	}

	content := ExtractSummary(doc)
	title := content.Title
	if title == "" {
		title = link.Title
	}

	return &model.SourceRecord{
		Slug:       link.Slug,
		URL:        link.URL,
		Title:      title,
		Resume:     content.Resume,
		Paragraphs: content.Paragraphs,
		PDFURL:     PDFURL(doc, s.base),
	}, nil
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*html.Node, error) {
	result, err := s.fetcher.FetchWithRetry(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := parseHTML(result.HTML)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}

func (s *Scraper) resolve(path string) string {
	return s.base.ResolveReference(&url.URL{Path: path}).String()
}
