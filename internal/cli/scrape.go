package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/transitions/internal/scrape"
)

var (
	noCache       bool
	clearCache    bool
	scrapeTimeout time.Duration
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape solutionstransitions.fr into the data directory",
	Long: `Scrape downloads the site's listings and detail pages in parallel:
- Collect fact-sheet links from les-fiches/ and resource links from les-ressources/
- Fetch every detail page with a bounded worker pool and per-host rate limit
- Extract title, "En résumé" summary and PDF link
- Write fiches.json, ressources.json, faq.json and home.json

Pages are cached in memory and on disk, and robots.txt is honoured.
Files are only replaced when the whole scrape succeeds.

Example:
  transitions scrape
  transitions scrape --data-dir ./doc --concurrency 8
  transitions scrape --no-cache
  transitions scrape --clear-cache`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().Int("concurrency", 0, "number of concurrent page fetches (default 4)")
	scrapeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	scrapeCmd.Flags().BoolVar(&clearCache, "clear-cache", false, "delete cached pages before scraping")
	scrapeCmd.Flags().DurationVar(&scrapeTimeout, "timeout", 10*time.Minute, "total timeout for the scrape")

	_ = viper.BindPFlag("concurrency.workers", scrapeCmd.Flags().Lookup("concurrency"))
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Transitions Scrape\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Site:         %s\n", cfg.Scrape.BaseURL)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Data.Dir)
	fmt.Fprintf(os.Stderr, "  Cache:        %v\n", cfg.Cache.Enabled)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", scrapeTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	pages, err := newPageStore(cfg, clearCache)
	if err != nil {
		return err
	}
	if clearCache {
		fmt.Fprintf(os.Stderr, "✓ Cleared page cache in %s\n\n", cfg.Cache.Dir)
	}

	s, err := scrape.New(newFetcher(cfg, pages), scrape.Options{
		BaseURL:   cfg.Scrape.BaseURL,
		OutputDir: cfg.Data.Dir,
		Workers:   cfg.Concurrency.Workers,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ %d fiches\n", result.Fiches)
	fmt.Fprintf(os.Stderr, "✓ %d ressources\n", result.Ressources)
	if len(result.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  %d pages skipped\n", len(result.Skipped))
		if verbose {
			for _, u := range result.Skipped {
				fmt.Fprintf(os.Stderr, "    %s\n", u)
			}
		}
	}
	if cfg.Cache.Enabled {
		fmt.Fprintf(os.Stderr, "✓ %d cache hits\n", result.CacheHits)
	}
	fmt.Fprintf(os.Stderr, "\nDone in %v, files written to %s\n", time.Since(start).Round(time.Millisecond), cfg.Data.Dir)

	return nil
}
