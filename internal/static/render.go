// Package static renders the index page listing fact sheets and resources,
// either served live or exported as a standalone file.
package static

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/transitions/internal/corpus"
	"github.com/ppiankov/transitions/internal/model"
)

const (
	excerptRunes = 100
	excerptMore  = "..."
	defaultTitle = "Solutions Transitions : assistant"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

// Options controls the rendered page
type Options struct {
	// Title of the page
	Title string

	// ChatEndpoint is the URL the chat box posts to; empty hides the chat box
	ChatEndpoint string
}

// Item is one card of the listing
type Item struct {
	Title   string
	URL     string
	Excerpt string
}

// Page is the template data
type Page struct {
	Title          string
	ChatEndpoint   string
	Fiches         []Item
	Ressources     []Item
	FicheCount     int
	RessourceCount int
	FAQ            *model.SourceRecord
	Home           *model.SourceRecord
}

// NewPage builds the template data from the corpus, lists sorted by title
func NewPage(c *corpus.Corpus, opts Options) Page {
	title := opts.Title
	if title == "" {
		title = defaultTitle
	}

	fiches := items(c.Fiches())
	ressources := items(c.Ressources())

	return Page{
		Title:          title,
		ChatEndpoint:   opts.ChatEndpoint,
		Fiches:         fiches,
		Ressources:     ressources,
		FicheCount:     len(fiches),
		RessourceCount: len(ressources),
		FAQ:            c.FAQ(),
		Home:           c.Home(),
	}
}

// Render writes the index page for c to w
func Render(c *corpus.Corpus, w io.Writer, opts Options) error {
	if err := indexTemplate.Execute(w, NewPage(c, opts)); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return nil
}

// Export writes the index page to path, creating parent directories
func Export(c *corpus.Corpus, path string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Render(c, f, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Excerpt shortens s to its first 100 runes followed by "..."
func Excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptRunes {
		return s
	}
	return string(runes[:excerptRunes]) + excerptMore
}

func items(records []model.SourceRecord) []Item {
	out := make([]Item, 0, len(records))
	for _, r := range records {
		out = append(out, Item{Title: r.Title, URL: r.URL, Excerpt: Excerpt(r.Resume)})
	}
	return out
}
