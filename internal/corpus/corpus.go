// Package corpus loads the scraped JSON collections into an immutable,
// ordered list of documents shared by every request.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/transitions/internal/model"
)

// File names inside the data directory
const (
	FichesFile     = "fiches.json"
	RessourcesFile = "ressources.json"
	FAQFile        = "faq.json"
	HomeFile       = "home.json"
)

// Default titles of the single pages when the scraper found none
const (
	DefaultFAQTitle  = "FAQ"
	DefaultHomeTitle = "Accueil"
)

// ErrMalformedFile is returned when a collection file is not valid JSON
var ErrMalformedFile = errors.New("malformed corpus file")

// Corpus is a read-only snapshot of the scraped site.
// It is built once and may be shared between goroutines without locking.
type Corpus struct {
	docs       []model.Document
	fiches     []model.SourceRecord
	ressources []model.SourceRecord
	faq        *model.SourceRecord
	home       *model.SourceRecord
}

// Load reads the four collections from dir. Missing files count as empty.
func Load(dir string) (*Corpus, error) {
	var fiches, ressources []model.SourceRecord
	if err := readJSON(filepath.Join(dir, FichesFile), &fiches); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, RessourcesFile), &ressources); err != nil {
		return nil, err
	}

	var faq, home *model.SourceRecord
	if err := readJSON(filepath.Join(dir, FAQFile), &faq); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, HomeFile), &home); err != nil {
		return nil, err
	}

	return New(fiches, ressources, faq, home), nil
}

// New builds a corpus from already decoded records.
// Document order is fiches, ressources, then the FAQ and home pages when present.
func New(fiches, ressources []model.SourceRecord, faq, home *model.SourceRecord) *Corpus {
	docs := make([]model.Document, 0, len(fiches)+len(ressources)+2)
	for _, r := range fiches {
		docs = append(docs, r.ToDocument(model.KindFiche, ""))
	}
	for _, r := range ressources {
		docs = append(docs, r.ToDocument(model.KindRessource, ""))
	}
	if faq != nil {
		docs = append(docs, faq.ToDocument(model.KindFAQ, DefaultFAQTitle))
	}
	if home != nil {
		docs = append(docs, home.ToDocument(model.KindHome, DefaultHomeTitle))
	}

	return &Corpus{
		docs:       docs,
		fiches:     fiches,
		ressources: ressources,
		faq:        faq,
		home:       home,
	}
}

// Documents returns the documents in load order. Callers must not modify the slice.
func (c *Corpus) Documents() []model.Document {
	return c.docs
}

// Len returns the number of documents
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Fiches returns the fact-sheet records sorted by title
func (c *Corpus) Fiches() []model.SourceRecord {
	return sortedByTitle(c.fiches)
}

// Ressources returns the resource records sorted by title
func (c *Corpus) Ressources() []model.SourceRecord {
	return sortedByTitle(c.ressources)
}

// FAQ returns the FAQ page, or nil
func (c *Corpus) FAQ() *model.SourceRecord {
	return c.faq
}

// Home returns the home page, or nil
func (c *Corpus) Home() *model.SourceRecord {
	return c.home
}

// Counts returns the number of documents per kind
func (c *Corpus) Counts() map[model.Kind]int {
	counts := make(map[model.Kind]int, 4)
	for _, d := range c.docs {
		counts[d.Kind]++
	}
	return counts
}

func sortedByTitle(records []model.SourceRecord) []model.SourceRecord {
	out := make([]model.SourceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}

// readJSON decodes path into v, leaving v untouched when the file does not exist
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w %s: %v", ErrMalformedFile, path, err)
	}
	return nil
}
