package model

import "strings"

// Kind tags the collection a document was loaded from
type Kind string

const (
	KindFiche     Kind = "fiche"     // Fact-sheet, editorially preferred
	KindRessource Kind = "ressource" // Resource page
	KindFAQ       Kind = "faq"       // Single FAQ page
	KindHome      Kind = "home"      // Site home page
)

// String returns the kind tag
func (k Kind) String() string {
	return string(k)
}

// Label returns the upper-cased tag used in prompt context blocks
func (k Kind) Label() string {
	return strings.ToUpper(string(k))
}

// Document is one searchable entry of the corpus.
// Documents are built once by the corpus loader and never modified.
type Document struct {
	Kind  Kind   `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Body  string `json:"text"` // title, resume and paragraphs joined by newlines
}

// SourceRecord is the on-disk shape of a scraped page
type SourceRecord struct {
	Slug       string   `json:"slug"`
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Resume     string   `json:"resume"`
	Paragraphs []string `json:"paragraphs"`
	PDFURL     *string  `json:"pdf_url"`
}

// JoinBody concatenates the record's title, resume and paragraphs,
// skipping empty fields.
func (r SourceRecord) JoinBody() string {
	parts := make([]string, 0, len(r.Paragraphs)+2)
	if r.Title != "" {
		parts = append(parts, r.Title)
	}
	if r.Resume != "" {
		parts = append(parts, r.Resume)
	}
	for _, p := range r.Paragraphs {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

// ToDocument flattens the record into a Document of the given kind.
// defaultTitle is used when the record has no title; it is not added to the body.
func (r SourceRecord) ToDocument(kind Kind, defaultTitle string) Document {
	title := r.Title
	if title == "" {
		title = defaultTitle
	}
	return Document{
		Kind:  kind,
		Title: title,
		URL:   r.URL,
		Body:  r.JoinBody(),
	}
}
