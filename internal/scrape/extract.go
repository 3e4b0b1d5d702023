package scrape

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	summaryMarker    = "en resume"
	summaryBlocks    = 8
	fallbackBlocks   = 5
	pdfQueryMarker   = "?pdf="
	downloadLinkText = "Télécharger"
)

// Pages of the site that are navigation, not resources
var excludedResourcePaths = map[string]bool{
	"":                  true,
	"/":                 true,
	"les-fiches/":       true,
	"les-ressources/":   true,
	"les-ressources-2/": true,
	"le-projet/":        true,
	"faq/":              true,
	"contact/":          true,
}

// Link is a detail page found on a listing page
type Link struct {
	URL   string
	Slug  string
	Title string
}

// PageContent is what we keep of a detail page
type PageContent struct {
	Title      string
	Resume     string
	Paragraphs []string
}

// linkSet keeps first-seen order while letting later anchors overwrite the title
type linkSet struct {
	order  []string
	titles map[string]string
}

func newLinkSet() *linkSet {
	return &linkSet{titles: make(map[string]string)}
}

func (s *linkSet) add(u, title string) {
	if _, ok := s.titles[u]; !ok {
		s.order = append(s.order, u)
	}
	s.titles[u] = title
}

func (s *linkSet) links() []Link {
	out := make([]Link, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, Link{URL: u, Slug: Slug(u), Title: s.titles[u]})
	}
	return out
}

// FicheLinks returns the fact-sheet links of the listing page
func FicheLinks(doc *html.Node, base *url.URL) []Link {
	set := newLinkSet()
	for _, a := range anchors(doc) {
		href, _ := attr(a, "href")
		if !strings.Contains(href, "/portfolio/") {
			continue
		}
		full, ok := resolve(base, href)
		if !ok {
			continue
		}
		set.add(full, anchorTitle(a, full))
	}
	return set.links()
}

// RessourceLinks returns the links of the resource listing page that point
// inside the site and are not navigation
func RessourceLinks(doc *html.Node, base *url.URL) []Link {
	prefix := base.String()
	set := newLinkSet()
	for _, a := range anchors(doc) {
		href, _ := attr(a, "href")
		full, ok := resolve(base, href)
		if !ok || !strings.HasPrefix(full, prefix) {
			continue
		}
		path := strings.TrimPrefix(full, prefix)
		if excludedResourcePaths[path] || strings.HasPrefix(path, "tag/") {
			continue
		}
		set.add(full, anchorTitle(a, full))
	}
	return set.links()
}

// PDFURL returns the first download link of the page, or nil
func PDFURL(doc *html.Node, base *url.URL) *string {
	for _, a := range anchors(doc) {
		href, _ := attr(a, "href")
		text := strings.TrimSpace(rawText(a))
		if strings.Contains(href, pdfQueryMarker) || strings.Contains(text, downloadLinkText) {
			if full, ok := resolve(base, href); ok {
				return &full
			}
		}
	}
	return nil
}

// ExtractSummary reads the title and the summary blocks of a detail page.
// Blocks are the p and li texts of the first article, or of the whole page.
// When a block mentions "en résumé", the following blocks form the summary;
// otherwise the first blocks of the page do.
func ExtractSummary(doc *html.Node) PageContent {
	var content PageContent

	if h1 := findFirst(doc, func(n *html.Node) bool { return isElement(n, atom.H1) }); h1 != nil {
		content.Title = nodeText(h1, " ")
	}

	root := findFirst(doc, func(n *html.Node) bool { return isElement(n, atom.Article) })
	if root == nil {
		root = doc
	}

	var blocks []string
	for _, n := range findAll(root, func(n *html.Node) bool { return isElement(n, atom.P, atom.Li) }) {
		if text := nodeText(n, " "); text != "" {
			blocks = append(blocks, text)
		}
	}

	markerAt := -1
	for i, b := range blocks {
		if strings.Contains(normalizeText(b), summaryMarker) {
			markerAt = i
			break
		}
	}

	var summary []string
	if markerAt >= 0 {
		end := min(markerAt+1+summaryBlocks, len(blocks))
		summary = blocks[markerAt+1 : end]
	} else {
		summary = blocks[:min(fallbackBlocks, len(blocks))]
	}

	content.Paragraphs = append([]string{}, summary...)
	content.Resume = strings.Join(summary, " ")
	return content
}

// Slug returns the last path segment of a URL
func Slug(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// normalizeText strips accents and lowercases s
func normalizeText(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

func anchorTitle(a *html.Node, fallback string) string {
	if t := nodeText(a, " "); t != "" {
		return t
	}
	return fallback
}
