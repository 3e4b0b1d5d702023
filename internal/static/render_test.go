package static

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/transitions/internal/corpus"
	"github.com/ppiankov/transitions/internal/model"
)

func testCorpus() *corpus.Corpus {
	return corpus.New(
		[]model.SourceRecord{
			{Title: "Zéro déchet", URL: "https://x/portfolio/zero/", Resume: strings.Repeat("é", 120)},
			{Title: "Alimentation <locale>", URL: "https://x/portfolio/alim/", Resume: "Circuits courts"},
		},
		[]model.SourceRecord{{Title: "Guide vélo", URL: "https://x/guide-velo/", Resume: "Pistes"}},
		&model.SourceRecord{Title: "FAQ", URL: "https://x/faq/"},
		nil,
	)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "court", Excerpt("court"))
	assert.Equal(t, strings.Repeat("a", 100), Excerpt(strings.Repeat("a", 100)))

	long := Excerpt(strings.Repeat("é", 101))
	assert.Equal(t, strings.Repeat("é", 100)+"...", long, "counts runes, not bytes")
}

func TestNewPage(t *testing.T) {
	page := NewPage(testCorpus(), Options{})
	assert.Equal(t, defaultTitle, page.Title)
	assert.Equal(t, 2, page.FicheCount)
	assert.Equal(t, 1, page.RessourceCount)
	assert.Equal(t, "Alimentation <locale>", page.Fiches[0].Title, "sorted by title")
	assert.Nil(t, page.Home)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(testCorpus(), &buf, Options{ChatEndpoint: "/chat"}))

	out := buf.String()
	assert.Contains(t, out, "2 fiches · 1 ressources")
	assert.Contains(t, out, "Alimentation &lt;locale&gt;", "titles are escaped")
	assert.Contains(t, out, strings.Repeat("é", 100)+"...")
	assert.Contains(t, out, `data-url="https://x/guide-velo/"`)
	assert.Contains(t, out, `id="chat-form"`)
	assert.Less(t, strings.Index(out, "Alimentation"), strings.Index(out, "Zéro déchet"))
}

func TestRender_StaticWithoutChat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(corpus.New(nil, nil, nil, nil), &buf, Options{}))

	out := buf.String()
	assert.NotContains(t, out, `id="chat-form"`)
	assert.Contains(t, out, "Aucune fiche chargée.")
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "index.html")
	require.NoError(t, Export(testCorpus(), path, Options{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Guide vélo")
}
