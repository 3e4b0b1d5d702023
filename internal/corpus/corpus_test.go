package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/transitions/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoad_MissingDirectory(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.FAQ())
	assert.Nil(t, c.Home())
}

func TestLoad_OrderAndBodies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FichesFile, `[
		{"slug":"b","url":"https://x/portfolio/b","title":"Biodiversité","resume":"Résumé B","paragraphs":["p1","p2"]},
		{"slug":"a","url":"https://x/portfolio/a","title":"","resume":"Résumé A","paragraphs":[]}
	]`)
	writeFile(t, dir, RessourcesFile, `[
		{"slug":"r","url":"https://x/r","title":"Guide","resume":"","paragraphs":["seul paragraphe"],"pdf_url":"https://x/r?pdf=1"}
	]`)
	writeFile(t, dir, FAQFile, `{"slug":"faq","url":"https://x/faq/","title":"","resume":"Questions","paragraphs":["Q1"]}`)
	writeFile(t, dir, HomeFile, `{"slug":"home","url":"https://x/","title":"Bienvenue","resume":"","paragraphs":null}`)

	c, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 5, c.Len())

	docs := c.Documents()
	assert.Equal(t, []model.Kind{model.KindFiche, model.KindFiche, model.KindRessource, model.KindFAQ, model.KindHome},
		[]model.Kind{docs[0].Kind, docs[1].Kind, docs[2].Kind, docs[3].Kind, docs[4].Kind})

	assert.Equal(t, "Biodiversité\nRésumé B\np1\np2", docs[0].Body)
	assert.Equal(t, "", docs[1].Title)
	assert.Equal(t, "Résumé A", docs[1].Body)
	assert.Equal(t, "Guide\nseul paragraphe", docs[2].Body)

	// Default titles are not part of the body
	assert.Equal(t, DefaultFAQTitle, docs[3].Title)
	assert.Equal(t, "Questions\nQ1", docs[3].Body)
	assert.Equal(t, "Bienvenue", docs[4].Title)
	assert.Equal(t, "Bienvenue", docs[4].Body)

	require.NotNil(t, c.Ressources()[0].PDFURL)
	assert.Equal(t, "https://x/r?pdf=1", *c.Ressources()[0].PDFURL)
}

func TestLoad_DefaultHomeTitle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, HomeFile, `{"url":"https://x/","resume":"Le site"}`)

	c, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, DefaultHomeTitle, c.Documents()[0].Title)
	assert.Equal(t, model.KindHome, c.Documents()[0].Kind)
}

func TestLoad_NullAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FichesFile, ``)
	writeFile(t, dir, FAQFile, `null`)

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.FAQ())
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RessourcesFile, `[{"title": `)

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedFile))
	assert.Contains(t, err.Error(), RessourcesFile)
}

func TestCorpus_SortedListsDoNotReorderDocuments(t *testing.T) {
	c := New([]model.SourceRecord{
		{Title: "zéro déchet", Resume: "z"},
		{Title: "Alimentation", Resume: "a"},
	}, nil, nil, nil)

	fiches := c.Fiches()
	assert.Equal(t, "Alimentation", fiches[0].Title)
	assert.Equal(t, "zéro déchet", fiches[1].Title)

	assert.Equal(t, "zéro déchet", c.Documents()[0].Title)
	assert.Equal(t, map[model.Kind]int{model.KindFiche: 2}, c.Counts())
}

func TestWriteThenLoad(t *testing.T) {
	dir := t.TempDir()
	pdf := "https://x/f?pdf=2"
	records := []model.SourceRecord{{Slug: "f", URL: "https://x/portfolio/f", Title: "Énergie & climat", Resume: "r", Paragraphs: []string{"r"}, PDFURL: &pdf}}

	require.NoError(t, WriteCollection(dir, FichesFile, records))
	require.NoError(t, WriteCollection(dir, RessourcesFile, nil))
	require.NoError(t, WritePage(dir, HomeFile, &model.SourceRecord{Slug: "home", URL: "https://x/", Title: "Accueil"}))

	raw, err := os.ReadFile(filepath.Join(dir, FichesFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Énergie & climat", "non-ASCII and HTML characters are written verbatim")

	raw, err = os.ReadFile(filepath.Join(dir, RessourcesFile))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, records, c.Fiches())
}
