package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/transitions/internal/llm"
	"github.com/ppiankov/transitions/internal/model"
	"github.com/ppiankov/transitions/internal/search"
)

type fakeProvider struct {
	reply    string
	err      error
	requests []llm.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return f.err == nil }

type staticDocs []model.Document

func (d staticDocs) Documents() []model.Document { return d }

var testDocs = staticDocs{
	{Kind: model.KindFiche, Title: "Rénovation énergétique", URL: "https://x/portfolio/renovation/", Body: "Rénovation énergétique\nIsoler les bâtiments publics"},
	{Kind: model.KindRessource, Title: "Guide vélo", URL: "https://x/guide-velo/", Body: "Guide vélo\nPistes cyclables"},
	{Kind: model.KindFAQ, Title: "FAQ", URL: "https://x/faq/", Body: "Questions fréquentes"},
}

func TestAnswer_EmptyMessage(t *testing.T) {
	svc := NewService(&fakeProvider{}, testDocs)
	_, err := svc.Answer(context.Background(), model.ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAnswer_NoProvider(t *testing.T) {
	svc := NewService(nil, testDocs)
	assert.False(t, svc.Configured())
	_, err := svc.Answer(context.Background(), model.ChatRequest{Message: "vélo"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestAnswer_BuildsPromptAndSources(t *testing.T) {
	provider := &fakeProvider{reply: "Voir **Rénovation énergétique** (https://x/portfolio/renovation/)"}
	svc := NewService(provider, testDocs)

	resp, err := svc.Answer(context.Background(), model.ChatRequest{Message: "  rénovation  "})
	require.NoError(t, err)

	assert.Equal(t, provider.reply, resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, model.Source{Type: model.KindFiche, Title: "Rénovation énergétique", URL: "https://x/portfolio/renovation/"}, resp.Sources[0])

	require.Len(t, provider.requests, 1)
	msgs := provider.requests[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, SystemPrompt, msgs[0].Content)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t,
		"Contexte documentaire :\n[FICHE] \"Rénovation énergétique\"\nURL: https://x/portfolio/renovation/\nContenu:\nRénovation énergétique\nIsoler les bâtiments publics\n\nQuestion de l'utilisateur : rénovation",
		msgs[1].Content)
}

func TestAnswer_NoMatchUsesPlaceholder(t *testing.T) {
	provider := &fakeProvider{reply: "Aucun document ne correspond."}
	svc := NewService(provider, testDocs)

	// No token of three letters or more, so nothing scores, fiches included
	resp, err := svc.Answer(context.Background(), model.ChatRequest{Message: "ah ?"})
	require.NoError(t, err)
	assert.Empty(t, resp.Sources)
	assert.NotNil(t, resp.Sources, "sources serialize as an empty list")
	assert.Contains(t, provider.requests[0].Messages[1].Content, NoContext)
}

func TestAnswer_HistoryFeedsSearchAndMessages(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc := NewService(provider, testDocs)

	history := []model.HistoryMessage{
		{Role: "user", Content: "un vieux message 1"},
		{Role: "assistant", Content: "réponse 1"},
		{Role: "system", Content: "ignoré"},
		{Role: "user", Content: "parlons de vélo"},
		{Role: "assistant", Content: "réponse 2"},
		{Role: "user", Content: "message 3"},
		{Role: "assistant", Content: "réponse 3"},
		{Role: "user", Content: "message 4"},
	}

	// "et ensuite" alone matches nothing; the user turn about vélo does
	resp, err := svc.Answer(context.Background(), model.ChatRequest{Message: "et ensuite", History: history})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Sources)
	assert.Equal(t, "Guide vélo", resp.Sources[0].Title)

	msgs := provider.requests[0].Messages
	// system + last 6 turns minus the system one + final user
	require.Len(t, msgs, 1+5+1)
	assert.Equal(t, "parlons de vélo", msgs[1].Content)
	assert.Equal(t, "message 4", msgs[5].Content)
	for _, m := range msgs[1:6] {
		assert.NotEqual(t, "system", m.Role)
	}
}

func TestAnswer_ProviderError(t *testing.T) {
	boom := errors.New("rate limited")
	svc := NewService(&fakeProvider{err: boom}, testDocs)

	_, err := svc.Answer(context.Background(), model.ChatRequest{Message: "vélo"})
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.Contains(err.Error(), "rate limited"))
}

func TestAnswer_Options(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc := NewService(provider, testDocs,
		WithTopK(1),
		WithHistorySize(0),
		WithModel("gpt-test"),
		WithScorer(search.NewScorer(search.ExactPolicy())),
	)

	_, err := svc.Answer(context.Background(), model.ChatRequest{
		Message: "guide rénovation",
		History: []model.HistoryMessage{{Role: "user", Content: "bonjour"}},
	})
	require.NoError(t, err)

	req := provider.requests[0]
	assert.Equal(t, "gpt-test", req.Model)
	assert.Len(t, req.Messages, 2, "history disabled")
	assert.Equal(t, 1, strings.Count(req.Messages[1].Content, "URL: "), "topK 1")
}

func TestRetrieve(t *testing.T) {
	svc := NewService(nil, testDocs)
	docs := svc.Retrieve("vélo", nil)
	require.Len(t, docs, 2, "the fiche is kept by its boost alone")
	assert.Equal(t, "Guide vélo", docs[0].Title)
	assert.Equal(t, model.KindFiche, docs[1].Kind)
}

func TestBuildContext_Separator(t *testing.T) {
	ctx := BuildContext(testDocs[:2])
	assert.Equal(t, 1, strings.Count(ctx, "\n\n[RESSOURCE]"))
	assert.True(t, strings.HasPrefix(ctx, "[FICHE] \"Rénovation énergétique\"\n"))
}

func TestSearchQuery(t *testing.T) {
	q := SearchQuery([]model.HistoryMessage{
		{Role: "user", Content: "a"},
		{Role: "assistant", Content: "b"},
		{Role: "user", Content: "c"},
	}, "d")
	assert.Equal(t, "a c d", q)
}

func TestAvailable(t *testing.T) {
	assert.False(t, NewService(nil, testDocs).Available(context.Background()))
	assert.True(t, NewService(&fakeProvider{}, testDocs).Available(context.Background()))
	assert.False(t, NewService(&fakeProvider{err: errors.New("down")}, testDocs).Available(context.Background()))
}
