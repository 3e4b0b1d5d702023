// Package chat answers questions about the site: it retrieves the most
// relevant documents and asks the language model to answer from them.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/transitions/internal/llm"
	"github.com/ppiankov/transitions/internal/model"
	"github.com/ppiankov/transitions/internal/search"
)

const (
	DefaultTopK        = 5
	DefaultHistorySize = 6
)

// Documents is the read-only corpus the service searches
type Documents interface {
	Documents() []model.Document
}

// Service is safe for concurrent use
type Service struct {
	provider    llm.Provider
	docs        Documents
	scorer      *search.Scorer
	topK        int
	historySize int
	model       string
	logger      *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithScorer replaces the default stemmed scorer
func WithScorer(scorer *search.Scorer) Option {
	return func(s *Service) {
		s.scorer = scorer
	}
}

// WithTopK sets how many documents go into the prompt
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithHistorySize sets how many previous turns are replayed to the model
func WithHistorySize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.historySize = n
		}
	}
}

// WithModel overrides the provider's model per request
func WithModel(name string) Option {
	return func(s *Service) {
		s.model = name
	}
}

// NewService creates a chat service. A nil provider is allowed; Answer then
// fails with ErrProviderNotConfigured.
func NewService(provider llm.Provider, docs Documents, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		docs:        docs,
		scorer:      search.NewScorer(search.StemmedPolicy()),
		topK:        DefaultTopK,
		historySize: DefaultHistorySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "chat")
	return s
}

// Configured reports whether a provider is set
func (s *Service) Configured() bool {
	return s.provider != nil
}

// Available reports whether a provider is set and answers its health check
func (s *Service) Available(ctx context.Context) bool {
	return s.provider != nil && s.provider.IsAvailable(ctx)
}

// Retrieve returns the documents relevant to a message given its history
func (s *Service) Retrieve(message string, history []model.HistoryMessage) []model.Document {
	query := SearchQuery(history, strings.TrimSpace(message))
	return s.scorer.FindRelevant(query, s.docs.Documents(), s.topK)
}

// Answer retrieves context for the question and asks the model
func (s *Service) Answer(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.provider == nil {
		return nil, ErrProviderNotConfigured
	}

	docs := s.scorer.FindRelevant(SearchQuery(req.History, message), s.docs.Documents(), s.topK)

	sources := make([]model.Source, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, model.SourceOf(d))
	}

	messages := s.buildMessages(req.History, BuildContext(docs), message)

	s.logger.Debug("calling provider",
		"provider", s.provider.Name(),
		"documents", len(docs),
		"messages", len(messages),
	)

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		s.logger.Error("completion failed", "provider", s.provider.Name(), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	s.checkCitations(resp.Content, sources)

	return &model.ChatResponse{
		Answer:  resp.Content,
		Sources: sources,
	}, nil
}

// buildMessages assembles system prompt, recent history and the context-bearing question
func (s *Service) buildMessages(history []model.HistoryMessage, contextBlock, message string) []llm.Message {
	recent := history
	if len(recent) > s.historySize {
		recent = recent[len(recent)-s.historySize:]
	}

	messages := make([]llm.Message, 0, len(recent)+2)
	messages = append(messages, llm.Message{Role: model.RoleSystem, Content: SystemPrompt})
	for _, h := range recent {
		if h.Role == model.RoleUser || h.Role == model.RoleAssistant {
			messages = append(messages, llm.Message{Role: h.Role, Content: h.Content})
		}
	}
	messages = append(messages, llm.Message{Role: model.RoleUser, Content: UserPrompt(contextBlock, message)})
	return messages
}

// checkCitations logs URLs in the answer that are not among the sources
func (s *Service) checkCitations(answer string, sources []model.Source) {
	allowed := make(map[string]bool, len(sources))
	for _, src := range sources {
		allowed[strings.TrimRight(src.URL, "/")] = true
	}
	for _, u := range llm.ExtractURLs(answer) {
		if !allowed[strings.TrimRight(u, "/")] {
			s.logger.Warn("answer cites a URL outside the retrieved documents", "url", u)
		}
	}
}
