// Package mcpserver exposes corpus search as a Model Context Protocol tool over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/transitions/internal/chat"
	"github.com/ppiankov/transitions/internal/model"
	"github.com/ppiankov/transitions/internal/search"
)

const (
	ServerName = "transitions"

	DefaultMaxResults = 5
	MaxMaxResults     = 20
)

// SearchDocumentsInput defines input for the search_documents tool
type SearchDocumentsInput struct {
	Query      string `json:"query" jsonschema:"Question or keywords in French"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 5, at most 20)"`
}

// SearchResult is one ranked document
type SearchResult struct {
	Type  model.Kind `json:"type"`
	Title string     `json:"title"`
	URL   string     `json:"url"`
	Score float64    `json:"score"`
}

// SearchDocumentsOutput defines output for the search_documents tool
type SearchDocumentsOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// AskInput defines input for the ask tool
type AskInput struct {
	Question string                 `json:"question" jsonschema:"Question about the ecological transition solutions"`
	History  []model.HistoryMessage `json:"history,omitempty" jsonschema:"Previous turns (optional)"`
}

// AskOutput defines output for the ask tool
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []model.Source `json:"sources"`
}

// Tools holds the state shared by the tool handlers
type Tools struct {
	docs   chat.Documents
	scorer *search.Scorer
	chat   *chat.Service
	logger *slog.Logger
}

// NewTools creates the tool set. svc may be nil, in which case ask is not registered.
func NewTools(docs chat.Documents, scorer *search.Scorer, svc *chat.Service, logger *slog.Logger) *Tools {
	if scorer == nil {
		scorer = search.NewScorer(search.StemmedPolicy())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{
		docs:   docs,
		scorer: scorer,
		chat:   svc,
		logger: logger.With("component", "mcp"),
	}
}

// SearchDocuments ranks the corpus against the query
func (t *Tools) SearchDocuments(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentsInput) (*mcp.CallToolResult, SearchDocumentsOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, SearchDocumentsOutput{}, fmt.Errorf("query is required")
	}

	limit := input.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	limit = min(limit, MaxMaxResults)

	matches := t.scorer.Score(query, t.docs.Documents())
	if len(matches) > limit {
		matches = matches[:limit]
	}

	output := SearchDocumentsOutput{
		Query:   query,
		Results: make([]SearchResult, 0, len(matches)),
	}
	for _, m := range matches {
		output.Results = append(output.Results, SearchResult{
			Type:  m.Document.Kind,
			Title: m.Document.Title,
			URL:   m.Document.URL,
			Score: m.Score,
		})
	}

	t.logger.Debug("search_documents", "query", query, "results", len(output.Results))
	return nil, output, nil
}

// Ask answers a question with the chat service
func (t *Tools) Ask(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	resp, err := t.chat.Answer(ctx, model.ChatRequest{Message: input.Question, History: input.History})
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: resp.Answer, Sources: resp.Sources}, nil
}

// Register adds the tools to server
func (t *Tools) Register(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documents",
			Description: "Search the solutionstransitions.fr fact-sheets, resources and FAQ. Returns ranked documents with their URL and score.",
		},
		t.SearchDocuments,
	)

	if t.chat != nil && t.chat.Configured() {
		mcp.AddTool(server,
			&mcp.Tool{
				Name:        "ask",
				Description: "Answer a question in French using only the site's documents, with the cited sources.",
			},
			t.Ask,
		)
	}
}

// NewServer creates an MCP server with the tools registered
func NewServer(version string, tools *Tools) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version,
		},
		nil,
	)
	tools.Register(server)
	return server
}

// Run serves the tools over stdio until ctx is cancelled or the client disconnects
func Run(ctx context.Context, version string, tools *Tools) error {
	server := NewServer(version, tools)
	tools.logger.Info("mcp server ready", "documents", len(tools.docs.Documents()))
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
