// Package server exposes the chat assistant and the corpus over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/transitions/internal/chat"
	"github.com/ppiankov/transitions/internal/corpus"
	"github.com/ppiankov/transitions/internal/model"
	"github.com/ppiankov/transitions/internal/static"
)

// User-facing error messages
const (
	MsgEmptyMessage      = "Message vide"
	MsgProviderMissing   = "OPENAI_API_KEY non configurée côté serveur."
	MsgCompletionFailure = "Erreur lors de l'appel au modèle: "
	MsgInternal          = "Erreur interne du serveur."
)

const maxRequestBytes = 1 << 20

// RequestIDHeader carries the per-request identifier
const RequestIDHeader = "X-Request-ID"

// Options configures the HTTP server
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server serves the index page, the chat endpoint and the corpus API
type Server struct {
	corpus *corpus.Corpus
	chat   *chat.Service
	opts   Options
	logger *slog.Logger
	mux    *http.ServeMux
}

// New wires the routes. The corpus and service are shared by all requests.
func New(c *corpus.Corpus, svc *chat.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		corpus: c,
		chat:   svc,
		opts:   opts,
		logger: logger.With("component", "server"),
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/documents", s.handleDocuments)

	return s
}

// Handler returns the root handler with request IDs and access logging
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.withAccessLog(s.mux))
}

// Run listens on opts.Addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String(), "documents", s.corpus.Len())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := static.Render(s.corpus, w, static.Options{ChatEndpoint: "/chat"}); err != nil {
		s.logger.Error("index render failed", "error", err, "request_id", requestID(r.Context()))
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req := decodeChatRequest(http.MaxBytesReader(w, r.Body, maxRequestBytes))

	resp, err := s.chat.Answer(r.Context(), req)
	if err != nil {
		status, msg := chatError(err)
		if status >= 500 {
			s.logger.Error("chat failed", "error", err, "request_id", requestID(r.Context()))
		}
		writeJSON(w, status, model.ErrorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"documents": s.corpus.Len(),
		"chat":      s.chat.Configured(),
	})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.corpus.Documents()
	out := make([]model.Source, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.SourceOf(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeChatRequest is lenient: a malformed body is an empty request and a
// malformed history is dropped while the message is kept
func decodeChatRequest(body io.Reader) model.ChatRequest {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return model.ChatRequest{}
	}

	var req model.ChatRequest
	if m, ok := raw["message"]; ok {
		_ = json.Unmarshal(m, &req.Message)
	}
	if h, ok := raw["history"]; ok {
		if err := json.Unmarshal(h, &req.History); err != nil {
			req.History = nil
		}
	}
	return req
}

// chatError maps service errors to HTTP status and French message
func chatError(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, MsgEmptyMessage
	case errors.Is(err, chat.ErrProviderNotConfigured):
		return http.StatusInternalServerError, MsgProviderMissing
	case errors.Is(err, chat.ErrCompletionFailed):
		cause := strings.TrimPrefix(err.Error(), chat.ErrCompletionFailed.Error()+": ")
		return http.StatusInternalServerError, MsgCompletionFailure + cause
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
