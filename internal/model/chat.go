package model

// Roles accepted in conversation history
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryMessage is one previous turn of the conversation sent by the client
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload of POST /chat
type ChatRequest struct {
	Message string           `json:"message"`
	History []HistoryMessage `json:"history"`
}

// Source is a document cited alongside an answer
type Source struct {
	Type  Kind   `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SourceOf returns the citation triple of a document
func SourceOf(doc Document) Source {
	return Source{Type: doc.Kind, Title: doc.Title, URL: doc.URL}
}

// ChatResponse is the successful reply of POST /chat
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// ErrorResponse is the body of every failed HTTP call
type ErrorResponse struct {
	Error string `json:"error"`
}
