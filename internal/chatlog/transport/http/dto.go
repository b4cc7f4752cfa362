package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/convohub/chatlog-gateway/internal/chatlog/domain"
)

// SendMessageRequest is the body of POST /api/conversations/{id}/messages.
type SendMessageRequest struct {
	Text        string `json:"text" validate:"required"`
	ContactName string `json:"contactName,omitempty"`
}

// ConversationsResponse is the body of GET /api/conversations.
type ConversationsResponse struct {
	Success       bool                         `json:"success"`
	Conversations []domain.ConversationSummary `json:"conversations"`
}

// MessagesResponse is the body of GET /api/conversations/{id}/messages.
type MessagesResponse struct {
	Success  bool             `json:"success"`
	Messages []domain.Message `json:"messages"`
}

// SendMessageResponse is the body of a successful send.
type SendMessageResponse struct {
	Success bool            `json:"success"`
	Message *domain.Message `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Success            bool   `json:"success"`
	Status             string `json:"status"`
	TotalMessages      int64  `json:"totalMessages"`
	TotalConversations int64  `json:"totalConversations"`
	Timestamp          int64  `json:"timestamp"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps domain errors to status codes and renders the structured
// error envelope. Internal detail beyond the human-readable message is never
// exposed.
func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateEntry):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrStorage):
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, ErrorResponse{Success: false, Error: err.Error()})
}
