package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/convohub/chatlog-gateway/internal/chatlog/domain"
	"github.com/convohub/chatlog-gateway/internal/platform/messagebroker"
)

// WebhookHandler accepts live webhook deliveries and queues them for
// ingestion. The document is only checked for being valid JSON here; shape
// probing is the normalizer's job, and a structurally unexpected document is
// a skip on the consumer side, not a rejection at the boundary.
type WebhookHandler struct {
	publisher messagebroker.Publisher
	subject   string
	logger    *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler publishing to the given NATS
// subject.
func NewWebhookHandler(publisher messagebroker.Publisher, subject string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		subject:   subject,
		logger:    logger.With("handler", "webhook"),
	}
}

// RegisterRoutes mounts the webhook route on r.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook", h.handleWebhook)
}

func (h *WebhookHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read webhook body", "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Success: false, Error: "failed to read request body"})
		return
	}
	defer r.Body.Close()

	if !json.Valid(body) {
		logger.WarnContext(ctx, "Rejected non-JSON webhook delivery")
		respondError(w, fmt.Errorf("%w: body is not valid JSON", domain.ErrValidation))
		return
	}

	if err := h.publisher.Publish(ctx, h.subject, body); err != nil {
		logger.ErrorContext(ctx, "Failed to queue webhook document", "subject", h.subject, "error", err)
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Success: false, Error: "failed to queue webhook for processing"})
		return
	}

	logger.InfoContext(ctx, "Webhook document queued", "subject", h.subject, "bytes", len(body))
	respondJSON(w, http.StatusAccepted, map[string]any{"success": true, "status": "queued"})
}
