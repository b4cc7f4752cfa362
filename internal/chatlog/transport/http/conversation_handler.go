package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/convohub/chatlog-gateway/internal/chatlog/domain"
)

// ConversationQueries is the read side of the conversation API.
type ConversationQueries interface {
	ListConversations(ctx context.Context) ([]domain.ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
}

// MessageSender is the write side: composing one outgoing message.
type MessageSender interface {
	Send(ctx context.Context, conversationID, text, contactName string) (*domain.Message, error)
}

type ConversationHandler struct {
	queries  ConversationQueries
	sender   MessageSender
	logger   *slog.Logger
	validate *validator.Validate
}

// NewConversationHandler creates a ConversationHandler.
func NewConversationHandler(queries ConversationQueries, sender MessageSender, logger *slog.Logger, validate *validator.Validate) *ConversationHandler {
	return &ConversationHandler{
		queries:  queries,
		sender:   sender,
		logger:   logger.With("handler", "conversations"),
		validate: validate,
	}
}

// RegisterRoutes mounts the conversation routes on r.
func (h *ConversationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations", h.handleListConversations)
	r.Get("/conversations/{conversationID}/messages", h.handleListMessages)
	r.Post("/conversations/{conversationID}/messages", h.handleSendMessage)
}

func (h *ConversationHandler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	conversations, err := h.queries.ListConversations(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list conversations", "error", err)
		respondError(w, err)
		return
	}
	if conversations == nil {
		conversations = []domain.ConversationSummary{}
	}

	respondJSON(w, http.StatusOK, ConversationsResponse{Success: true, Conversations: conversations})
}

func (h *ConversationHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	conversationID := chi.URLParam(r, "conversationID")

	messages, err := h.queries.ListMessages(ctx, conversationID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list messages", "conversation_id", conversationID, "error", err)
		respondError(w, err)
		return
	}
	if messages == nil {
		// An unknown conversation id and an empty history look the same.
		messages = []domain.Message{}
	}

	respondJSON(w, http.StatusOK, MessagesResponse{Success: true, Messages: messages})
}

func (h *ConversationHandler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	conversationID := chi.URLParam(r, "conversationID")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode send request", "error", err)
		respondError(w, fmt.Errorf("%w: invalid JSON body", domain.ErrValidation))
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Send request failed validation", "error", err)
		respondError(w, fmt.Errorf("%w: text is required", domain.ErrValidation))
		return
	}

	msg, err := h.sender.Send(ctx, conversationID, req.Text, req.ContactName)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send message", "conversation_id", conversationID, "error", err)
		respondError(w, err)
		return
	}

	logger.InfoContext(ctx, "Message sent", "conversation_id", conversationID, "message_id", msg.MessageID)
	respondJSON(w, http.StatusCreated, SendMessageResponse{Success: true, Message: msg})
}
