package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// StatsProvider reports store-wide totals.
type StatsProvider interface {
	Stats(ctx context.Context) (totalMessages int64, totalConversations int64, err error)
}

type HealthHandler struct {
	stats  StatsProvider
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(stats StatsProvider, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{stats: stats, logger: logger.With("handler", "health")}
}

// RegisterRoutes mounts the health route on r.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalMessages, totalConversations, err := h.stats.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Success: false, Error: "store unavailable"})
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Success:            true,
		Status:             "ok",
		TotalMessages:      totalMessages,
		TotalConversations: totalConversations,
		Timestamp:          time.Now().UnixMilli(),
	})
}
