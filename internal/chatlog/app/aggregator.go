package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/convohub/chatlog-gateway/internal/chatlog/domain"
)

// Aggregator answers "list all conversations" and "list all messages in one
// conversation". Summaries are derived fresh from the message log on every
// query; nothing is cached or incrementally maintained.
type Aggregator struct {
	repo         domain.MessageRepository
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewAggregator creates an Aggregator. queryTimeout bounds each store call;
// zero disables the bound.
func NewAggregator(repo domain.MessageRepository, queryTimeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		repo:         repo,
		queryTimeout: queryTimeout,
		logger:       logger.With("component", "aggregator"),
	}
}

func (a *Aggregator) boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.queryTimeout)
}

// ListConversations returns one summary per distinct contact that has sent at
// least one inbound message, most recently active first. Contacts the
// business has only ever written to are excluded: conversations are
// discovered from inbound traffic.
func (a *Aggregator) ListConversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	qctx, cancel := a.boundedCtx(ctx)
	defer cancel()

	ids, err := a.repo.ListInboundConversationIDs(qctx)
	if err != nil {
		return nil, wrapStorage("listing conversation ids", err)
	}

	summaries := make([]domain.ConversationSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := a.summarize(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The log changed between queries; an id with no rows left is
				// simply omitted.
				a.logger.WarnContext(ctx, "Conversation vanished during aggregation", "conversation_id", id)
				continue
			}
			return nil, err
		}
		summaries = append(summaries, *summary)
	}

	// Most recent first; equal timestamps fall back to conversation id order
	// to keep the result deterministic.
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].LastMessageTime != summaries[j].LastMessageTime {
			return summaries[i].LastMessageTime > summaries[j].LastMessageTime
		}
		return summaries[i].ConversationID < summaries[j].ConversationID
	})

	return summaries, nil
}

func (a *Aggregator) summarize(ctx context.Context, conversationID string) (*domain.ConversationSummary, error) {
	qctx, cancel := a.boundedCtx(ctx)
	defer cancel()

	last, err := a.repo.LatestInConversation(qctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, wrapStorage("loading latest message", err)
	}

	inbound, err := a.repo.LatestInbound(qctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, wrapStorage("loading latest inbound message", err)
	}

	return &domain.ConversationSummary{
		ConversationID:  conversationID,
		ContactName:     inbound.ContactName,
		PhoneNumber:     inbound.FromNumber,
		LastMessage:     last.Text,
		LastMessageTime: last.Timestamp,
		IsOutgoing:      last.IsOutgoing,
	}, nil
}

// ListMessages returns the full history of one conversation, oldest first.
// An unknown conversation id yields an empty slice, indistinguishable from a
// known contact with no stored history.
func (a *Aggregator) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", domain.ErrValidation)
	}

	qctx, cancel := a.boundedCtx(ctx)
	defer cancel()

	msgs, err := a.repo.ListByConversation(qctx, conversationID)
	if err != nil {
		return nil, wrapStorage("listing conversation messages", err)
	}
	return msgs, nil
}

// Stats reports store-wide totals for the health endpoint.
func (a *Aggregator) Stats(ctx context.Context) (totalMessages int64, totalConversations int64, err error) {
	qctx, cancel := a.boundedCtx(ctx)
	defer cancel()

	totalMessages, err = a.repo.CountMessages(qctx)
	if err != nil {
		return 0, 0, wrapStorage("counting messages", err)
	}
	totalConversations, err = a.repo.CountConversations(qctx)
	if err != nil {
		return 0, 0, wrapStorage("counting conversations", err)
	}
	return totalMessages, totalConversations, nil
}

func wrapStorage(op string, err error) error {
	if errors.Is(err, domain.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, op, err)
}
