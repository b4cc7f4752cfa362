package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/convohub/chatlog-gateway/internal/chatlog/domain"
)

// Composer builds well-formed outbound message records. It is the only writer
// of business-originated records; persistence goes through the same
// dedup-by-message-id path as webhook ingestion.
type Composer struct {
	repo           domain.MessageRepository
	businessNumber string
	logger         *slog.Logger
	now            func() time.Time
}

// NewComposer creates a Composer. businessNumber is the operator's own
// sending address, stamped on every outbound record as fromNumber.
func NewComposer(repo domain.MessageRepository, businessNumber string, logger *slog.Logger) *Composer {
	return &Composer{
		repo:           repo,
		businessNumber: businessNumber,
		logger:         logger.With("component", "composer"),
		now:            time.Now,
	}
}

// Send validates, constructs and persists one outgoing message record for the
// given conversation. contactName is the caller's optional label for the
// contact; when absent it is recovered from the contact's latest inbound
// record. The stored row itself always carries the "You" display label,
// status sent and a freshly generated message id.
func (c *Composer) Send(ctx context.Context, conversationID, text, contactName string) (*domain.Message, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text must not be empty", domain.ErrValidation)
	}

	// The contact's wire address is taken from their latest inbound message
	// when one exists; otherwise the conversation id is the address itself.
	toNumber := conversationID
	if inbound, err := c.repo.LatestInbound(ctx, conversationID); err == nil {
		toNumber = inbound.FromNumber
		if contactName == "" {
			contactName = inbound.ContactName
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, wrapStorage("loading latest inbound message", err)
	}

	msg, err := domain.NewMessage(
		newOutgoingMessageID(c.now()),
		conversationID,
		text,
		domain.TypeText,
		c.businessNumber,
		toNumber,
		domain.SelfContactName,
		c.now().UnixMilli(),
		true,
		domain.StatusSent,
	)
	if err != nil {
		return nil, err
	}

	inserted, err := c.repo.InsertIfAbsent(ctx, msg)
	if err != nil {
		return nil, wrapStorage("persisting outgoing message", err)
	}
	if !inserted {
		// Practically impossible with time-plus-random ids; surfaced rather
		// than silently rewriting an existing record.
		return nil, fmt.Errorf("%w: generated message id %q already exists", domain.ErrDuplicateEntry, msg.MessageID)
	}

	c.logger.InfoContext(ctx, "Outgoing message stored",
		"message_id", msg.MessageID, "conversation_id", conversationID, "contact_name", contactName)
	return msg, nil
}

// newOutgoingMessageID builds a time-based id with a random suffix.
// Uniqueness is best-effort statistical; the dedup check at persist time is
// the real safety net.
func newOutgoingMessageID(t time.Time) string {
	return fmt.Sprintf("msg-%d-%s", t.UnixMilli(), uuid.NewString()[:8])
}
