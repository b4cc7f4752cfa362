package domain

import "context"

// MessageRepository defines the interface for the durable message store.
// Implementations must treat MessageID as the sole uniqueness constraint.
type MessageRepository interface {
	// InsertIfAbsent atomically inserts msg unless a record with the same
	// MessageID already exists. It returns false with a nil error when the
	// record was already present; the existing content is never overwritten.
	InsertIfAbsent(ctx context.Context, msg *Message) (inserted bool, err error)

	// UpdateStatus mutates the status (and updatedAt) of the record with the
	// given message id. It returns false with a nil error when no record
	// matches; a miss is not an error at this layer.
	UpdateStatus(ctx context.Context, messageID string, status MessageStatus) (updated bool, err error)

	// GetByMessageID returns the record with the given id, or ErrNotFound.
	GetByMessageID(ctx context.Context, messageID string) (*Message, error)

	// ListByConversation returns every record belonging to the thread, i.e.
	// conversation_id = id OR to_number = id, ordered by timestamp ascending.
	// An empty slice is a valid result.
	ListByConversation(ctx context.Context, conversationID string) ([]Message, error)

	// ListInboundConversationIDs returns the distinct conversation ids that
	// appear on at least one inbound record. Conversations are discovered
	// from inbound traffic only.
	ListInboundConversationIDs(ctx context.Context) ([]string, error)

	// LatestInConversation returns the most recent record of the thread
	// (conversation_id = id OR to_number = id), or ErrNotFound.
	LatestInConversation(ctx context.Context, conversationID string) (*Message, error)

	// LatestInbound returns the most recent inbound record of the thread,
	// or ErrNotFound. Used to source contact name and wire address.
	LatestInbound(ctx context.Context, conversationID string) (*Message, error)

	// CountMessages returns the total number of stored records.
	CountMessages(ctx context.Context) (int64, error)

	// CountConversations returns the number of distinct inbound conversation
	// ids.
	CountConversations(ctx context.Context) (int64, error)
}
