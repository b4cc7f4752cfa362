package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/convohub/chatlog-gateway/internal/chatlog/domain"
)

// DB is the subset of pgxpool.Pool the repository needs. Declared as an
// interface so tests can substitute a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgMessageRepository struct {
	db     DB
	logger *slog.Logger
}

// NewPgMessageRepository creates the PostgreSQL implementation of
// domain.MessageRepository.
func NewPgMessageRepository(db DB, logger *slog.Logger) *PgMessageRepository {
	return &PgMessageRepository{
		db:     db,
		logger: logger.With("component", "message_repository_pg"),
	}
}

const messageColumns = `message_id, conversation_id, text_content, message_type, from_number, to_number, contact_name, ts, is_outgoing, status, created_at, updated_at`

// InsertIfAbsent relies on the unique index on message_id: ON CONFLICT DO
// NOTHING makes the check-and-insert a single atomic operation, so concurrent
// ingestions of the same message id cannot race.
func (r *PgMessageRepository) InsertIfAbsent(ctx context.Context, msg *domain.Message) (bool, error) {
	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (message_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		msg.MessageID,
		msg.ConversationID,
		msg.Text,
		msg.Type,
		msg.FromNumber,
		msg.ToNumber,
		msg.ContactName,
		msg.Timestamp,
		msg.IsOutgoing,
		msg.Status,
		msg.CreatedAt,
		msg.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error inserting message", "error", err, "message_id", msg.MessageID)
		return false, fmt.Errorf("insert message %q: %w", msg.MessageID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateStatus mutates only the status and audit timestamp of the matching
// record. A miss returns (false, nil); the caller decides whether that is
// worth more than a log line.
func (r *PgMessageRepository) UpdateStatus(ctx context.Context, messageID string, status domain.MessageStatus) (bool, error) {
	query := `UPDATE messages SET status = $2, updated_at = NOW() WHERE message_id = $1`
	tag, err := r.db.Exec(ctx, query, messageID, status)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating message status", "error", err, "message_id", messageID)
		return false, fmt.Errorf("update status of %q: %w", messageID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgMessageRepository) GetByMessageID(ctx context.Context, messageID string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE message_id = $1`
	msg, err := scanMessage(r.db.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get message %q: %w", messageID, err)
	}
	return msg, nil
}

// ListByConversation matches both inbound-indexed and outbound-indexed rows of
// the same thread: conversation_id covers records keyed by the contact, and
// to_number covers outbound rows addressed to them.
func (r *PgMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1 OR to_number = $1 ORDER BY ts ASC`
	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list conversation %q: %w", conversationID, err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation %q row: %w", conversationID, err)
		}
		msgs = append(msgs, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation %q rows: %w", conversationID, err)
	}
	return msgs, nil
}

func (r *PgMessageRepository) ListInboundConversationIDs(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT conversation_id FROM messages WHERE is_outgoing = FALSE`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list inbound conversation ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation ids: %w", err)
	}
	return ids, nil
}

func (r *PgMessageRepository) LatestInConversation(ctx context.Context, conversationID string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1 OR to_number = $1 ORDER BY ts DESC LIMIT 1`
	msg, err := scanMessage(r.db.QueryRow(ctx, query, conversationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("latest message of %q: %w", conversationID, err)
	}
	return msg, nil
}

func (r *PgMessageRepository) LatestInbound(ctx context.Context, conversationID string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1 AND is_outgoing = FALSE ORDER BY ts DESC LIMIT 1`
	msg, err := scanMessage(r.db.QueryRow(ctx, query, conversationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("latest inbound of %q: %w", conversationID, err)
	}
	return msg, nil
}

func (r *PgMessageRepository) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

func (r *PgMessageRepository) CountConversations(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(DISTINCT conversation_id) FROM messages WHERE is_outgoing = FALSE`
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count conversations: %w", err)
	}
	return count, nil
}

// scanMessage scans one message row.
func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(
		&m.MessageID,
		&m.ConversationID,
		&m.Text,
		&m.Type,
		&m.FromNumber,
		&m.ToNumber,
		&m.ContactName,
		&m.Timestamp,
		&m.IsOutgoing,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
