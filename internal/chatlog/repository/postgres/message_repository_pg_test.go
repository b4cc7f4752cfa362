package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convohub/chatlog-gateway/internal/chatlog/domain"
)

func setupRepoTest(t *testing.T) (*PgMessageRepository, pgxmock.PgxPoolIface) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewPgMessageRepository(mockPool, logger)
	return repo, mockPool
}

func sampleMessage() *domain.Message {
	now := time.Now().UTC()
	return &domain.Message{
		MessageID:      "m1",
		ConversationID: "+1111",
		Text:           "hi",
		Type:           domain.TypeText,
		FromNumber:     "+1111",
		ToNumber:       "+9999",
		ContactName:    "Alice",
		Timestamp:      1000000,
		IsOutgoing:     false,
		Status:         domain.StatusReceived,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func messageRows(pool pgxmock.PgxPoolIface, msgs ...*domain.Message) *pgxmock.Rows {
	rows := pool.NewRows([]string{
		"message_id", "conversation_id", "text_content", "message_type",
		"from_number", "to_number", "contact_name", "ts", "is_outgoing",
		"status", "created_at", "updated_at",
	})
	for _, m := range msgs {
		rows.AddRow(m.MessageID, m.ConversationID, m.Text, m.Type, m.FromNumber,
			m.ToNumber, m.ContactName, m.Timestamp, m.IsOutgoing, m.Status,
			m.CreatedAt, m.UpdatedAt)
	}
	return rows
}

func TestPgMessageRepository_InsertIfAbsent(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	defer mockPool.Close()

	msg := sampleMessage()

	t.Run("Inserted", func(t *testing.T) {
		mockPool.ExpectExec(`INSERT INTO messages .* ON CONFLICT \(message_id\) DO NOTHING`).
			WithArgs(msg.MessageID, msg.ConversationID, msg.Text, msg.Type, msg.FromNumber,
				msg.ToNumber, msg.ContactName, msg.Timestamp, msg.IsOutgoing, msg.Status,
				msg.CreatedAt, msg.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		inserted, err := repo.InsertIfAbsent(context.Background(), msg)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicateIsNoOp", func(t *testing.T) {
		mockPool.ExpectExec(`INSERT INTO messages .* ON CONFLICT \(message_id\) DO NOTHING`).
			WithArgs(msg.MessageID, msg.ConversationID, msg.Text, msg.Type, msg.FromNumber,
				msg.ToNumber, msg.ContactName, msg.Timestamp, msg.IsOutgoing, msg.Status,
				msg.CreatedAt, msg.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		inserted, err := repo.InsertIfAbsent(context.Background(), msg)
		require.NoError(t, err)
		assert.False(t, inserted, "second write with the same message id must not error")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DBError", func(t *testing.T) {
		mockPool.ExpectExec(`INSERT INTO messages`).
			WithArgs(msg.MessageID, msg.ConversationID, msg.Text, msg.Type, msg.FromNumber,
				msg.ToNumber, msg.ContactName, msg.Timestamp, msg.IsOutgoing, msg.Status,
				msg.CreatedAt, msg.UpdatedAt).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.InsertIfAbsent(context.Background(), msg)
		require.Error(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgMessageRepository_UpdateStatus(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	defer mockPool.Close()

	t.Run("Updated", func(t *testing.T) {
		mockPool.ExpectExec(`UPDATE messages SET status = \$2, updated_at = NOW\(\) WHERE message_id = \$1`).
			WithArgs("m1", domain.StatusRead).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		updated, err := repo.UpdateStatus(context.Background(), "m1", domain.StatusRead)
		require.NoError(t, err)
		assert.True(t, updated)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NoMatch", func(t *testing.T) {
		mockPool.ExpectExec(`UPDATE messages SET status = \$2, updated_at = NOW\(\) WHERE message_id = \$1`).
			WithArgs("ghost", domain.StatusRead).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		updated, err := repo.UpdateStatus(context.Background(), "ghost", domain.StatusRead)
		require.NoError(t, err, "a miss is not an error at this layer")
		assert.False(t, updated)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgMessageRepository_GetByMessageID(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	defer mockPool.Close()

	msg := sampleMessage()

	t.Run("Found", func(t *testing.T) {
		mockPool.ExpectQuery(`SELECT .* FROM messages WHERE message_id = \$1`).
			WithArgs("m1").
			WillReturnRows(messageRows(mockPool, msg))

		got, err := repo.GetByMessageID(context.Background(), "m1")
		require.NoError(t, err)
		assert.Equal(t, msg.MessageID, got.MessageID)
		assert.Equal(t, msg.ConversationID, got.ConversationID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool.ExpectQuery(`SELECT .* FROM messages WHERE message_id = \$1`).
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByMessageID(context.Background(), "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgMessageRepository_ListByConversation(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	defer mockPool.Close()

	first := sampleMessage()
	second := sampleMessage()
	second.MessageID = "m2"
	second.Timestamp = 2000000

	mockPool.ExpectQuery(`SELECT .* FROM messages WHERE conversation_id = \$1 OR to_number = \$1 ORDER BY ts ASC`).
		WithArgs("+1111").
		WillReturnRows(messageRows(mockPool, first, second))

	msgs, err := repo.ListByConversation(context.Background(), "+1111")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].MessageID)
	assert.Equal(t, "m2", msgs[1].MessageID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgMessageRepository_ListInboundConversationIDs(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	defer mockPool.Close()

	rows := mockPool.NewRows([]string{"conversation_id"}).AddRow("+1111").AddRow("+2222")
	mockPool.ExpectQuery(`SELECT DISTINCT conversation_id FROM messages WHERE is_outgoing = FALSE`).
		WillReturnRows(rows)

	ids, err := repo.ListInboundConversationIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"+1111", "+2222"}, ids)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgMessageRepository_LatestQueries(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	defer mockPool.Close()

	msg := sampleMessage()

	t.Run("LatestInConversation", func(t *testing.T) {
		mockPool.ExpectQuery(`SELECT .* WHERE conversation_id = \$1 OR to_number = \$1 ORDER BY ts DESC LIMIT 1`).
			WithArgs("+1111").
			WillReturnRows(messageRows(mockPool, msg))

		got, err := repo.LatestInConversation(context.Background(), "+1111")
		require.NoError(t, err)
		assert.Equal(t, "m1", got.MessageID)
	})

	t.Run("LatestInbound", func(t *testing.T) {
		mockPool.ExpectQuery(`SELECT .* WHERE conversation_id = \$1 AND is_outgoing = FALSE ORDER BY ts DESC LIMIT 1`).
			WithArgs("+1111").
			WillReturnRows(messageRows(mockPool, msg))

		got, err := repo.LatestInbound(context.Background(), "+1111")
		require.NoError(t, err)
		assert.False(t, got.IsOutgoing)
	})

	t.Run("LatestInboundNotFound", func(t *testing.T) {
		mockPool.ExpectQuery(`SELECT .* WHERE conversation_id = \$1 AND is_outgoing = FALSE ORDER BY ts DESC LIMIT 1`).
			WithArgs("+0404").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.LatestInbound(context.Background(), "+0404")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgMessageRepository_Counts(t *testing.T) {
	repo, mockPool := setupRepoTest(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(`SELECT COUNT\(\*\) FROM messages`).
		WillReturnRows(mockPool.NewRows([]string{"count"}).AddRow(int64(42)))
	mockPool.ExpectQuery(`SELECT COUNT\(DISTINCT conversation_id\) FROM messages WHERE is_outgoing = FALSE`).
		WillReturnRows(mockPool.NewRows([]string{"count"}).AddRow(int64(7)))

	totalMessages, err := repo.CountMessages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), totalMessages)

	totalConversations, err := repo.CountConversations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), totalConversations)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
