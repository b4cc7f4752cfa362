package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convohub/chatlog-gateway/internal/chatlog/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizer_FullDocument(t *testing.T) {
	raw := []byte(`{
		"metaData": {
			"entry": [{
				"changes": [{
					"value": {
						"metadata": {"display_phone_number": "+9999"},
						"contacts": [{"wa_id": "+1111", "profile": {"name": "Alice"}}],
						"messages": [{"id": "m1", "from": "+1111", "type": "text", "text": {"body": "hi"}, "timestamp": "1000"}],
						"statuses": [{"id": "m0", "status": "read"}]
					}
				}]
			}]
		}
	}`)

	var doc domain.WebhookDocument
	require.NoError(t, json.Unmarshal(raw, &doc))

	n := NewNormalizer("+0000", testLogger())
	batch, ok := n.Normalize(&doc)
	require.True(t, ok)

	assert.Equal(t, "+9999", batch.BusinessNumber, "embedded metadata wins over the configured default")
	require.Len(t, batch.Contacts, 1)
	assert.Equal(t, "Alice", batch.Contacts[0].Profile.Name)
	require.Len(t, batch.Messages, 1)
	assert.Equal(t, "m1", batch.Messages[0].ID)
	assert.Equal(t, "hi", batch.Messages[0].Text.Body)
	require.Len(t, batch.Statuses, 1)
	assert.Equal(t, "read", batch.Statuses[0].Status)
}

func TestNormalizer_MissingStructure(t *testing.T) {
	n := NewNormalizer("+0000", testLogger())

	testCases := []struct {
		name string
		doc  *domain.WebhookDocument
	}{
		{"nil document", nil},
		{"no metaData", &domain.WebhookDocument{}},
		{"empty entry list", &domain.WebhookDocument{MetaData: &domain.WebhookMetaData{}}},
		{"entry without changes", &domain.WebhookDocument{
			MetaData: &domain.WebhookMetaData{Entry: []domain.WebhookEntry{{ID: "e1"}}},
		}},
		{"change without value", &domain.WebhookDocument{
			MetaData: &domain.WebhookMetaData{Entry: []domain.WebhookEntry{
				{Changes: []domain.WebhookChange{{Field: "messages"}}},
			}},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			batch, ok := n.Normalize(tc.doc)
			assert.False(t, ok)
			assert.Nil(t, batch)
		})
	}
}

func TestNormalizer_BusinessNumberFallback(t *testing.T) {
	doc := &domain.WebhookDocument{
		MetaData: &domain.WebhookMetaData{Entry: []domain.WebhookEntry{{
			Changes: []domain.WebhookChange{{Value: &domain.ChangeValue{
				Messages: []domain.MessageEntry{{ID: "m1", From: "+1111", Type: "text", Timestamp: "1000"}},
			}}},
		}}},
	}

	n := NewNormalizer("+0000", testLogger())
	batch, ok := n.Normalize(doc)
	require.True(t, ok)
	assert.Equal(t, "+0000", batch.BusinessNumber)

	// No configured default either: normalization still succeeds, direction
	// resolution downstream degrades to inbound.
	n = NewNormalizer("", testLogger())
	batch, ok = n.Normalize(doc)
	require.True(t, ok)
	assert.Empty(t, batch.BusinessNumber)
	assert.Len(t, batch.Messages, 1)
}

func TestNormalizer_AccumulatesAcrossEntries(t *testing.T) {
	doc := &domain.WebhookDocument{
		MetaData: &domain.WebhookMetaData{Entry: []domain.WebhookEntry{
			{Changes: []domain.WebhookChange{{Value: &domain.ChangeValue{
				Metadata: &domain.ChangeMetadata{DisplayPhoneNumber: "+9999"},
				Messages: []domain.MessageEntry{{ID: "m1", From: "+1111", Type: "text", Timestamp: "1000"}},
			}}}},
			{Changes: []domain.WebhookChange{{Value: &domain.ChangeValue{
				Messages: []domain.MessageEntry{{ID: "m2", From: "+2222", Type: "text", Timestamp: "1001"}},
				Statuses: []domain.StatusEntry{{ID: "m1", Status: "delivered"}},
			}}}},
		}},
	}

	n := NewNormalizer("", testLogger())
	batch, ok := n.Normalize(doc)
	require.True(t, ok)
	assert.Equal(t, "+9999", batch.BusinessNumber)
	assert.Len(t, batch.Messages, 2)
	assert.Len(t, batch.Statuses, 1)
}
