package app

import (
	"log/slog"

	"github.com/convohub/chatlog-gateway/internal/chatlog/domain"
)

// Normalizer extracts a WebhookBatch from one parsed webhook document of
// variable shape. Extraction is an explicit chain of get-field-or-skip steps:
// a document missing the entry/changes/value path yields no batch, which the
// caller treats as a recoverable skip, never a fatal error.
type Normalizer struct {
	defaultBusinessNumber string
	logger                *slog.Logger
}

// NewNormalizer creates a Normalizer. defaultBusinessNumber is used when a
// document carries no display_phone_number metadata; it may be empty, in
// which case direction resolution degrades to treating entries as inbound.
func NewNormalizer(defaultBusinessNumber string, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		defaultBusinessNumber: defaultBusinessNumber,
		logger:                logger.With("component", "normalizer"),
	}
}

// Normalize collects the message entries, status entries and shared context
// of one document. It returns (nil, false) when the document lacks the
// minimal expected nested structure.
func (n *Normalizer) Normalize(doc *domain.WebhookDocument) (*domain.WebhookBatch, bool) {
	if doc == nil || doc.MetaData == nil || len(doc.MetaData.Entry) == 0 {
		return nil, false
	}

	batch := &domain.WebhookBatch{BusinessNumber: n.defaultBusinessNumber}
	sawValue := false

	for _, entry := range doc.MetaData.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			if value == nil {
				continue
			}
			sawValue = true

			if batch.BusinessNumber == n.defaultBusinessNumber || batch.BusinessNumber == "" {
				if value.Metadata != nil && value.Metadata.DisplayPhoneNumber != "" {
					batch.BusinessNumber = value.Metadata.DisplayPhoneNumber
				}
			}

			batch.Contacts = append(batch.Contacts, value.Contacts...)
			batch.Messages = append(batch.Messages, value.Messages...)
			batch.Statuses = append(batch.Statuses, value.Statuses...)
		}
	}

	if !sawValue {
		n.logger.Debug("Webhook document has entries but no change values")
		return nil, false
	}
	return batch, true
}
