package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/convohub/chatlog-gateway/internal/chatlog/domain"
)

// IngestResult summarizes the outcome of ingesting one webhook document.
type IngestResult struct {
	Stored          int
	Duplicates      int
	Skipped         int
	StatusesApplied int
	StatusesMissed  int
}

// Ingestor orchestrates end-to-end processing of webhook documents:
// normalize, resolve identity, deduplicate, persist; and for status entries,
// match and update. It is the only writer of inbound message content.
type Ingestor struct {
	repo       domain.MessageRepository
	normalizer *Normalizer
	logger     *slog.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(repo domain.MessageRepository, normalizer *Normalizer, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		repo:       repo,
		normalizer: normalizer,
		logger:     logger.With("component", "ingestor"),
	}
}

// IngestRaw parses one raw webhook document and ingests it. source identifies
// the document (filename or request id) in diagnostics.
func (s *Ingestor) IngestRaw(ctx context.Context, data []byte, source string) (IngestResult, error) {
	var doc domain.WebhookDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.WarnContext(ctx, "Skipping undecodable webhook document", "source", source, "error", err)
		webhookDocumentsCounter.WithLabelValues("malformed").Inc()
		return IngestResult{}, nil
	}
	return s.IngestDocument(ctx, &doc, source)
}

// IngestDocument processes one parsed webhook document. Malformed entries are
// logged and skipped without aborting siblings; storage failures abort the
// remaining work and surface to the caller.
func (s *Ingestor) IngestDocument(ctx context.Context, doc *domain.WebhookDocument, source string) (IngestResult, error) {
	start := time.Now()
	var res IngestResult

	batch, ok := s.normalizer.Normalize(doc)
	if !ok {
		s.logger.WarnContext(ctx, "Skipping webhook document without entry/changes/value structure", "source", source)
		webhookDocumentsCounter.WithLabelValues("no_batch").Inc()
		return res, nil
	}

	logger := s.logger.With("source", source, "business_number", batch.BusinessNumber)

	for i, entry := range batch.Messages {
		inserted, err := s.ingestMessageEntry(ctx, entry, batch)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				logger.WarnContext(ctx, "Skipping invalid message entry",
					"entry_index", i, "message_id", entry.ID, "error", err)
				res.Skipped++
				messagesIngestedCounter.WithLabelValues("skipped").Inc()
				continue
			}
			// Storage-level failure: abort remaining entries of the batch.
			webhookDocumentsCounter.WithLabelValues("storage_error").Inc()
			return res, fmt.Errorf("%w: ingesting message %q: %v", domain.ErrStorage, entry.ID, err)
		}
		if inserted {
			res.Stored++
			messagesIngestedCounter.WithLabelValues("stored").Inc()
		} else {
			logger.DebugContext(ctx, "Duplicate message id, insert skipped", "message_id", entry.ID)
			res.Duplicates++
			messagesIngestedCounter.WithLabelValues("duplicate").Inc()
		}
	}

	for i, st := range batch.Statuses {
		applied, err := s.applyStatusEntry(ctx, st)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				logger.WarnContext(ctx, "Skipping invalid status entry",
					"entry_index", i, "status", st.Status, "error", err)
				statusUpdatesCounter.WithLabelValues("skipped").Inc()
				continue
			}
			webhookDocumentsCounter.WithLabelValues("storage_error").Inc()
			return res, fmt.Errorf("%w: applying status for %q: %v", domain.ErrStorage, st.ID, err)
		}
		if applied {
			res.StatusesApplied++
			statusUpdatesCounter.WithLabelValues("applied").Inc()
		} else {
			// No matching record is a logged no-op, never fatal.
			logger.WarnContext(ctx, "Status update target not found",
				"message_id", st.ID, "meta_msg_id", st.MetaMsgID, "status", st.Status)
			res.StatusesMissed++
			statusUpdatesCounter.WithLabelValues("unmatched").Inc()
		}
	}

	webhookDocumentsCounter.WithLabelValues("processed").Inc()
	ingestDurationHist.Observe(time.Since(start).Seconds())

	logger.InfoContext(ctx, "Webhook document ingested",
		"stored", res.Stored,
		"duplicates", res.Duplicates,
		"skipped", res.Skipped,
		"statuses_applied", res.StatusesApplied,
		"statuses_missed", res.StatusesMissed,
	)
	return res, nil
}

// ingestMessageEntry resolves, validates and persists a single message entry.
// It returns whether a new record was inserted; false means the message id was
// already stored.
func (s *Ingestor) ingestMessageEntry(ctx context.Context, entry domain.MessageEntry, batch *domain.WebhookBatch) (bool, error) {
	identity := ResolveIdentity(entry, batch.Contacts, batch.BusinessNumber)

	seconds, err := strconv.ParseInt(entry.Timestamp, 10, 64)
	if err != nil {
		return false, fmt.Errorf("%w: unparseable timestamp %q", domain.ErrValidation, entry.Timestamp)
	}

	text := ""
	if entry.Text != nil {
		text = entry.Text.Body
	}

	msgType := domain.MessageType(entry.Type)
	if entry.Type == "" {
		msgType = domain.TypeText
	}

	status := domain.StatusReceived
	if identity.IsOutgoing {
		status = domain.StatusSent
	}

	msg, err := domain.NewMessage(
		entry.ID,
		identity.ConversationID,
		text,
		msgType,
		entry.From,
		identity.ToNumber,
		identity.ContactName,
		seconds*1000, // wire timestamps are seconds; the store orders by milliseconds
		identity.IsOutgoing,
		status,
	)
	if err != nil {
		return false, err
	}

	return s.repo.InsertIfAbsent(ctx, msg)
}

// applyStatusEntry locates the referenced record and mutates its status.
// The primary id field wins; meta_msg_id is the fallback.
func (s *Ingestor) applyStatusEntry(ctx context.Context, st domain.StatusEntry) (bool, error) {
	messageID := st.ID
	if messageID == "" {
		messageID = st.MetaMsgID
	}
	if messageID == "" {
		return false, fmt.Errorf("%w: status entry has neither id nor meta_msg_id", domain.ErrValidation)
	}

	status := domain.MessageStatus(st.Status)
	if !status.IsValid() {
		return false, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, st.Status)
	}

	return s.repo.UpdateStatus(ctx, messageID, status)
}
