package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/convohub/chatlog-gateway/internal/platform/messagebroker"
)

// WebhookConsumer consumes raw webhook documents from NATS and feeds them to
// the Ingestor. The webhook HTTP endpoint publishes to the same subject, so
// live deliveries and replayed documents share one ingestion path.
type WebhookConsumer struct {
	natsClient *messagebroker.NATSClient
	ingestor   *Ingestor
	logger     *slog.Logger
}

// NewWebhookConsumer creates a WebhookConsumer.
func NewWebhookConsumer(natsClient *messagebroker.NATSClient, ingestor *Ingestor, logger *slog.Logger) *WebhookConsumer {
	return &WebhookConsumer{
		natsClient: natsClient,
		ingestor:   ingestor,
		logger:     logger.With("component", "webhook_consumer"),
	}
}

// StartConsuming subscribes to subject as part of queueGroup and ingests each
// message payload as one webhook document. Blocks until ctx is cancelled.
// Ingestion failures are logged, not fatal to the subscription: a broken
// document must not take the consumer down.
func (c *WebhookConsumer) StartConsuming(ctx context.Context, subject string, queueGroup string) error {
	handler := func(msg *nats.Msg) {
		if _, err := c.ingestor.IngestRaw(ctx, msg.Data, msg.Subject); err != nil {
			c.logger.ErrorContext(ctx, "Failed to ingest webhook document from NATS",
				"subject", msg.Subject, "error", err)
		}
	}

	c.logger.InfoContext(ctx, "Starting webhook subscription", "subject", subject, "queue_group", queueGroup)
	return c.natsClient.SubscribeWithQueue(ctx, subject, queueGroup, handler)
}
