package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookDocumentsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatlog",
			Name:      "webhook_documents_total",
			Help:      "Total number of webhook documents seen, by outcome.",
		},
		[]string{"outcome"}, // processed, no_batch, malformed, storage_error
	)

	messagesIngestedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatlog",
			Name:      "messages_ingested_total",
			Help:      "Total number of message entries processed, by outcome.",
		},
		[]string{"outcome"}, // stored, duplicate, skipped
	)

	statusUpdatesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatlog",
			Name:      "status_updates_total",
			Help:      "Total number of status entries processed, by outcome.",
		},
		[]string{"outcome"}, // applied, unmatched, skipped
	)

	ingestDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatlog",
			Name:      "document_ingest_duration_seconds",
			Help:      "Duration of ingesting one webhook document.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
