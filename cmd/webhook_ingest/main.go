// Command webhook_ingest replays a directory of webhook JSON documents
// through the ingestion pipeline. Documents are processed in filename order;
// a document that does not match the expected shape is logged and skipped.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/convohub/chatlog-gateway/internal/chatlog/app"
	pgrepo "github.com/convohub/chatlog-gateway/internal/chatlog/repository/postgres"
	"github.com/convohub/chatlog-gateway/internal/platform/config"
	"github.com/convohub/chatlog-gateway/internal/platform/database"
	"github.com/convohub/chatlog-gateway/internal/platform/logger"
)

func main() {
	dir := flag.String("dir", "./payloads", "directory containing webhook JSON documents")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	ctx := context.Background()

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	messageRepo := pgrepo.NewPgMessageRepository(dbPool, appLogger)
	normalizer := app.NewNormalizer(cfg.BusinessPhoneNumber, appLogger)
	ingestor := app.NewIngestor(messageRepo, normalizer, appLogger)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		appLogger.Error("Failed to read payload directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	var total app.IngestResult
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(*dir, name))
		if err != nil {
			appLogger.Warn("Skipping unreadable file", "file", name, "error", err)
			continue
		}
		res, err := ingestor.IngestRaw(ctx, data, name)
		if err != nil {
			// Storage-level failure: abort the run rather than churn through
			// the remaining documents against a dead store.
			appLogger.Error("Ingestion aborted", "file", name, "error", err)
			os.Exit(1)
		}
		total.Stored += res.Stored
		total.Duplicates += res.Duplicates
		total.Skipped += res.Skipped
		total.StatusesApplied += res.StatusesApplied
		total.StatusesMissed += res.StatusesMissed
	}

	appLogger.Info("Ingestion run complete",
		"files", len(files),
		"stored", total.Stored,
		"duplicates", total.Duplicates,
		"skipped", total.Skipped,
		"statuses_applied", total.StatusesApplied,
		"statuses_missed", total.StatusesMissed,
	)
}
