package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/convohub/chatlog-gateway/internal/chatlog/app"
	pgrepo "github.com/convohub/chatlog-gateway/internal/chatlog/repository/postgres"
	httptransport "github.com/convohub/chatlog-gateway/internal/chatlog/transport/http"
	"github.com/convohub/chatlog-gateway/internal/platform/config"
	"github.com/convohub/chatlog-gateway/internal/platform/database"
	"github.com/convohub/chatlog-gateway/internal/platform/logger"
	"github.com/convohub/chatlog-gateway/internal/platform/messagebroker"
)

const serviceName = "chatlog_service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Chatlog service starting", "port", cfg.ServerPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(rootCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL")

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Connected to NATS", "url", cfg.NATSUrl)

	messageRepo := pgrepo.NewPgMessageRepository(dbPool, appLogger)
	normalizer := app.NewNormalizer(cfg.BusinessPhoneNumber, appLogger)
	ingestor := app.NewIngestor(messageRepo, normalizer, appLogger)
	aggregator := app.NewAggregator(messageRepo, cfg.QueryTimeout, appLogger)
	composer := app.NewComposer(messageRepo, cfg.BusinessPhoneNumber, appLogger)
	consumer := app.NewWebhookConsumer(natsClient, ingestor, appLogger)

	validate := validator.New()
	conversationHandler := httptransport.NewConversationHandler(aggregator, composer, appLogger, validate)
	webhookHandler := httptransport.NewWebhookHandler(natsClient, cfg.WebhookSubject, appLogger)
	healthHandler := httptransport.NewHealthHandler(aggregator, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.CORSAllowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(httptransport.PrometheusMetricsMiddleware)

	healthHandler.RegisterRoutes(r)
	webhookHandler.RegisterRoutes(r)
	r.Route("/api", func(api chi.Router) {
		conversationHandler.RegisterRoutes(api)
	})
	r.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: r,
	}

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return consumer.StartConsuming(gctx, cfg.WebhookSubject, cfg.WebhookQueueGroup)
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Chatlog service stopped")
}
