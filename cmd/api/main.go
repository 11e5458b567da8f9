// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/uniwhats/desk/internal/config"
	"github.com/uniwhats/desk/internal/handler"
	"github.com/uniwhats/desk/internal/middleware"
	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/internal/notifier"
	"github.com/uniwhats/desk/internal/service"
	"github.com/uniwhats/desk/internal/store"
	"github.com/uniwhats/desk/pkg/logger"
	"github.com/uniwhats/desk/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "uniwhats-desk", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Run migrations before opening the pool
	if err := store.Migrate(log, cfg.DatabaseURL); err != nil {
		log.Error("failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	// Open the database
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	pg := store.NewPostgres(db)

	if cfg.SeedData {
		if err := pg.Seed(ctx); err != nil {
			log.Error("failed to seed database", zap.Error(err))
			os.Exit(1)
		}
	}

	// Local fan-out, optionally bridged across instances over NATS
	localNotifier := notifier.New(log)
	var broadcaster notifier.Broadcaster = localNotifier
	var bridge *notifier.Bridge
	if cfg.NATSURL != "" {
		originID := model.NewID("api")
		bridge, err = notifier.Connect(cfg.NATSURL, originID, localNotifier, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer bridge.Close()
		broadcaster = bridge
		log.Info("event bridge connected", zap.String("origin", originID))
	}

	// Initialize services
	authSvc := service.NewAuthService(pg, cfg.JWTSecret, cfg.JWTExpiration, log)
	conversationSvc := service.NewConversationService(pg, broadcaster, log)
	directorySvc := service.NewDirectoryService(pg)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, bridge)
	authHandler := handler.NewAuthHandler(authSvc, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(conversationSvc, log)
	directoryHandler := handler.NewDirectoryHandler(directorySvc, log)
	webhookHandler := handler.NewWebhookHandler(conversationSvc, log)
	wsHandler := handler.NewWSHandler(localNotifier, cfg.JWTSecret, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket endpoint; authenticates via token query parameter
	r.Get("/ws", wsHandler.Serve)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// Inbound webhook; carries no desk user token
		r.Post("/webhook/whatsapp", webhookHandler.Inbound)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", conversationHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/messages", messageHandler.List)
					r.Post("/messages", messageHandler.Send)

					r.Post("/assign", conversationHandler.Assign)
					r.Post("/tags", conversationHandler.SetTags)
					r.Post("/close", conversationHandler.Close)
					r.Post("/reopen", conversationHandler.Reopen)
					r.Post("/mark-read", conversationHandler.MarkRead)
				})
			})

			r.Get("/departments", directoryHandler.Departments)
			r.Get("/users", directoryHandler.Users)
			r.Get("/contacts", directoryHandler.Contacts)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	localNotifier.Drain()

	log.Info("server stopped")
}
