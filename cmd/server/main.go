// Package main is the entry point for the profile card server. It wires the
// key-value store, the Discord OAuth client, the customization dashboard and
// the profile document generator behind one HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/artifact"
	"github.com/cardsmith/profilecard/internal/auth"
	"github.com/cardsmith/profilecard/internal/config"
	"github.com/cardsmith/profilecard/internal/dashboard"
	"github.com/cardsmith/profilecard/internal/media"
	"github.com/cardsmith/profilecard/internal/presence"
	"github.com/cardsmith/profilecard/internal/ratelimit"
	"github.com/cardsmith/profilecard/internal/selection"
	"github.com/cardsmith/profilecard/internal/session"
	"github.com/cardsmith/profilecard/internal/store"
	"github.com/cardsmith/profilecard/internal/web"
	"github.com/cardsmith/profilecard/pkg/logger"
)

const discordAPIBaseURL = "https://discord.com/api/v10"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		// Sync errors on stdout/stderr are expected and can be safely ignored
		// for non-syncable file descriptors (pipes, terminals, etc.)
		_ = log.Sync()
	}()

	log.Info("starting profile card server",
		zap.String("environment", cfg.Server.Env),
		zap.String("http_port", cfg.Server.Port),
		zap.String("store_backend", cfg.Storage.Backend),
	)

	// Initialize the key-value store
	var backing store.Store
	switch cfg.Storage.Backend {
	case "redis":
		redisStore, err := store.NewRedisStore(
			cfg.Storage.RedisAddr,
			cfg.Storage.RedisPassword,
			cfg.Storage.RedisDB,
			cfg.Storage.MaxValueBytes,
			log,
		)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				log.Error("failed to close redis connection", zap.Error(err))
			}
		}()
		backing = redisStore
	default:
		backing = store.NewMemoryStore(cfg.Storage.MaxValueBytes)
	}

	settings := store.NewSettings(backing, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the Discord client with rate limiting
	discordClient := auth.NewDiscordClient(cfg, log)
	rateLimiter := ratelimit.NewRateLimiter(log)
	discordClient.SetRateLimiter(rateLimiter)

	// Initialize state components
	sessions := session.NewManager(ctx, settings, discordClient, log)
	engine := selection.NewEngine(ctx, settings, log)
	vault := media.NewVault(backing, log)

	refreshInterval := time.Duration(cfg.Presence.ProfileRefreshSecs) * time.Second
	generator := artifact.NewGenerator(
		cfg.Presence.SocketURL,
		cfg.Presence.RESTBaseURL,
		discordAPIBaseURL,
		refreshInterval,
		log,
	)
	registry := artifact.NewRegistry(artifact.DefaultGraceDelay, artifact.DefaultUnclaimedTTL, log)

	controller := dashboard.NewController(ctx, settings, engine, sessions, vault, generator, registry, log)

	// Keep the dashboard's identity fields fresh while a session is active
	refresher := presence.NewProfileRefresher(sessions, refreshInterval, log)
	go refresher.Run(ctx)

	// Initialize HTTP server
	handlers := web.NewHandlers(controller, sessions, discordClient, cfg, log)
	httpServer := web.NewServer(handlers, cfg.Server.Port, log)

	httpErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(); err != nil {
			httpErrChan <- err
		}
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-httpErrChan:
		log.Fatal("HTTP server error", zap.Error(err))
	case sig := <-sigChan:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	// Graceful shutdown
	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server gracefully", zap.Error(err))
	}

	log.Info("server shut down successfully")
}
