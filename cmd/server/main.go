package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/apipat2499/omni-sales-realtime/internal/auth"
	"github.com/apipat2499/omni-sales-realtime/internal/config"
	"github.com/apipat2499/omni-sales-realtime/internal/dispatch"
	"github.com/apipat2499/omni-sales-realtime/internal/hub"
	"github.com/apipat2499/omni-sales-realtime/internal/logging"
	"github.com/apipat2499/omni-sales-realtime/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, h *hub.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		h.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	issuer := auth.NewIssuer(cfg.JWTSecret, clock)

	eventHub := hub.NewHub(issuer, clock, hub.Options{
		PingInterval:       cfg.PingInterval,
		RateLimitWindow:    cfg.RateLimitWindow,
		RateLimitMaxEvents: cfg.RateLimitMaxEvents,
	})

	notifier := dispatch.NewNotifier(eventHub)

	srv := server.NewServer(cfg, eventHub, issuer, notifier)

	done := runGracefulShutdown(srv, eventHub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
