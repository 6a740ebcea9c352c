package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/apipat2499/omni-sales-realtime/internal/auth"
	"github.com/apipat2499/omni-sales-realtime/internal/config"
	"github.com/apipat2499/omni-sales-realtime/internal/dispatch"
	apperrors "github.com/apipat2499/omni-sales-realtime/internal/errors"
	"github.com/apipat2499/omni-sales-realtime/internal/hub"
)

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	hub       *hub.Hub
	issuer    *auth.Issuer
	notifier  *dispatch.Notifier
	limits    *ConnectionLimits
	origins   []string
	startTime time.Time
}

func NewServer(cfg *config.Config, h *hub.Hub, issuer *auth.Issuer, notifier *dispatch.Notifier) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		hub:       h,
		issuer:    issuer,
		notifier:  notifier,
		limits:    NewConnectionLimits(int64(cfg.MaxConnections), cfg.MaxConnectionsPerIP, cfg.ConnectionRate, cfg.ConnectionBurst),
		origins:   cfg.Origins(),
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port, "ws_path", s.config.WSPath)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
