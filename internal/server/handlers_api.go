package server

import (
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/apipat2499/omni-sales-realtime/internal/errors"
	"github.com/apipat2499/omni-sales-realtime/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	// Ready while the hub goroutine answers and capacity remains.
	stats := s.hub.Stats()
	current := s.limits.Global().Current()
	max := s.limits.Global().Max()

	if current >= max {
		return c.JSON(503, map[string]any{
			"status":      "unhealthy",
			"connections": stats.Connections,
			"capacity":    max,
		})
	}

	return c.JSON(200, map[string]any{
		"status":      "ready",
		"connections": stats.Connections,
		"capacity":    max,
	})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(200, version.Get())
}

func (s *Server) handleStats(c echo.Context) error {
	stats := s.hub.Stats()
	return c.JSON(200, map[string]any{
		"connections":        stats.Connections,
		"authenticatedUsers": stats.AuthenticatedUsers,
		"subscriptions":      stats.Subscriptions,
		"roles":              stats.Roles,
		"uniqueIPs":          s.limits.PerIP().UniqueIPs(),
	})
}

func (s *Server) handleGuestToken(c echo.Context) error {
	token, err := s.issuer.GuestToken()
	if err != nil {
		return apperrors.InternalError("failed to issue guest token", err)
	}
	return c.JSON(200, token)
}
