package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Dashboard introspection
	s.echo.GET("/api/stats", s.handleStats)

	// Guest token constructor for anonymous storefront clients
	s.echo.POST("/auth/guest", s.handleGuestToken)

	// Domain-change ingress for CRUD code deployed out of process
	s.echo.POST("/api/notify/order/:change", s.handleNotifyOrder)
	s.echo.POST("/api/notify/inventory", s.handleNotifyInventory)
	s.echo.POST("/api/notify/price", s.handleNotifyPrice)
	s.echo.POST("/api/notify/product", s.handleNotifyProduct)
	s.echo.POST("/api/notify/payment/:change", s.handleNotifyPayment)
	s.echo.POST("/api/notify/announcement", s.handleNotifyAnnouncement)

	// WebSocket handshake plus its CORS pre-flight
	s.echo.OPTIONS(s.config.WSPath, s.handlePreflight)
	s.echo.GET(s.config.WSPath, s.handleWebSocket)
}
