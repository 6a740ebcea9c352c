package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/apipat2499/omni-sales-realtime/internal/errors"
	"github.com/apipat2499/omni-sales-realtime/internal/events"
)

// Notify handlers are the HTTP face of the domain-event adapter for CRUD
// code deployed out of process. Payloads arrive already validated by the
// caller; emission is fire-and-forget, so every accepted request is a 202.

func (s *Server) handleNotifyOrder(c echo.Context) error {
	var p events.OrderPayload
	if err := c.Bind(&p); err != nil {
		return apperrors.TransportError("malformed order payload", err)
	}
	switch c.Param("change") {
	case "created":
		s.notifier.OrderCreated(p)
	case "status":
		s.notifier.OrderStatusChanged(p)
	case "cancelled":
		s.notifier.OrderCancelled(p)
	default:
		return apperrors.TransportError("unknown order change", nil)
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleNotifyInventory(c echo.Context) error {
	var p events.InventoryPayload
	if err := c.Bind(&p); err != nil {
		return apperrors.TransportError("malformed inventory payload", err)
	}
	s.notifier.InventoryChanged(p)
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleNotifyPrice(c echo.Context) error {
	var p events.PricePayload
	if err := c.Bind(&p); err != nil {
		return apperrors.TransportError("malformed price payload", err)
	}
	s.notifier.PriceChanged(p)
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleNotifyProduct(c echo.Context) error {
	var p events.ProductPayload
	if err := c.Bind(&p); err != nil {
		return apperrors.TransportError("malformed product payload", err)
	}
	s.notifier.ProductUpdated(p)
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleNotifyPayment(c echo.Context) error {
	var p events.PaymentPayload
	if err := c.Bind(&p); err != nil {
		return apperrors.TransportError("malformed payment payload", err)
	}
	switch c.Param("change") {
	case "received":
		s.notifier.PaymentReceived(p)
	case "failed":
		s.notifier.PaymentFailed(p)
	default:
		return apperrors.TransportError("unknown payment change", nil)
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleNotifyAnnouncement(c echo.Context) error {
	var p events.AnnouncementPayload
	if err := c.Bind(&p); err != nil {
		return apperrors.TransportError("malformed announcement payload", err)
	}
	s.notifier.SystemAnnouncement(p)
	return c.NoContent(http.StatusAccepted)
}
