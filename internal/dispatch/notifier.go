package dispatch

import (
	"log/slog"

	"github.com/apipat2499/omni-sales-realtime/internal/events"
	"github.com/apipat2499/omni-sales-realtime/internal/hub"
)

// Router is the emit surface the adapter depends on.
type Router interface {
	Emit(kind events.Kind, namespace events.Namespace, payload any, target hub.Target)
}

// Notifier translates domain mutations into broadcast emissions.
type Notifier struct {
	router Router
}

// NewNotifier creates the adapter around a broadcast router.
func NewNotifier(router Router) *Notifier {
	return &Notifier{router: router}
}

// emit applies the default targeting rules: namespace from the catalog,
// roles from the declarative table, and direct per-user delivery when the
// event concerns a specific customer.
func (n *Notifier) emit(kind events.Kind, payload any, directUsers ...string) {
	// The collaborator contract promises nothing ever raises back into
	// the CRUD code, including a misbehaving router.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Notifier recovered from emit panic", "kind", string(kind), "panic", r)
		}
	}()

	target := hub.Target{
		Namespace: events.KindNamespace[kind],
		Roles:     DefaultRoles(kind),
	}
	for _, u := range directUsers {
		if u != "" {
			target.DirectUsers = append(target.DirectUsers, u)
		}
	}
	n.router.Emit(kind, events.KindNamespace[kind], payload, target)
}

// OrderCreated announces a new order. The customer is targeted directly.
func (n *Notifier) OrderCreated(p events.OrderPayload) {
	n.emit(events.KindOrderCreated, p, p.CustomerID)
}

// OrderStatusChanged announces an order status transition. The customer is
// targeted directly so the affected party is never missed.
func (n *Notifier) OrderStatusChanged(p events.OrderPayload) {
	n.emit(events.KindOrderStatusChanged, p, p.CustomerID)
}

// OrderCancelled announces an order cancellation.
func (n *Notifier) OrderCancelled(p events.OrderPayload) {
	n.emit(events.KindOrderCancelled, p, p.CustomerID)
}

// InventoryChanged announces a stock level change. The router derives the
// low-stock or out-of-stock cascade from the new stock level.
func (n *Notifier) InventoryChanged(p events.InventoryPayload) {
	n.emit(events.KindInventoryUpdated, p)
}

// PriceChanged announces a price change to everyone.
func (n *Notifier) PriceChanged(p events.PricePayload) {
	n.emit(events.KindPriceChanged, p)
}

// ProductUpdated announces a non-price product change.
func (n *Notifier) ProductUpdated(p events.ProductPayload) {
	n.emit(events.KindProductUpdated, p)
}

// PaymentReceived announces a successful payment. The paying customer is
// targeted directly.
func (n *Notifier) PaymentReceived(p events.PaymentPayload) {
	n.emit(events.KindPaymentReceived, p, p.CustomerID)
}

// PaymentFailed announces a failed payment. The paying customer is targeted
// directly.
func (n *Notifier) PaymentFailed(p events.PaymentPayload) {
	n.emit(events.KindPaymentFailed, p, p.CustomerID)
}

// SystemAnnouncement broadcasts an operator announcement to everyone.
func (n *Notifier) SystemAnnouncement(p events.AnnouncementPayload) {
	n.emit(events.KindSystemAnnouncement, p)
}
