package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apipat2499/omni-sales-realtime/internal/auth"
	"github.com/apipat2499/omni-sales-realtime/internal/events"
	"github.com/apipat2499/omni-sales-realtime/internal/hub"
)

// capturingRouter records every emit for assertion.
type capturingRouter struct {
	emits []capturedEmit
}

type capturedEmit struct {
	kind      events.Kind
	namespace events.Namespace
	payload   any
	target    hub.Target
}

func (r *capturingRouter) Emit(kind events.Kind, namespace events.Namespace, payload any, target hub.Target) {
	r.emits = append(r.emits, capturedEmit{kind: kind, namespace: namespace, payload: payload, target: target})
}

// panickingRouter simulates a broken downstream.
type panickingRouter struct{}

func (panickingRouter) Emit(events.Kind, events.Namespace, any, hub.Target) {
	panic("router is down")
}

func TestNotifier_OrderEventsTargetCustomerDirectly(t *testing.T) {
	router := &capturingRouter{}
	n := NewNotifier(router)

	n.OrderCreated(events.OrderPayload{OrderID: "o1", CustomerID: "cust1", Status: "pending"})
	n.OrderStatusChanged(events.OrderPayload{OrderID: "o1", CustomerID: "cust1", Status: "shipped", PreviousStatus: "pending"})
	n.OrderCancelled(events.OrderPayload{OrderID: "o1", CustomerID: "cust1", Status: "cancelled"})

	require.Len(t, router.emits, 3)
	wantKinds := []events.Kind{events.KindOrderCreated, events.KindOrderStatusChanged, events.KindOrderCancelled}
	for i, e := range router.emits {
		assert.Equal(t, wantKinds[i], e.kind)
		assert.Equal(t, events.NamespaceOrders, e.namespace)
		assert.Equal(t, events.NamespaceOrders, e.target.Namespace)
		assert.Equal(t, []string{"cust1"}, e.target.DirectUsers)
		assert.Contains(t, e.target.Roles, auth.RoleCustomer)
	}
}

func TestNotifier_EmptyCustomerIDSkipsDirectDelivery(t *testing.T) {
	router := &capturingRouter{}
	n := NewNotifier(router)

	n.OrderCreated(events.OrderPayload{OrderID: "o2", Status: "pending"})

	require.Len(t, router.emits, 1)
	assert.Empty(t, router.emits[0].target.DirectUsers)
}

func TestNotifier_InventoryTargetsBackOffice(t *testing.T) {
	router := &capturingRouter{}
	n := NewNotifier(router)

	n.InventoryChanged(events.InventoryPayload{ProductID: "p1", PreviousStock: 10, NewStock: 4})

	require.Len(t, router.emits, 1)
	e := router.emits[0]
	assert.Equal(t, events.KindInventoryUpdated, e.kind)
	assert.Equal(t, events.NamespaceInventory, e.namespace)
	assert.ElementsMatch(t, []auth.Role{auth.RoleAdmin, auth.RoleManager, auth.RoleStaff}, e.target.Roles)
	assert.Empty(t, e.target.DirectUsers)
}

func TestNotifier_PaymentEventsTargetCustomerDirectly(t *testing.T) {
	router := &capturingRouter{}
	n := NewNotifier(router)

	n.PaymentReceived(events.PaymentPayload{PaymentID: "pay1", CustomerID: "cust2", Amount: 19.99, Status: "succeeded"})
	n.PaymentFailed(events.PaymentPayload{PaymentID: "pay2", CustomerID: "cust2", Amount: 19.99, Status: "failed", Reason: "card declined"})

	require.Len(t, router.emits, 2)
	assert.Equal(t, events.KindPaymentReceived, router.emits[0].kind)
	assert.Equal(t, events.KindPaymentFailed, router.emits[1].kind)
	for _, e := range router.emits {
		assert.Equal(t, events.NamespacePayments, e.namespace)
		assert.Equal(t, []string{"cust2"}, e.target.DirectUsers)
		assert.NotContains(t, e.target.Roles, auth.RoleCustomer)
	}
}

func TestNotifier_BroadcastEventsReachEveryRole(t *testing.T) {
	router := &capturingRouter{}
	n := NewNotifier(router)

	n.PriceChanged(events.PricePayload{ProductID: "p1", OldPrice: 10, NewPrice: 8})
	n.ProductUpdated(events.ProductPayload{ProductID: "p1"})
	n.SystemAnnouncement(events.AnnouncementPayload{Message: "maintenance at midnight"})

	require.Len(t, router.emits, 3)
	for _, e := range router.emits {
		assert.Contains(t, e.target.Roles, auth.RoleGuest)
		assert.Len(t, e.target.Roles, len(auth.Roles))
	}
	assert.Equal(t, events.NamespaceProducts, router.emits[0].namespace)
	assert.Equal(t, events.NamespaceProducts, router.emits[1].namespace)
	assert.Equal(t, events.NamespaceSystem, router.emits[2].namespace)
}

func TestNotifier_RouterPanicNeverEscapes(t *testing.T) {
	n := NewNotifier(panickingRouter{})

	assert.NotPanics(t, func() {
		n.OrderCreated(events.OrderPayload{OrderID: "o1", CustomerID: "cust1"})
		n.SystemAnnouncement(events.AnnouncementPayload{Message: "still alive"})
	})
}

func TestDefaultRoles_CoversEveryKind(t *testing.T) {
	for kind := range events.KindNamespace {
		assert.NotEmpty(t, DefaultRoles(kind), "kind %s has no default roles", kind)
	}
}
