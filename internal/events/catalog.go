package events

// Kind identifies a domain event type.
type Kind string

const (
	KindOrderCreated       Kind = "order:created"
	KindOrderStatusChanged Kind = "order:status_changed"
	KindOrderCancelled     Kind = "order:cancelled"

	KindInventoryUpdated    Kind = "inventory:updated"
	KindInventoryLowStock   Kind = "inventory:low_stock"
	KindInventoryOutOfStock Kind = "inventory:out_of_stock"

	KindPriceChanged   Kind = "price:changed"
	KindProductUpdated Kind = "product:updated"

	KindPaymentReceived Kind = "payment:received"
	KindPaymentFailed   Kind = "payment:failed"

	KindSystemAnnouncement Kind = "system:announcement"
)

// Namespace is a named broadcast channel. Connections subscribe to
// namespaces (subject to role permission) to receive scoped events.
type Namespace string

const (
	NamespaceOrders    Namespace = "orders"
	NamespaceInventory Namespace = "inventory"
	NamespaceProducts  Namespace = "products"
	NamespacePayments  Namespace = "payments"
	NamespaceSystem    Namespace = "system"
)

// KindNamespace maps every event kind to the namespace it is emitted on.
var KindNamespace = map[Kind]Namespace{
	KindOrderCreated:        NamespaceOrders,
	KindOrderStatusChanged:  NamespaceOrders,
	KindOrderCancelled:      NamespaceOrders,
	KindInventoryUpdated:    NamespaceInventory,
	KindInventoryLowStock:   NamespaceInventory,
	KindInventoryOutOfStock: NamespaceInventory,
	KindPriceChanged:        NamespaceProducts,
	KindProductUpdated:      NamespaceProducts,
	KindPaymentReceived:     NamespacePayments,
	KindPaymentFailed:       NamespacePayments,
	KindSystemAnnouncement:  NamespaceSystem,
}

// ValidNamespace reports whether ns is part of the fixed namespace set.
func ValidNamespace(ns Namespace) bool {
	switch ns {
	case NamespaceOrders, NamespaceInventory, NamespaceProducts, NamespacePayments, NamespaceSystem:
		return true
	}
	return false
}

// ValidKind reports whether k is part of the fixed event taxonomy.
func ValidKind(k Kind) bool {
	_, ok := KindNamespace[k]
	return ok
}
