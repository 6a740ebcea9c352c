package dispatch

import (
	"github.com/apipat2499/omni-sales-realtime/internal/auth"
	"github.com/apipat2499/omni-sales-realtime/internal/events"
)

// allRoles targets every role, including unauthenticated (guest) connections.
var allRoles = []auth.Role{auth.RoleAdmin, auth.RoleManager, auth.RoleStaff, auth.RoleCustomer, auth.RoleGuest}

// staffRoles targets back-office roles only.
var staffRoles = []auth.Role{auth.RoleAdmin, auth.RoleManager, auth.RoleStaff}

// orderRoles targets back-office roles plus customers.
var orderRoles = []auth.Role{auth.RoleAdmin, auth.RoleManager, auth.RoleStaff, auth.RoleCustomer}

// defaultRoles is the single declarative table mapping each event kind to
// its default role allowlist. Every emit path consults this table; there
// are no per-call-site role literals.
var defaultRoles = map[events.Kind][]auth.Role{
	events.KindOrderCreated:       orderRoles,
	events.KindOrderStatusChanged: orderRoles,
	events.KindOrderCancelled:     orderRoles,

	events.KindInventoryUpdated:    staffRoles,
	events.KindInventoryLowStock:   staffRoles,
	events.KindInventoryOutOfStock: staffRoles,

	events.KindPriceChanged:   allRoles,
	events.KindProductUpdated: allRoles,

	events.KindPaymentReceived: staffRoles,
	events.KindPaymentFailed:   staffRoles,

	events.KindSystemAnnouncement: allRoles,
}

// DefaultRoles returns the default role allowlist for kind.
func DefaultRoles(kind events.Kind) []auth.Role {
	return defaultRoles[kind]
}
