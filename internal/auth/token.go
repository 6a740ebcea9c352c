package auth

import (
	"errors"
	"time"

	"github.com/apipat2499/omni-sales-realtime/internal/events"
)

// Role is the coarse permission class attached to an authenticated
// connection. It governs subscribable namespaces and default broadcast
// targeting.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
	RoleGuest    Role = "guest"
)

// Roles lists all known roles.
var Roles = []Role{RoleAdmin, RoleManager, RoleStaff, RoleCustomer, RoleGuest}

// ValidRole reports whether r is in the known role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleCustomer, RoleGuest:
		return true
	}
	return false
}

// roleNamespaces is the static permission table governing subscribe.
// Checked at subscribe time only, not re-validated per broadcast.
var roleNamespaces = map[Role][]events.Namespace{
	RoleAdmin:    {events.NamespaceOrders, events.NamespaceInventory, events.NamespaceProducts, events.NamespacePayments, events.NamespaceSystem},
	RoleManager:  {events.NamespaceOrders, events.NamespaceInventory, events.NamespaceProducts, events.NamespacePayments, events.NamespaceSystem},
	RoleStaff:    {events.NamespaceOrders, events.NamespaceInventory, events.NamespaceProducts, events.NamespaceSystem},
	RoleCustomer: {events.NamespaceOrders, events.NamespaceProducts, events.NamespaceSystem},
	RoleGuest:    {events.NamespaceSystem},
}

// RoleAllows reports whether role may subscribe to ns. Unknown roles are
// allowed nothing.
func RoleAllows(role Role, ns events.Namespace) bool {
	for _, allowed := range roleNamespaces[role] {
		if allowed == ns {
			return true
		}
	}
	return false
}

// AllowedNamespaces returns a copy of the namespace list role may subscribe to.
func AllowedNamespaces(role Role) []events.Namespace {
	allowed := roleNamespaces[role]
	out := make([]events.Namespace, len(allowed))
	copy(out, allowed)
	return out
}

// Token is the identity presented by a client in an auth message.
// ExpiresAt is epoch milliseconds.
type Token struct {
	UserID    string `json:"userId"`
	Role      Role   `json:"role"`
	SessionID string `json:"sessionId"`
	ExpiresAt int64  `json:"expiresAt"`

	// Signed optionally carries the compact JWT form instead of the raw
	// fields. When present it takes precedence.
	Signed string `json:"token,omitempty"`
}

// Validation failures. The connection stays open when these are returned;
// it simply remains unauthenticated.
var (
	ErrMissingFields = errors.New("auth token missing userId, role, or sessionId")
	ErrUnknownRole   = errors.New("auth token carries unknown role")
	ErrExpired       = errors.New("auth token expired")
)

// Validate checks the token fields against now. An expired token is always
// rejected regardless of other fields.
func (t Token) Validate(now time.Time) error {
	if t.ExpiresAt < now.UnixMilli() {
		return ErrExpired
	}
	if t.UserID == "" || t.Role == "" || t.SessionID == "" {
		return ErrMissingFields
	}
	if !ValidRole(t.Role) {
		return ErrUnknownRole
	}
	return nil
}
