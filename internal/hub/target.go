package hub

import (
	"github.com/google/uuid"

	"github.com/apipat2499/omni-sales-realtime/internal/auth"
	"github.com/apipat2499/omni-sales-realtime/internal/events"
)

// Target is the transient selection criteria for one broadcast.
// Empty filters match everything; exclusions always apply.
type Target struct {
	// Namespace restricts delivery to connections subscribed to it.
	Namespace events.Namespace
	// Users is a user-id allowlist.
	Users []string
	// Roles is a role allowlist, matched against the effective role
	// (guest for unauthenticated connections).
	Roles []auth.Role
	// DirectUsers receive the event even without a matching subscription,
	// so the affected party is never missed. Exclusions still apply.
	DirectUsers []string
	// ExcludeUsers removes user ids from the delivery set.
	ExcludeUsers []string
	// ExcludeConnection removes a single connection from the delivery set.
	ExcludeConnection uuid.UUID
}

// matches applies the broadcast predicate to one connection. Direct per-user
// delivery is ORed in so each connection is evaluated exactly once per emit,
// which also deduplicates the role-broadcast and direct copies.
func (t Target) matches(c *connection) bool {
	if c.id == t.ExcludeConnection {
		return false
	}
	for _, u := range t.ExcludeUsers {
		if c.authenticated && c.userID == u {
			return false
		}
	}

	if c.authenticated {
		for _, u := range t.DirectUsers {
			if c.userID == u {
				return true
			}
		}
	}

	if t.Namespace != "" && !c.subscribed(t.Namespace) {
		return false
	}
	if len(t.Users) > 0 {
		if !c.authenticated || !containsString(t.Users, c.userID) {
			return false
		}
	}
	if len(t.Roles) > 0 && !containsRole(t.Roles, c.effectiveRole()) {
		return false
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsRole(list []auth.Role, v auth.Role) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
