// Package auth defines the role set, the AuthToken carried over the
// WebSocket protocol, JWT-backed token constructors, and the static
// role-to-namespace permission table.
//
// Tokens are validated, never persisted.
package auth
