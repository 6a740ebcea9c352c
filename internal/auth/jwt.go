package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultTTL is the lifetime applied when a caller passes a zero ttl.
	DefaultTTL = 24 * time.Hour
	// GuestTTL is the fixed lifetime of guest tokens.
	GuestTTL = time.Hour
)

// claims is the JWT claim set backing a Token.
type claims struct {
	UserID    string `json:"userId"`
	Role      Role   `json:"role"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// Issuer constructs and parses signed tokens. It holds no state beyond the
// HMAC secret and an injected clock.
type Issuer struct {
	secret []byte
	clock  clockwork.Clock
}

// NewIssuer creates a token issuer signing with HMAC-SHA256.
func NewIssuer(secret string, clock clockwork.Clock) *Issuer {
	return &Issuer{secret: []byte(secret), clock: clock}
}

// Generate creates a signed token for the given identity. An empty sessionID
// gets a fresh uuid; a zero ttl falls back to DefaultTTL.
func (i *Issuer) Generate(userID string, role Role, sessionID string, ttl time.Duration) (Token, error) {
	if userID == "" {
		return Token{}, ErrMissingFields
	}
	if !ValidRole(role) {
		return Token{}, ErrUnknownRole
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return i.sign(userID, role, sessionID, i.clock.Now().Add(ttl))
}

// Refresh re-issues a valid token with a new expiry. The identity fields are
// preserved; an already-expired token cannot be refreshed.
func (i *Issuer) Refresh(t Token, ttl time.Duration) (Token, error) {
	if err := t.Validate(i.clock.Now()); err != nil {
		return Token{}, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return i.sign(t.UserID, t.Role, t.SessionID, i.clock.Now().Add(ttl))
}

// GuestToken creates a 1-hour token with a synthesized guest identity.
func (i *Issuer) GuestToken() (Token, error) {
	id := "guest_" + uuid.NewString()
	return i.sign(id, RoleGuest, uuid.NewString(), i.clock.Now().Add(GuestTTL))
}

// ParseSigned validates a compact JWT and returns the embedded token.
func (i *Issuer) ParseSigned(signed string) (Token, error) {
	var c claims
	token, err := jwt.ParseWithClaims(signed, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.clock.Now))
	if err != nil {
		return Token{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return Token{}, ErrExpired
	}
	var expiresAt int64
	if c.ExpiresAt != nil {
		expiresAt = c.ExpiresAt.Time.UnixMilli()
	}
	return Token{
		UserID:    c.UserID,
		Role:      c.Role,
		SessionID: c.SessionID,
		ExpiresAt: expiresAt,
		Signed:    signed,
	}, nil
}

func (i *Issuer) sign(userID string, role Role, sessionID string, expiresAt time.Time) (Token, error) {
	c := claims{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(i.clock.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		ExpiresAt: expiresAt.UnixMilli(),
		Signed:    signed,
	}, nil
}
