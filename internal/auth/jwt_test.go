package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "issuer-test-secret-0123456789"

func TestIssuer_GenerateAndParseRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	issuer := NewIssuer(testSecret, clock)

	token, err := issuer.Generate("u1", RoleManager, "s1", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Signed)
	assert.Equal(t, clock.Now().Add(time.Hour).UnixMilli(), token.ExpiresAt)

	parsed, err := issuer.ParseSigned(token.Signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.UserID)
	assert.Equal(t, RoleManager, parsed.Role)
	assert.Equal(t, "s1", parsed.SessionID)
	assert.NoError(t, parsed.Validate(clock.Now()))
}

func TestIssuer_GenerateDefaults(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	issuer := NewIssuer(testSecret, clock)

	token, err := issuer.Generate("u1", RoleAdmin, "", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, token.SessionID)
	assert.Equal(t, clock.Now().Add(DefaultTTL).UnixMilli(), token.ExpiresAt)
}

func TestIssuer_GenerateRejectsBadIdentity(t *testing.T) {
	issuer := NewIssuer(testSecret, clockwork.NewRealClock())

	_, err := issuer.Generate("", RoleAdmin, "s1", time.Hour)
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = issuer.Generate("u1", "superuser", "s1", time.Hour)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestIssuer_ParseRejectsExpired(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	issuer := NewIssuer(testSecret, clock)

	token, err := issuer.Generate("u1", RoleStaff, "s1", time.Hour)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	_, err = issuer.ParseSigned(token.Signed)
	require.Error(t, err)
}

func TestIssuer_ParseRejectsWrongSecret(t *testing.T) {
	clock := clockwork.NewRealClock()
	issuer := NewIssuer(testSecret, clock)
	other := NewIssuer("a-completely-different-secret", clock)

	token, err := issuer.Generate("u1", RoleStaff, "s1", time.Hour)
	require.NoError(t, err)

	_, err = other.ParseSigned(token.Signed)
	require.Error(t, err)
}

func TestIssuer_ParseRejectsTamperedToken(t *testing.T) {
	issuer := NewIssuer(testSecret, clockwork.NewRealClock())

	token, err := issuer.Generate("u1", RoleCustomer, "s1", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token.Signed, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	_, err = issuer.ParseSigned(tampered)
	require.Error(t, err)
}

func TestIssuer_Refresh(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	issuer := NewIssuer(testSecret, clock)

	token, err := issuer.Generate("u1", RoleCustomer, "s1", time.Hour)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)

	refreshed, err := issuer.Refresh(token, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, token.UserID, refreshed.UserID)
	assert.Equal(t, token.Role, refreshed.Role)
	assert.Equal(t, token.SessionID, refreshed.SessionID)
	assert.Equal(t, clock.Now().Add(time.Hour).UnixMilli(), refreshed.ExpiresAt)
}

func TestIssuer_RefreshRejectsExpired(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	issuer := NewIssuer(testSecret, clock)

	token, err := issuer.Generate("u1", RoleCustomer, "s1", time.Hour)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	_, err = issuer.Refresh(token, time.Hour)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestIssuer_GuestToken(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	issuer := NewIssuer(testSecret, clock)

	token, err := issuer.GuestToken()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token.UserID, "guest_"))
	assert.Equal(t, RoleGuest, token.Role)
	assert.NotEmpty(t, token.SessionID)
	assert.Equal(t, clock.Now().Add(GuestTTL).UnixMilli(), token.ExpiresAt)

	second, err := issuer.GuestToken()
	require.NoError(t, err)
	assert.NotEqual(t, token.UserID, second.UserID)
}
