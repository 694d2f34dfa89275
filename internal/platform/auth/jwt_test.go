package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceSessionRoundTrip(t *testing.T) {
	svc, err := NewTokenService("secret", "girthgov")
	require.NoError(t, err)

	token, err := svc.Issue("player-1", "wallet-abc", []string{RolePlayer}, time.Hour)
	require.NoError(t, err)

	wallet, err := svc.VerifySession("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "wallet-abc", wallet)

	_, err = svc.VerifyAdmin(token)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTokenServiceAdmin(t *testing.T) {
	svc, err := NewTokenService("secret", "girthgov")
	require.NoError(t, err)

	token, err := svc.Issue("admin-7", "", []string{RoleAdmin}, time.Hour)
	require.NoError(t, err)

	actor, err := svc.VerifyAdmin(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-7", actor)

	_, err = svc.VerifySession(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "admin tokens carry no wallet")
}

func TestTokenServiceRejectsExpiredAndForeignTokens(t *testing.T) {
	svc, err := NewTokenService("secret", "girthgov")
	require.NoError(t, err)
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue("player-1", "wallet-abc", nil, time.Minute)
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = svc.VerifySession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokenService("other-secret", "girthgov")
	require.NoError(t, err)
	foreign, err := other.Issue("player-1", "wallet-abc", nil, time.Hour)
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.VerifySession(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifySession("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(" ", "girthgov")
	assert.Error(t, err)
}
