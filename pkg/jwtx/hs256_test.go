package jwtx_test

import (
	"testing"
	"time"

	"github.com/harborbank/tellerauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "tellerauth-test"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewHS256RequiresSecret(t *testing.T) {
	_, err := jwtx.NewHS256(nil, testIssuer)
	require.Error(t, err)

	_, err = jwtx.NewHS256([]byte{}, testIssuer)
	require.Error(t, err)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	h, err := jwtx.NewHS256(testSecret, testIssuer)
	require.NoError(t, err)

	claims := jwtx.NewSessionClaims(
		"01J0USER", "alice@example.com", "Alice", "Smith",
		jwtx.SessionTTL, testIssuer, time.Now().UTC(),
	)

	token, err := h.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "01J0USER", got.Subject)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, "Alice", got.FirstName)
	require.NotEmpty(t, got.ID, "jti should be set")
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, err := jwtx.NewHS256(testSecret, testIssuer)
	require.NoError(t, err)
	other, err := jwtx.NewHS256([]byte("another-secret-entirely-32-bytes"), testIssuer)
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewSessionClaims(
		"u1", "a@b.c", "", "", jwtx.SessionTTL, testIssuer, time.Now().UTC(),
	))
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerifyRejectsExpired(t *testing.T) {
	h, err := jwtx.NewHS256(testSecret, testIssuer)
	require.NoError(t, err)

	// Issued two hours ago with a one hour TTL.
	claims := jwtx.NewSessionClaims(
		"u1", "a@b.c", "", "", time.Hour, testIssuer,
		time.Now().UTC().Add(-2*time.Hour),
	)
	token, err := h.Sign(claims)
	require.NoError(t, err)

	_, err = h.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	h, err := jwtx.NewHS256(testSecret, testIssuer)
	require.NoError(t, err)

	_, err = h.Verify("definitely.not.a-jwt")
	require.ErrorIs(t, err, jwtx.ErrMalformed)

	_, err = h.Verify("")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	signer, err := jwtx.NewHS256(testSecret, "someone-else")
	require.NoError(t, err)
	verifier, err := jwtx.NewHS256(testSecret, testIssuer)
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewSessionClaims(
		"u1", "a@b.c", "", "", jwtx.SessionTTL, "someone-else", time.Now().UTC(),
	))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}
