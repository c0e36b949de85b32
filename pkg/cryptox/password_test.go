package cryptox_test

import (
	"testing"

	"github.com/harborbank/tellerauth/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := cryptox.HashPassword("Correct-Horse-42")
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$v=19$")

	require.NoError(t, cryptox.VerifyPassword("Correct-Horse-42", hash))
	require.ErrorIs(t, cryptox.VerifyPassword("wrong-password", hash), cryptox.ErrMismatch)
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := cryptox.HashPassword("same-input")
	require.NoError(t, err)
	second, err := cryptox.HashPassword("same-input")
	require.NoError(t, err)

	// Salted hashes of the same input must differ.
	require.NotEqual(t, first, second)
	require.NoError(t, cryptox.VerifyPassword("same-input", first))
	require.NoError(t, cryptox.VerifyPassword("same-input", second))
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	t.Run("empty digest", func(t *testing.T) {
		require.Error(t, cryptox.VerifyPassword("anything", ""))
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		require.Error(t, cryptox.VerifyPassword("anything", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"))
	})

	t.Run("garbage", func(t *testing.T) {
		require.Error(t, cryptox.VerifyPassword("anything", "not-a-phc-string"))
	})

	t.Run("bad base64 salt", func(t *testing.T) {
		require.Error(t, cryptox.VerifyPassword("anything", "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA"))
	})
}
