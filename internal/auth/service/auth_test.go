package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/harborbank/tellerauth/internal/auth/domain"
	"github.com/harborbank/tellerauth/internal/auth/store/drivers/sqlite"
	"github.com/harborbank/tellerauth/pkg/cryptox"
	"github.com/harborbank/tellerauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSigner(t *testing.T) *jwtx.HS256 {
	t.Helper()

	signer, err := jwtx.NewHS256([]byte("test-secret"), "test-issuer")
	require.NoError(t, err)
	return signer
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	return &AuthService{
		Store:  newTestStore(t),
		Signer: newTestSigner(t),
		Issuer: "test-issuer",
	}
}

// registerUser creates an account and returns the stored user record.
func registerUser(t *testing.T, svc *AuthService, email, password string) domain.User {
	t.Helper()

	session, err := svc.Register(context.Background(), email, password, "Alice", "Smith")
	require.NoError(t, err)
	return session.User
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	reg, err := svc.Register(ctx, "Alice@Example.com", "correct horse battery", "Alice", "Smith")
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)
	require.Equal(t, jwtx.SessionTTL, reg.ExpiresIn)

	user := reg.User
	require.NotEmpty(t, user.ID)
	require.Equal(t, "alice@example.com", user.Email)
	require.NotEqual(t, "correct horse battery", user.PasswordHash)

	session, err := svc.Login(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, jwtx.SessionTTL, session.ExpiresIn)
	require.Equal(t, user.ID, session.User.ID)

	claims, err := svc.Signer.(*jwtx.HS256).Verify(session.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, "alice@example.com", claims.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	_, err := svc.Register(ctx, "alice@example.com", "password-one", "Alice", "Smith")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ALICE@example.com", "password-two", "Other", "Person")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	_, err := svc.Register(ctx, "alice@example.com", "right-password", "Alice", "Smith")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email yields the same error", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "right-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginStopsAtSecondFactor(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	user := registerUser(t, svc, "alice@example.com", "right-password")

	mfa := &MFAService{Store: svc.Store, Issuer: "test-issuer"}
	enrollAndEnable(t, mfa, user.ID)

	_, err := svc.Login(ctx, "alice@example.com", "right-password")

	var tfe *TwoFactorRequiredError
	require.ErrorAs(t, err, &tfe)
	require.Contains(t, tfe.Methods, "totp")
	require.Contains(t, tfe.Methods, "backup_code")

	// A wrong password must still fail before the factor list is revealed.
	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	user := registerUser(t, svc, "alice@example.com", "old-password")

	require.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "wrong-password", "new-password"), ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "old-password", "new-password"))

	_, err := svc.Login(ctx, "alice@example.com", "old-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "alice@example.com", "new-password")
	require.NoError(t, err)
}
