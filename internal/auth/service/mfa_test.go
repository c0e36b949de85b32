package service

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/harborbank/tellerauth/pkg/jwtx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// enrollAndEnable walks a user through TOTP enrolment and verification,
// returning the issued backup codes and the shared secret.
func enrollAndEnable(t *testing.T, mfa *MFAService, userID string) ([]string, string) {
	t.Helper()
	ctx := context.Background()

	enrollment, err := mfa.EnrollTOTP(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.OTPAuthURL, "otpauth://totp/")

	code, err := totp.GenerateCode(enrollment.Secret, time.Now().UTC())
	require.NoError(t, err)

	backupCodes, err := mfa.VerifyTOTP(ctx, userID, code)
	require.NoError(t, err)
	require.Len(t, backupCodes, backupCodeCount)

	return backupCodes, enrollment.Secret
}

func TestTOTPEnrollmentLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	mfa := &MFAService{Store: svc.Store, Issuer: "test-issuer"}

	user := registerUser(t, svc, "alice@example.com", "password")

	t.Run("verify before enroll fails", func(t *testing.T) {
		_, err := mfa.VerifyTOTP(ctx, user.ID, "000000")
		require.ErrorIs(t, err, ErrTwoFactorNotEnrolled)
	})

	backupCodes, _ := enrollAndEnable(t, mfa, user.ID)

	codePattern := regexp.MustCompile(`^[0-9A-F]{8}$`)
	for _, code := range backupCodes {
		require.Regexp(t, codePattern, code)
	}

	t.Run("second enrolment rejected while enabled", func(t *testing.T) {
		_, err := mfa.EnrollTOTP(ctx, user.ID)
		require.ErrorIs(t, err, ErrTwoFactorAlreadyEnabled)
	})

	updated, err := svc.Store.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, updated.HasTwoFactor())
}

func TestVerifyTOTPRejectsWrongCode(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	mfa := &MFAService{Store: svc.Store, Issuer: "test-issuer"}

	user := registerUser(t, svc, "alice@example.com", "password")

	_, err := mfa.EnrollTOTP(ctx, user.ID)
	require.NoError(t, err)

	_, err = mfa.VerifyTOTP(ctx, user.ID, "000000")
	require.ErrorIs(t, err, ErrInvalidTOTPCode)

	// Failed verification must not enable 2FA.
	updated, err := svc.Store.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, updated.HasTwoFactor())
}

func TestTOTPAcceptsAdjacentStep(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	mfa := &MFAService{Store: svc.Store, Issuer: "test-issuer"}

	user := registerUser(t, svc, "alice@example.com", "password")

	enrollment, err := mfa.EnrollTOTP(ctx, user.ID)
	require.NoError(t, err)

	// A code from the previous 30 second step is within the allowed skew.
	code, err := totp.GenerateCode(enrollment.Secret, time.Now().UTC().Add(-30*time.Second))
	require.NoError(t, err)

	_, err = mfa.VerifyTOTP(ctx, user.ID, code)
	require.NoError(t, err)

	// Two steps back is outside the window.
	stale, err := totp.GenerateCode(enrollment.Secret, time.Now().UTC().Add(-90*time.Second))
	require.NoError(t, err)
	require.False(t, validTOTPCode(stale, enrollment.Secret))
}

func TestBackupCodeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	mfa := &MFAService{Store: svc.Store, Issuer: "test-issuer"}

	user := registerUser(t, svc, "alice@example.com", "password")

	backupCodes, _ := enrollAndEnable(t, mfa, user.ID)

	session, err := svc.VerifyTwoFactor(ctx, user.Email, backupCodes[0], true)
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, jwtx.TwoFactorSessionTTL, session.ExpiresIn)

	// Same code again must fail: the row was deleted on redemption.
	_, err = svc.VerifyTwoFactor(ctx, user.Email, backupCodes[0], true)
	require.ErrorIs(t, err, ErrInvalidBackupCode)

	// The remaining codes are untouched.
	count, err := svc.Store.BackupCodes().CountUserBackupCodes(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, backupCodeCount-1, count)
}

func TestBackupCodeNormalization(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	mfa := &MFAService{Store: svc.Store, Issuer: "test-issuer"}

	user := registerUser(t, svc, "alice@example.com", "password")

	backupCodes, _ := enrollAndEnable(t, mfa, user.ID)

	// Lowercase with stray whitespace still redeems: codes are normalized
	// before comparison.
	sloppy := "  " + strings.ToLower(backupCodes[0]) + " "
	_, err := svc.VerifyTwoFactor(ctx, user.Email, sloppy, true)
	require.NoError(t, err)
}

func TestVerifyTwoFactorWithTOTP(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	mfa := &MFAService{Store: svc.Store, Issuer: "test-issuer"}

	user := registerUser(t, svc, "alice@example.com", "password")

	_, secret := enrollAndEnable(t, mfa, user.ID)

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)

	session, err := svc.VerifyTwoFactor(ctx, user.Email, code, false)
	require.NoError(t, err)
	require.Equal(t, jwtx.TwoFactorSessionTTL, session.ExpiresIn)

	_, err = svc.VerifyTwoFactor(ctx, user.Email, "000000", false)
	require.ErrorIs(t, err, ErrInvalidTOTPCode)
}

func TestRegenerateBackupCodesReplacesAll(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	mfa := &MFAService{Store: svc.Store, Issuer: "test-issuer"}

	user := registerUser(t, svc, "alice@example.com", "password")

	oldCodes, secret := enrollAndEnable(t, mfa, user.ID)

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)

	newCodes, err := mfa.RegenerateBackupCodes(ctx, user.ID, code)
	require.NoError(t, err)
	require.Len(t, newCodes, backupCodeCount)

	// Old codes are dead.
	_, err = svc.VerifyTwoFactor(ctx, user.Email, oldCodes[0], true)
	require.ErrorIs(t, err, ErrInvalidBackupCode)

	// New codes work.
	_, err = svc.VerifyTwoFactor(ctx, user.Email, newCodes[0], true)
	require.NoError(t, err)
}

func TestRemoveTwoFactor(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	mfa := &MFAService{Store: svc.Store, Issuer: "test-issuer"}

	user := registerUser(t, svc, "alice@example.com", "password")

	_, secret := enrollAndEnable(t, mfa, user.ID)

	require.ErrorIs(t, mfa.RemoveTwoFactor(ctx, user.ID, "000000"), ErrInvalidTOTPCode)

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, mfa.RemoveTwoFactor(ctx, user.ID, code))

	updated, err := svc.Store.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, updated.HasTwoFactor())
	require.Nil(t, updated.TwoFactorSecret)

	count, err := svc.Store.BackupCodes().CountUserBackupCodes(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	// Login no longer stops at the second factor.
	_, err = svc.Login(ctx, "alice@example.com", "password")
	require.NoError(t, err)
}
