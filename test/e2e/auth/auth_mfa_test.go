package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/harborbank/tellerauth/pkg/authsdk"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// enrollTwoFactor enrolls and verifies an authenticator for the client's
// user, returning the TOTP secret and the issued backup codes.
func enrollTwoFactor(t *testing.T, client *authsdk.Client) (string, []string) {
	t.Helper()

	enroll, err := client.EnrollTOTP(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, enroll.Secret)
	require.Contains(t, enroll.OTPAuthURL, "otpauth://totp/")

	code, err := totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)

	codes, err := client.VerifyTOTP(t.Context(), code)
	require.NoError(t, err)
	require.Len(t, codes.Codes, 8)

	return enroll.Secret, codes.Codes
}

// TestTwoFactorEnrollmentAndLogin walks the full authenticator flow: enroll,
// verify, then log in through the 2FA challenge.
func TestTwoFactorEnrollmentAndLogin(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := loginUser(t, baseURL, "alice@example.com")
	secret, _ := enrollTwoFactor(t, client)

	// Password login now stops at the second factor.
	fresh := authsdk.NewClient(baseURL)
	_, err := fresh.Login(t.Context(), "alice@example.com", testPassword)

	var challenge *authsdk.TwoFactorRequiredError
	require.ErrorAs(t, err, &challenge)
	require.Contains(t, challenge.Methods, "totp")
	require.Contains(t, challenge.Methods, "backup_code")

	// Complete with a TOTP code.
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	session, err := fresh.VerifyTwoFactor(t.Context(), authsdk.VerifyTwoFactorRequest{
		Email: "alice@example.com",
		Code:  code,
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.True(t, session.User.TwoFactorEnabled)

	me, err := fresh.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", me.User.Email)
}

func TestBackupCodeLoginIsSingleUse(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := loginUser(t, baseURL, "alice@example.com")
	_, backupCodes := enrollTwoFactor(t, client)

	fresh := authsdk.NewClient(baseURL)
	_, err := fresh.Login(t.Context(), "alice@example.com", testPassword)
	var challenge *authsdk.TwoFactorRequiredError
	require.ErrorAs(t, err, &challenge)

	req := authsdk.VerifyTwoFactorRequest{
		Email:      "alice@example.com",
		Code:       backupCodes[0],
		BackupCode: true,
	}

	_, err = fresh.VerifyTwoFactor(t.Context(), req)
	require.NoError(t, err)

	// The same code is dead on the second attempt.
	_, err = fresh.VerifyTwoFactor(t.Context(), req)
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestRegenerateBackupCodes(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := loginUser(t, baseURL, "alice@example.com")
	secret, oldCodes := enrollTwoFactor(t, client)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	regen, err := client.RegenerateBackupCodes(t.Context(), code)
	require.NoError(t, err)
	require.Len(t, regen.Codes, 8)

	// Old codes no longer redeem.
	_, err = client.VerifyTwoFactor(t.Context(), authsdk.VerifyTwoFactorRequest{
		Email:      "alice@example.com",
		Code:       oldCodes[0],
		BackupCode: true,
	})
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestRemoveTwoFactor(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := loginUser(t, baseURL, "alice@example.com")
	secret, _ := enrollTwoFactor(t, client)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, client.RemoveTwoFactor(t.Context(), code))

	// Password login goes straight through again.
	fresh := authsdk.NewClient(baseURL)
	session, err := fresh.Login(t.Context(), "alice@example.com", testPassword)
	require.NoError(t, err)
	require.False(t, session.User.TwoFactorEnabled)
}

func TestEnrollRequiresAuthentication(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)
	_, err := client.EnrollTOTP(t.Context())

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
