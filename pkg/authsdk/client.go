package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the tellerauth service. Unauthenticated flows hang
// directly off the Client; flows that need a session token take it from the
// Token field, which the login helpers populate.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token is the bearer session token for authenticated operations. It is
	// set automatically by Register, Login, VerifyTwoFactor and VerifyOTP.
	Token string
}

// NewClient creates a new auth service client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a new account and stores the issued session token on the
// client for subsequent authenticated calls.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", "", req)
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	c.Token = out.Token
	return &out, nil
}

// Login authenticates with email and password. When the account has 2FA
// enabled the returned error is a *TwoFactorRequiredError and the caller
// must complete the login with VerifyTwoFactor.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", "", LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	c.Token = out.Token
	return &out, nil
}

// VerifyTwoFactor completes a 2FA-gated login with a TOTP or backup code.
func (c *Client) VerifyTwoFactor(ctx context.Context, req VerifyTwoFactorRequest) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/verify-2fa", "", req)
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	c.Token = out.Token
	return &out, nil
}

// SendOTP requests an email one-time code for the password-free login path.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/otp/send", "", SendOTPRequest{Email: email})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// VerifyOTP exchanges an email one-time code for a session token.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/otp/verify", "", VerifyOTPRequest{
		Email: email,
		Code:  code,
	})
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	c.Token = out.Token
	return &out, nil
}

// Me fetches the authenticated user's summary.
func (c *Client) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/auth/me", c.Token, nil)
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout acknowledges the end of the session. Tokens are stateless, so this
// simply clears the client-side token after the server acknowledges.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", c.Token, nil)
	if err != nil {
		return err
	}
	if err := decodeJSON(resp, nil, http.StatusOK); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

// ChangePassword rotates the account password after proving the current one.
func (c *Client) ChangePassword(ctx context.Context, current, updated string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/password", c.Token, ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     updated,
	})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// EnrollTOTP stages a TOTP secret for the authenticated user.
func (c *Client) EnrollTOTP(ctx context.Context) (*TOTPEnrollResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/mfa/totp/enroll", c.Token, nil)
	if err != nil {
		return nil, err
	}

	var out TOTPEnrollResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTOTP proves possession of the enrolled secret, enabling 2FA and
// returning the one-time view of the backup codes.
func (c *Client) VerifyTOTP(ctx context.Context, code string) (*BackupCodesResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/mfa/totp/verify", c.Token, TOTPVerifyRequest{Code: code})
	if err != nil {
		return nil, err
	}

	var out BackupCodesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegenerateBackupCodes replaces the recovery set after a TOTP check.
func (c *Client) RegenerateBackupCodes(ctx context.Context, code string) (*BackupCodesResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/mfa/backup-codes", c.Token, TOTPVerifyRequest{Code: code})
	if err != nil {
		return nil, err
	}

	var out BackupCodesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveTwoFactor disables 2FA after a TOTP check.
func (c *Client) RemoveTwoFactor(ctx context.Context, code string) error {
	resp, err := c.doJSON(ctx, http.MethodDelete, "/v1/mfa", c.Token, TOTPVerifyRequest{Code: code})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// GetLiveness reports whether the service is up.
func (c *Client) GetLiveness(ctx context.Context) error {
	resp, err := c.doJSON(ctx, http.MethodGet, "/livez", "", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// GetReadiness reports whether the service can reach its store.
func (c *Client) GetReadiness(ctx context.Context) error {
	resp, err := c.doJSON(ctx, http.MethodGet, "/readyz", "", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}
