package authsdk

// UserSummary is the caller-facing projection of a user record. Password
// hashes, 2FA secrets and live OTP challenges never appear here.
type UserSummary struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}

// RegisterRequest is the body for POST /v1/auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by every flow that ends in an authenticated
// session: register, login, verify-2fa and verify-otp.
type TokenResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

// AckResponse is the body for operations that succeed without a payload.
type AckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// UserResponse is returned by GET /v1/auth/me.
type UserResponse struct {
	Success bool        `json:"success"`
	User    UserSummary `json:"user"`
}

// ChangePasswordRequest is the body for POST /v1/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// TOTPEnrollResponse carries the staged authenticator enrollment. The secret
// and provisioning URI are shown once; 2FA is not enabled until the user
// proves possession via VerifyTOTP.
type TOTPEnrollResponse struct {
	Success    bool   `json:"success"`
	Secret     string `json:"secret"`      // Base32 encoded secret for the authenticator app
	OTPAuthURL string `json:"otpauth_url"` // otpauth:// URL for QR code generation
	Issuer     string `json:"issuer"`
	Account    string `json:"account"`
}

// TOTPVerifyRequest is the body for POST /v1/mfa/totp/verify, for
// POST /v1/mfa/backup-codes and for DELETE /v1/mfa.
type TOTPVerifyRequest struct {
	Code string `json:"code"`
}

// BackupCodesResponse returns plaintext recovery codes. This is the only time
// they are visible; the server keeps salted hashes.
type BackupCodesResponse struct {
	Success bool     `json:"success"`
	Codes   []string `json:"codes"`
}

// VerifyTwoFactorRequest is the body for POST /v1/auth/verify-2fa. When
// BackupCode is true the code is consumed from the recovery set instead of
// being checked against the authenticator.
type VerifyTwoFactorRequest struct {
	Email      string `json:"email"`
	Code       string `json:"code"`
	BackupCode bool   `json:"backup_code,omitempty"`
}

// SendOTPRequest is the body for POST /v1/auth/otp/send.
type SendOTPRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest is the body for POST /v1/auth/otp/verify.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// HealthChecks reports the status of each critical dependency.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// HealthResponse is returned by the /livez and /readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
