package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/harborbank/tellerauth/pkg/httpx"
)

// APIError is the stable error envelope every endpoint returns on failure:
//
//	{"success": false, "error": "<message>"}
//
// It implements the error interface and is used both by the server (to write
// HTTP responses) and by the SDK client (to represent errors).
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Success is always false for errors.
	Success bool `json:"success"`

	// Message is the caller-facing error description. Internal detail never
	// leaks here; it is logged server-side only.
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// Predefined API errors.
var (
	// ErrInvalidRequest is returned when the request body is malformed or
	// missing required fields. User-correctable.
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "the request is malformed or missing required fields",
	}

	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike, so callers cannot enumerate registered accounts.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    "invalid email or password",
	}

	// ErrInvalidToken is returned when the session token is missing, invalid
	// or expired.
	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    "the session token is missing, invalid or expired",
	}

	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Message:    "user not found",
	}

	// ErrEmailTaken is returned when registering an already-registered email.
	ErrEmailTaken = &APIError{
		StatusCode: http.StatusConflict,
		Message:    "email already registered",
	}

	// ErrTwoFactorNotEnabled is returned when a second-factor operation is
	// attempted for a user without 2FA.
	ErrTwoFactorNotEnabled = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "two-factor authentication is not enabled",
	}

	// ErrTwoFactorAlreadyEnabled is returned when enrolling while 2FA is on.
	ErrTwoFactorAlreadyEnabled = &APIError{
		StatusCode: http.StatusConflict,
		Message:    "two-factor authentication is already enabled",
	}

	// ErrInvalidCode is returned for a failed TOTP, backup-code or OTP check.
	ErrInvalidCode = &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    "invalid verification code",
	}

	// ErrNoChallenge is returned when verifying an email OTP that was never
	// requested (or was already consumed).
	ErrNoChallenge = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "no verification code was requested",
	}

	// ErrChallengeExpired is returned when the email OTP has passed its
	// 10-minute validity window.
	ErrChallengeExpired = &APIError{
		StatusCode: http.StatusGone,
		Message:    "verification code has expired, request a new one",
	}

	// ErrServerError hides any unexpected internal failure.
	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Message:    "internal server error",
	}
)

// TwoFactorRequiredError is returned when a password login is correct but the
// account has 2FA enabled: the flow stops at the pending state and no token
// is issued until the second factor is verified. HTTP 409 because the request
// is valid but conflicts with the account's 2FA state.
type TwoFactorRequiredError struct {
	Success bool     `json:"success"`
	Message string   `json:"error"`
	Methods []string `json:"methods"`
}

// NewTwoFactorRequiredError builds the challenge response listing the
// second-factor methods the user can complete the login with.
func NewTwoFactorRequiredError(methods []string) *TwoFactorRequiredError {
	return &TwoFactorRequiredError{
		Message: "two-factor authentication required",
		Methods: methods,
	}
}

// Error implements the error interface.
func (e *TwoFactorRequiredError) Error() string {
	return fmt.Sprintf("two-factor authentication required: methods=%v", e.Methods)
}

// WriteError writes the challenge as a 409 Conflict in the standard envelope.
func (e *TwoFactorRequiredError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(e)
}
