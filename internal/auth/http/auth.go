package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harborbank/tellerauth/internal/auth/domain"
	"github.com/harborbank/tellerauth/internal/auth/service"
	"github.com/harborbank/tellerauth/pkg/authsdk"
	"github.com/harborbank/tellerauth/pkg/httpx"
	"github.com/harborbank/tellerauth/pkg/slogx"
)

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	AuthService *service.AuthService

	// DevMode disables the Secure cookie flag for plain-HTTP development.
	DevMode bool
}

// HandleRegister handles POST /v1/auth/register
//
//	@Summary		Register a new user
//	@Description	Creates a user account and issues a session token. The email must
//	@Description	not already be registered.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"New account details"
//	@Success		201		{object}	authsdk.TokenResponse	"Session token for the new user"
//	@Failure		400		{object}	authsdk.APIError		"Malformed request"
//	@Failure		409		{object}	authsdk.APIError		"Email already registered"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	session, err := h.AuthService.Register(ctx, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			authsdk.ErrEmailTaken.WriteError(w)
			return
		}
		log.Error("failed to register user", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	log.Info("user registered", "user_id", session.User.ID)
	writeSession(w, http.StatusCreated, session, h.DevMode)
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in with email and password
//	@Description	Issues a session token on success. When the account has a second factor
//	@Description	enabled the response is 409 with the available methods and no token is
//	@Description	issued until /v1/auth/verify-2fa completes.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest			true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse			"Session token"
//	@Failure		400		{object}	authsdk.APIError				"Malformed request"
//	@Failure		401		{object}	authsdk.APIError				"Invalid credentials"
//	@Failure		409		{object}	authsdk.TwoFactorRequiredError	"Second factor required"
//	@Failure		500		{object}	authsdk.APIError				"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	session, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		var tfe *service.TwoFactorRequiredError
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			authsdk.ErrInvalidCredentials.WriteError(w)
		case errors.As(err, &tfe):
			authsdk.NewTwoFactorRequiredError(tfe.Methods).WriteError(w)
		default:
			log.Error("login failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	writeSession(w, http.StatusOK, session, h.DevMode)
}

// HandleVerifyTwoFactor handles POST /v1/auth/verify-2fa
//
//	@Summary		Complete a two-factor login
//	@Description	Verifies a TOTP code, or consumes a single-use backup code when
//	@Description	backup_code is true, and issues a session token with an extended TTL.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyTwoFactorRequest	true	"Email plus second-factor proof"
//	@Success		200		{object}	authsdk.TokenResponse			"Session token"
//	@Failure		400		{object}	authsdk.APIError				"Malformed request or 2FA not enabled"
//	@Failure		401		{object}	authsdk.APIError				"Invalid code"
//	@Failure		500		{object}	authsdk.APIError				"Internal server error"
//	@Router			/v1/auth/verify-2fa [post].
func (h *AuthHandler) HandleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.VerifyTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	session, err := h.AuthService.VerifyTwoFactor(ctx, req.Email, req.Code, req.BackupCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			authsdk.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrTwoFactorNotEnabled):
			authsdk.ErrTwoFactorNotEnabled.WriteError(w)
		case errors.Is(err, service.ErrInvalidTOTPCode), errors.Is(err, service.ErrInvalidBackupCode):
			authsdk.ErrInvalidCode.WriteError(w)
		default:
			log.Error("two-factor verification failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	writeSession(w, http.StatusOK, session, h.DevMode)
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out
//	@Description	Clears the session cookie. Bearer tokens are stateless, so clients that
//	@Description	hold the token directly simply discard it.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.AckResponse	"Logged out"
//	@Failure		401	{object}	authsdk.APIError	"Invalid or missing session token"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.DevMode,
		SameSite: http.SameSiteStrictMode,
	})

	httpx.WriteJSON(w, http.StatusOK, authsdk.AckResponse{
		Success: true,
		Message: "logged out",
	})
}

// HandleChangePassword handles POST /v1/auth/password
//
//	@Summary		Change password
//	@Description	Replaces the password after verifying the current one.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		200		{object}	authsdk.AckResponse				"Password changed"
//	@Failure		400		{object}	authsdk.APIError				"Malformed request"
//	@Failure		401		{object}	authsdk.APIError				"Wrong current password"
//	@Failure		500		{object}	authsdk.APIError				"Internal server error"
//	@Router			/v1/auth/password [post].
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.NewPassword == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.AuthService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			authsdk.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrUserNotFound):
			authsdk.ErrUserNotFound.WriteError(w)
		default:
			log.Error("failed to change password", "user_id", userID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	log.Info("password changed", "user_id", userID)
	httpx.WriteJSON(w, http.StatusOK, authsdk.AckResponse{
		Success: true,
		Message: "password changed",
	})
}

// writeSession sends the token response and mirrors the token into an
// http-only cookie for browser clients.
func writeSession(w http.ResponseWriter, status int, session domain.Session, devMode bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(session.ExpiresIn.Seconds()),
		HttpOnly: true,
		Secure:   !devMode,
		SameSite: http.SameSiteStrictMode,
	})

	httpx.NoCache(w)
	httpx.WriteJSON(w, status, authsdk.TokenResponse{
		Success: true,
		Token:   session.Token,
		User:    userSummary(session.User),
	})
}

func userSummary(u domain.User) authsdk.UserSummary {
	return authsdk.UserSummary{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		TwoFactorEnabled: u.HasTwoFactor(),
	}
}
