package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harborbank/tellerauth/internal/auth/service"
	"github.com/harborbank/tellerauth/pkg/authsdk"
	"github.com/harborbank/tellerauth/pkg/httpx"
	"github.com/harborbank/tellerauth/pkg/slogx"
)

// OTPHandler handles the email one-time-code login endpoints.
type OTPHandler struct {
	OTPService *service.OTPService
	DevMode    bool
}

// HandleSend handles POST /v1/auth/otp/send
//
//	@Summary		Send a login code by email
//	@Description	Emails a six digit code valid for ten minutes. The response is the same
//	@Description	acknowledgement whether or not the email is registered.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SendOTPRequest	true	"Recipient email"
//	@Success		200		{object}	authsdk.AckResponse		"Code sent if the account exists"
//	@Failure		400		{object}	authsdk.APIError		"Malformed request"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/v1/auth/otp/send [post].
func (h *OTPHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Email == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.OTPService.Issue(ctx, req.Email)
	if err != nil && !errors.Is(err, service.ErrUserNotFound) {
		log.Error("failed to issue OTP", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	// Unknown emails get the same acknowledgement so the endpoint cannot be
	// used to probe which addresses are registered.
	httpx.WriteJSON(w, http.StatusOK, authsdk.AckResponse{
		Success: true,
		Message: "verification code sent",
	})
}

// HandleVerify handles POST /v1/auth/otp/verify
//
//	@Summary		Verify an emailed login code
//	@Description	Redeems an emailed code and issues a session token. Expired codes are
//	@Description	discarded on sight; a mistyped code may be retried until it expires.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyOTPRequest	true	"Email and code"
//	@Success		200		{object}	authsdk.TokenResponse		"Session token"
//	@Failure		400		{object}	authsdk.APIError			"Malformed request or no active code"
//	@Failure		401		{object}	authsdk.APIError			"Wrong code"
//	@Failure		410		{object}	authsdk.APIError			"Code expired"
//	@Failure		500		{object}	authsdk.APIError			"Internal server error"
//	@Router			/v1/auth/otp/verify [post].
func (h *OTPHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	session, err := h.OTPService.Verify(ctx, req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoChallenge):
			authsdk.ErrNoChallenge.WriteError(w)
		case errors.Is(err, service.ErrChallengeExpired):
			authsdk.ErrChallengeExpired.WriteError(w)
		case errors.Is(err, service.ErrInvalidOTPCode):
			authsdk.ErrInvalidCode.WriteError(w)
		default:
			log.Error("OTP verification failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	writeSession(w, http.StatusOK, session, h.DevMode)
}
