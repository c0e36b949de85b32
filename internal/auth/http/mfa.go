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

// MFAHandler handles the authenticator enrolment and management endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll handles POST /v1/mfa/totp/enroll
//
//	@Summary		Enroll an authenticator
//	@Description	Generates a TOTP secret for the authenticated user and returns it with an
//	@Description	otpauth:// URL. 2FA stays off until a code is verified.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TOTPEnrollResponse	"Secret and otpauth URL"
//	@Failure		401	{object}	authsdk.APIError			"Invalid or missing session token"
//	@Failure		409	{object}	authsdk.APIError			"2FA already enabled"
//	@Failure		500	{object}	authsdk.APIError			"Internal server error"
//	@Router			/v1/mfa/totp/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	enrollment, err := h.MFAService.EnrollTOTP(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrTwoFactorAlreadyEnabled) {
			authsdk.ErrTwoFactorAlreadyEnabled.WriteError(w)
			return
		}
		log.Error("failed to enroll TOTP", "user_id", userID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPEnrollResponse{
		Success:    true,
		Secret:     enrollment.Secret,
		OTPAuthURL: enrollment.OTPAuthURL,
		Issuer:     enrollment.Issuer,
		Account:    enrollment.Account,
	})
}

// HandleVerify handles POST /v1/mfa/totp/verify
//
//	@Summary		Verify the authenticator and enable 2FA
//	@Description	Checks a TOTP code against the staged secret. On success 2FA is enabled
//	@Description	and the backup codes are returned, shown exactly once.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TOTPVerifyRequest	true	"TOTP code"
//	@Success		200		{object}	authsdk.BackupCodesResponse	"Backup codes (shown once)"
//	@Failure		400		{object}	authsdk.APIError			"Malformed request or not enrolled"
//	@Failure		401		{object}	authsdk.APIError			"Invalid code"
//	@Failure		409		{object}	authsdk.APIError			"2FA already enabled"
//	@Failure		500		{object}	authsdk.APIError			"Internal server error"
//	@Router			/v1/mfa/totp/verify [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.TOTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	backupCodes, err := h.MFAService.VerifyTOTP(ctx, userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTwoFactorNotEnrolled):
			authsdk.ErrTwoFactorNotEnabled.WriteError(w)
		case errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
			authsdk.ErrTwoFactorAlreadyEnabled.WriteError(w)
		case errors.Is(err, service.ErrInvalidTOTPCode):
			authsdk.ErrInvalidCode.WriteError(w)
		default:
			log.Error("failed to verify TOTP", "user_id", userID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	log.Info("two-factor enabled", "user_id", userID)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.BackupCodesResponse{
		Success: true,
		Codes:   backupCodes,
	})
}

// HandleRegenerateBackupCodes handles POST /v1/mfa/backup-codes
//
//	@Summary		Regenerate backup codes
//	@Description	Replaces every stored backup code after verifying a fresh TOTP code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TOTPVerifyRequest	true	"TOTP code"
//	@Success		200		{object}	authsdk.BackupCodesResponse	"New backup codes (shown once)"
//	@Failure		400		{object}	authsdk.APIError			"Malformed request or 2FA not enabled"
//	@Failure		401		{object}	authsdk.APIError			"Invalid code"
//	@Failure		500		{object}	authsdk.APIError			"Internal server error"
//	@Router			/v1/mfa/backup-codes [post].
func (h *MFAHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.TOTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	backupCodes, err := h.MFAService.RegenerateBackupCodes(ctx, userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTwoFactorNotEnabled):
			authsdk.ErrTwoFactorNotEnabled.WriteError(w)
		case errors.Is(err, service.ErrInvalidTOTPCode):
			authsdk.ErrInvalidCode.WriteError(w)
		default:
			log.Error("failed to regenerate backup codes", "user_id", userID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	log.Info("backup codes regenerated", "user_id", userID)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.BackupCodesResponse{
		Success: true,
		Codes:   backupCodes,
	})
}

// HandleRemove handles DELETE /v1/mfa
//
//	@Summary		Disable two-factor authentication
//	@Description	Disables 2FA and deletes the backup codes after verifying a TOTP code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TOTPVerifyRequest	true	"TOTP code"
//	@Success		200		{object}	authsdk.AckResponse			"2FA disabled"
//	@Failure		400		{object}	authsdk.APIError			"Malformed request or 2FA not enabled"
//	@Failure		401		{object}	authsdk.APIError			"Invalid code"
//	@Failure		500		{object}	authsdk.APIError			"Internal server error"
//	@Router			/v1/mfa [delete].
func (h *MFAHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.TOTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.MFAService.RemoveTwoFactor(ctx, userID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrTwoFactorNotEnabled):
			authsdk.ErrTwoFactorNotEnabled.WriteError(w)
		case errors.Is(err, service.ErrInvalidTOTPCode):
			authsdk.ErrInvalidCode.WriteError(w)
		default:
			log.Error("failed to disable two-factor", "user_id", userID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	log.Info("two-factor disabled", "user_id", userID)
	httpx.WriteJSON(w, http.StatusOK, authsdk.AckResponse{
		Success: true,
		Message: "two-factor authentication disabled",
	})
}
