package http

import (
	"errors"
	"net/http"

	"github.com/harborbank/tellerauth/internal/auth/service"
	"github.com/harborbank/tellerauth/internal/auth/store"
	"github.com/harborbank/tellerauth/pkg/authsdk"
	"github.com/harborbank/tellerauth/pkg/httpx"
	"github.com/harborbank/tellerauth/pkg/slogx"
)

// UserInfoHandler serves the authenticated user's own record.
type UserInfoHandler struct {
	UserService *service.UserService
}

// HandleMe handles GET /v1/auth/me
//
//	@Summary		Current user
//	@Description	Returns the profile of the user the session token belongs to.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse	"Current user"
//	@Failure		401	{object}	authsdk.APIError		"Invalid or missing session token"
//	@Failure		404	{object}	authsdk.APIError		"User no longer exists"
//	@Failure		500	{object}	authsdk.APIError		"Internal server error"
//	@Router			/v1/auth/me [get].
func (h *UserInfoHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			authsdk.ErrUserNotFound.WriteError(w)
			return
		}
		log.Error("failed to load user", "user_id", userID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{
		Success: true,
		User:    userSummary(user),
	})
}
