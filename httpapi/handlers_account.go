package httpapi

import (
	"errors"
	"net/http"

	tubeAuth "github.com/MrEthical07/tubeAuth"
	"github.com/MrEthical07/tubeAuth/middleware"
	"go.uber.org/zap"
)

func (h *Handler) healthcheck(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}
	writeSuccess(w, http.StatusOK, "", "Everything is working Fine.")
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.fail(w, r, "current_user", tubeAuth.ErrUnauthenticated)
		return
	}
	writeSuccess(w, http.StatusOK, newUserView(u), "Current user fetched successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// changePassword ends the session, so the token cookies are cleared on
// success.
func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.badRequest(w, r, "change_password", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, "change_password", err)
		return
	}

	id, _ := tubeAuth.IdentityFromContext(r.Context())
	err := h.engine.ChangePassword(r.Context(), id.UserID, req.OldPassword, req.NewPassword)
	if errors.Is(err, tubeAuth.ErrInvalidCredentials) {
		writeError(w, http.StatusBadRequest, "Invalid old password")
		return
	}
	if err != nil {
		h.fail(w, r, "change_password", err)
		return
	}

	h.clearTokenCookies(w)
	writeSuccess(w, http.StatusOK, struct{}{}, "Password changed successfully")
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"omitempty,max=128"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.badRequest(w, r, "update_account", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, "update_account", err)
		return
	}

	id, _ := tubeAuth.IdentityFromContext(r.Context())
	u, err := h.engine.UpdateProfile(r.Context(), id.UserID, tubeAuth.ProfileUpdate{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		h.fail(w, r, "update_account", err)
		return
	}
	writeSuccess(w, http.StatusOK, newUserView(u), "Account details updated successfully")
}
