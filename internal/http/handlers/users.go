package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/security"
	"github.com/gin-gonic/gin"
)

type UsersHandler struct {
	users UserStore
}

func NewUsersHandler(users UserStore) *UsersHandler {
	return &UsersHandler{users: users}
}

// PUT /users/me
func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	identity, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.UpdateProfile(cctx, identity.ID, strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			fail(ctx, apperr.NotFound("User not found"))
			return
		}
		failInternal(ctx, "Could not update profile", err)
		return
	}

	ctx.JSON(http.StatusOK, u.Public())
}

// PUT /users/me/password
func (h *UsersHandler) ChangePassword(ctx *gin.Context) {
	identity, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req user.ChangePasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.GetByID(cctx, identity.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			fail(ctx, apperr.NotFound("User not found"))
			return
		}
		failInternal(ctx, "Could not change password", err)
		return
	}

	if !security.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		fields := apperr.ValidationFields{}
		fields.Add("currentPassword", "is incorrect")
		fail(ctx, apperr.Validation(fields))
		return
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		failInternal(ctx, "Could not change password", err)
		return
	}

	if err := h.users.UpdatePassword(cctx, u.ID, hash); err != nil {
		failInternal(ctx, "Could not change password", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
