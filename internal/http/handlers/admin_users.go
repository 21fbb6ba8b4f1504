package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const msgUserNotFound = "User not found"

type AdminUsersHandler struct {
	users UserStore
}

func NewAdminUsersHandler(users UserStore) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// GET /admin/users
func (h *AdminUsersHandler) List(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	users, err := h.users.List(cctx)
	if err != nil {
		failInternal(ctx, "Could not list users", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": user.PublicList(users)})
}

// PATCH /admin/users/:id/role
func (h *AdminUsersHandler) ChangeRole(ctx *gin.Context) {
	admin, ok := currentUser(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, msgUserNotFound)
	if !ok {
		return
	}

	var req user.ChangeRoleRequest
	if !BindJSON(ctx, &req) {
		return
	}

	role, valid := user.ParseRole(req.Role)
	if !valid {
		fields := apperr.ValidationFields{}
		fields.Add("role", "must be one of CUSTOMER, ORGANISER, ADMIN")
		fail(ctx, apperr.Validation(fields))
		return
	}

	// an admin demoting themselves could leave nobody able to undo it
	if id == admin.ID && role != user.RoleAdmin {
		fail(ctx, apperr.BadRequest("You cannot change your own role"))
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.SetRole(cctx, id, role)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			fail(ctx, apperr.NotFound(msgUserNotFound))
			return
		}
		failInternal(ctx, "Could not change role", err)
		return
	}

	ctx.JSON(http.StatusOK, u.Public())
}

// PATCH /admin/users/:id/status
func (h *AdminUsersHandler) SetStatus(ctx *gin.Context) {
	admin, ok := currentUser(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, msgUserNotFound)
	if !ok {
		return
	}

	var req user.SetStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if id == admin.ID && !*req.Active {
		fail(ctx, apperr.BadRequest("You cannot deactivate your own account"))
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.SetActive(cctx, id, *req.Active)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			fail(ctx, apperr.NotFound(msgUserNotFound))
			return
		}
		failInternal(ctx, "Could not update account status", err)
		return
	}

	ctx.JSON(http.StatusOK, u.Public())
}
