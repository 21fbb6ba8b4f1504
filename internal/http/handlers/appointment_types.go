package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/geocoder89/bookinghub/internal/cache"
	"github.com/geocoder89/bookinghub/internal/domain/appointment"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	msgTypeNotFound = "Appointment type not found"
	msgNotTypeOwner = "You can only manage your own appointment types"
)

type AppointmentTypesHandler struct {
	repo  AppointmentTypeStore
	byID  *cache.Cache[appointment.Type]
	lists *cache.Cache[[]appointment.Type]
}

func NewAppointmentTypesHandler(repo AppointmentTypeStore, ttl time.Duration) *AppointmentTypesHandler {
	return &AppointmentTypesHandler{
		repo:  repo,
		byID:  cache.New[appointment.Type](ttl),
		lists: cache.New[[]appointment.Type](ttl),
	}
}

func (h *AppointmentTypesHandler) invalidate(id string) {
	h.byID.Delete(utils.AppointmentTypeCacheKey(id))
	h.lists.Delete(utils.AppointmentTypesListCacheKey)
}

// GET /appointment-types
func (h *AppointmentTypesHandler) List(ctx *gin.Context) {
	if items, ok := h.lists.Get(utils.AppointmentTypesListCacheKey); ok {
		RespondJSONWithETag(ctx, http.StatusOK, gin.H{"items": items})
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.repo.ListActive(cctx)
	if err != nil {
		failInternal(ctx, "Could not list appointment types", err)
		return
	}

	h.lists.Set(utils.AppointmentTypesListCacheKey, items)
	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"items": items})
}

// GET /appointment-types/:id answers 404 for deactivated types.
func (h *AppointmentTypesHandler) GetByID(ctx *gin.Context) {
	id, ok := pathID(ctx, msgTypeNotFound)
	if !ok {
		return
	}

	key := utils.AppointmentTypeCacheKey(id)
	if t, ok := h.byID.Get(key); ok {
		RespondJSONWithETag(ctx, http.StatusOK, t)
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	t, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			fail(ctx, apperr.NotFound(msgTypeNotFound))
			return
		}
		failInternal(ctx, "Could not load appointment type", err)
		return
	}

	if !t.Active {
		fail(ctx, apperr.NotFound(msgTypeNotFound))
		return
	}

	h.byID.Set(key, t)
	RespondJSONWithETag(ctx, http.StatusOK, t)
}

// POST /appointment-types; the caller becomes the organiser.
func (h *AppointmentTypesHandler) Create(ctx *gin.Context) {
	caller, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req appointment.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	req.OrganiserID = caller.ID

	cctx, cancel := requestContext(ctx)
	defer cancel()

	t, err := h.repo.Create(cctx, req)
	if err != nil {
		failInternal(ctx, "Could not create appointment type", err)
		return
	}

	h.lists.Delete(utils.AppointmentTypesListCacheKey)
	ctx.JSON(http.StatusCreated, t)
}

// loadOwned fetches :id and checks the caller may change it.
func (h *AppointmentTypesHandler) loadOwned(ctx *gin.Context) (appointment.Type, bool) {
	caller, ok := currentUser(ctx)
	if !ok {
		return appointment.Type{}, false
	}

	id, ok := pathID(ctx, msgTypeNotFound)
	if !ok {
		return appointment.Type{}, false
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	t, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			fail(ctx, apperr.NotFound(msgTypeNotFound))
			return appointment.Type{}, false
		}
		failInternal(ctx, "Could not load appointment type", err)
		return appointment.Type{}, false
	}

	if caller.Role != user.RoleAdmin && !t.OwnedBy(caller.ID) {
		fail(ctx, apperr.Forbidden(msgNotTypeOwner))
		return appointment.Type{}, false
	}

	return t, true
}

// PUT /appointment-types/:id
func (h *AppointmentTypesHandler) Update(ctx *gin.Context) {
	var req appointment.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	t, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	updated, err := h.repo.Update(cctx, t.Apply(req))
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			fail(ctx, apperr.NotFound(msgTypeNotFound))
			return
		}
		failInternal(ctx, "Could not update appointment type", err)
		return
	}

	h.invalidate(t.ID)
	ctx.JSON(http.StatusOK, updated)
}

// DELETE /appointment-types/:id deactivates; existing bookings keep their type.
func (h *AppointmentTypesHandler) Delete(ctx *gin.Context) {
	t, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if _, err := h.repo.Deactivate(cctx, t.ID); err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			fail(ctx, apperr.NotFound(msgTypeNotFound))
			return
		}
		failInternal(ctx, "Could not deactivate appointment type", err)
		return
	}

	h.invalidate(t.ID)
	ctx.Status(http.StatusNoContent)
}
