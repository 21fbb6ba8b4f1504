package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/appointment"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/http/handlers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAppointmentType_CachedWithETag(t *testing.T) {
	apt := activeType(uuid.NewString(), 1500)
	types := newFakeTypes(apt)
	h := handlers.NewAppointmentTypesHandler(types, time.Minute)
	r := setupRouter(http.MethodGet, "/appointment-types/:id", h.GetByID)

	rec := doJSON(r, http.MethodGet, "/appointment-types/"+apt.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, apt.Title, decodeJSON[appointment.Type](t, rec).Title)

	rec = doJSON(r, http.MethodGet, "/appointment-types/"+apt.ID, "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, 1, types.getCount(), "second read should come from the cache")
}

func TestGetAppointmentType_NotFound(t *testing.T) {
	inactive := activeType(uuid.NewString(), 0)
	inactive.Active = false
	h := handlers.NewAppointmentTypesHandler(newFakeTypes(inactive), time.Minute)
	r := setupRouter(http.MethodGet, "/appointment-types/:id", h.GetByID)

	for _, id := range []string{"not-a-uuid", uuid.NewString(), inactive.ID} {
		rec := doJSON(r, http.MethodGet, "/appointment-types/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Equal(t, "Appointment type not found", decodeError(t, rec).Message)
	}
}

func TestCreateAppointmentType_CallerIsOrganiser(t *testing.T) {
	organiser := publicUser(user.RoleOrganiser)
	types := newFakeTypes()
	h := handlers.NewAppointmentTypesHandler(types, time.Minute)
	r := setupRouter(http.MethodPost, "/appointment-types", h.Create, as(organiser))

	rec := doJSON(r, http.MethodPost, "/appointment-types",
		`{"title":"Haircut","durationMinutes":45,"priceCents":3000,"currency":"usd","organiserId":"ignored"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decodeJSON[appointment.Type](t, rec)
	assert.Equal(t, organiser.ID, got.OrganiserID)
	assert.Equal(t, "USD", got.Currency)
	assert.True(t, got.Active)
}

func TestUpdateAppointmentType_OwnershipAndInvalidation(t *testing.T) {
	owner := publicUser(user.RoleOrganiser)
	rival := publicUser(user.RoleOrganiser)
	admin := publicUser(user.RoleAdmin)
	apt := activeType(owner.ID, 1000)

	body := `{"title":"Long consultation","durationMinutes":60,"priceCents":2000}`

	tests := []struct {
		name       string
		caller     user.PublicUser
		wantStatus int
	}{
		{"owner", owner, http.StatusOK},
		{"admin", admin, http.StatusOK},
		{"other organiser", rival, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types := newFakeTypes(apt)
			h := handlers.NewAppointmentTypesHandler(types, time.Minute)

			r := gin.New()
			r.Use(errorHandler())
			r.GET("/appointment-types/:id", h.GetByID)
			r.PUT("/appointment-types/:id", as(tt.caller), h.Update)

			// warm the cache
			require.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/appointment-types/"+apt.ID, "").Code)

			rec := doJSON(r, http.MethodPut, "/appointment-types/"+apt.ID, body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			rec = doJSON(r, http.MethodGet, "/appointment-types/"+apt.ID, "")
			require.Equal(t, http.StatusOK, rec.Code)
			got := decodeJSON[appointment.Type](t, rec)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "Long consultation", got.Title)
				assert.Equal(t, 60, got.DurationMinutes)
			} else {
				assert.Equal(t, apt.Title, got.Title)
			}
		})
	}
}

func TestDeleteAppointmentType_Deactivates(t *testing.T) {
	owner := publicUser(user.RoleOrganiser)
	apt := activeType(owner.ID, 1000)
	types := newFakeTypes(apt)
	h := handlers.NewAppointmentTypesHandler(types, time.Minute)

	r := gin.New()
	r.Use(errorHandler())
	r.GET("/appointment-types", h.List)
	r.DELETE("/appointment-types/:id", as(owner), h.Delete)

	type listResponse struct {
		Items []appointment.Type `json:"items"`
	}

	rec := doJSON(r, http.MethodGet, "/appointment-types", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeJSON[listResponse](t, rec).Items, 1)

	rec = doJSON(r, http.MethodDelete, "/appointment-types/"+apt.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(r, http.MethodGet, "/appointment-types", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeJSON[listResponse](t, rec).Items)

	ownerTypes, err := types.ListByOrganiser(t.Context(), owner.ID)
	require.NoError(t, err)
	require.Len(t, ownerTypes, 1)
	assert.False(t, ownerTypes[0].Active)
}
