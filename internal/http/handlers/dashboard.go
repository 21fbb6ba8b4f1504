package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/appointment"
	"github.com/geocoder89/bookinghub/internal/domain/booking"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type DashboardUsers interface {
	CountByRole(ctx context.Context) (map[user.Role]int, error)
}

type DashboardTypes interface {
	ListByOrganiser(ctx context.Context, organiserID string) ([]appointment.Type, error)
}

type DashboardBookings interface {
	ListByCustomer(ctx context.Context, customerID string) ([]booking.Booking, error)
	ListByOrganiser(ctx context.Context, organiserID string) ([]booking.Booking, error)
	CountByStatus(ctx context.Context) (map[booking.Status]int, error)
}

type DashboardHandler struct {
	users    DashboardUsers
	types    DashboardTypes
	bookings DashboardBookings
	now      func() time.Time
}

func NewDashboardHandler(users DashboardUsers, types DashboardTypes, bookings DashboardBookings) *DashboardHandler {
	return &DashboardHandler{
		users:    users,
		types:    types,
		bookings: bookings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CustomerDashboard struct {
	Role     user.Role         `json:"role"`
	Upcoming int               `json:"upcoming"`
	Bookings []booking.Booking `json:"bookings"`
}

type OrganiserDashboard struct {
	Role             user.Role          `json:"role"`
	AppointmentTypes []appointment.Type `json:"appointmentTypes"`
	Upcoming         int                `json:"upcoming"`
	Bookings         []booking.Booking  `json:"bookings"`
}

type AdminDashboard struct {
	Role             user.Role              `json:"role"`
	UsersByRole      map[user.Role]int      `json:"usersByRole"`
	BookingsByStatus map[booking.Status]int `json:"bookingsByStatus"`
}

func upcoming(items []booking.Booking, now time.Time) int {
	n := 0
	for _, b := range items {
		if b.Status != booking.StatusCancelled && b.StartAt.After(now) {
			n++
		}
	}
	return n
}

// GET /dashboard
func (h *DashboardHandler) Get(ctx *gin.Context) {
	caller, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	switch caller.Role {
	case user.RoleAdmin:
		byRole, err := h.users.CountByRole(cctx)
		if err != nil {
			failInternal(ctx, "Could not load dashboard", err)
			return
		}
		byStatus, err := h.bookings.CountByStatus(cctx)
		if err != nil {
			failInternal(ctx, "Could not load dashboard", err)
			return
		}
		ctx.JSON(http.StatusOK, AdminDashboard{Role: caller.Role, UsersByRole: byRole, BookingsByStatus: byStatus})

	case user.RoleOrganiser:
		types, err := h.types.ListByOrganiser(cctx, caller.ID)
		if err != nil {
			failInternal(ctx, "Could not load dashboard", err)
			return
		}
		items, err := h.bookings.ListByOrganiser(cctx, caller.ID)
		if err != nil {
			failInternal(ctx, "Could not load dashboard", err)
			return
		}
		ctx.JSON(http.StatusOK, OrganiserDashboard{
			Role:             caller.Role,
			AppointmentTypes: types,
			Upcoming:         upcoming(items, h.now()),
			Bookings:         items,
		})

	default:
		items, err := h.bookings.ListByCustomer(cctx, caller.ID)
		if err != nil {
			failInternal(ctx, "Could not load dashboard", err)
			return
		}
		ctx.JSON(http.StatusOK, CustomerDashboard{
			Role:     caller.Role,
			Upcoming: upcoming(items, h.now()),
			Bookings: items,
		})
	}
}
