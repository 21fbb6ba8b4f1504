package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/geocoder89/bookinghub/internal/domain/appointment"
	"github.com/geocoder89/bookinghub/internal/domain/booking"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/http/middlewares"
	"github.com/geocoder89/bookinghub/internal/jobs"
	"github.com/geocoder89/bookinghub/internal/payments"
	"github.com/geocoder89/bookinghub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

const (
	msgBookingNotFound = "Booking not found"
	msgNotBookingOwner = "You cannot change this booking"
)

type TypeReader interface {
	GetByID(ctx context.Context, id string) (appointment.Type, error)
}

type BookingsHandler struct {
	bookings BookingStore
	types    TypeReader
	jobs     TxJobEnqueuer
	gateway  payments.Gateway
	log      *slog.Logger
	now      func() time.Time
}

func NewBookingsHandler(bookings BookingStore, types TypeReader, jobQueue TxJobEnqueuer, gateway payments.Gateway, log *slog.Logger) *BookingsHandler {
	return &BookingsHandler{
		bookings: bookings,
		types:    types,
		jobs:     jobQueue,
		gateway:  gateway,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// POST /bookings. Identified callers book as themselves and any name or
// email in the body is ignored; guests must supply both.
func (h *BookingsHandler) Create(ctx *gin.Context) {
	var req booking.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if identity, ok := middlewares.IdentityFromContext(ctx); ok {
		id := identity.ID
		req.CustomerID = &id
		req.Name = identity.Name
		req.Email = identity.Email
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	t, err := h.types.GetByID(cctx, req.AppointmentTypeID)
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			fail(ctx, apperr.NotFound(msgTypeNotFound))
			return
		}
		failInternal(ctx, "Could not create booking", err)
		return
	}

	b, err := booking.NewFromCreateRequest(req, t, h.now())
	if err != nil {
		fail(ctx, bookingRejection(err, req))
		return
	}

	tx, err := h.bookings.BeginTx(cctx)
	if err != nil {
		failInternal(ctx, "Could not create booking", err)
		return
	}
	defer func() { _ = tx.Rollback(cctx) }()

	if err := h.bookings.CreateTx(cctx, tx, b); err != nil {
		failInternal(ctx, "Could not create booking", err)
		return
	}

	jobReq, err := jobs.NewCreateRequest(jobs.JobBookingConfirmation, jobs.BookingConfirmationPayload{
		BookingID:        b.ID,
		Email:            b.GuestEmail,
		Name:             b.GuestName,
		AppointmentTitle: t.Title,
		StartAt:          b.StartAt,
		RequestID:        middlewares.RequestIDFrom(ctx),
	}, "booking:confirm:"+b.ID, b.CustomerID)
	if err != nil {
		failInternal(ctx, "Could not create booking", err)
		return
	}

	if _, err := h.jobs.CreateTx(cctx, tx, jobReq); err != nil && !postgres.IsUniqueViolation(err) {
		failInternal(ctx, "Could not create booking", err)
		return
	}

	if err := tx.Commit(cctx); err != nil {
		failInternal(ctx, "Could not create booking", err)
		return
	}

	ctx.JSON(http.StatusCreated, b)
}

func bookingRejection(err error, req booking.CreateRequest) error {
	switch {
	case errors.Is(err, booking.ErrInactiveType):
		return apperr.Conflict("Appointment type is not bookable")
	case errors.Is(err, booking.ErrStartInPast):
		fields := apperr.ValidationFields{}
		fields.Add("startAt", "must be in the future")
		return apperr.Validation(fields)
	case errors.Is(err, booking.ErrGuestDetailsNeeded):
		fields := apperr.ValidationFields{}
		if strings.TrimSpace(req.Name) == "" {
			fields.Add("name", "is required for guest bookings")
		}
		if strings.TrimSpace(req.Email) == "" {
			fields.Add("email", "is required for guest bookings")
		}
		return apperr.Validation(fields)
	default:
		return apperr.Internal("Could not create booking").Wrap(err)
	}
}

// GET /bookings/mine
func (h *BookingsHandler) Mine(ctx *gin.Context) {
	caller, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.bookings.ListByCustomer(cctx, caller.ID)
	if err != nil {
		failInternal(ctx, "Could not list bookings", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

// GET /organiser/bookings
func (h *BookingsHandler) ForOrganiser(ctx *gin.Context) {
	caller, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.bookings.ListByOrganiser(cctx, caller.ID)
	if err != nil {
		failInternal(ctx, "Could not list bookings", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *BookingsHandler) load(cctx context.Context, ctx *gin.Context) (booking.Booking, bool) {
	id, ok := pathID(ctx, msgBookingNotFound)
	if !ok {
		return booking.Booking{}, false
	}

	b, err := h.bookings.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			fail(ctx, apperr.NotFound(msgBookingNotFound))
			return booking.Booking{}, false
		}
		failInternal(ctx, "Could not load booking", err)
		return booking.Booking{}, false
	}

	return b, true
}

// managedBy reports whether caller is an admin or organises the booked type.
func (h *BookingsHandler) managedBy(cctx context.Context, b booking.Booking, caller user.PublicUser) (bool, error) {
	if caller.Role == user.RoleAdmin {
		return true, nil
	}
	t, err := h.types.GetByID(cctx, b.AppointmentTypeID)
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return t.OwnedBy(caller.ID), nil
}

// GET /bookings/:id. Guests read their booking by passing the email they
// booked with as ?email=. Identified callers see bookings they own or
// manage; an identified caller may still use the email proof for a guest
// booking.
func (h *BookingsHandler) GetByID(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	b, ok := h.load(cctx, ctx)
	if !ok {
		return
	}

	caller, identified := middlewares.IdentityFromContext(ctx)
	if identified {
		if b.OwnedBy(caller.ID) {
			ctx.JSON(http.StatusOK, b)
			return
		}
		staff, err := h.managedBy(cctx, b, caller)
		if err != nil {
			failInternal(ctx, "Could not load booking", err)
			return
		}
		if staff {
			ctx.JSON(http.StatusOK, b)
			return
		}
	}

	if b.IsGuest() {
		email := user.NormalizeEmail(ctx.Query("email"))
		if email != "" && strings.EqualFold(email, b.GuestEmail) {
			ctx.JSON(http.StatusOK, b)
			return
		}
	}

	// same answer as a missing booking so ids reveal nothing
	fail(ctx, apperr.NotFound(msgBookingNotFound))
}

// POST /bookings/:id/cancel is open to the customer who booked, the
// organiser of the type, and admins.
func (h *BookingsHandler) Cancel(ctx *gin.Context) {
	caller, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	b, ok := h.load(cctx, ctx)
	if !ok {
		return
	}

	allowed := b.OwnedBy(caller.ID)
	if !allowed {
		staff, err := h.managedBy(cctx, b, caller)
		if err != nil {
			failInternal(ctx, "Could not cancel booking", err)
			return
		}
		allowed = staff
	}
	if !allowed {
		fail(ctx, apperr.Forbidden(msgNotBookingOwner))
		return
	}

	if b.Status == booking.StatusCancelled {
		fail(ctx, apperr.Conflict("Booking is already cancelled"))
		return
	}

	if err := h.bookings.UpdateStatus(cctx, b.ID, booking.StatusCancelled); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			fail(ctx, apperr.NotFound(msgBookingNotFound))
			return
		}
		failInternal(ctx, "Could not cancel booking", err)
		return
	}

	b.Status = booking.StatusCancelled
	b.UpdatedAt = h.now()
	ctx.JSON(http.StatusOK, b)
}

type PaymentResponse struct {
	Booking booking.Booking  `json:"booking"`
	Receipt payments.Receipt `json:"receipt"`
}

// POST /bookings/:id/pay. Guests prove ownership with the email they booked
// with; customer bookings need the owning account.
func (h *BookingsHandler) Pay(ctx *gin.Context) {
	var req booking.PayRequest
	if ctx.Request.ContentLength != 0 && !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	b, ok := h.load(cctx, ctx)
	if !ok {
		return
	}

	identity, identified := middlewares.IdentityFromContext(ctx)
	switch {
	case b.IsGuest():
		if !strings.EqualFold(strings.TrimSpace(req.Email), b.GuestEmail) {
			fail(ctx, apperr.Forbidden(msgNotBookingOwner))
			return
		}
	case !identified:
		fail(ctx, apperr.Unauthorized(middlewares.MsgAuthRequired))
		return
	case !b.OwnedBy(identity.ID):
		fail(ctx, apperr.Forbidden(msgNotBookingOwner))
		return
	}

	switch {
	case b.Status == booking.StatusCancelled:
		fail(ctx, apperr.Conflict("Cancelled bookings cannot be paid"))
		return
	case b.PaymentStatus == booking.PaymentPaid:
		fail(ctx, apperr.Conflict("Booking is already paid"))
		return
	case b.AmountCents <= 0:
		fail(ctx, apperr.Conflict("Booking does not require payment"))
		return
	}

	receipt, err := h.gateway.Charge(cctx, payments.ChargeRequest{
		BookingID:   b.ID,
		AmountCents: b.AmountCents,
		Currency:    b.Currency,
		Email:       b.GuestEmail,
	})
	if err != nil {
		failInternal(ctx, "Payment failed", err)
		return
	}

	if err := h.bookings.MarkPaid(cctx, b.ID, receipt.Reference); err != nil {
		if errors.Is(err, booking.ErrAlreadyPaid) {
			h.log.WarnContext(cctx, "charge raced a concurrent payment",
				"booking_id", b.ID, "payment_ref", receipt.Reference)
			fail(ctx, apperr.Conflict("Booking is already paid"))
			return
		}
		failInternal(ctx, "Could not record payment", err)
		return
	}

	ref := receipt.Reference
	b.PaymentStatus = booking.PaymentPaid
	b.PaymentRef = &ref
	b.Status = booking.StatusConfirmed
	b.UpdatedAt = h.now()

	ctx.JSON(http.StatusOK, PaymentResponse{Booking: b, Receipt: receipt})
}
