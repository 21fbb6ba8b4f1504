package handlers

import (
	"context"

	"github.com/geocoder89/bookinghub/internal/domain/appointment"
	"github.com/geocoder89/bookinghub/internal/domain/booking"
	"github.com/geocoder89/bookinghub/internal/domain/job"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, email, passwordHash, name string, role user.Role) (user.User, error)
	UpdateProfile(ctx context.Context, id, name string) (user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetRole(ctx context.Context, id string, role user.Role) (user.User, error)
	SetActive(ctx context.Context, id string, active bool) (user.User, error)
	MarkEmailVerified(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	CountByRole(ctx context.Context) (map[user.Role]int, error)
}

type JobEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type TxJobEnqueuer interface {
	CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error)
}

type AdminJobsStore interface {
	GetByID(ctx context.Context, id string) (job.Job, error)
	Retry(ctx context.Context, id string) error
}

type AppointmentTypeStore interface {
	Create(ctx context.Context, req appointment.CreateRequest) (appointment.Type, error)
	GetByID(ctx context.Context, id string) (appointment.Type, error)
	ListActive(ctx context.Context) ([]appointment.Type, error)
	ListByOrganiser(ctx context.Context, organiserID string) ([]appointment.Type, error)
	Update(ctx context.Context, t appointment.Type) (appointment.Type, error)
	Deactivate(ctx context.Context, id string) (appointment.Type, error)
}

type BookingStore interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, b booking.Booking) error
	GetByID(ctx context.Context, id string) (booking.Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]booking.Booking, error)
	ListByOrganiser(ctx context.Context, organiserID string) ([]booking.Booking, error)
	UpdateStatus(ctx context.Context, id string, status booking.Status) error
	MarkPaid(ctx context.Context, id, paymentRef string) error
	CountByStatus(ctx context.Context) (map[booking.Status]int, error)
}
