package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/bookinghub/internal/domain/booking"
	"github.com/geocoder89/bookinghub/internal/observability"
	"github.com/geocoder89/bookinghub/internal/utils"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `b.id, b.appointment_type_id, b.customer_id, b.guest_name, b.guest_email,
	b.start_at, b.end_at, b.status, b.payment_status, b.payment_ref,
	b.amount_cents, b.currency, b.notes, b.created_at, b.updated_at`

type BookingsRepo struct {
	db DBTX
	observer
}

func NewBookingsRepo(db DBTX, prom *observability.Prom) *BookingsRepo {
	return &BookingsRepo{db: db, observer: observer{prom: prom}}
}

func scanBooking(row pgx.Row) (booking.Booking, error) {
	var b booking.Booking
	var status, paymentStatus string

	err := row.Scan(
		&b.ID, &b.AppointmentTypeID, &b.CustomerID, &b.GuestName, &b.GuestEmail,
		&b.StartAt, &b.EndAt, &status, &paymentStatus, &b.PaymentRef,
		&b.AmountCents, &b.Currency, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return booking.Booking{}, err
	}

	b.Status = booking.Status(status)
	b.PaymentStatus = booking.PaymentStatus(paymentStatus)
	return b, nil
}

func (r *BookingsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.BeginTx(ctx, pgx.TxOptions{})
}

func (r *BookingsRepo) CreateTx(ctx context.Context, tx pgx.Tx, b booking.Booking) error {
	return r.observe("bookings.create_tx", func() error {
		_, err := tx.Exec(ctx, `
		INSERT INTO bookings (
			id, appointment_type_id, customer_id, guest_name, guest_email,
			start_at, end_at, status, payment_status, payment_ref,
			amount_cents, currency, notes, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			b.ID, b.AppointmentTypeID, b.CustomerID, b.GuestName, b.GuestEmail,
			b.StartAt, b.EndAt, string(b.Status), string(b.PaymentStatus), b.PaymentRef,
			b.AmountCents, b.Currency, b.Notes, b.CreatedAt, b.UpdatedAt,
		)
		return err
	})
}

func (r *BookingsRepo) GetByID(ctx context.Context, id string) (booking.Booking, error) {
	if !utils.IsUUID(id) {
		return booking.Booking{}, booking.ErrNotFound
	}

	var b booking.Booking
	err := r.observe("bookings.get_by_id", func() error {
		var err error
		b, err = scanBooking(r.db.QueryRow(ctx,
			`SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	})
	if err != nil {
		return booking.Booking{}, err
	}
	if b.ID == "" {
		return booking.Booking{}, booking.ErrNotFound
	}

	return b, nil
}

func (r *BookingsRepo) ListByCustomer(ctx context.Context, customerID string) ([]booking.Booking, error) {
	return r.list(ctx, "bookings.list_by_customer",
		`SELECT `+bookingColumns+` FROM bookings b
		 WHERE b.customer_id = $1
		 ORDER BY b.start_at DESC, b.id DESC`, customerID)
}

// ListByOrganiser returns bookings made against any of the organiser's types.
func (r *BookingsRepo) ListByOrganiser(ctx context.Context, organiserID string) ([]booking.Booking, error) {
	return r.list(ctx, "bookings.list_by_organiser",
		`SELECT `+bookingColumns+` FROM bookings b
		 JOIN appointment_types t ON t.id = b.appointment_type_id
		 WHERE t.organiser_id = $1
		 ORDER BY b.start_at DESC, b.id DESC`, organiserID)
}

func (r *BookingsRepo) list(ctx context.Context, op, sql string, args ...any) ([]booking.Booking, error) {
	var rows pgx.Rows

	err := r.observe(op, func() error {
		var err error
		rows, err = r.db.Query(ctx, sql, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]booking.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}

	return out, rows.Err()
}

func (r *BookingsRepo) UpdateStatus(ctx context.Context, id string, status booking.Status) error {
	return r.execOne(ctx, "bookings.update_status",
		`UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
}

// MarkPaid only flips unpaid rows, so a concurrent double pay affects nothing.
func (r *BookingsRepo) MarkPaid(ctx context.Context, id, paymentRef string) error {
	err := r.execOne(ctx, "bookings.mark_paid",
		`UPDATE bookings
		 SET payment_status = 'paid', payment_ref = $2, status = 'confirmed', updated_at = NOW()
		 WHERE id = $1 AND payment_status = 'unpaid'`, id, paymentRef)
	if errors.Is(err, booking.ErrNotFound) {
		return booking.ErrAlreadyPaid
	}
	return err
}

func (r *BookingsRepo) execOne(ctx context.Context, op, sql string, args ...any) error {
	var affected int64

	err := r.observe(op, func() error {
		tag, err := r.db.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (r *BookingsRepo) CountByStatus(ctx context.Context) (map[booking.Status]int, error) {
	var rows pgx.Rows

	err := r.observe("bookings.count_by_status", func() error {
		var err error
		rows, err = r.db.Query(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[booking.Status]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[booking.Status(status)] = n
	}

	return out, rows.Err()
}
