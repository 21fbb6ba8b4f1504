package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/bookinghub/internal/domain/appointment"
	"github.com/geocoder89/bookinghub/internal/observability"
	"github.com/geocoder89/bookinghub/internal/utils"
	"github.com/jackc/pgx/v5"
)

const appointmentTypeColumns = `id, organiser_id, title, description, duration_minutes, price_cents, currency, active, created_at, updated_at`

type AppointmentTypesRepo struct {
	db DBTX
	observer
}

func NewAppointmentTypesRepo(db DBTX, prom *observability.Prom) *AppointmentTypesRepo {
	return &AppointmentTypesRepo{db: db, observer: observer{prom: prom}}
}

func scanAppointmentType(row pgx.Row) (appointment.Type, error) {
	var t appointment.Type

	err := row.Scan(
		&t.ID,
		&t.OrganiserID,
		&t.Title,
		&t.Description,
		&t.DurationMinutes,
		&t.PriceCents,
		&t.Currency,
		&t.Active,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *AppointmentTypesRepo) Create(ctx context.Context, req appointment.CreateRequest) (appointment.Type, error) {
	t := appointment.NewFromCreateRequest(req)

	err := r.observe("appointment_types.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO appointment_types (`+appointmentTypeColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			t.ID, t.OrganiserID, t.Title, t.Description, t.DurationMinutes,
			t.PriceCents, t.Currency, t.Active, t.CreatedAt, t.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return appointment.Type{}, err
	}

	return t, nil
}

func (r *AppointmentTypesRepo) GetByID(ctx context.Context, id string) (appointment.Type, error) {
	if !utils.IsUUID(id) {
		return appointment.Type{}, appointment.ErrNotFound
	}

	var t appointment.Type
	err := r.observe("appointment_types.get_by_id", func() error {
		var err error
		t, err = scanAppointmentType(r.db.QueryRow(ctx,
			`SELECT `+appointmentTypeColumns+` FROM appointment_types WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	})
	if err != nil {
		return appointment.Type{}, err
	}
	if t.ID == "" {
		return appointment.Type{}, appointment.ErrNotFound
	}

	return t, nil
}

func (r *AppointmentTypesRepo) ListActive(ctx context.Context) ([]appointment.Type, error) {
	return r.list(ctx, "appointment_types.list_active",
		`SELECT `+appointmentTypeColumns+` FROM appointment_types
		 WHERE active = TRUE ORDER BY title ASC, id ASC`)
}

// ListByOrganiser includes deactivated types.
func (r *AppointmentTypesRepo) ListByOrganiser(ctx context.Context, organiserID string) ([]appointment.Type, error) {
	return r.list(ctx, "appointment_types.list_by_organiser",
		`SELECT `+appointmentTypeColumns+` FROM appointment_types
		 WHERE organiser_id = $1 ORDER BY created_at DESC, id DESC`, organiserID)
}

func (r *AppointmentTypesRepo) list(ctx context.Context, op, sql string, args ...any) ([]appointment.Type, error) {
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

	out := make([]appointment.Type, 0)
	for rows.Next() {
		t, err := scanAppointmentType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}

// Update writes every editable column of t.
func (r *AppointmentTypesRepo) Update(ctx context.Context, t appointment.Type) (appointment.Type, error) {
	return r.updateReturning(ctx, "appointment_types.update", `
		UPDATE appointment_types
		SET title = $2,
		    description = $3,
		    duration_minutes = $4,
		    price_cents = $5,
		    currency = $6,
		    updated_at = $7
		WHERE id = $1
		RETURNING `+appointmentTypeColumns,
		t.ID, t.Title, t.Description, t.DurationMinutes, t.PriceCents, t.Currency, t.UpdatedAt)
}

// Deactivate is a soft delete; existing bookings keep pointing at the row.
func (r *AppointmentTypesRepo) Deactivate(ctx context.Context, id string) (appointment.Type, error) {
	return r.updateReturning(ctx, "appointment_types.deactivate", `
		UPDATE appointment_types
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+appointmentTypeColumns, id)
}

func (r *AppointmentTypesRepo) updateReturning(ctx context.Context, op, sql string, id string, args ...any) (appointment.Type, error) {
	if !utils.IsUUID(id) {
		return appointment.Type{}, appointment.ErrNotFound
	}

	var t appointment.Type
	err := r.observe(op, func() error {
		var err error
		t, err = scanAppointmentType(r.db.QueryRow(ctx, sql, append([]any{id}, args...)...))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	})
	if err != nil {
		return appointment.Type{}, err
	}
	if t.ID == "" {
		return appointment.Type{}, appointment.ErrNotFound
	}

	return t, nil
}
