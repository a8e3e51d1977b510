package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-appointment-scheduling/internal/domain/appointments"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

const appointmentColumns = `
	id, pet_id, owner_user_id, clinic_id, vet_id,
	starts_at, reason, notes, status,
	created_at, updated_at,
	confirmed_at, canceled_at, completed_at`

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		a.ID,
		a.PetID,
		a.OwnerUserID,
		a.ClinicID,
		a.VetID,
		a.StartsAt,
		a.Reason,
		a.Notes,
		string(a.Status),
		a.CreatedAt,
		a.UpdatedAt,
		toNullTime(a.ConfirmedAt),
		toNullTime(a.CanceledAt),
		toNullTime(a.CompletedAt),
	)
	return err
}

// Update pisa status y timestamps sólo si el status guardado sigue siendo prev.
func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment, prev appointments.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET
			status = $2,
			notes = $3,
			updated_at = $4,
			confirmed_at = $5,
			canceled_at = $6,
			completed_at = $7
		WHERE id = $1 AND status = $8
	`,
		a.ID,
		string(a.Status),
		a.Notes,
		a.UpdatedAt,
		toNullTime(a.ConfirmedAt),
		toNullTime(a.CanceledAt),
		toNullTime(a.CompletedAt),
		string(prev),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	var cur string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM appointments WHERE id = $1`, a.ID).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return appointments.ErrNotFound
	}
	if err != nil {
		return err
	}
	return appointments.ErrStatusChanged
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return appointments.Appointment{}, appointments.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appointments.Appointment{}, appointments.ErrNotFound
		}
		return appointments.Appointment{}, err
	}
	return a, nil
}

func (r *AppointmentsRepo) List(ctx context.Context, filter appointments.ListFilter) ([]appointments.Appointment, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`)

	args := []any{}
	argN := 1

	eq := func(col, v string) {
		if v == "" {
			return
		}
		sb.WriteString(fmt.Sprintf(" AND %s = $%d", col, argN))
		args = append(args, v)
		argN++
	}
	eq("pet_id", filter.PetID)
	eq("owner_user_id", filter.OwnerUserID)
	eq("clinic_id", filter.ClinicID)
	eq("vet_id", filter.VetID)

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(s))
			argN++
		}
		sb.WriteString(" AND status IN (" + strings.Join(placeholders, ",") + ")")
	}

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND starts_at >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND starts_at <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	sb.WriteString(" ORDER BY starts_at ASC, id ASC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAppointment(s scanner) (appointments.Appointment, error) {
	var a appointments.Appointment
	var status string
	var confirmed, canceled, completed sql.NullTime
	if err := s.Scan(
		&a.ID,
		&a.PetID,
		&a.OwnerUserID,
		&a.ClinicID,
		&a.VetID,
		&a.StartsAt,
		&a.Reason,
		&a.Notes,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
		&confirmed,
		&canceled,
		&completed,
	); err != nil {
		return appointments.Appointment{}, err
	}

	a.Status = appointments.Status(status)
	a.ConfirmedAt = fromNullTime(confirmed)
	a.CanceledAt = fromNullTime(canceled)
	a.CompletedAt = fromNullTime(completed)
	return a, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
