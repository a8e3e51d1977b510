package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pet-appointment-scheduling/internal/domain/clinics"
)

type ClinicsRepo struct {
	db *sql.DB
}

func NewClinicsRepo(db *sql.DB) *ClinicsRepo {
	return &ClinicsRepo{db: db}
}

func (r *ClinicsRepo) CreateClinic(ctx context.Context, c clinics.Clinic) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clinics (id, name, address, phone, timezone, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, c.ID, c.Name, c.Address, c.Phone, c.Timezone, c.CreatedAt)
	return err
}

func (r *ClinicsRepo) GetClinic(ctx context.Context, id string) (clinics.Clinic, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return clinics.Clinic{}, clinics.ErrNotFound
	}

	var c clinics.Clinic
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, address, phone, timezone, created_at
		FROM clinics
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Timezone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return clinics.Clinic{}, clinics.ErrNotFound
		}
		return clinics.Clinic{}, err
	}
	return c, nil
}

func (r *ClinicsRepo) CreateVet(ctx context.Context, v clinics.Vet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vets (id, clinic_id, first_name, last_name, specialization, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, v.ID, v.ClinicID, v.FirstName, v.LastName, v.Specialization, v.CreatedAt)
	return err
}

func (r *ClinicsRepo) GetVet(ctx context.Context, id string) (clinics.Vet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return clinics.Vet{}, clinics.ErrNotFound
	}

	var v clinics.Vet
	err := r.db.QueryRowContext(ctx, `
		SELECT id, clinic_id, first_name, last_name, specialization, created_at
		FROM vets
		WHERE id = $1
	`, id).Scan(&v.ID, &v.ClinicID, &v.FirstName, &v.LastName, &v.Specialization, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return clinics.Vet{}, clinics.ErrNotFound
		}
		return clinics.Vet{}, err
	}
	return v, nil
}

func (r *ClinicsRepo) ListVetsByClinic(ctx context.Context, clinicID string) ([]clinics.Vet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, clinic_id, first_name, last_name, specialization, created_at
		FROM vets
		WHERE clinic_id = $1
		ORDER BY created_at ASC, id ASC
	`, strings.TrimSpace(clinicID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]clinics.Vet, 0)
	for rows.Next() {
		var v clinics.Vet
		if err := rows.Scan(&v.ID, &v.ClinicID, &v.FirstName, &v.LastName, &v.Specialization, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
