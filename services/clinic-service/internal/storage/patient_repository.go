package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/agendavel/agendavel/libs/db"
	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
)

type PatientRepository struct {
	pool *db.Pool
}

func NewPatientRepository(pool *db.Pool) *PatientRepository {
	return &PatientRepository{pool: pool}
}

// Upsert creates the patient when ID is empty and updates otherwise.
// Updates are scoped to the clinic so one tenant cannot touch
// another's records.
func (r *PatientRepository) Upsert(ctx context.Context, p model.Patient) (string, error) {
	if p.ID == "" {
		var id string
		err := r.pool.QueryRow(ctx, `
			INSERT INTO patients (clinic_id, name, email, phone_number, sex)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id::text
		`, p.ClinicID, p.Name, p.Email, p.Phone, p.Sex).Scan(&id)
		if err != nil {
			return "", err
		}
		return id, nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET name = $3,
			email = $4,
			phone_number = $5,
			sex = $6,
			updated_at = now()
		WHERE id = $1 AND clinic_id = $2
	`, p.ID, p.ClinicID, p.Name, p.Email, p.Phone, p.Sex)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return "", pgx.ErrNoRows
	}
	return p.ID, nil
}

func (r *PatientRepository) Get(ctx context.Context, clinicID, patientID string) (model.Patient, error) {
	var p model.Patient
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, clinic_id::text, name, email, COALESCE(phone_number, ''), COALESCE(sex, ''),
			created_at, updated_at
		FROM patients
		WHERE id = $1 AND clinic_id = $2
	`, patientID, clinicID).Scan(
		&p.ID, &p.ClinicID, &p.Name, &p.Email, &p.Phone, &p.Sex, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.Patient{}, err
	}
	return p, nil
}

func (r *PatientRepository) ListByClinic(ctx context.Context, clinicID string, limit int) ([]model.Patient, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, clinic_id::text, name, email, COALESCE(phone_number, ''), COALESCE(sex, ''),
			created_at, updated_at
		FROM patients
		WHERE clinic_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, clinicID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Patient
	for rows.Next() {
		var p model.Patient
		if err := rows.Scan(&p.ID, &p.ClinicID, &p.Name, &p.Email, &p.Phone, &p.Sex, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *PatientRepository) Delete(ctx context.Context, clinicID, patientID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM patients
		WHERE id = $1 AND clinic_id = $2
	`, patientID, clinicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
