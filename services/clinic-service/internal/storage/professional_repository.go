package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/agendavel/agendavel/libs/db"
	"github.com/agendavel/agendavel/services/clinic-service/internal/availability"
	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
)

type ProfessionalRepository struct {
	pool *db.Pool
}

func NewProfessionalRepository(pool *db.Pool) *ProfessionalRepository {
	return &ProfessionalRepository{pool: pool}
}

// GetAvailabilityProfile returns the booking configuration for a
// professional. A missing row becomes availability.ErrProfileNotFound,
// which the slot calculator treats as fatal.
func (r *ProfessionalRepository) GetAvailabilityProfile(ctx context.Context, professionalID string) (model.ProfessionalProfile, error) {
	var p model.ProfessionalProfile
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, professional_id::text, clinic_id::text, COALESCE(specialty, ''),
			available_from_week_day, available_to_week_day,
			available_from_time::text, available_to_time::text,
			appointment_price_in_cents, created_at, updated_at
		FROM professional_profiles
		WHERE professional_id = $1
	`, professionalID).Scan(
		&p.ID,
		&p.ProfessionalID,
		&p.ClinicID,
		&p.Specialty,
		&p.AvailableFromWeekday,
		&p.AvailableToWeekday,
		&p.AvailableFromTime,
		&p.AvailableToTime,
		&p.PriceCents,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProfessionalProfile{}, availability.ErrProfileNotFound
		}
		return model.ProfessionalProfile{}, err
	}
	return p, nil
}

func (r *ProfessionalRepository) GetByClinic(ctx context.Context, clinicID, professionalID string) (model.ProfessionalProfile, error) {
	p, err := r.GetAvailabilityProfile(ctx, professionalID)
	if err != nil {
		return model.ProfessionalProfile{}, err
	}
	if p.ClinicID != clinicID {
		return model.ProfessionalProfile{}, availability.ErrProfileNotFound
	}
	return p, nil
}

func (r *ProfessionalRepository) UpsertProfile(ctx context.Context, p model.ProfessionalProfile) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO professional_profiles
			(professional_id, clinic_id, specialty,
			 available_from_week_day, available_to_week_day,
			 available_from_time, available_to_time,
			 appointment_price_in_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (professional_id) DO UPDATE
		SET specialty = EXCLUDED.specialty,
			available_from_week_day = EXCLUDED.available_from_week_day,
			available_to_week_day = EXCLUDED.available_to_week_day,
			available_from_time = EXCLUDED.available_from_time,
			available_to_time = EXCLUDED.available_to_time,
			appointment_price_in_cents = EXCLUDED.appointment_price_in_cents,
			updated_at = now()
		RETURNING id::text
	`, p.ProfessionalID, p.ClinicID, p.Specialty,
		p.AvailableFromWeekday, p.AvailableToWeekday,
		p.AvailableFromTime, p.AvailableToTime,
		p.PriceCents).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ProfessionalRepository) ListByClinic(ctx context.Context, clinicID string, limit int) ([]model.ProfessionalProfile, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, professional_id::text, clinic_id::text, COALESCE(specialty, ''),
			available_from_week_day, available_to_week_day,
			available_from_time::text, available_to_time::text,
			appointment_price_in_cents, created_at, updated_at
		FROM professional_profiles
		WHERE clinic_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, clinicID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProfessionalProfile
	for rows.Next() {
		var p model.ProfessionalProfile
		if err := rows.Scan(
			&p.ID,
			&p.ProfessionalID,
			&p.ClinicID,
			&p.Specialty,
			&p.AvailableFromWeekday,
			&p.AvailableToWeekday,
			&p.AvailableFromTime,
			&p.AvailableToTime,
			&p.PriceCents,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
