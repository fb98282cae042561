package storage

import (
	"context"
	"time"

	"github.com/agendavel/agendavel/libs/db"
	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
)

type DashboardRepository struct {
	pool *db.Pool
}

func NewDashboardRepository(pool *db.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

type DashboardTotals struct {
	RevenueCents  int64
	Appointments  int
	Patients      int
	Professionals int
}

type SpecialtyCount struct {
	Specialty    string
	Appointments int
}

type ProfessionalCount struct {
	ProfessionalID string
	Specialty      string
	Appointments   int
}

// Totals aggregates the clinic's numbers for booked appointments in
// [from, to). Patient and professional counts are clinic-wide, not
// range-scoped.
func (r *DashboardRepository) Totals(ctx context.Context, clinicID string, from, to time.Time) (DashboardTotals, error) {
	var t DashboardTotals
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(appointment_price_in_cents) FROM appointments
				WHERE clinic_id = $1 AND status = 'booked' AND time >= $2 AND time < $3), 0),
			(SELECT COUNT(*) FROM appointments
				WHERE clinic_id = $1 AND status = 'booked' AND time >= $2 AND time < $3),
			(SELECT COUNT(*) FROM patients WHERE clinic_id = $1),
			(SELECT COUNT(*) FROM professional_profiles WHERE clinic_id = $1)
	`, clinicID, from, to).Scan(&t.RevenueCents, &t.Appointments, &t.Patients, &t.Professionals)
	return t, err
}

func (r *DashboardRepository) TopSpecialties(ctx context.Context, clinicID string, from, to time.Time, limit int) ([]SpecialtyCount, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(p.specialty, ''), COUNT(*)
		FROM appointments a
		JOIN professional_profiles p ON p.professional_id = a.professional_id
		WHERE a.clinic_id = $1 AND a.status = 'booked' AND a.time >= $2 AND a.time < $3
		GROUP BY p.specialty
		ORDER BY COUNT(*) DESC
		LIMIT $4
	`, clinicID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpecialtyCount
	for rows.Next() {
		var c SpecialtyCount
		if err := rows.Scan(&c.Specialty, &c.Appointments); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *DashboardRepository) TopProfessionals(ctx context.Context, clinicID string, from, to time.Time, limit int) ([]ProfessionalCount, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.pool.Query(ctx, `
		SELECT a.professional_id::text, COALESCE(p.specialty, ''), COUNT(*)
		FROM appointments a
		JOIN professional_profiles p ON p.professional_id = a.professional_id
		WHERE a.clinic_id = $1 AND a.status = 'booked' AND a.time >= $2 AND a.time < $3
		GROUP BY a.professional_id, p.specialty
		ORDER BY COUNT(*) DESC
		LIMIT $4
	`, clinicID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProfessionalCount
	for rows.Next() {
		var c ProfessionalCount
		if err := rows.Scan(&c.ProfessionalID, &c.Specialty, &c.Appointments); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *DashboardRepository) UpcomingAppointments(ctx context.Context, clinicID string, from time.Time, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, clinic_id::text, professional_id::text, patient_id::text,
			time, appointment_price_in_cents, status, cancelled_at, COALESCE(cancel_reason, ''), created_at
		FROM appointments
		WHERE clinic_id = $1 AND status = 'booked' AND time >= $2
		ORDER BY time ASC
		LIMIT $3
	`, clinicID, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}
