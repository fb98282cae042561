package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agendavel/agendavel/libs/db"
	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	ClinicID        string
	IdempotencyKey  string
	AppointmentID   string
	StatusCode      int
	ResponsePayload []byte
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// ListAppointments feeds the availability calculator: every booked
// appointment for the professional, day filtering happens upstream.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, professionalID string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, clinic_id::text, professional_id::text, patient_id::text,
			time, appointment_price_in_cents, status, cancelled_at, COALESCE(cancel_reason, ''), created_at
		FROM appointments
		WHERE professional_id = $1 AND status = 'booked'
		ORDER BY time ASC
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentRepository) ListByClinic(ctx context.Context, clinicID string, from, to time.Time, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, clinic_id::text, professional_id::text, patient_id::text,
			time, appointment_price_in_cents, status, cancelled_at, COALESCE(cancel_reason, ''), created_at
		FROM appointments
		WHERE clinic_id = $1
			AND time >= $2
			AND time < $3
		ORDER BY time ASC
		LIMIT $4
	`, clinicID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(clinic_id, professional_id, patient_id, time, appointment_price_in_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text
	`, appt.ClinicID, appt.ProfessionalID, appt.PatientID, appt.Time, appt.PriceCents, appt.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, clinicID, appointmentID string) (model.Appointment, error) {
	var appt model.Appointment
	var cancelledAt *time.Time
	err := tx.QueryRow(ctx, `
		SELECT id::text, clinic_id::text, professional_id::text, patient_id::text,
			time, appointment_price_in_cents, status, cancelled_at, COALESCE(cancel_reason, ''), created_at
		FROM appointments
		WHERE id = $1 AND clinic_id = $2
		FOR UPDATE
	`, appointmentID, clinicID).Scan(
		&appt.ID,
		&appt.ClinicID,
		&appt.ProfessionalID,
		&appt.PatientID,
		&appt.Time,
		&appt.PriceCents,
		&appt.Status,
		&cancelledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CancelledAt = cancelledAt
	return appt, nil
}

func (r *AppointmentRepository) Cancel(ctx context.Context, tx pgx.Tx, clinicID, appointmentID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancel_reason = $3
		WHERE id = $1 AND clinic_id = $2
		RETURNING cancelled_at
	`, appointmentID, clinicID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

// CountBookedInMonth counts booked appointments whose instant falls in
// [monthStart, monthEnd). Runs inside the booking transaction so plan
// caps see rows created by concurrent bookings that committed first.
func (r *AppointmentRepository) CountBookedInMonth(ctx context.Context, tx pgx.Tx, clinicID string, monthStart, monthEnd time.Time) (int, error) {
	var cnt int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE clinic_id = $1
		  AND status = 'booked'
		  AND time >= $2
		  AND time < $3
	`, clinicID, monthStart, monthEnd).Scan(&cnt)
	return cnt, err
}

func (r *AppointmentRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, clinicID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, clinicID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO appointment_idempotency_keys (clinic_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (clinic_id, idempotency_key) DO NOTHING
	`, clinicID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, clinicID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *AppointmentRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, clinicID, key, appointmentID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE appointment_idempotency_keys
		SET appointment_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE clinic_id = $1 AND idempotency_key = $2
	`, clinicID, key, appointmentID, statusCode, response)
	return err
}

func (r *AppointmentRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, clinicID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT clinic_id::text,
			idempotency_key,
			COALESCE(appointment_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM appointment_idempotency_keys
		WHERE clinic_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, clinicID, key).Scan(
		&rec.ClinicID,
		&rec.IdempotencyKey,
		&rec.AppointmentID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		var cancelledAt *time.Time
		if err := rows.Scan(
			&appt.ID,
			&appt.ClinicID,
			&appt.ProfessionalID,
			&appt.PatientID,
			&appt.Time,
			&appt.PriceCents,
			&appt.Status,
			&cancelledAt,
			&appt.CancelReason,
			&appt.CreatedAt,
		); err != nil {
			return nil, err
		}
		appt.CancelledAt = cancelledAt
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505")
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
