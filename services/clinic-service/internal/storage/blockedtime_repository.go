package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/agendavel/agendavel/libs/db"
	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
)

type BlockedTimeRepository struct {
	pool *db.Pool
}

func NewBlockedTimeRepository(pool *db.Pool) *BlockedTimeRepository {
	return &BlockedTimeRepository{pool: pool}
}

// Create persists a blocked window. Callers validate first; the weekday
// set is stored as a JSON array in a text column.
func (r *BlockedTimeRepository) Create(ctx context.Context, b model.BlockedTime) (string, error) {
	var days *string
	if b.IsRecurring {
		raw, err := json.Marshal(b.RecurringDays)
		if err != nil {
			return "", err
		}
		s := string(raw)
		days = &s
	}

	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO blocked_times
			(clinic_id, professional_id, date, time_from, time_to, reason, is_recurring, recurring_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text
	`, b.ClinicID, b.ProfessionalID, b.Date, b.TimeFrom, b.TimeTo, b.Reason, b.IsRecurring, days).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListBlockedTimes returns every blocked window for the professional.
// A recurring row whose stored weekday set no longer parses is kept
// with an empty set rather than failing the whole read; such a row
// blocks nothing downstream.
func (r *BlockedTimeRepository) ListBlockedTimes(ctx context.Context, professionalID string) ([]model.BlockedTime, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, clinic_id::text, professional_id::text,
			date, time_from::text, time_to::text, COALESCE(reason, ''),
			is_recurring, recurring_days, created_at, updated_at
		FROM blocked_times
		WHERE professional_id = $1
		ORDER BY date ASC, time_from ASC
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBlockedTimes(rows)
}

func (r *BlockedTimeRepository) ListByClinic(ctx context.Context, clinicID, professionalID string) ([]model.BlockedTime, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, clinic_id::text, professional_id::text,
			date, time_from::text, time_to::text, COALESCE(reason, ''),
			is_recurring, recurring_days, created_at, updated_at
		FROM blocked_times
		WHERE clinic_id = $1 AND professional_id = $2
		ORDER BY date ASC, time_from ASC
	`, clinicID, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBlockedTimes(rows)
}

func (r *BlockedTimeRepository) Delete(ctx context.Context, clinicID, blockedTimeID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blocked_times
		WHERE id = $1 AND clinic_id = $2
	`, blockedTimeID, clinicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanBlockedTimes(rows pgx.Rows) ([]model.BlockedTime, error) {
	var out []model.BlockedTime
	for rows.Next() {
		var b model.BlockedTime
		var date time.Time
		var days *string
		if err := rows.Scan(
			&b.ID,
			&b.ClinicID,
			&b.ProfessionalID,
			&date,
			&b.TimeFrom,
			&b.TimeTo,
			&b.Reason,
			&b.IsRecurring,
			&days,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		b.Date = date
		if b.IsRecurring && days != nil {
			var parsed []int
			if err := json.Unmarshal([]byte(*days), &parsed); err == nil {
				b.RecurringDays = parsed
			}
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
