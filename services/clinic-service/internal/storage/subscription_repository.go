package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/agendavel/agendavel/libs/db"
)

type SubscriptionRepository struct {
	pool *db.Pool
}

func NewSubscriptionRepository(pool *db.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

func (r *SubscriptionRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

type Subscription struct {
	ClinicID             string
	Tier                 string
	Status               string
	StripeCustomerID     string
	StripeSubscriptionID string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	UpdatedAt            time.Time
}

func (r *SubscriptionRepository) Upsert(ctx context.Context, tx pgx.Tx, s Subscription) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO subscriptions (clinic_id, tier, status, stripe_customer_id, stripe_subscription_id, current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (clinic_id)
		DO UPDATE SET tier = EXCLUDED.tier,
		              status = EXCLUDED.status,
		              stripe_customer_id = EXCLUDED.stripe_customer_id,
		              stripe_subscription_id = EXCLUDED.stripe_subscription_id,
		              current_period_start = EXCLUDED.current_period_start,
		              current_period_end = EXCLUDED.current_period_end,
		              updated_at = now()
	`, s.ClinicID, s.Tier, s.Status, nullIfEmpty(s.StripeCustomerID), nullIfEmpty(s.StripeSubscriptionID), s.CurrentPeriodStart, s.CurrentPeriodEnd)
	return err
}

// Get returns the clinic's subscription. Clinics without one are on
// the free tier; found=false signals that, not an error.
func (r *SubscriptionRepository) Get(ctx context.Context, clinicID string) (Subscription, bool, error) {
	var s Subscription
	var cps, cpe *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT clinic_id::text, tier, status,
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
		       current_period_start, current_period_end, updated_at
		FROM subscriptions
		WHERE clinic_id = $1
	`, clinicID).Scan(&s.ClinicID, &s.Tier, &s.Status, &s.StripeCustomerID, &s.StripeSubscriptionID, &cps, &cpe, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, false, nil
		}
		return Subscription{}, false, err
	}
	s.CurrentPeriodStart = cps
	s.CurrentPeriodEnd = cpe
	return s, true, nil
}

type ProviderEvent struct {
	Provider        string
	ProviderEventID string
	EventType       string
	Payload         []byte
}

var ErrDuplicateProviderEvent = errors.New("duplicate provider event")

// InsertProviderEvent records a webhook delivery. A second delivery of
// the same event returns ErrDuplicateProviderEvent so the handler can
// ack without re-applying side effects.
func (r *SubscriptionRepository) InsertProviderEvent(ctx context.Context, tx pgx.Tx, evt ProviderEvent) error {
	var payload any
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO provider_events (provider, provider_event_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, provider_event_id) DO NOTHING
	`, evt.Provider, evt.ProviderEventID, evt.EventType, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateProviderEvent
	}
	return nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
