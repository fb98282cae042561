package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/agendavel/agendavel/libs/db"
	otelx "github.com/agendavel/agendavel/libs/otel"
)

// Domain event topics. The Kafka topic name equals the event type.
const (
	TopicAppointmentBooked    = "appointments.booked.v1"
	TopicAppointmentCancelled = "appointments.cancelled.v1"
)

// Event is the envelope written to the outbox table inside the same
// transaction as the domain write it describes.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// AppointmentEvent is the payload shape for booked and cancelled
// events consumed by the notification service.
type AppointmentEvent struct {
	AppointmentID  string    `json:"appointment_id"`
	ClinicID       string    `json:"clinic_id"`
	ProfessionalID string    `json:"professional_id"`
	PatientID      string    `json:"patient_id"`
	Time           time.Time `json:"time"`
	PriceCents     int       `json:"price_in_cents"`
	Reason         string    `json:"reason,omitempty"`
	PatientEmail   string    `json:"patient_email,omitempty"`
	PatientPhone   string    `json:"patient_phone,omitempty"`
}

func NewAppointmentEvent(eventType string, payload AppointmentEvent) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   payload.AppointmentID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, evt Event) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload, traceparent, tracestate)
	return err
}

type Record struct {
	ID            int64
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Traceparent   string
	Tracestate    string
	CreatedAt     time.Time
}

// FetchUnpublished claims a batch of pending events. SKIP LOCKED lets
// concurrent publisher instances drain disjoint batches.
func (r *Repository) FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rcd Record
		if err := rows.Scan(&rcd.ID, &rcd.EventID, &rcd.AggregateType, &rcd.AggregateID, &rcd.EventType, &rcd.Payload, &rcd.Traceparent, &rcd.Tracestate, &rcd.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rcd)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func (r *Repository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE outbox_events
		SET published_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}
