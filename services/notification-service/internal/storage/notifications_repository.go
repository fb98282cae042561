package storage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/agendavel/agendavel/libs/db"
)

type Notification struct {
	AppointmentID string
	ClinicID      string
	Channel       string
	Recipient     string
	Payload       map[string]any
	Status        string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) (string, error) {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (id, appointment_id, clinic_id, channel, recipient, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, n.AppointmentID, n.ClinicID, n.Channel, n.Recipient, payload, n.Status)
	if err != nil {
		return "", err
	}
	return id, nil
}
