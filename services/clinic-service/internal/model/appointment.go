package model

import "time"

type Appointment struct {
	ID             string
	ClinicID       string
	ProfessionalID string
	PatientID      string
	Time           time.Time // exact instant, stored UTC
	PriceCents     int
	Status         string // booked | cancelled
	CancelledAt    *time.Time
	CancelReason   string
	CreatedAt      time.Time
}
