package model

import "time"

// ProfessionalProfile holds a professional's booking configuration.
// Availability fields are nullable: an unset field means "no
// restriction" and is defaulted at read time (all week, all day).
type ProfessionalProfile struct {
	ID                   string
	ProfessionalID       string
	ClinicID             string
	Specialty            string
	AvailableFromWeekday *int    // 0=Sunday .. 6=Saturday
	AvailableToWeekday   *int    // closed linear range, no wraparound
	AvailableFromTime    *string // HH:MM:SS, inclusive
	AvailableToTime      *string // HH:MM:SS, inclusive
	PriceCents           int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
