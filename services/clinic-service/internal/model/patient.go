package model

import "time"

type Patient struct {
	ID        string
	ClinicID  string
	Name      string
	Email     string
	Phone     string
	Sex       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
