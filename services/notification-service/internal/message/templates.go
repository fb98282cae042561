package message

import (
	"fmt"
	"time"
)

// Booking events carry a UTC instant; messages show clinic-local wall
// clock so the patient reads the time they will actually show up at.
type Appointment struct {
	AppointmentID string
	ClinicName    string
	At            time.Time
	Location      *time.Location
}

func (a Appointment) localTime() string {
	loc := a.Location
	if loc == nil {
		loc = time.Local
	}
	return a.At.In(loc).Format("02/01/2006 15:04")
}

func BookedSubject(a Appointment) string {
	return "Consulta agendada"
}

func BookedBody(a Appointment) string {
	body := fmt.Sprintf("Sua consulta foi agendada para %s.", a.localTime())
	if a.ClinicName != "" {
		body = fmt.Sprintf("[%s] %s", a.ClinicName, body)
	}
	return body
}

func CancelledSubject(a Appointment) string {
	return "Consulta cancelada"
}

func CancelledBody(a Appointment, reason string) string {
	body := fmt.Sprintf("Sua consulta de %s foi cancelada.", a.localTime())
	if reason != "" {
		body = fmt.Sprintf("%s Motivo: %s", body, reason)
	}
	if a.ClinicName != "" {
		body = fmt.Sprintf("[%s] %s", a.ClinicName, body)
	}
	return body
}
