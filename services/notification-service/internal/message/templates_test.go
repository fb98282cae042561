package message

import (
	"strings"
	"testing"
	"time"
)

func TestBookedBodyUsesLocalWallClock(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	a := Appointment{
		AppointmentID: "a1",
		ClinicName:    "Clínica Central",
		At:            time.Date(2026, 1, 20, 17, 0, 0, 0, time.UTC), // 14:00 local
		Location:      loc,
	}
	body := BookedBody(a)
	if !strings.Contains(body, "20/01/2026 14:00") {
		t.Fatalf("expected local wall clock in body, got %q", body)
	}
	if !strings.HasPrefix(body, "[Clínica Central]") {
		t.Fatalf("expected clinic name prefix, got %q", body)
	}
}

func TestCancelledBodyIncludesReason(t *testing.T) {
	a := Appointment{At: time.Date(2026, 1, 20, 14, 0, 0, 0, time.UTC), Location: time.UTC}
	body := CancelledBody(a, "imprevisto")
	if !strings.Contains(body, "Motivo: imprevisto") {
		t.Fatalf("expected reason in body, got %q", body)
	}

	body = CancelledBody(a, "")
	if strings.Contains(body, "Motivo") {
		t.Fatalf("no reason given, body should omit it, got %q", body)
	}
}
