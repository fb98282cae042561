package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
)

func profileWithNils() model.ProfessionalProfile {
	return model.ProfessionalProfile{ID: "prof-1", ProfessionalID: "user-1", ClinicID: "clinic-1"}
}

type fakeProfiles struct {
	profile model.ProfessionalProfile
	err     error
}

func (f *fakeProfiles) GetAvailabilityProfile(ctx context.Context, professionalID string) (model.ProfessionalProfile, error) {
	return f.profile, f.err
}

type fakeAppointments struct {
	items []model.Appointment
	err   error
	calls int
}

func (f *fakeAppointments) ListAppointments(ctx context.Context, professionalID string) ([]model.Appointment, error) {
	f.calls++
	return f.items, f.err
}

type fakeBlocked struct {
	items []model.BlockedTime
	err   error
	calls int
}

func (f *fakeBlocked) ListBlockedTimes(ctx context.Context, professionalID string) ([]model.BlockedTime, error) {
	f.calls++
	return f.items, f.err
}

func weekdayProfile() model.ProfessionalProfile {
	fromDay, toDay := 1, 5
	fromTime, toTime := "09:00:00", "17:00:00"
	p := profileWithNils()
	p.AvailableFromWeekday = &fromDay
	p.AvailableToWeekday = &toDay
	p.AvailableFromTime = &fromTime
	p.AvailableToTime = &toTime
	return p
}

func TestAvailableSlotsProfileNotFound(t *testing.T) {
	svc := NewService(&fakeProfiles{err: ErrProfileNotFound}, &fakeAppointments{}, &fakeBlocked{}, time.UTC)
	_, err := svc.AvailableSlots(context.Background(), "user-1", tuesday)
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestAvailableSlotsPropagatesReadErrors(t *testing.T) {
	boom := errors.New("connection reset")

	svc := NewService(&fakeProfiles{profile: weekdayProfile()}, &fakeAppointments{err: boom}, &fakeBlocked{}, time.UTC)
	if _, err := svc.AvailableSlots(context.Background(), "user-1", tuesday); !errors.Is(err, boom) {
		t.Fatalf("expected appointment read error, got %v", err)
	}

	svc = NewService(&fakeProfiles{profile: weekdayProfile()}, &fakeAppointments{}, &fakeBlocked{err: boom}, time.UTC)
	if _, err := svc.AvailableSlots(context.Background(), "user-1", tuesday); !errors.Is(err, boom) {
		t.Fatalf("expected blocked-time read error, got %v", err)
	}
}

func TestAvailableSlotsOffDaySkipsReads(t *testing.T) {
	appts := &fakeAppointments{}
	blocked := &fakeBlocked{}
	svc := NewService(&fakeProfiles{profile: weekdayProfile()}, appts, blocked, time.UTC)

	slots, err := svc.AvailableSlots(context.Background(), "user-1", saturday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on an off day, got %d", len(slots))
	}
	if appts.calls != 0 || blocked.calls != 0 {
		t.Fatal("off-day computation must not hit appointment or blocked-time sources")
	}
}

func TestAvailableSlotsUnconfiguredProfileUsesFullTemplate(t *testing.T) {
	svc := NewService(&fakeProfiles{profile: profileWithNils()}, &fakeAppointments{}, &fakeBlocked{}, time.UTC)
	slots, err := svc.AvailableSlots(context.Background(), "user-1", tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != len(TemplateSlots()) {
		t.Fatalf("unconfigured profile should yield the full template, got %d slots", len(slots))
	}
}

func TestAvailableSlotsMarksBookedAppointments(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 14:00 clinic-local stored as a UTC instant.
	apptAt := time.Date(2026, 1, 20, 14, 0, 0, 0, loc).UTC()
	otherDay := time.Date(2026, 1, 21, 14, 0, 0, 0, loc).UTC()

	appts := &fakeAppointments{items: []model.Appointment{
		{ID: "a1", Time: apptAt, Status: "booked"},
		{ID: "a2", Time: otherDay, Status: "booked"},
	}}
	svc := NewService(&fakeProfiles{profile: weekdayProfile()}, appts, &fakeBlocked{}, loc)

	slots, err := svc.AvailableSlots(context.Background(), "user-1", tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, s := range slots {
		if s.Value == "14:00:00" {
			found = true
			if s.Available {
				t.Fatal("booked slot reported as available")
			}
			if s.BlockedReason != "" {
				t.Fatalf("booked slot must not carry a blocked reason, got %q", s.BlockedReason)
			}
		} else if !s.Available {
			t.Fatalf("appointment on another day leaked into %s", s.Value)
		}
	}
	if !found {
		t.Fatal("slot 14:00:00 missing from output")
	}
}

func TestAvailableSlotsAppliesBlockedTimes(t *testing.T) {
	blocked := &fakeBlocked{items: []model.BlockedTime{{
		ID:       "b1",
		Date:     tuesday,
		TimeFrom: "12:00",
		TimeTo:   "13:00",
	}}}
	svc := NewService(&fakeProfiles{profile: weekdayProfile()}, &fakeAppointments{}, blocked, time.UTC)

	slots, err := svc.AvailableSlots(context.Background(), "user-1", tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	blockedCount := 0
	for _, s := range slots {
		if s.BlockedReason != "" {
			blockedCount++
			if s.Available {
				t.Fatalf("blocked slot %s reported as available", s.Value)
			}
		}
	}
	if blockedCount != 2 {
		t.Fatalf("expected 12:00 and 12:30 blocked, got %d blocked slots", blockedCount)
	}
}

func TestAvailableSlotsDeterministic(t *testing.T) {
	svc := NewService(&fakeProfiles{profile: weekdayProfile()}, &fakeAppointments{}, &fakeBlocked{}, time.UTC)
	first, err := svc.AvailableSlots(context.Background(), "user-1", tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.AvailableSlots(context.Background(), "user-1", tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("slot count changed between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("slot %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestIsBookable(t *testing.T) {
	appts := &fakeAppointments{items: []model.Appointment{
		{ID: "a1", Time: time.Date(2026, 1, 20, 14, 0, 0, 0, time.UTC), Status: "booked"},
	}}
	svc := NewService(&fakeProfiles{profile: weekdayProfile()}, appts, &fakeBlocked{}, time.UTC)

	ok, err := svc.IsBookable(context.Background(), "user-1", time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC))
	if err != nil || !ok {
		t.Fatalf("expected 10:00 bookable, got ok=%v err=%v", ok, err)
	}

	ok, err = svc.IsBookable(context.Background(), "user-1", time.Date(2026, 1, 20, 14, 0, 0, 0, time.UTC))
	if err != nil || ok {
		t.Fatalf("expected booked 14:00 not bookable, got ok=%v err=%v", ok, err)
	}

	// 08:15 is not on the grid at all.
	ok, err = svc.IsBookable(context.Background(), "user-1", time.Date(2026, 1, 20, 8, 15, 0, 0, time.UTC))
	if err != nil || ok {
		t.Fatalf("expected off-grid time not bookable, got ok=%v err=%v", ok, err)
	}
}
