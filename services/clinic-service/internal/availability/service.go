package availability

import (
	"context"
	"errors"
	"time"

	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
)

// ErrProfileNotFound means the professional has no availability
// configuration. It is fatal to the computation: no fallback slot list
// is produced.
var ErrProfileNotFound = errors.New("professional profile not found")

// The three read-only collaborators. Appointment and blocked-time
// sources return everything for the professional; the service filters
// by day/applicability itself. Implementations return
// ErrProfileNotFound when no profile exists.
type ProfileSource interface {
	GetAvailabilityProfile(ctx context.Context, professionalID string) (model.ProfessionalProfile, error)
}

type AppointmentSource interface {
	ListAppointments(ctx context.Context, professionalID string) ([]model.Appointment, error)
}

type BlockedTimeSource interface {
	ListBlockedTimes(ctx context.Context, professionalID string) ([]model.BlockedTime, error)
}

// Service computes bookable slots for a professional on a requested
// date. All wall-clock values (profile windows, blocked windows, slot
// values) are clinic-local; appointment instants are converted into the
// configured location before comparison. That is the whole timezone
// policy: no UTC round-trips of wall-clock strings.
type Service struct {
	profiles     ProfileSource
	appointments AppointmentSource
	blocked      BlockedTimeSource
	loc          *time.Location
}

func NewService(profiles ProfileSource, appointments AppointmentSource, blocked BlockedTimeSource, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		profiles:     profiles,
		appointments: appointments,
		blocked:      blocked,
		loc:          loc,
	}
}

// AvailableSlots returns the ordered slot list for the calendar day of
// date. Only the year/month/day of date are meaningful. Upstream read
// errors are propagated as-is; there are no retries and no partial
// results.
func (s *Service) AvailableSlots(ctx context.Context, professionalID string, date time.Time) ([]Slot, error) {
	profile, err := s.profiles.GetAvailabilityProfile(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	window := WindowFromProfile(profile)

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	weekday := int(day.Weekday())
	if weekday < window.FromWeekday || weekday > window.ToWeekday {
		// Off-day short-circuit: no appointment or blocked-time reads
		// needed, the answer is already empty.
		return nil, nil
	}

	appointments, err := s.appointments.ListAppointments(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	blockedRecords, err := s.blocked.ListBlockedTimes(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	var bookedTimes []string
	for _, appt := range appointments {
		local := appt.Time.In(s.loc)
		if sameDay(local, day) {
			bookedTimes = append(bookedTimes, local.Format("15:04:05"))
		}
	}

	blocked := make([]BlockedWindow, 0, len(blockedRecords))
	for _, rec := range blockedRecords {
		blocked = append(blocked, BlockedWindow{
			// Date is a plain calendar date; only its y/m/d components
			// are compared, so no location conversion here.
			Date:          rec.Date,
			TimeFrom:      rec.TimeFrom,
			TimeTo:        rec.TimeTo,
			Recurring:     rec.IsRecurring,
			RecurringDays: rec.RecurringDays,
		})
	}

	return ComputeDay(window, day, bookedTimes, blocked), nil
}

// IsBookable reports whether one specific wall-clock time is an
// available slot on its day. Used by the booking flow before writing an
// appointment.
func (s *Service) IsBookable(ctx context.Context, professionalID string, at time.Time) (bool, error) {
	local := at.In(s.loc)
	slots, err := s.AvailableSlots(ctx, professionalID, local)
	if err != nil {
		return false, err
	}
	want := local.Format("15:04:05")
	for _, slot := range slots {
		if slot.Value == want {
			return slot.Available, nil
		}
	}
	return false, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
