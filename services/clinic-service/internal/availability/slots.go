package availability

import (
	"fmt"
	"time"

	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
)

// The slot template is the clinic-wide business-hours grid. Every
// professional's window filters this grid; it never introduces slot
// boundaries of its own.
const (
	TemplateStartHour = 5  // first candidate slot: 05:00:00
	TemplateEndHour   = 23 // exclusive: last candidate slot is 22:30:00
	SlotStepMinutes   = 30
)

// BlockedReason is the display string attached to slots covered by a
// blocking window.
const BlockedReason = "Horário bloqueado"

// Slot is one 30-minute candidate appointment time on a given day.
// Value is the canonical identity (HH:MM:SS, clinic-local wall clock);
// Label is the HH:MM truncation used for display.
type Slot struct {
	Value         string `json:"value"`
	Label         string `json:"label"`
	Available     bool   `json:"available"`
	BlockedReason string `json:"blockedReason,omitempty"`
}

// Window is a professional's effective availability range after
// defaulting: weekdays and times are always set.
type Window struct {
	FromWeekday int    // 0=Sunday .. 6=Saturday
	ToWeekday   int    // closed range; no wraparound
	FromTime    string // HH:MM:SS, inclusive
	ToTime      string // HH:MM:SS, inclusive
}

// DefaultWindow is the range an unconfigured profile gets: all week,
// all day.
func DefaultWindow() Window {
	return Window{FromWeekday: 0, ToWeekday: 6, FromTime: "00:00:00", ToTime: "23:59:59"}
}

// WindowFromProfile applies per-field defaults for unset profile
// values.
func WindowFromProfile(p model.ProfessionalProfile) Window {
	w := DefaultWindow()
	if p.AvailableFromWeekday != nil {
		w.FromWeekday = *p.AvailableFromWeekday
	}
	if p.AvailableToWeekday != nil {
		w.ToWeekday = *p.AvailableToWeekday
	}
	if p.AvailableFromTime != nil {
		w.FromTime = *p.AvailableFromTime
	}
	if p.AvailableToTime != nil {
		w.ToTime = *p.AvailableToTime
	}
	return w
}

// BlockedWindow is one exclusion window projected onto the calculator's
// input shape. Date carries only year/month/day semantics.
type BlockedWindow struct {
	Date          time.Time
	TimeFrom      string // HH:MM
	TimeTo        string // HH:MM, exclusive
	Recurring     bool
	RecurringDays []int
}

// TemplateSlots returns the fixed candidate grid for one day, ordered
// ascending: 05:00:00, 05:30:00, ... 22:30:00.
func TemplateSlots() []string {
	var slots []string
	for h := TemplateStartHour; h < TemplateEndHour; h++ {
		for m := 0; m < 60; m += SlotStepMinutes {
			slots = append(slots, fmt.Sprintf("%02d:%02d:00", h, m))
		}
	}
	return slots
}

// ComputeDay runs the slot computation for one calendar day. bookedTimes
// are HH:MM:SS strings of appointments already on that day. The result
// is ordered ascending; it is nil when the weekday falls outside the
// window (the professional does not work that day at all).
//
// A slot that is both booked and blocked reports the blocked reason;
// both states mean unavailable and the distinction is informational.
func ComputeDay(w Window, date time.Time, bookedTimes []string, blocked []BlockedWindow) []Slot {
	weekday := int(date.Weekday())
	if weekday < w.FromWeekday || weekday > w.ToWeekday {
		return nil
	}

	booked := make(map[string]bool, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = true
	}

	blockedSlots := make(map[string]bool)
	for _, b := range blocked {
		if !appliesOn(b, date) {
			continue
		}
		for _, s := range expandWindow(b) {
			blockedSlots[s] = true
		}
	}

	var out []Slot
	for _, value := range TemplateSlots() {
		// Inclusive on both ends; lexicographic comparison is safe on
		// fixed-width zero-padded HH:MM:SS. An inverted window
		// (FromTime > ToTime) simply filters everything out.
		if value < w.FromTime || value > w.ToTime {
			continue
		}
		slot := Slot{
			Value:     value,
			Label:     value[:5],
			Available: !booked[value] && !blockedSlots[value],
		}
		if blockedSlots[value] {
			slot.BlockedReason = BlockedReason
		}
		out = append(out, slot)
	}
	return out
}

// appliesOn reports whether a blocked window covers the given calendar
// date: a non-recurring block matches its own date, a recurring block
// matches any date whose weekday is in its set.
func appliesOn(b BlockedWindow, date time.Time) bool {
	if b.Recurring {
		weekday := int(date.Weekday())
		for _, d := range b.RecurringDays {
			if d == weekday {
				return true
			}
		}
		return false
	}
	by, bm, bd := b.Date.Date()
	y, m, d := date.Date()
	return by == y && bm == m && bd == d
}

// expandWindow lists the 30-minute-aligned slot values in
// [TimeFrom, TimeTo). A window whose end does not exceed its start
// expands to nothing, and so does one with malformed clock strings:
// a bad stored record blocks nothing rather than failing the read.
func expandWindow(b BlockedWindow) []string {
	from, err := model.MinutesOfDay(b.TimeFrom)
	if err != nil {
		return nil
	}
	to, err := model.MinutesOfDay(b.TimeTo)
	if err != nil {
		return nil
	}

	var out []string
	for minutes := from; minutes < to; minutes += SlotStepMinutes {
		out = append(out, fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60))
	}
	return out
}
