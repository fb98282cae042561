package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BlockedTime is an exclusion window during which a professional is not
// bookable. Non-recurring blocks apply on Date only; recurring blocks
// apply on every weekday in RecurringDays and Date is just the
// historical anchor it was created on.
type BlockedTime struct {
	ID             string
	ClinicID       string
	ProfessionalID string
	Date           time.Time // calendar date
	TimeFrom       string    // HH:MM
	TimeTo         string    // HH:MM, exclusive
	Reason         string
	IsRecurring    bool
	RecurringDays  []int // 0=Sunday .. 6=Saturday
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

var (
	ErrInvalidBlockWindow   = errors.New("time_to must be after time_from")
	ErrInvalidRecurringDays = errors.New("recurring_days must be weekdays in 0..6")
	ErrMissingRecurringDays = errors.New("recurring blocks need at least one weekday")
)

// Validate enforces the write-time invariants the availability
// calculator relies on. Records that fail here never reach storage.
func (b BlockedTime) Validate() error {
	from, err := MinutesOfDay(b.TimeFrom)
	if err != nil {
		return fmt.Errorf("invalid time_from: %w", err)
	}
	to, err := MinutesOfDay(b.TimeTo)
	if err != nil {
		return fmt.Errorf("invalid time_to: %w", err)
	}
	if to <= from {
		return ErrInvalidBlockWindow
	}
	if b.IsRecurring {
		if len(b.RecurringDays) == 0 {
			return ErrMissingRecurringDays
		}
		seen := map[int]struct{}{}
		for _, d := range b.RecurringDays {
			if d < 0 || d > 6 {
				return ErrInvalidRecurringDays
			}
			if _, dup := seen[d]; dup {
				return ErrInvalidRecurringDays
			}
			seen[d] = struct{}{}
		}
	}
	return nil
}

// MinutesOfDay parses an HH:MM clock string into minutes since midnight.
func MinutesOfDay(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("malformed clock value %q", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("malformed clock value %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("malformed clock value %q", clock)
	}
	return h*60 + m, nil
}
