package model

import "testing"

func TestBlockedTimeValidate(t *testing.T) {
	b := BlockedTime{TimeFrom: "12:00", TimeTo: "13:00"}
	if err := b.Validate(); err != nil {
		t.Fatalf("valid block rejected: %v", err)
	}

	b = BlockedTime{TimeFrom: "10:00", TimeTo: "10:00"}
	if err := b.Validate(); err != ErrInvalidBlockWindow {
		t.Fatalf("expected ErrInvalidBlockWindow for zero-width block, got %v", err)
	}

	b = BlockedTime{TimeFrom: "14:00", TimeTo: "13:30"}
	if err := b.Validate(); err != ErrInvalidBlockWindow {
		t.Fatalf("expected ErrInvalidBlockWindow for inverted block, got %v", err)
	}

	b = BlockedTime{TimeFrom: "25:00", TimeTo: "26:00"}
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for malformed clock value")
	}
}

func TestBlockedTimeValidateRecurring(t *testing.T) {
	b := BlockedTime{TimeFrom: "09:00", TimeTo: "10:00", IsRecurring: true}
	if err := b.Validate(); err != ErrMissingRecurringDays {
		t.Fatalf("expected ErrMissingRecurringDays, got %v", err)
	}

	b.RecurringDays = []int{1, 7}
	if err := b.Validate(); err != ErrInvalidRecurringDays {
		t.Fatalf("expected ErrInvalidRecurringDays for out-of-range day, got %v", err)
	}

	b.RecurringDays = []int{3, 3}
	if err := b.Validate(); err != ErrInvalidRecurringDays {
		t.Fatalf("expected ErrInvalidRecurringDays for duplicate day, got %v", err)
	}

	b.RecurringDays = []int{1, 3}
	if err := b.Validate(); err != nil {
		t.Fatalf("valid recurring block rejected: %v", err)
	}
}

func TestMinutesOfDay(t *testing.T) {
	n, err := MinutesOfDay("09:30")
	if err != nil || n != 570 {
		t.Fatalf("expected 570, got %d (err %v)", n, err)
	}
	n, err = MinutesOfDay("14:00:00")
	if err != nil || n != 840 {
		t.Fatalf("expected seconds suffix tolerated, got %d (err %v)", n, err)
	}
	if _, err := MinutesOfDay("nonsense"); err == nil {
		t.Fatal("expected error for garbage input")
	}
}
