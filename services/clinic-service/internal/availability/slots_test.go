package availability

import (
	"testing"
	"time"
)

// 2026-01-20 is a Tuesday, 2026-01-24 a Saturday.
var (
	tuesday  = time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2026, 1, 24, 0, 0, 0, 0, time.UTC)
)

func weekdayWindow() Window {
	return Window{FromWeekday: 1, ToWeekday: 5, FromTime: "09:00:00", ToTime: "17:00:00"}
}

func TestTemplateSlots(t *testing.T) {
	slots := TemplateSlots()
	if len(slots) != (TemplateEndHour-TemplateStartHour)*2 {
		t.Fatalf("expected %d template slots, got %d", (TemplateEndHour-TemplateStartHour)*2, len(slots))
	}
	if slots[0] != "05:00:00" {
		t.Fatalf("expected first slot 05:00:00, got %s", slots[0])
	}
	if slots[len(slots)-1] != "22:30:00" {
		t.Fatalf("expected last slot 22:30:00, got %s", slots[len(slots)-1])
	}
}

func TestOffDayReturnsNothing(t *testing.T) {
	slots := ComputeDay(weekdayWindow(), saturday, nil, nil)
	if len(slots) != 0 {
		t.Fatalf("expected no slots on a Saturday for a Mon-Fri window, got %d", len(slots))
	}
}

func TestWindowFilterInclusive(t *testing.T) {
	slots := ComputeDay(weekdayWindow(), tuesday, nil, nil)
	// 09:00 through 17:00 inclusive at 30-minute cadence = 17 slots.
	if len(slots) != 17 {
		t.Fatalf("expected 17 slots, got %d", len(slots))
	}
	if slots[0].Value != "09:00:00" || slots[len(slots)-1].Value != "17:00:00" {
		t.Fatalf("window bounds wrong: %s .. %s", slots[0].Value, slots[len(slots)-1].Value)
	}
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("slot %s unexpectedly unavailable", s.Value)
		}
		if s.Label != s.Value[:5] {
			t.Fatalf("label %s does not match value %s", s.Label, s.Value)
		}
	}
}

func TestInvertedWindowYieldsNothing(t *testing.T) {
	w := Window{FromWeekday: 0, ToWeekday: 6, FromTime: "17:00:00", ToTime: "09:00:00"}
	if slots := ComputeDay(w, tuesday, nil, nil); len(slots) != 0 {
		t.Fatalf("expected no slots for inverted time window, got %d", len(slots))
	}
}

func TestBookedAndBlockedScenario(t *testing.T) {
	blocked := []BlockedWindow{{
		Date:     tuesday,
		TimeFrom: "12:00",
		TimeTo:   "13:00",
	}}
	slots := ComputeDay(weekdayWindow(), tuesday, []string{"14:00:00"}, blocked)

	byValue := map[string]Slot{}
	for _, s := range slots {
		byValue[s.Value] = s
	}

	if s := byValue["12:00:00"]; s.Available || s.BlockedReason != BlockedReason {
		t.Fatalf("12:00:00 should be blocked with reason, got %+v", s)
	}
	if s := byValue["12:30:00"]; s.Available || s.BlockedReason != BlockedReason {
		t.Fatalf("12:30:00 should be blocked with reason, got %+v", s)
	}
	if s := byValue["13:00:00"]; !s.Available {
		t.Fatalf("13:00:00 is outside the half-open block and should be free, got %+v", s)
	}
	if s := byValue["14:00:00"]; s.Available || s.BlockedReason != "" {
		t.Fatalf("14:00:00 should be booked with no blocked reason, got %+v", s)
	}
	for _, s := range slots {
		switch s.Value {
		case "12:00:00", "12:30:00", "14:00:00":
		default:
			if !s.Available {
				t.Fatalf("slot %s should be available, got %+v", s.Value, s)
			}
		}
	}
}

func TestBookedAndBlockedSameSlot(t *testing.T) {
	blocked := []BlockedWindow{{Date: tuesday, TimeFrom: "14:00", TimeTo: "14:30"}}
	slots := ComputeDay(weekdayWindow(), tuesday, []string{"14:00:00"}, blocked)
	for _, s := range slots {
		if s.Value == "14:00:00" {
			if s.Available {
				t.Fatal("slot both booked and blocked must be unavailable")
			}
			if s.BlockedReason != BlockedReason {
				t.Fatal("blocked reason wins when a slot is both booked and blocked")
			}
			return
		}
	}
	t.Fatal("slot 14:00:00 missing from output")
}

func TestZeroWidthBlockExpandsToNothing(t *testing.T) {
	blocked := []BlockedWindow{{Date: tuesday, TimeFrom: "10:00", TimeTo: "10:00"}}
	slots := ComputeDay(weekdayWindow(), tuesday, nil, blocked)
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("zero-width block must not mark any slot, got %+v", s)
		}
	}
}

func TestRecurringBlockAppliesByWeekday(t *testing.T) {
	// Anchor date is a Saturday months earlier; only the weekday set
	// matters for recurring blocks.
	blocked := []BlockedWindow{{
		Date:          time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		TimeFrom:      "09:00",
		TimeTo:        "10:00",
		Recurring:     true,
		RecurringDays: []int{1, 3},
	}}

	wednesday := time.Date(2026, 1, 21, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)
	for _, day := range []time.Time{monday, wednesday} {
		slots := ComputeDay(weekdayWindow(), day, nil, blocked)
		blockedCount := 0
		for _, s := range slots {
			if s.BlockedReason != "" {
				blockedCount++
			}
		}
		if blockedCount != 2 {
			t.Fatalf("%s: expected 09:00 and 09:30 blocked, got %d blocked slots", day.Weekday(), blockedCount)
		}
	}

	// Tuesday is not in {Mon, Wed}: nothing blocked.
	slots := ComputeDay(weekdayWindow(), tuesday, nil, blocked)
	for _, s := range slots {
		if s.BlockedReason != "" {
			t.Fatalf("recurring block leaked onto %s", tuesday.Weekday())
		}
	}
}

func TestRecurringBlockWithEmptyDaySetDoesNotApply(t *testing.T) {
	// A recurring record whose stored weekday set failed to parse comes
	// through with no days: fail-open, nothing is blocked.
	blocked := []BlockedWindow{{
		Date:      tuesday,
		TimeFrom:  "09:00",
		TimeTo:    "17:00",
		Recurring: true,
	}}
	slots := ComputeDay(weekdayWindow(), tuesday, nil, blocked)
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("fail-open recurring block must not mark slots, got %+v", s)
		}
	}
}

func TestMalformedBlockClockFailsOpen(t *testing.T) {
	blocked := []BlockedWindow{{Date: tuesday, TimeFrom: "garbage", TimeTo: "13:00"}}
	slots := ComputeDay(weekdayWindow(), tuesday, nil, blocked)
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("malformed block window must not mark slots, got %+v", s)
		}
	}
}

func TestBlockOutsideWindowHasNoEffect(t *testing.T) {
	blocked := []BlockedWindow{{Date: tuesday, TimeFrom: "06:00", TimeTo: "07:00"}}
	slots := ComputeDay(weekdayWindow(), tuesday, nil, blocked)
	if len(slots) != 17 {
		t.Fatalf("expected full window, got %d slots", len(slots))
	}
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("block before the window start must not affect slots, got %+v", s)
		}
	}
}

func TestWindowFromProfileDefaults(t *testing.T) {
	w := WindowFromProfile(profileWithNils())
	if w != DefaultWindow() {
		t.Fatalf("expected default window for unset profile, got %+v", w)
	}

	from := 2
	fromTime := "08:00:00"
	p := profileWithNils()
	p.AvailableFromWeekday = &from
	p.AvailableFromTime = &fromTime
	w = WindowFromProfile(p)
	if w.FromWeekday != 2 || w.ToWeekday != 6 || w.FromTime != "08:00:00" || w.ToTime != "23:59:59" {
		t.Fatalf("per-field defaulting wrong: %+v", w)
	}
}
