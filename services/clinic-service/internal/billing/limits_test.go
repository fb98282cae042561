package billing

import "testing"

func TestLimitsForTier(t *testing.T) {
	if l := LimitsForTier("pro"); l.MaxMonthlyAppointments != 5000 || l.Tier != "pro" {
		t.Fatalf("pro limits wrong: %+v", l)
	}
	if l := LimitsForTier("essential"); l.MaxMonthlyAppointments != 500 {
		t.Fatalf("essential limits wrong: %+v", l)
	}
	if l := LimitsForTier("free"); l.MaxMonthlyAppointments != 200 {
		t.Fatalf("free limits wrong: %+v", l)
	}
	// Unknown tiers degrade to free, never to unlimited.
	if l := LimitsForTier("enterprise-beta"); l.Tier != "free" {
		t.Fatalf("unknown tier must map to free, got %+v", l)
	}
}
