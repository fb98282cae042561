package billing

import (
	"context"

	"github.com/agendavel/agendavel/services/clinic-service/internal/storage"
)

// Limits are the entitlements derived from a subscription tier. The
// booking flow enforces MaxMonthlyAppointments before writing an
// appointment.
type Limits struct {
	Tier                   string `json:"tier"`
	MaxProfessionals       int    `json:"max_professionals"`
	MaxMonthlyAppointments int    `json:"max_monthly_appointments"`
}

func LimitsForTier(tier string) Limits {
	switch tier {
	case "essential":
		return Limits{
			Tier:                   "essential",
			MaxProfessionals:       5,
			MaxMonthlyAppointments: 500,
		}
	case "pro":
		return Limits{
			Tier:                   "pro",
			MaxProfessionals:       50,
			MaxMonthlyAppointments: 5000,
		}
	default:
		return Limits{
			Tier:                   "free",
			MaxProfessionals:       2,
			MaxMonthlyAppointments: 200,
		}
	}
}

// Entitlements resolves a clinic's limits from its stored
// subscription. Clinics with no subscription row, or with one that is
// not active or trialing, fall back to the free tier.
type Entitlements struct {
	subs *storage.SubscriptionRepository
}

func NewEntitlements(subs *storage.SubscriptionRepository) *Entitlements {
	return &Entitlements{subs: subs}
}

func (e *Entitlements) LimitsForClinic(ctx context.Context, clinicID string) (Limits, error) {
	sub, found, err := e.subs.Get(ctx, clinicID)
	if err != nil {
		return Limits{}, err
	}
	if !found || (sub.Status != "active" && sub.Status != "trialing") {
		return LimitsForTier("free"), nil
	}
	return LimitsForTier(sub.Tier), nil
}
