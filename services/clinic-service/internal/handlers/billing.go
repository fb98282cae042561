package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/agendavel/agendavel/services/clinic-service/internal/billing"
	"github.com/agendavel/agendavel/services/clinic-service/internal/storage"
)

type BillingHandler struct {
	repo                   *storage.SubscriptionRepository
	entitlements           *billing.Entitlements
	logger                 *slog.Logger
	stripeWebhookSecret    string
	stripeWebhookTolerance time.Duration
}

func NewBillingHandler(repo *storage.SubscriptionRepository, entitlements *billing.Entitlements, logger *slog.Logger, stripeWebhookSecret string, stripeWebhookTolerance time.Duration) *BillingHandler {
	if stripeWebhookTolerance <= 0 {
		stripeWebhookTolerance = 5 * time.Minute
	}
	return &BillingHandler{
		repo:                   repo,
		entitlements:           entitlements,
		logger:                 logger,
		stripeWebhookSecret:    stripeWebhookSecret,
		stripeWebhookTolerance: stripeWebhookTolerance,
	}
}

type subscriptionResponse struct {
	Tier               string         `json:"tier"`
	Status             string         `json:"status"`
	CurrentPeriodStart string         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   string         `json:"current_period_end,omitempty"`
	Limits             billing.Limits `json:"limits"`
}

// Subscription reports the clinic's plan and effective limits. Clinics
// without a subscription row are on the free tier.
func (h *BillingHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}

	sub, found, err := h.repo.Get(r.Context(), cid)
	if err != nil {
		http.Error(w, "failed to load subscription", http.StatusInternalServerError)
		return
	}
	limits, err := h.entitlements.LimitsForClinic(r.Context(), cid)
	if err != nil {
		http.Error(w, "failed to load entitlements", http.StatusInternalServerError)
		return
	}

	resp := subscriptionResponse{Tier: "free", Status: "none", Limits: limits}
	if found {
		resp.Tier = sub.Tier
		resp.Status = sub.Status
		if sub.CurrentPeriodStart != nil {
			resp.CurrentPeriodStart = sub.CurrentPeriodStart.UTC().Format(time.RFC3339)
		}
		if sub.CurrentPeriodEnd != nil {
			resp.CurrentPeriodEnd = sub.CurrentPeriodEnd.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
