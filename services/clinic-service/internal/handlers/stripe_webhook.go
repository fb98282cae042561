package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/agendavel/agendavel/services/clinic-service/internal/storage"
)

// StripeWebhook applies subscription changes pushed by Stripe. There is
// no JWT on this path; the signature check is the auth. The gateway
// exposes it publicly.
func (h *BillingHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if strings.TrimSpace(h.stripeWebhookSecret) == "" {
		http.Error(w, "stripe webhook not configured", http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	evt, err := webhook.ConstructEventWithTolerance(body, sigHeader, h.stripeWebhookSecret, h.stripeWebhookTolerance)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	occurredAt := time.Unix(evt.Created, 0).UTC()
	evtType := string(evt.Type)
	h.logger.Info("stripe event received",
		"provider_event_id", evt.ID,
		"event_type", evtType,
		"occurred_at", occurredAt.Format(time.RFC3339),
	)

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Replayed deliveries ack without re-applying side effects.
	if err := h.repo.InsertProviderEvent(ctx, tx, storage.ProviderEvent{
		Provider:        "stripe",
		ProviderEventID: evt.ID,
		EventType:       evtType,
		Payload:         body,
	}); err != nil {
		if errors.Is(err, storage.ErrDuplicateProviderEvent) {
			h.logger.Info("stripe duplicate event ignored", "provider_event_id", evt.ID, "event_type", evtType)
			writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
			_ = tx.Commit(ctx)
			return
		}
		http.Error(w, "failed to record provider event", http.StatusInternalServerError)
		return
	}

	switch evtType {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			h.logger.Error("stripe: invalid checkout session payload", "err", err)
			break
		}
		cid := strings.TrimSpace(session.Metadata["clinic_id"])
		tier := strings.TrimSpace(strings.ToLower(session.Metadata["tier"]))
		if cid == "" || tier == "" {
			h.logger.Warn("stripe: checkout session missing clinic_id/tier metadata")
			break
		}
		sub := storage.Subscription{ClinicID: cid, Tier: tier, Status: "active"}
		if session.Customer != nil {
			sub.StripeCustomerID = session.Customer.ID
		}
		if session.Subscription != nil {
			sub.StripeSubscriptionID = session.Subscription.ID
		}
		if err := h.repo.Upsert(ctx, tx, sub); err != nil {
			http.Error(w, "failed to apply activation", http.StatusInternalServerError)
			return
		}

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var stripeSub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &stripeSub); err != nil {
			h.logger.Error("stripe: invalid subscription payload", "err", err)
			break
		}
		cid := strings.TrimSpace(stripeSub.Metadata["clinic_id"])
		tier := strings.TrimSpace(strings.ToLower(stripeSub.Metadata["tier"]))
		if cid == "" {
			h.logger.Warn("stripe: subscription missing clinic_id metadata")
			break
		}
		if tier == "" {
			tier = "free"
		}
		sub := storage.Subscription{
			ClinicID:             cid,
			Tier:                 tier,
			Status:               string(stripeSub.Status),
			StripeSubscriptionID: stripeSub.ID,
		}
		if evtType == "customer.subscription.deleted" {
			sub.Status = "canceled"
		}
		if stripeSub.Customer != nil {
			sub.StripeCustomerID = stripeSub.Customer.ID
		}
		if stripeSub.CurrentPeriodStart > 0 {
			t := time.Unix(stripeSub.CurrentPeriodStart, 0).UTC()
			sub.CurrentPeriodStart = &t
		}
		if stripeSub.CurrentPeriodEnd > 0 {
			t := time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC()
			sub.CurrentPeriodEnd = &t
		}
		if err := h.repo.Upsert(ctx, tx, sub); err != nil {
			http.Error(w, "failed to apply subscription change", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
