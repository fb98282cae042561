package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/agendavel/agendavel/services/clinic-service/internal/availability"
	"github.com/agendavel/agendavel/services/clinic-service/internal/billing"
	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
	"github.com/agendavel/agendavel/services/clinic-service/internal/outbox"
	"github.com/agendavel/agendavel/services/clinic-service/internal/storage"
)

type AppointmentHandler struct {
	repo          *storage.AppointmentRepository
	professionals *storage.ProfessionalRepository
	patients      *storage.PatientRepository
	outboxRepo    *outbox.Repository
	availability  *availability.Service
	entitlements  *billing.Entitlements
	logger        *slog.Logger
	loc           *time.Location
}

func NewAppointmentHandler(
	repo *storage.AppointmentRepository,
	professionals *storage.ProfessionalRepository,
	patients *storage.PatientRepository,
	outboxRepo *outbox.Repository,
	availabilitySvc *availability.Service,
	entitlements *billing.Entitlements,
	logger *slog.Logger,
	loc *time.Location,
) *AppointmentHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AppointmentHandler{
		repo:          repo,
		professionals: professionals,
		patients:      patients,
		outboxRepo:    outboxRepo,
		availability:  availabilitySvc,
		entitlements:  entitlements,
		logger:        logger,
		loc:           loc,
	}
}

type createAppointmentRequest struct {
	ProfessionalID string `json:"professional_id"`
	PatientID      string `json:"patient_id"`
	Time           string `json:"time"`
}

type createAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type cancelAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at"`
}

type appointmentItem struct {
	AppointmentID  string `json:"appointment_id"`
	ProfessionalID string `json:"professional_id"`
	PatientID      string `json:"patient_id"`
	Time           string `json:"time"`
	PriceCents     int    `json:"price_in_cents"`
	Status         string `json:"status"`
	CancelledAt    string `json:"cancelled_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

var errPaymentRequired = errors.New("monthly appointment limit reached (upgrade required)")

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	req.PatientID = strings.TrimSpace(req.PatientID)
	if req.ProfessionalID == "" || req.PatientID == "" {
		http.Error(w, "professional_id and patient_id required", http.StatusBadRequest)
		return
	}

	at, err := time.Parse(time.RFC3339, req.Time)
	if err != nil {
		http.Error(w, "invalid time (expected RFC 3339)", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	profile, err := h.professionals.GetByClinic(ctx, cid, req.ProfessionalID)
	if err != nil {
		if errors.Is(err, availability.ErrProfileNotFound) {
			http.Error(w, "professional profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load professional", http.StatusInternalServerError)
		return
	}
	patient, err := h.patients.Get(ctx, cid, req.PatientID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load patient", http.StatusInternalServerError)
		return
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.repo.LockIdempotencyKey(ctx, tx, cid, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.StatusCode > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			if len(rec.ResponsePayload) > 0 {
				_, _ = w.Write(rec.ResponsePayload)
				return
			}
			_ = json.NewEncoder(w).Encode(createAppointmentResponse{AppointmentID: rec.AppointmentID})
			return
		}
	}

	ok, err := h.availability.IsBookable(ctx, req.ProfessionalID, at)
	if err != nil {
		http.Error(w, "failed to check availability", http.StatusInternalServerError)
		return
	}
	if !ok {
		if idempotencyKey != "" && h.finalizeIdempotencyError(ctx, tx, cid, idempotencyKey, http.StatusUnprocessableEntity, "requested time is not available") {
			_ = tx.Commit(ctx)
		}
		http.Error(w, "requested time is not available", http.StatusUnprocessableEntity)
		return
	}

	if err := h.enforceMonthlyLimit(ctx, tx, cid, at); err != nil {
		if errors.Is(err, errPaymentRequired) {
			if idempotencyKey != "" && h.finalizeIdempotencyError(ctx, tx, cid, idempotencyKey, http.StatusPaymentRequired, err.Error()) {
				_ = tx.Commit(ctx)
			}
			http.Error(w, err.Error(), http.StatusPaymentRequired)
			return
		}
		http.Error(w, "entitlements check failed", http.StatusInternalServerError)
		return
	}

	appt := &model.Appointment{
		ClinicID:       cid,
		ProfessionalID: req.ProfessionalID,
		PatientID:      req.PatientID,
		Time:           at.UTC(),
		PriceCents:     profile.PriceCents,
		Status:         "booked",
	}
	id, err := h.repo.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	evt, err := outbox.NewAppointmentEvent(outbox.TopicAppointmentBooked, outbox.AppointmentEvent{
		AppointmentID:  id,
		ClinicID:       cid,
		ProfessionalID: appt.ProfessionalID,
		PatientID:      appt.PatientID,
		Time:           appt.Time,
		PriceCents:     appt.PriceCents,
		PatientEmail:   patient.Email,
		PatientPhone:   patient.Phone,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, evt); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	respBody, err := json.Marshal(createAppointmentResponse{AppointmentID: id})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.repo.FinalizeIdempotency(ctx, tx, cid, idempotencyKey, id, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

func (h *AppointmentHandler) enforceMonthlyLimit(ctx context.Context, tx pgx.Tx, cid string, at time.Time) error {
	limits, err := h.entitlements.LimitsForClinic(ctx, cid)
	if err != nil {
		return err
	}
	if limits.MaxMonthlyAppointments <= 0 {
		return nil
	}

	atUTC := at.UTC()
	monthStart := time.Date(atUTC.Year(), atUTC.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	cnt, err := h.repo.CountBookedInMonth(ctx, tx, cid, monthStart, monthEnd)
	if err != nil {
		return err
	}
	if cnt >= limits.MaxMonthlyAppointments {
		return errPaymentRequired
	}
	return nil
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}
	appointmentID := strings.TrimSpace(r.URL.Query().Get("appointment_id"))
	if appointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	var req cancelAppointmentRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.Reason = strings.TrimSpace(req.Reason)

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, cid, appointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	// Cancelling twice is a no-op, not an error.
	if appt.Status == "cancelled" && appt.CancelledAt != nil {
		h.writeCancelResponse(w, appt.ID, appt.CancelledAt.UTC())
		return
	}
	if appt.Status != "booked" {
		http.Error(w, "appointment cannot be cancelled", http.StatusConflict)
		return
	}

	cancelledAt, err := h.repo.Cancel(ctx, tx, cid, appt.ID, req.Reason)
	if err != nil {
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}

	cancelEvt := outbox.AppointmentEvent{
		AppointmentID:  appt.ID,
		ClinicID:       cid,
		ProfessionalID: appt.ProfessionalID,
		PatientID:      appt.PatientID,
		Time:           appt.Time,
		PriceCents:     appt.PriceCents,
		Reason:         req.Reason,
	}
	// Contact info is best effort on cancellation; the event still
	// flows without it.
	if patient, err := h.patients.Get(ctx, cid, appt.PatientID); err == nil {
		cancelEvt.PatientEmail = patient.Email
		cancelEvt.PatientPhone = patient.Phone
	}
	evt, err := outbox.NewAppointmentEvent(outbox.TopicAppointmentCancelled, cancelEvt)
	if err != nil {
		http.Error(w, "failed to build cancellation event", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, evt); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.writeCancelResponse(w, appt.ID, cancelledAt.UTC())
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}

	// Default range: the current clinic-local month.
	now := time.Now().In(h.loc)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.loc)
	to := from.AddDate(0, 1, 0)
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			http.Error(w, "invalid from (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			http.Error(w, "invalid to (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	appts, err := h.repo.ListByClinic(r.Context(), cid, from.UTC(), to.UTC(), limit)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		item := appointmentItem{
			AppointmentID:  appt.ID,
			ProfessionalID: appt.ProfessionalID,
			PatientID:      appt.PatientID,
			Time:           appt.Time.UTC().Format(time.RFC3339),
			PriceCents:     appt.PriceCents,
			Status:         appt.Status,
			CreatedAt:      appt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if appt.CancelledAt != nil {
			item.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AppointmentHandler) writeCancelResponse(w http.ResponseWriter, appointmentID string, cancelledAt time.Time) {
	writeJSON(w, http.StatusOK, cancelAppointmentResponse{
		AppointmentID: appointmentID,
		Status:        "cancelled",
		CancelledAt:   cancelledAt.Format(time.RFC3339),
	})
}

func (h *AppointmentHandler) finalizeIdempotencyError(ctx context.Context, tx pgx.Tx, cid, key string, statusCode int, msg string) bool {
	body, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return false
	}
	if err := h.repo.FinalizeIdempotency(ctx, tx, cid, key, "", statusCode, body); err != nil {
		h.logger.Error("failed to finalize idempotency (error)", "err", err)
		return false
	}
	return true
}
