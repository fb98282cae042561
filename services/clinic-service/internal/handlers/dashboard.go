package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agendavel/agendavel/services/clinic-service/internal/storage"
)

type DashboardHandler struct {
	repo   *storage.DashboardRepository
	logger *slog.Logger
	loc    *time.Location
}

func NewDashboardHandler(repo *storage.DashboardRepository, logger *slog.Logger, loc *time.Location) *DashboardHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardHandler{repo: repo, logger: logger, loc: loc}
}

type dashboardResponse struct {
	From             string                      `json:"from"`
	To               string                      `json:"to"`
	RevenueCents     int64                       `json:"revenue_in_cents"`
	Appointments     int                         `json:"appointments"`
	Patients         int                         `json:"patients"`
	Professionals    int                         `json:"professionals"`
	TopSpecialties   []storage.SpecialtyCount    `json:"top_specialties"`
	TopProfessionals []storage.ProfessionalCount `json:"top_professionals"`
	Upcoming         []appointmentItem           `json:"upcoming_appointments"`
}

// Summary serves the clinic dashboard: totals, rankings, and the next
// appointments for a clinic-local date range (default: current month).
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}

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

	ctx := r.Context()
	totals, err := h.repo.Totals(ctx, cid, from.UTC(), to.UTC())
	if err != nil {
		h.logger.Error("dashboard totals failed", "err", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	specialties, err := h.repo.TopSpecialties(ctx, cid, from.UTC(), to.UTC(), 5)
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	professionals, err := h.repo.TopProfessionals(ctx, cid, from.UTC(), to.UTC(), 5)
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	upcoming, err := h.repo.UpcomingAppointments(ctx, cid, time.Now().UTC(), 10)
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	upcomingItems := make([]appointmentItem, 0, len(upcoming))
	for _, appt := range upcoming {
		upcomingItems = append(upcomingItems, appointmentItem{
			AppointmentID:  appt.ID,
			ProfessionalID: appt.ProfessionalID,
			PatientID:      appt.PatientID,
			Time:           appt.Time.UTC().Format(time.RFC3339),
			PriceCents:     appt.PriceCents,
			Status:         appt.Status,
			CreatedAt:      appt.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	if specialties == nil {
		specialties = []storage.SpecialtyCount{}
	}
	if professionals == nil {
		professionals = []storage.ProfessionalCount{}
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		From:             from.Format("2006-01-02"),
		To:               to.AddDate(0, 0, -1).Format("2006-01-02"),
		RevenueCents:     totals.RevenueCents,
		Appointments:     totals.Appointments,
		Patients:         totals.Patients,
		Professionals:    totals.Professionals,
		TopSpecialties:   specialties,
		TopProfessionals: professionals,
		Upcoming:         upcomingItems,
	})
}
