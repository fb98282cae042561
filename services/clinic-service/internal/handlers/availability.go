package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agendavel/agendavel/services/clinic-service/internal/availability"
)

type AvailabilityHandler struct {
	svc    *availability.Service
	logger *slog.Logger
	loc    *time.Location
}

func NewAvailabilityHandler(svc *availability.Service, logger *slog.Logger, loc *time.Location) *AvailabilityHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AvailabilityHandler{svc: svc, logger: logger, loc: loc}
}

// AvailableTimes serves GET /available-times?professional_id=...&date=YYYY-MM-DD.
// The slot list is always a JSON array, never null; a day off is an
// empty array, a missing profile is 404.
func (h *AvailabilityHandler) AvailableTimes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if professionalID == "" || dateStr == "" {
		http.Error(w, "professional_id and date are required", http.StatusBadRequest)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, h.loc)
	if err != nil {
		http.Error(w, "invalid date (expected YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.AvailableSlots(r.Context(), professionalID, date)
	if err != nil {
		if errors.Is(err, availability.ErrProfileNotFound) {
			http.Error(w, "professional profile not found", http.StatusNotFound)
			return
		}
		h.logger.Error("available slots computation failed", "professional_id", professionalID, "err", err)
		http.Error(w, "failed to compute availability", http.StatusInternalServerError)
		return
	}

	if slots == nil {
		slots = []availability.Slot{}
	}
	writeJSON(w, http.StatusOK, slots)
}
