package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agendavel/agendavel/services/clinic-service/internal/availability"
	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
	"github.com/agendavel/agendavel/services/clinic-service/internal/storage"
)

type ProfessionalHandler struct {
	repo   *storage.ProfessionalRepository
	logger *slog.Logger
}

func NewProfessionalHandler(repo *storage.ProfessionalRepository, logger *slog.Logger) *ProfessionalHandler {
	return &ProfessionalHandler{repo: repo, logger: logger}
}

type upsertProfileRequest struct {
	ProfessionalID       string  `json:"professional_id"`
	Specialty            string  `json:"specialty"`
	AvailableFromWeekday *int    `json:"available_from_week_day"`
	AvailableToWeekday   *int    `json:"available_to_week_day"`
	AvailableFromTime    *string `json:"available_from_time"`
	AvailableToTime      *string `json:"available_to_time"`
	PriceCents           int     `json:"appointment_price_in_cents"`
}

type profileItem struct {
	ID                   string  `json:"id"`
	ProfessionalID       string  `json:"professional_id"`
	Specialty            string  `json:"specialty,omitempty"`
	AvailableFromWeekday *int    `json:"available_from_week_day"`
	AvailableToWeekday   *int    `json:"available_to_week_day"`
	AvailableFromTime    *string `json:"available_from_time"`
	AvailableToTime      *string `json:"available_to_time"`
	PriceCents           int     `json:"appointment_price_in_cents"`
}

func validWeekday(d *int) bool {
	return d == nil || (*d >= 0 && *d <= 6)
}

func validClock(c *string) bool {
	if c == nil {
		return true
	}
	_, err := model.MinutesOfDay(*c)
	return err == nil
}

func (h *ProfessionalHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}

	var req upsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	if req.ProfessionalID == "" {
		// Professionals managing their own profile.
		req.ProfessionalID = userID(r)
	}
	if req.ProfessionalID == "" {
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}
	if !validWeekday(req.AvailableFromWeekday) || !validWeekday(req.AvailableToWeekday) {
		http.Error(w, "weekdays must be in 0..6", http.StatusUnprocessableEntity)
		return
	}
	if !validClock(req.AvailableFromTime) || !validClock(req.AvailableToTime) {
		http.Error(w, "availability times must be valid clock values", http.StatusUnprocessableEntity)
		return
	}
	if req.PriceCents < 0 {
		http.Error(w, "appointment_price_in_cents must not be negative", http.StatusUnprocessableEntity)
		return
	}

	id, err := h.repo.UpsertProfile(r.Context(), model.ProfessionalProfile{
		ProfessionalID:       req.ProfessionalID,
		ClinicID:             cid,
		Specialty:            strings.TrimSpace(req.Specialty),
		AvailableFromWeekday: req.AvailableFromWeekday,
		AvailableToWeekday:   req.AvailableToWeekday,
		AvailableFromTime:    req.AvailableFromTime,
		AvailableToTime:      req.AvailableToTime,
		PriceCents:           req.PriceCents,
	})
	if err != nil {
		h.logger.Error("profile upsert failed", "err", err)
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *ProfessionalHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}
	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	if professionalID == "" {
		professionalID = userID(r)
	}
	if professionalID == "" {
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetByClinic(r.Context(), cid, professionalID)
	if err != nil {
		if errors.Is(err, availability.ErrProfileNotFound) {
			http.Error(w, "professional profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toProfileItem(p))
}

func (h *ProfessionalHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}

	profiles, err := h.repo.ListByClinic(r.Context(), cid, 0)
	if err != nil {
		http.Error(w, "failed to list professionals", http.StatusInternalServerError)
		return
	}
	items := make([]profileItem, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, toProfileItem(p))
	}
	writeJSON(w, http.StatusOK, items)
}

func toProfileItem(p model.ProfessionalProfile) profileItem {
	return profileItem{
		ID:                   p.ID,
		ProfessionalID:       p.ProfessionalID,
		Specialty:            p.Specialty,
		AvailableFromWeekday: p.AvailableFromWeekday,
		AvailableToWeekday:   p.AvailableToWeekday,
		AvailableFromTime:    p.AvailableFromTime,
		AvailableToTime:      p.AvailableToTime,
		PriceCents:           p.PriceCents,
	}
}
