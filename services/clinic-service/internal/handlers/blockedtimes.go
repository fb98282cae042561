package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
	"github.com/agendavel/agendavel/services/clinic-service/internal/storage"
)

type BlockedTimeHandler struct {
	repo   *storage.BlockedTimeRepository
	logger *slog.Logger
	loc    *time.Location
}

func NewBlockedTimeHandler(repo *storage.BlockedTimeRepository, logger *slog.Logger, loc *time.Location) *BlockedTimeHandler {
	if loc == nil {
		loc = time.Local
	}
	return &BlockedTimeHandler{repo: repo, logger: logger, loc: loc}
}

type createBlockedTimeRequest struct {
	ProfessionalID string `json:"professional_id"`
	Date           string `json:"date"`
	TimeFrom       string `json:"time_from"`
	TimeTo         string `json:"time_to"`
	Reason         string `json:"reason"`
	IsRecurring    bool   `json:"is_recurring"`
	RecurringDays  []int  `json:"recurring_days"`
}

type blockedTimeItem struct {
	ID             string `json:"id"`
	ProfessionalID string `json:"professional_id"`
	Date           string `json:"date"`
	TimeFrom       string `json:"time_from"`
	TimeTo         string `json:"time_to"`
	Reason         string `json:"reason,omitempty"`
	IsRecurring    bool   `json:"is_recurring"`
	RecurringDays  []int  `json:"recurring_days,omitempty"`
}

func (h *BlockedTimeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}

	var req createBlockedTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	if req.ProfessionalID == "" || strings.TrimSpace(req.Date) == "" {
		http.Error(w, "professional_id and date required", http.StatusBadRequest)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Date), time.UTC)
	if err != nil {
		http.Error(w, "invalid date (expected YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	block := model.BlockedTime{
		ClinicID:       cid,
		ProfessionalID: req.ProfessionalID,
		Date:           date,
		TimeFrom:       strings.TrimSpace(req.TimeFrom),
		TimeTo:         strings.TrimSpace(req.TimeTo),
		Reason:         strings.TrimSpace(req.Reason),
		IsRecurring:    req.IsRecurring,
		RecurringDays:  req.RecurringDays,
	}
	if err := block.Validate(); err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidBlockWindow),
			errors.Is(err, model.ErrInvalidRecurringDays),
			errors.Is(err, model.ErrMissingRecurringDays):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	id, err := h.repo.Create(r.Context(), block)
	if err != nil {
		h.logger.Error("blocked time create failed", "err", err)
		http.Error(w, "failed to create blocked time", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *BlockedTimeHandler) List(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}

	blocks, err := h.repo.ListByClinic(r.Context(), cid, professionalID)
	if err != nil {
		http.Error(w, "failed to list blocked times", http.StatusInternalServerError)
		return
	}

	items := make([]blockedTimeItem, 0, len(blocks))
	for _, b := range blocks {
		items = append(items, blockedTimeItem{
			ID:             b.ID,
			ProfessionalID: b.ProfessionalID,
			Date:           b.Date.Format("2006-01-02"),
			TimeFrom:       b.TimeFrom,
			TimeTo:         b.TimeTo,
			Reason:         b.Reason,
			IsRecurring:    b.IsRecurring,
			RecurringDays:  b.RecurringDays,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BlockedTimeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}
	blockedTimeID := strings.TrimSpace(r.URL.Query().Get("id"))
	if blockedTimeID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), cid, blockedTimeID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "blocked time not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete blocked time", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
