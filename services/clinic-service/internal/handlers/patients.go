package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/agendavel/agendavel/services/clinic-service/internal/model"
	"github.com/agendavel/agendavel/services/clinic-service/internal/storage"
)

type PatientHandler struct {
	repo   *storage.PatientRepository
	logger *slog.Logger
}

func NewPatientHandler(repo *storage.PatientRepository, logger *slog.Logger) *PatientHandler {
	return &PatientHandler{repo: repo, logger: logger}
}

type upsertPatientRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone_number"`
	Sex   string `json:"sex"`
}

type patientItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone_number,omitempty"`
	Sex   string `json:"sex,omitempty"`
}

func (h *PatientHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}

	var req upsertPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		http.Error(w, "name and email required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		http.Error(w, "invalid email", http.StatusUnprocessableEntity)
		return
	}
	switch req.Sex = strings.ToLower(strings.TrimSpace(req.Sex)); req.Sex {
	case "", "male", "female", "other":
	default:
		http.Error(w, "invalid sex", http.StatusUnprocessableEntity)
		return
	}

	id, err := h.repo.Upsert(r.Context(), model.Patient{
		ID:       strings.TrimSpace(req.ID),
		ClinicID: cid,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    strings.TrimSpace(req.Phone),
		Sex:      req.Sex,
	})
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		if storage.IsConflict(err) {
			http.Error(w, "patient with this email already exists", http.StatusConflict)
			return
		}
		h.logger.Error("patient upsert failed", "err", err)
		http.Error(w, "failed to save patient", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}

	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	patients, err := h.repo.ListByClinic(r.Context(), cid, limit)
	if err != nil {
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}
	items := make([]patientItem, 0, len(patients))
	for _, p := range patients {
		items = append(items, patientItem{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, Sex: p.Sex})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid := clinicID(r)
	if cid == "" {
		http.Error(w, "missing clinic context", http.StatusUnauthorized)
		return
	}
	patientID := strings.TrimSpace(r.URL.Query().Get("id"))
	if patientID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), cid, patientID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete patient", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
