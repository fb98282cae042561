package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clinicID reads the tenant set by the gateway after JWT verification.
// Requests without it never came through the gateway.
func clinicID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Clinic-Id"))
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}
