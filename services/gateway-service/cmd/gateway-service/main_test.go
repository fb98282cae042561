package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agendavel/agendavel/libs/auth"
)

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	handler := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream should not be reached")
	}), "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsBadSignature(t *testing.T) {
	token, err := auth.SignHS256(auth.Claims{
		Sub:      "user-1",
		ClinicID: "clinic-1",
		Role:     "admin",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(time.Hour).Unix(),
	}, "other-secret")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	handler := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream should not be reached")
	}), "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthSetsIdentityHeadersFromToken(t *testing.T) {
	token, err := auth.SignHS256(auth.Claims{
		Sub:      "user-1",
		ClinicID: "clinic-1",
		Role:     "admin",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(time.Hour).Unix(),
	}, "secret")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	var seen http.Header
	handler := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}), "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	// Spoofed identity headers must be replaced by the token's claims.
	req.Header.Set("X-Clinic-Id", "someone-else")
	req.Header.Set("X-Role", "admin")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := seen.Get("X-User-Id"); got != "user-1" {
		t.Fatalf("X-User-Id = %q, want user-1", got)
	}
	if got := seen.Get("X-Clinic-Id"); got != "clinic-1" {
		t.Fatalf("X-Clinic-Id = %q, want clinic-1", got)
	}
	if got := seen.Get("X-Role"); got != "admin" {
		t.Fatalf("X-Role = %q, want admin", got)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	token, err := auth.SignHS256(auth.Claims{
		Sub:      "user-1",
		ClinicID: "clinic-1",
		Role:     "admin",
		Iat:      time.Now().Add(-2 * time.Hour).Unix(),
		Exp:      time.Now().Add(-time.Hour).Unix(),
	}, "secret")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	handler := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream should not be reached")
	}), "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "admin")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req.Header.Set("X-Role", "professional")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for professional, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req.Header.Set("X-Role", "admin")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestParseList(t *testing.T) {
	got := parseList(" GET, POST ,,DELETE ")
	want := []string{"GET", "POST", "DELETE"}
	if len(got) != len(want) {
		t.Fatalf("parseList returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("parseList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
