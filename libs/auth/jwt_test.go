package auth

import (
	"testing"
	"time"
)

func TestSignAndVerifyHS256(t *testing.T) {
	secret := "test-secret"
	claims := Claims{
		Sub:      "user-1",
		ClinicID: "clinic-1",
		Role:     "admin",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(time.Hour).Unix(),
	}

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}

	got, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if got.Sub != claims.Sub || got.ClinicID != claims.ClinicID || got.Role != claims.Role {
		t.Fatalf("claims mismatch: %+v", got)
	}

	if _, err := ParseAndVerifyHS256(token, "other-secret"); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	claims := Claims{
		Sub:      "user-1",
		ClinicID: "clinic-1",
		Iat:      time.Now().Add(-2 * time.Hour).Unix(),
		Exp:      time.Now().Add(-time.Hour).Unix(),
	}
	token, err := SignHS256(claims, "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "s"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
