package auth

import (
	"testing"
	"time"

	"github.com/glowmart/glowmart-backend/pkg/config"
	"github.com/google/uuid"
)

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "glowmart"}
	userID := uuid.New()

	token, err := MintAccessToken(cfg, time.Now(), userID, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user %s, got %s", userID, claims.UserID)
	}
	if claims.Issuer != "glowmart" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := MintAccessToken(config.JWTConfig{Secret: "secret", Issuer: "someone-else"}, time.Now(), uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(config.JWTConfig{Secret: "secret", Issuer: "glowmart"}, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "glowmart"}
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseRejectsTamperedSecret(t *testing.T) {
	token, err := MintAccessToken(config.JWTConfig{Secret: "other", Issuer: "glowmart"}, time.Now(), uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(config.JWTConfig{Secret: "secret", Issuer: "glowmart"}, token); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}
