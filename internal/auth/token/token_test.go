package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	raw, exp, err := NewAccessToken("secret", userID, "tenant_admin", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseAccessToken("secret", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != userID || claims.UserType != "tenant_admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ExpiresAt.Unix() != exp.Unix() {
		t.Fatalf("expiry mismatch")
	}
}

func TestAccessTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	raw, _, err := NewAccessToken("secret", uuid.New(), "agent", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseAccessToken("other", raw); err == nil {
		t.Fatalf("expected wrong secret to fail")
	}

	expired, _, err := NewAccessToken("secret", uuid.New(), "agent", time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseAccessToken("secret", expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
