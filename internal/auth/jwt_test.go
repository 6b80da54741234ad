package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	s, err := m.GenerateSessionToken("user-1", "ann@example.com", "employee")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if s.Token == "" || s.JTI == "" {
		t.Fatalf("expected token and jti, got %+v", s)
	}

	claims, err := m.VerifySessionToken(s.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "employee" || claims.JTI != s.JTI {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifySessionTokenRejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	other := NewManager("another-secret", time.Hour)

	foreign, err := other.GenerateSessionToken("user-1", "ann@example.com", "employee")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.VerifySessionToken(foreign.Token); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}

	expired := NewManager("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	old, err := expired.GenerateSessionToken("user-1", "ann@example.com", "employee")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.VerifySessionToken(old.Token); err == nil {
		t.Fatalf("expired token must be rejected")
	}

	if _, err := m.VerifySessionToken("not-a-jwt"); err == nil {
		t.Fatalf("garbage must be rejected")
	}
}

func TestVerifySessionTokenWrongType(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	claims := Claims{
		UserID:    "user-1",
		TokenType: "invite",
		JTI:       "abc",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.VerifySessionToken(raw); !errors.Is(err, ErrInvalidTokenType) {
		t.Fatalf("got %v, want ErrInvalidTokenType", err)
	}
}
