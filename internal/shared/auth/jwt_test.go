package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	token, err := SignJWT(Claims{Sub: "vendor-7", Email: "juana@example.com", Name: "Juana Pérez", Admin: true})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "vendor-7" || claims.Email != "juana@example.com" || !claims.Admin {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Exp == 0 || claims.Iat == 0 {
		t.Errorf("timestamps not filled: %+v", claims)
	}
}

func TestSignRequiresSub(t *testing.T) {
	if _, err := SignJWT(Claims{}); err == nil {
		t.Fatal("signed claims without sub")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	token, err := SignJWT(Claims{Sub: "vendor-7"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + "bogus"
	if _, err := VerifyJWT(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	if _, err := VerifyJWT("just-one-part"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := SignJWT(Claims{Sub: "vendor-7", Exp: time.Now().UTC().Add(-time.Minute).Unix()})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
