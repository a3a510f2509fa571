package vendors

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func seedVendor(t *testing.T, repo *MemoryRepo, email, name string) Vendor {
	t.Helper()
	v, err := repo.UpsertByEmail(context.Background(), Vendor{
		Email:       email,
		DisplayName: name,
		Timezone:    "America/Argentina/Buenos_Aires",
	})
	if err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	return v
}

func TestDirectoryResolvesNameVariants(t *testing.T) {
	repo := NewMemoryRepo()
	v := seedVendor(t, repo, "juana@example.com", "Juana Pérez")
	svc := NewService(repo, &oauth2.Config{}, "America/Argentina/Buenos_Aires")

	dir, err := svc.Directory(context.Background())
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}

	for _, raw := range []string{"Juana Pérez", "JUANA PÉREZ", "  juana   pérez ", "juana@example.com"} {
		id, ok := dir.Resolve(raw)
		if !ok || id != v.ID {
			t.Errorf("Resolve(%q) = %q, %v", raw, id, ok)
		}
	}
	if _, ok := dir.Resolve("Carlos Gómez"); ok {
		t.Error("resolved an unknown salesperson")
	}
}

func TestAccessRequiresStoredToken(t *testing.T) {
	repo := NewMemoryRepo()
	v := seedVendor(t, repo, "juana@example.com", "Juana Pérez")
	svc := NewService(repo, &oauth2.Config{}, "America/Argentina/Buenos_Aires")

	if _, err := svc.Access(context.Background(), v.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}

	tok := &oauth2.Token{
		AccessToken:  "at",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := repo.SaveToken(context.Background(), v.ID, tok); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	access, err := svc.Access(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("Access: %v", err)
	}
	if access.CalendarID != "primary" || access.VendorID != v.ID {
		t.Errorf("access = %+v", access)
	}
	if access.Location == nil || access.Location.String() != "America/Argentina/Buenos_Aires" {
		t.Errorf("location = %v", access.Location)
	}

	got, err := access.Tokens.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if got.AccessToken != "at" {
		t.Errorf("AccessToken = %q", got.AccessToken)
	}
}

func TestAccessUnknownVendor(t *testing.T) {
	svc := NewService(NewMemoryRepo(), &oauth2.Config{}, "UTC")
	if _, err := svc.Access(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterStoresTokenAndUpdatesName(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, &oauth2.Config{}, "America/Argentina/Buenos_Aires")

	tok := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}
	v, err := svc.Register(context.Background(), "juana@example.com", "Juana Perez", tok)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if v.Timezone != "America/Argentina/Buenos_Aires" {
		t.Errorf("Timezone = %q", v.Timezone)
	}

	again, err := svc.Register(context.Background(), "juana@example.com", "Juana Pérez", nil)
	if err != nil {
		t.Fatalf("Register again: %v", err)
	}
	if again.ID != v.ID {
		t.Error("second sign-in created a new vendor")
	}
	if again.DisplayName != "Juana Pérez" {
		t.Errorf("DisplayName = %q", again.DisplayName)
	}

	if _, err := repo.LoadToken(context.Background(), v.ID); err != nil {
		t.Errorf("LoadToken: %v", err)
	}
}
