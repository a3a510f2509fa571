package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"quotes-backend/internal/vendors"
)

func TestStateStoreConsumeIsOneShot(t *testing.T) {
	store := newStateStore()
	store.put("abc", time.Now().Add(time.Minute))

	if !store.consume("abc") {
		t.Fatal("first consume failed")
	}
	if store.consume("abc") {
		t.Fatal("state consumed twice")
	}
	if store.consume("never-put") {
		t.Fatal("unknown state consumed")
	}
}

func TestStateStoreRejectsExpired(t *testing.T) {
	store := newStateStore()
	store.put("old", time.Now().Add(-time.Second))
	if store.consume("old") {
		t.Fatal("expired state consumed")
	}
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("https://app.example.com/login?x=1", "jwt123")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if !strings.Contains(got, "token=jwt123") || !strings.Contains(got, "x=1") {
		t.Errorf("url = %q", got)
	}

	if _, err := appendToken("", "jwt123"); err == nil {
		t.Error("accepted empty redirect url")
	}
}

func TestStartRequiresConfiguration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	vendorSvc := vendors.NewService(vendors.NewMemoryRepo(), nil, "UTC")
	svc := NewGoogleService("", "", "", "", vendorSvc, func(string) bool { return false })

	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStartRedirectsWithConsentPrompt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	vendorSvc := vendors.NewService(vendors.NewMemoryRepo(), nil, "UTC")
	svc := NewGoogleService("client", "secret", "https://api.example.com/cb", "https://app.example.com", vendorSvc, func(string) bool { return false })

	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	for _, want := range []string{"accounts.google.com", "access_type=offline", "prompt=consent", "calendar.events"} {
		if !strings.Contains(location, want) {
			t.Errorf("location %q missing %q", location, want)
		}
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	vendorSvc := vendors.NewService(vendors.NewMemoryRepo(), nil, "UTC")
	svc := NewGoogleService("client", "secret", "https://api.example.com/cb", "https://app.example.com", vendorSvc, func(string) bool { return false })

	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=bogus&code=abc", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
