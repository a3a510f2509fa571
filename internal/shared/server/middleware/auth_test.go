package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"quotes-backend/internal/shared/auth"
)

func authedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth())
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/auth/google/start", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/quotes", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"vendorId": VendorIDFromContext(c),
			"email":    VendorEmailFromContext(c),
			"admin":    VendorIsAdmin(c),
		})
	})
	r.GET("/api/v1/admin/kpis", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func signToken(t *testing.T, claims auth.Claims) string {
	t.Helper()
	token, err := auth.SignJWT(claims)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return token
}

func TestAuthSkipsPublicPaths(t *testing.T) {
	r := authedRouter(t)
	for _, path := range []string{"/api/v1/health", "/api/v1/auth/google/start"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	r := authedRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthRejectsBadToken(t *testing.T) {
	r := authedRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthStoresVendorIdentity(t *testing.T) {
	r := authedRouter(t)
	token := signToken(t, auth.Claims{Sub: "vendor-7", Email: "juana@example.com", Name: "Juana Pérez"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"vendor-7", "juana@example.com"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}

func TestRequireAdminGate(t *testing.T) {
	r := authedRouter(t)

	vendorToken := signToken(t, auth.Claims{Sub: "vendor-7"})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/kpis", nil)
	req.Header.Set("Authorization", "Bearer "+vendorToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("vendor status = %d", rec.Code)
	}

	adminToken := signToken(t, auth.Claims{Sub: "admin-1", Admin: true})
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/kpis", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d", rec.Code)
	}
}
