package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestUploadLimiterBurstAndRefill(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	limiter := NewUploadLimiter(6, 2, clock)

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow("vendor-7"); !ok {
			t.Fatalf("burst upload %d denied", i+1)
		}
	}
	ok, wait := limiter.Allow("vendor-7")
	if ok {
		t.Fatal("third immediate upload allowed")
	}
	if wait <= 0 {
		t.Errorf("wait = %v", wait)
	}

	// 6 per minute means one token every ten seconds.
	now = now.Add(10 * time.Second)
	if ok, _ := limiter.Allow("vendor-7"); !ok {
		t.Fatal("upload denied after refill window")
	}
}

func TestUploadLimiterIsPerVendor(t *testing.T) {
	limiter := NewUploadLimiter(6, 1, nil)

	if ok, _ := limiter.Allow("vendor-a"); !ok {
		t.Fatal("vendor-a denied")
	}
	if ok, _ := limiter.Allow("vendor-b"); !ok {
		t.Fatal("vendor-b denied after vendor-a used its budget")
	}
}

func TestRateLimitUploadsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewUploadLimiter(6, 1, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("vendorId", "vendor-7")
		c.Next()
	})
	r.POST("/quotes", RateLimitUploads(limiter), func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/quotes", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/quotes", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}
