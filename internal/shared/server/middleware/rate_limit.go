package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"quotes-backend/internal/shared/server/respond"
)

// UploadLimiter throttles PDF uploads per vendor with a token bucket.
type UploadLimiter struct {
	mu      sync.Mutex
	buckets map[string]*uploadBucket
	rate    float64 // tokens per second
	burst   float64
	now     func() time.Time
}

type uploadBucket struct {
	tokens float64
	last   time.Time
}

// NewUploadLimiter builds a limiter allowing `burst` uploads immediately and
// `ratePerMinute` sustained.
func NewUploadLimiter(ratePerMinute float64, burst int, now func() time.Time) *UploadLimiter {
	if now == nil {
		now = time.Now
	}
	return &UploadLimiter{
		buckets: make(map[string]*uploadBucket),
		rate:    ratePerMinute / 60.0,
		burst:   float64(burst),
		now:     now,
	}
}

// Allow reports whether the vendor may upload now, and if not, how long to wait.
func (l *UploadLimiter) Allow(vendorID string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[vendorID]
	if !ok {
		b = &uploadBucket{tokens: l.burst, last: now}
		l.buckets[vendorID] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	b.tokens += elapsed * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
	return false, wait
}

// RateLimitUploads rejects uploads above the limiter's rate with 429.
func RateLimitUploads(limiter *UploadLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendorID := strings.TrimSpace(VendorIDFromContext(c))
		if vendorID == "" {
			vendorID = strings.TrimSpace(c.ClientIP())
		}
		allowed, retryAfter := limiter.Allow(vendorID)
		if allowed {
			c.Next()
			return
		}
		seconds := int(retryAfter/time.Second) + 1
		c.Header("Retry-After", strconv.Itoa(seconds))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many uploads, slow down", nil)
	}
}
