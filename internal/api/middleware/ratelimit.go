package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/geocycle/geocycle/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Requests per window
	RequestLimit int
	// Window duration
	WindowLength time.Duration
}

// GenerateRateLimit returns the limit applied to plan generation, which fans
// out to the language model and several map lookups per request.
func GenerateRateLimit(perMinute int) RateLimitConfig {
	return RateLimitConfig{
		RequestLimit: perMinute,
		WindowLength: time.Minute,
	}
}

// PhotoRateLimit applies to the photo proxy (300 req/min). A single plan
// page loads a photo per stop and spot.
var PhotoRateLimit = RateLimitConfig{
	RequestLimit: 300,
	WindowLength: time.Minute,
}

// RateLimitByIP creates a rate limiter middleware using client IP address.
// Uses X-Forwarded-For header if present (extracted by chi's RealIP middleware).
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(rateLimitExceededHandler(cfg.WindowLength)),
	)
}

// rateLimitExceededHandler writes a 429 error response. httprate does not
// expose the reset time, so Retry-After is the full window.
func rateLimitExceededHandler(window time.Duration) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		models.NewError(GetRequestID(r.Context()), "rate limit exceeded, please try again later").
			Write(w, http.StatusTooManyRequests)
	}
}
