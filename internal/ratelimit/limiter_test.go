package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewRateLimiter(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewRateLimiter(logger)

	if limiter == nil {
		t.Fatal("Expected non-nil rate limiter")
	}

	if limiter.buckets == nil {
		t.Error("Expected buckets map to be initialized")
	}
}

func TestWait_NewEndpoint(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewRateLimiter(logger)

	endpoint := "/users/@me"

	// First call should not block
	start := time.Now()
	err := limiter.Wait(endpoint)
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}

	if duration > 100*time.Millisecond {
		t.Errorf("Wait() took too long for new endpoint: %v", duration)
	}
}

func TestUpdateFromHeaders_ValidHeaders(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewRateLimiter(logger)

	endpoint := "/users/@me"

	headers := http.Header{
		"X-RateLimit-Limit":     []string{"50"},
		"X-RateLimit-Remaining": []string{"45"},
		"X-RateLimit-Reset":     []string{time.Now().Add(5 * time.Second).Format(time.RFC3339)},
	}

	limiter.UpdateFromHeaders(endpoint, headers)

	bucket := limiter.getBucket(endpoint)
	if bucket.Limit != 50 {
		t.Errorf("Expected Limit 50, got %d", bucket.Limit)
	}
	if bucket.Remaining != 45 {
		t.Errorf("Expected Remaining 45, got %d", bucket.Remaining)
	}
}

func TestUpdateFromHeaders_MissingHeaders(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewRateLimiter(logger)

	// Empty headers should not crash and still create a default bucket
	limiter.UpdateFromHeaders("/users/@me", http.Header{})

	bucket := limiter.getBucket("/users/@me")
	if bucket == nil {
		t.Fatal("Expected bucket to be created even with missing headers")
	}
}

func TestHandleRateLimitResponse_RetryAfter(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewRateLimiter(logger)

	endpoint := "/users/@me"
	headers := http.Header{
		"Retry-After": []string{"2"},
	}

	err := limiter.HandleRateLimitResponse(endpoint, headers)
	if err == nil {
		t.Fatal("Expected error from rate limit response")
	}

	remaining, _, resetAt := limiter.status(endpoint)
	if remaining != 0 {
		t.Errorf("Expected Remaining 0, got %d", remaining)
	}
	if !resetAt.After(time.Now()) {
		t.Error("Expected reset time in the future")
	}
}
