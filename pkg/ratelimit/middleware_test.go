package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestMiddleware(config *Config) (*Middleware, http.Handler) {
	m := NewMiddleware(config)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return m, handler
}

func TestMiddleware_EndpointLimit(t *testing.T) {
	config := DefaultConfig()
	config.GlobalEnabled = false
	config.PerIPEnabled = false
	config.EndpointLimits = map[string]EndpointLimit{
		"POST */sms-otp/verify": {Capacity: 2, RefillRate: 0.01},
	}
	_, handler := newTestMiddleware(config)

	path := "/operations/9a2f6a0e/sms-otp/verify"
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d should be allowed, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest("POST", path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request should be rate limited, got %d", rec.Code)
	}

	// A different endpoint is unaffected.
	req = httptest.NewRequest("POST", "/operations/9a2f6a0e/user", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Unlimited endpoint should be allowed, got %d", rec.Code)
	}
}

func TestMiddleware_PerIPLimit(t *testing.T) {
	config := DefaultConfig()
	config.GlobalEnabled = false
	config.PerIPCapacity = 1
	config.PerIPRefillRate = 0.01
	_, handler := newTestMiddleware(config)

	req := httptest.NewRequest("GET", "/operations/abc", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("First request should be allowed, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit-IP") != "1" {
		t.Errorf("Expected rate limit header, got %q", rec.Header().Get("X-RateLimit-Limit-IP"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Second request from same IP should be limited, got %d", rec.Code)
	}

	// Another IP has its own bucket.
	other := httptest.NewRequest("GET", "/operations/abc", nil)
	other.Header.Set("X-Forwarded-For", "10.0.0.2")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("Request from a different IP should be allowed, got %d", rec.Code)
	}
}
