package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubLimiter struct {
	allowed    bool
	retryAfter time.Duration
	err        error
	keys       []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.retryAfter, s.err
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddlewareAllows(t *testing.T) {
	limiter := &stubLimiter{allowed: true}
	var hit bool
	handler := RateLimitMiddleware(limiter, zap.NewNop())(okHandler(&hit))

	req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !hit {
		t.Fatalf("expected pass-through, got status %d hit=%v", rec.Code, hit)
	}
	if len(limiter.keys) != 1 {
		t.Fatalf("expected one limiter call, got %d", len(limiter.keys))
	}
}

func TestRateLimitMiddlewareRejects(t *testing.T) {
	limiter := &stubLimiter{allowed: false, retryAfter: 42 * time.Second}
	var hit bool
	handler := RateLimitMiddleware(limiter, zap.NewNop())(okHandler(&hit))

	req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if hit {
		t.Fatal("handler must not run when rate limited")
	}
	if got := rec.Header().Get("Retry-After"); got != "43" {
		t.Errorf("expected Retry-After 43, got %q", got)
	}
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	var hit bool
	handler := RateLimitMiddleware(limiter, zap.NewNop())(okHandler(&hit))

	req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !hit {
		t.Fatalf("limiter outage must not block requests, got status %d hit=%v", rec.Code, hit)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if seen == "" {
			t.Fatal("expected a generated request id")
		}
		if rec.Header().Get("X-Request-ID") != seen {
			t.Error("response header must echo the request id")
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if seen != "req-123" {
			t.Fatalf("expected propagated id, got %q", seen)
		}
	})
}
