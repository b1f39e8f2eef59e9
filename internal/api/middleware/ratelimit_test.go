package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sixhundredbills/forum/internal/core/domain"
	rdb "github.com/sixhundredbills/forum/internal/infrastructure/db/redis"
)

type stubLimiter struct {
	decision rdb.Decision
	err      error
	keys     []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (rdb.Decision, error) {
	l.keys = append(l.keys, key)
	return l.decision, l.err
}

func runRateLimit(t *testing.T, l *stubLimiter) (*httptest.ResponseRecorder, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/users/login", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := RateLimit(l, zerolog.Nop())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, called, err
}

func TestRateLimit_Allows(t *testing.T) {
	l := &stubLimiter{decision: rdb.Decision{Allowed: true, Limit: 10, Remaining: 9}}
	rec, called, err := runRateLimit(t, l)
	if err != nil || !called {
		t.Fatalf("expected request through, called=%v err=%v", called, err)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "9" {
		t.Fatalf("unexpected remaining header: %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if len(l.keys) != 1 || l.keys[0] != "/users/login:10.0.0.7" {
		t.Fatalf("unexpected keys: %v", l.keys)
	}
}

func TestRateLimit_Blocks(t *testing.T) {
	l := &stubLimiter{decision: rdb.Decision{Allowed: false, Limit: 10, RetryAfter: 1500 * time.Millisecond}}
	rec, called, err := runRateLimit(t, l)
	if called {
		t.Fatalf("next should not be called")
	}
	if !errors.Is(err, domain.ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Fatalf("expected Retry-After 2, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	l := &stubLimiter{err: errors.New("redis down")}
	_, called, err := runRateLimit(t, l)
	if err != nil || !called {
		t.Fatalf("expected fail-open, called=%v err=%v", called, err)
	}
}
