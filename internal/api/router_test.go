package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixhundredbills/forum/internal/api/handler"
	"github.com/sixhundredbills/forum/internal/api/middleware"
	"github.com/sixhundredbills/forum/internal/core/domain"
	"github.com/sixhundredbills/forum/internal/core/ports"
	rdb "github.com/sixhundredbills/forum/internal/infrastructure/db/redis"
	"github.com/sixhundredbills/forum/internal/infrastructure/token"
)

type routerUsers map[string]*domain.User

func (u routerUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if user, ok := u[email]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

type routerAuth struct {
	ports.AuthService
	logins int
}

func (a *routerAuth) Login(_ context.Context, email, _ string) (*domain.TokenPair, *domain.User, error) {
	a.logins++
	return &domain.TokenPair{AccessToken: "Bearer a", RefreshToken: "Bearer r"}, &domain.User{ID: "u1", Email: email}, nil
}

func (a *routerAuth) Reissue(context.Context, string) (string, error) {
	return "", nil
}

type routerContent struct {
	ports.ContentService
}

func (routerContent) CreatePost(_ context.Context, actor *domain.User, title, content string) (*domain.Post, error) {
	return &domain.Post{ID: "p1", AuthorID: actor.ID, Title: title, Content: content}, nil
}

type routerProfile struct{}

func (routerProfile) GetProfile(_ context.Context, actor *domain.User) (*ports.Profile, error) {
	return &ports.Profile{Email: actor.Email, LikedPosts: 1}, nil
}

func (routerProfile) UpdateProfile(_ context.Context, _ *domain.User, in ports.UpdateProfileInput) (*ports.Profile, error) {
	if in.NewPassword == "password-0" {
		return nil, domain.ErrPasswordReused
	}
	return nil, domain.ErrBadPassword
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (rdb.Decision, error) {
	return rdb.Decision{Allowed: false, Limit: 10, RetryAfter: 30 * time.Second}, nil
}

// budgetLimiter allows max hits per key.
type budgetLimiter struct {
	max  int64
	hits map[string]int64
}

func (l *budgetLimiter) Allow(_ context.Context, key string) (rdb.Decision, error) {
	if l.hits == nil {
		l.hits = make(map[string]int64)
	}
	l.hits[key]++
	n := l.hits[key]
	if n > l.max {
		return rdb.Decision{Allowed: false, Limit: l.max, RetryAfter: time.Minute}, nil
	}
	return rdb.Decision{Allowed: true, Limit: l.max, Remaining: l.max - n}, nil
}

type routerFixture struct {
	e     *echo.Echo
	codec *token.Codec
	auth  *routerAuth
}

func newRouterFixture(t *testing.T, limiter middleware.Limiter) *routerFixture {
	t.Helper()
	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	users := routerUsers{
		"alice@example.com": {ID: "u1", Email: "alice@example.com", Role: domain.RoleUser, Status: domain.StatusNormal},
	}
	auth := &routerAuth{}
	e := NewRouter(Deps{
		Auth:    auth,
		Content: routerContent{},
		Profile: routerProfile{},
		Codec:   codec,
		Users:   users,
		Limiter: limiter,
		Cookies: middleware.CookieJar{AccessTTL: 30 * time.Minute, RefreshTTL: 14 * 24 * time.Hour},
		Checks: map[string]handler.Check{
			"mongodb": func(context.Context) error { return nil },
		},
		Registry: prometheus.NewRegistry(),
		Log:      zerolog.Nop(),
	})
	return &routerFixture{e: e, codec: codec, auth: auth}
}

func (f *routerFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) withSession(t *testing.T, req *http.Request, subject string) *http.Request {
	t.Helper()
	access, err := f.codec.Issue(subject, domain.KindAccess, 30*time.Minute)
	require.NoError(t, err)
	refresh, err := f.codec.Issue(subject, domain.KindRefresh, time.Hour)
	require.NoError(t, err)
	req.Header.Set(middleware.AccessTokenName, domain.WithScheme(access))
	req.Header.Set(middleware.RefreshTokenName, domain.WithScheme(refresh))
	return req
}

func envelopeOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func jsonBody(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestRouter_OpsRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProtectedRouteRequiresSession(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.serve(jsonBody(http.MethodPost, "/posts", `{"title":"t","content":"c"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := envelopeOf(t, rec)
	assert.Equal(t, domain.ErrNotLoggedIn.Error(), body["message"])
	assert.Equal(t, float64(http.StatusUnauthorized), body["statusCode"])
}

func TestRouter_AuthenticatedRequest(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := f.withSession(t, jsonBody(http.MethodPost, "/posts", `{"title":"t","content":"c"}`), "alice@example.com")
	rec := f.serve(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data, _ := envelopeOf(t, rec)["data"].(map[string]any)
	assert.Equal(t, "u1", data["author_id"])
}

func TestRouter_AdminRoutesNeedAdminRole(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := f.withSession(t, httptest.NewRequest(http.MethodPost, "/admin/users/u2/resign", nil), "alice@example.com")
	rec := f.serve(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_LoginPassesThroughSession(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.serve(jsonBody(http.MethodPost, LoginPath, `{"email":"alice@example.com","password":"pw"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.auth.logins)
}

func TestRouter_LoginIsRateLimited(t *testing.T) {
	f := newRouterFixture(t, denyAll{})

	rec := f.serve(jsonBody(http.MethodPost, LoginPath, `{"email":"alice@example.com","password":"pw"}`))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Zero(t, f.auth.logins)
}

func TestRouter_StaleReissue(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := f.withSession(t, httptest.NewRequest(http.MethodPost, ReissuePath, nil), "alice@example.com")
	rec := f.serve(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, domain.ErrExpiredRefreshToken.Error(), envelopeOf(t, rec)["message"])
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, float64(http.StatusNotFound), envelopeOf(t, rec)["statusCode"])
}

func TestRouter_RateLimitIgnoresForwardedFor(t *testing.T) {
	limiter := &budgetLimiter{max: 1}
	f := newRouterFixture(t, limiter)

	codes := make([]int, 0, 3)
	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := jsonBody(http.MethodPost, LoginPath, `{"email":"alice@example.com","password":"pw"}`)
		req.RemoteAddr = "9.9.9.9:40000"
		req.Header.Set(echo.HeaderXForwardedFor, xff)
		req.Header.Set(echo.HeaderXRealIP, xff)
		codes = append(codes, f.serve(req).Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, f.auth.logins)
	assert.Equal(t, map[string]int64{LoginPath + ":9.9.9.9": 3}, limiter.hits)
}

func TestRouter_ProfileRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/users/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.serve(f.withSession(t, httptest.NewRequest(http.MethodGet, "/users/profile", nil), "alice@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	data, _ := envelopeOf(t, rec)["data"].(map[string]any)
	assert.Equal(t, "alice@example.com", data["email"])

	body := `{"password":"password-1","new_password":"password-0"}`
	rec = f.serve(f.withSession(t, jsonBody(http.MethodPut, "/users/profile", body), "alice@example.com"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrPasswordReused.Error(), envelopeOf(t, rec)["message"])

	body = `{"password":"wrong","new_password":"password-9"}`
	rec = f.serve(f.withSession(t, jsonBody(http.MethodPut, "/users/profile", body), "alice@example.com"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrBadPassword.Error(), envelopeOf(t, rec)["message"])
}
