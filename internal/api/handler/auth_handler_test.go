package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sixhundredbills/forum/internal/api/middleware"
	"github.com/sixhundredbills/forum/internal/core/domain"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

type stubAuthService struct {
	signupFn  func(ctx context.Context, in ports.SignupInput) (*domain.User, error)
	loginFn   func(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error)
	logoutFn  func(ctx context.Context, actor *domain.User) error
	resignFn  func(ctx context.Context, userID string) error
	reissueFn func(ctx context.Context, refreshToken string) (string, error)
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Reissue(ctx context.Context, refreshToken string) (string, error) {
	return s.reissueFn(ctx, refreshToken)
}

func (s *stubAuthService) Logout(ctx context.Context, actor *domain.User) error {
	return s.logoutFn(ctx, actor)
}

func (s *stubAuthService) Resign(ctx context.Context, userID string) error {
	return s.resignFn(ctx, userID)
}

var testCookies = middleware.CookieJar{AccessTTL: 30 * time.Minute, RefreshTTL: 14 * 24 * time.Hour}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Signup_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
			if in.Email != "alice@example.com" || in.Name != "alice" || in.Role != "" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u1", Email: in.Email, Name: in.Name, Role: domain.RoleUser, PasswordHash: "hash"}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies)

	req := jsonRequest(http.MethodPost, "/users/signup", `{"email":"alice@example.com","password":"secret123","name":"alice"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeEnvelope(t, rec)
	if resp["statusCode"] != float64(http.StatusCreated) {
		t.Fatalf("unexpected envelope: %v", resp)
	}
	user, ok := resp["data"].(map[string]any)
	if !ok || user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %+v", resp["data"])
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Fatalf("password hash leaked")
	}
}

func TestAuthHandler_Signup_Validation(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies)

	for _, body := range []string{
		`{"email":"not-an-email","password":"secret123","name":"a"}`,
		`{"email":"a@example.com","password":"short","name":"a"}`,
		`{"email":"a@example.com","password":"secret123","name":"a","role":"ROOT"}`,
	} {
		c := e.NewContext(jsonRequest(http.MethodPost, "/users/signup", body), httptest.NewRecorder())
		if err := handler.Signup(c); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %s, got %v", body, err)
		}
	}
}

func TestAuthHandler_Signup_PassesAdminSecret(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
			if in.Role != domain.RoleAdmin || in.AdminSecret != "s3" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return nil, domain.ErrForbidden
		},
	}
	handler := NewAuthHandler(stub, testCookies)

	body := `{"email":"a@example.com","password":"secret123","name":"a","role":"ADMIN","admin_secret":"s3"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/users/signup", body), httptest.NewRecorder())
	if err := handler.Signup(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthHandler_Signup_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{}, testCookies)

	c := e.NewContext(jsonRequest(http.MethodPost, "/users/signup", "not-json"), httptest.NewRecorder())
	err := handler.Signup(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &domain.TokenPair{AccessToken: "Bearer acc", RefreshToken: "Bearer ref"},
				&domain.User{ID: "u1", Email: email, Role: domain.RoleUser}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/users/login", `{"email":"alice@example.com","password":"secret"}`), rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	cookies := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		cookies[ck.Name] = ck
	}
	if ck := cookies[middleware.AccessTokenName]; ck == nil || ck.Value != "Bearer%20acc" || !ck.HttpOnly || ck.MaxAge != 1800 {
		t.Fatalf("unexpected access cookie: %+v", ck)
	}
	if ck := cookies[middleware.RefreshTokenName]; ck == nil || ck.Value != "Bearer%20ref" || ck.MaxAge != 14*24*3600 {
		t.Fatalf("unexpected refresh cookie: %+v", ck)
	}

	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	tokens, _ := data["tokens"].(map[string]any)
	if tokens["access_token"] != "Bearer acc" || tokens["refresh_token"] != "Bearer ref" {
		t.Fatalf("unexpected tokens payload: %+v", data)
	}
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	for _, want := range []error{domain.ErrBadCredentials, domain.ErrUserNotFound, domain.ErrResignedAccount} {
		e := newTestEcho()
		stub := &stubAuthService{
			loginFn: func(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
				return nil, nil, want
			},
		}
		handler := NewAuthHandler(stub, testCookies)

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/users/login", `{"email":"alice@example.com","password":"bad"}`), rec)

		if err := handler.Login(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatalf("no cookies expected on failed login")
		}
	}
}

func TestAuthHandler_Reissue(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{}, testCookies)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/users/reissue", nil), rec)
	middleware.SetReissuedAccessToken(c, "Bearer fresh")

	if err := handler.Reissue(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["access_token"] != "Bearer fresh" {
		t.Fatalf("unexpected payload: %+v", data)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/users/reissue", nil), httptest.NewRecorder())
	if err := handler.Reissue(c); !errors.Is(err, domain.ErrExpiredRefreshToken) {
		t.Fatalf("expected ErrExpiredRefreshToken, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newTestEcho()
	var loggedOut *domain.User
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, actor *domain.User) error {
			loggedOut = actor
			return nil
		},
	}
	handler := NewAuthHandler(stub, testCookies)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/users/logout", nil), rec)
	middleware.SetPrincipal(c, &domain.User{ID: "u1"})

	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if loggedOut == nil || loggedOut.ID != "u1" {
		t.Fatalf("logout called with %+v", loggedOut)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected both cookies cleared, got %d", len(cookies))
	}
	for _, ck := range cookies {
		if ck.MaxAge >= 0 {
			t.Fatalf("cookie %s not cleared: %+v", ck.Name, ck)
		}
	}

	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/users/logout", nil), httptest.NewRecorder())
	if err := handler.Logout(c); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn without principal, got %v", err)
	}
}

func TestAuthHandler_Resign(t *testing.T) {
	e := newTestEcho()
	var resigned []string
	stub := &stubAuthService{
		resignFn: func(ctx context.Context, userID string) error {
			if userID == "missing" {
				return domain.ErrUserNotFound
			}
			resigned = append(resigned, userID)
			return nil
		},
	}
	handler := NewAuthHandler(stub, testCookies)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/users/resign", nil), rec)
	middleware.SetPrincipal(c, &domain.User{ID: "u1"})
	if err := handler.Resign(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(rec.Result().Cookies()) != 2 {
		t.Fatalf("expected cookies cleared after resign")
	}

	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	c.SetParamNames("userId")
	c.SetParamValues("u9")
	if err := handler.AdminResign(c); err != nil {
		t.Fatalf("admin resign error: %v", err)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	c.SetParamNames("userId")
	c.SetParamValues("missing")
	if err := handler.AdminResign(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if strings.Join(resigned, ",") != "u1,u9" {
		t.Fatalf("unexpected resign calls: %v", resigned)
	}
}
