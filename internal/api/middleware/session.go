package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sixhundredbills/forum/internal/api/metrics"
	"github.com/sixhundredbills/forum/internal/core/domain"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

// UserFinder resolves a token subject to a user.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Reissuer exchanges a raw refresh token for a new scheme-prefixed access
// token. ("", nil) means the refresh token is no longer the live one.
type Reissuer interface {
	Reissue(ctx context.Context, refreshToken string) (string, error)
}

// SessionConfig wires the session verifier.
type SessionConfig struct {
	Codec    ports.TokenCodec
	Users    UserFinder
	Reissuer Reissuer
	Cookies  CookieJar

	// PassThrough lists request paths served without verification.
	PassThrough []string
	// ReissuePath is the request path that exchanges a refresh token.
	ReissuePath string

	Log zerolog.Logger
}

// sessionState is what the stages learn about one request.
type sessionState struct {
	access  string // raw access token
	refresh string // raw refresh token
	claims  *domain.TokenClaims
}

// stage is one step of the verifier. It runs only when its predicate holds.
type stage struct {
	name string
	when func(c echo.Context) bool
	run  func(c echo.Context, st *sessionState) error
}

// errPassThrough ends the pipeline and hands the request on unverified.
var errPassThrough = errors.New("pass through")

func always(echo.Context) bool { return true }

// Session returns the per-request verifier. Rejections are returned as
// domain errors before the handler runs; the HTTP error handler renders them.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	passThrough := make(map[string]struct{}, len(cfg.PassThrough))
	for _, p := range cfg.PassThrough {
		passThrough[p] = struct{}{}
	}
	isPassThrough := func(c echo.Context) bool {
		_, ok := passThrough[c.Request().URL.Path]
		return ok
	}
	isReissue := func(c echo.Context) bool {
		return cfg.ReissuePath != "" && c.Request().URL.Path == cfg.ReissuePath
	}
	notReissue := func(c echo.Context) bool { return !isReissue(c) }

	stages := []stage{
		{name: "pass-through", when: isPassThrough, run: func(echo.Context, *sessionState) error {
			return errPassThrough
		}},
		{name: "collect", when: always, run: collectTokens},
		{name: "strip", when: always, run: stripSchemes},
		{name: "reissue", when: isReissue, run: cfg.reissue},
		{name: "validate", when: notReissue, run: cfg.validate},
		{name: "identify", when: always, run: cfg.identify},
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var st sessionState
			for _, s := range stages {
				if !s.when(c) {
					continue
				}
				err := s.run(c, &st)
				if errors.Is(err, errPassThrough) {
					return next(c)
				}
				if err != nil {
					metrics.SessionRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
					cfg.Log.Debug().
						Err(err).
						Str("stage", s.name).
						Str("path", c.Request().URL.Path).
						Msg("session rejected")
					return err
				}
			}
			return next(c)
		}
	}
}

func collectTokens(c echo.Context, st *sessionState) error {
	st.access = readToken(c, AccessTokenName)
	st.refresh = readToken(c, RefreshTokenName)
	if st.access == "" || st.refresh == "" {
		return domain.ErrNotLoggedIn
	}
	return nil
}

func stripSchemes(_ echo.Context, st *sessionState) error {
	var err error
	if st.access, err = domain.StripScheme(st.access); err != nil {
		return domain.ErrMalformedToken
	}
	if st.refresh, err = domain.StripScheme(st.refresh); err != nil {
		return domain.ErrMalformedToken
	}
	return nil
}

// reissue validates only the refresh token, mints a new access token and
// carries on with it. A stale refresh token means the session is over.
func (cfg SessionConfig) reissue(c echo.Context, st *sessionState) error {
	claims, err := cfg.Codec.Parse(st.refresh)
	switch {
	case errors.Is(err, domain.ErrExpiredToken):
		metrics.AuthReissuesTotal.WithLabelValues("expired").Inc()
		return domain.ErrExpiredRefreshToken
	case err != nil, claims.Kind != domain.KindRefresh:
		metrics.AuthReissuesTotal.WithLabelValues("invalid").Inc()
		return domain.ErrInvalidToken
	}

	fresh, err := cfg.Reissuer.Reissue(c.Request().Context(), st.refresh)
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrInvalidToken):
		metrics.AuthReissuesTotal.WithLabelValues("invalid").Inc()
		return domain.ErrInvalidToken
	case err != nil:
		metrics.AuthReissuesTotal.WithLabelValues("error").Inc()
		return err
	}
	if fresh == "" {
		metrics.AuthReissuesTotal.WithLabelValues("stale").Inc()
		return domain.ErrExpiredRefreshToken
	}
	metrics.AuthReissuesTotal.WithLabelValues("issued").Inc()

	raw, err := domain.StripScheme(fresh)
	if err != nil {
		return fmt.Errorf("reissued token: %w", err)
	}
	if st.claims, err = cfg.Codec.Parse(raw); err != nil {
		return fmt.Errorf("reissued token: %w", err)
	}
	st.access = raw

	SetReissuedAccessToken(c, fresh)
	cfg.Cookies.SetAccess(c, fresh)
	return nil
}

// validate checks the refresh token, then the access token. Only an expired
// but otherwise sound access token is reported as such.
func (cfg SessionConfig) validate(_ echo.Context, st *sessionState) error {
	refresh, err := cfg.Codec.Parse(st.refresh)
	if err != nil || refresh.Kind != domain.KindRefresh {
		return domain.ErrInvalidToken
	}

	access, err := cfg.Codec.Parse(st.access)
	switch {
	case errors.Is(err, domain.ErrExpiredToken):
		return domain.ErrExpiredAccessToken
	case err != nil, access.Kind != domain.KindAccess:
		return domain.ErrInvalidToken
	}
	st.claims = access
	return nil
}

func (cfg SessionConfig) identify(c echo.Context, st *sessionState) error {
	user, err := cfg.Users.FindByEmail(c.Request().Context(), st.claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidToken
		}
		return fmt.Errorf("identify: %w", err)
	}
	if user.IsResigned() {
		return domain.ErrResignedAccount
	}
	SetPrincipal(c, user)
	return nil
}

var rejectionReasons = []struct {
	err    error
	reason string
}{
	{domain.ErrNotLoggedIn, "not_logged_in"},
	{domain.ErrMalformedToken, "malformed_token"},
	{domain.ErrInvalidToken, "invalid_token"},
	{domain.ErrExpiredAccessToken, "expired_access_token"},
	{domain.ErrExpiredRefreshToken, "expired_refresh_token"},
	{domain.ErrResignedAccount, "resigned_account"},
	{domain.ErrUserNotFound, "user_not_found"},
}

func rejectionReason(err error) string {
	for _, r := range rejectionReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "error"
}
