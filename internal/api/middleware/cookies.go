package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
)

// Transport names of the two session tokens. Each is read from the cookie of
// that name first and from the request header of the same name second.
const (
	AccessTokenName  = "AccessToken"
	RefreshTokenName = "RefreshToken"
)

// CookieJar writes the session cookies. Values carry the "Bearer " scheme and
// are path-escaped because cookie values may not contain spaces.
type CookieJar struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (j CookieJar) SetAccess(c echo.Context, value string) {
	c.SetCookie(j.cookie(AccessTokenName, value, j.AccessTTL))
}

func (j CookieJar) SetRefresh(c echo.Context, value string) {
	c.SetCookie(j.cookie(RefreshTokenName, value, j.RefreshTTL))
}

// Clear expires both session cookies on the client.
func (j CookieJar) Clear(c echo.Context) {
	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		ck := j.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

func (j CookieJar) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    url.PathEscape(value),
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// readToken returns the transported value of a session token, or "".
func readToken(c echo.Context, name string) string {
	if ck, err := c.Cookie(name); err == nil && ck.Value != "" {
		if v, err := url.PathUnescape(ck.Value); err == nil {
			return v
		}
		return ck.Value
	}
	return c.Request().Header.Get(name)
}
