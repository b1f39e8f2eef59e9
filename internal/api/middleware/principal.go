package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sixhundredbills/forum/internal/core/domain"
)

const (
	principalKey      = "principal"
	reissuedAccessKey = "reissued_access_token"
)

// PrincipalFrom returns the user the session verifier authenticated for this
// request, or nil.
func PrincipalFrom(c echo.Context) *domain.User {
	u, _ := c.Get(principalKey).(*domain.User)
	return u
}

// SetPrincipal records the authenticated user on the request.
func SetPrincipal(c echo.Context, u *domain.User) {
	c.Set(principalKey, u)
}

// ReissuedAccessToken returns the access token minted by the verifier on the
// reissue path, scheme included, or "".
func ReissuedAccessToken(c echo.Context) string {
	v, _ := c.Get(reissuedAccessKey).(string)
	return v
}

// SetReissuedAccessToken records an access token minted during this request.
func SetReissuedAccessToken(c echo.Context, token string) {
	c.Set(reissuedAccessKey, token)
}
