package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sixhundredbills/forum/internal/api/middleware"
	"github.com/sixhundredbills/forum/internal/core/domain"
)

// actor returns the principal established by the session verifier. Handlers
// pass it to services explicitly; nothing below the handler reads the echo
// context.
func actor(c echo.Context) (*domain.User, error) {
	u := middleware.PrincipalFrom(c)
	if u == nil {
		return nil, domain.ErrNotLoggedIn
	}
	return u, nil
}
