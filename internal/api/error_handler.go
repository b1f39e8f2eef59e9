package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sixhundredbills/forum/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "...", "statusCode": n}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Message: msg, StatusCode: code})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	// Session verifier and login.
	case errors.Is(err, domain.ErrNotLoggedIn),
		errors.Is(err, domain.ErrExpiredAccessToken),
		errors.Is(err, domain.ErrExpiredRefreshToken),
		errors.Is(err, domain.ErrBadCredentials),
		errors.Is(err, domain.ErrResignedAccount):
		return http.StatusUnauthorized, sentinelMessage(err)
	case errors.Is(err, domain.ErrMalformedToken),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrMissingToken):
		return http.StatusBadRequest, sentinelMessage(err)
	case errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusBadRequest, domain.ErrDuplicateAccount.Error()
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests, domain.ErrTooManyRequests.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()

	// Content.
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrPostNotFound),
		errors.Is(err, domain.ErrCommentNotFound),
		errors.Is(err, domain.ErrLikeNotFound):
		return http.StatusNotFound, sentinelMessage(err)
	case errors.Is(err, domain.ErrInvalidParent),
		errors.Is(err, domain.ErrSelfLike),
		errors.Is(err, domain.ErrAlreadyLiked),
		errors.Is(err, domain.ErrBadPassword),
		errors.Is(err, domain.ErrPasswordReused):
		return http.StatusBadRequest, sentinelMessage(err)
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// clientSentinels are the errors whose text is safe to show as is. Wrapped
// causes are dropped so parser details never reach the client.
var clientSentinels = []error{
	domain.ErrNotLoggedIn,
	domain.ErrExpiredAccessToken,
	domain.ErrExpiredRefreshToken,
	domain.ErrBadCredentials,
	domain.ErrResignedAccount,
	domain.ErrMalformedToken,
	domain.ErrInvalidToken,
	domain.ErrMissingToken,
	domain.ErrUserNotFound,
	domain.ErrPostNotFound,
	domain.ErrCommentNotFound,
	domain.ErrLikeNotFound,
	domain.ErrInvalidParent,
	domain.ErrSelfLike,
	domain.ErrAlreadyLiked,
	domain.ErrBadPassword,
	domain.ErrPasswordReused,
}

func sentinelMessage(err error) string {
	for _, s := range clientSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}
