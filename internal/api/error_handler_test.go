package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixhundredbills/forum/internal/core/domain"
)

func renderError(t *testing.T, log zerolog.Logger, err error) (int, errorResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/posts/1", nil), rec)

	NewHTTPErrorHandler(log)(err, c)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, rec.Code, body.StatusCode, "envelope status must match the response")
	return rec.Code, body
}

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrNotLoggedIn, http.StatusUnauthorized},
		{domain.ErrExpiredAccessToken, http.StatusUnauthorized},
		{domain.ErrExpiredRefreshToken, http.StatusUnauthorized},
		{domain.ErrBadCredentials, http.StatusUnauthorized},
		{domain.ErrResignedAccount, http.StatusUnauthorized},
		{domain.ErrMalformedToken, http.StatusBadRequest},
		{domain.ErrInvalidToken, http.StatusBadRequest},
		{domain.ErrDuplicateAccount, http.StatusBadRequest},
		{domain.ErrInvalidParent, http.StatusBadRequest},
		{domain.ErrSelfLike, http.StatusBadRequest},
		{domain.ErrAlreadyLiked, http.StatusBadRequest},
		{domain.ErrBadPassword, http.StatusBadRequest},
		{domain.ErrPasswordReused, http.StatusBadRequest},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrPostNotFound, http.StatusNotFound},
		{domain.ErrCommentNotFound, http.StatusNotFound},
		{domain.ErrLikeNotFound, http.StatusNotFound},
		{domain.ErrTooManyRequests, http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			code, body := renderError(t, zerolog.Nop(), fmt.Errorf("wrapped: %w", tc.err))
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.err.Error(), body.Message)
		})
	}
}

func TestHTTPErrorHandler_ValidationDetail(t *testing.T) {
	err := fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	code, body := renderError(t, zerolog.Nop(), err)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid input: email is required", body.Message)
}

func TestHTTPErrorHandler_EchoError(t *testing.T) {
	code, body := renderError(t, zerolog.Nop(), echo.NewHTTPError(http.StatusBadRequest, "invalid payload"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid payload", body.Message)

	code, _ = renderError(t, zerolog.Nop(), echo.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHTTPErrorHandler_UnexpectedErrorIsHidden(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	code, body := renderError(t, log, errors.New("mongo: connection reset"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", body.Message)
	assert.Contains(t, buf.String(), "mongo: connection reset")
	assert.Contains(t, buf.String(), "unhandled error")
}

func TestHTTPErrorHandler_ParserDetailIsHidden(t *testing.T) {
	err := fmt.Errorf("%w: token signature is invalid", domain.ErrMalformedToken)
	_, body := renderError(t, zerolog.Nop(), err)
	assert.Equal(t, domain.ErrMalformedToken.Error(), body.Message)
}
