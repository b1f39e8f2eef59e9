package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sixhundredbills/forum/internal/api/metrics"
	"github.com/sixhundredbills/forum/internal/api/middleware"
	"github.com/sixhundredbills/forum/internal/core/domain"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     middleware.CookieJar
}

func NewAuthHandler(authService ports.AuthService, cookies middleware.CookieJar) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// Signup creates a new account.
//
// @Summary      Sign up
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  envelopeUser
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /users/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Role:        req.Role,
		AdminSecret: req.AdminSecret,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "signed up", user)
}

// Login authenticates a user and delivers the token pair as cookies and in
// the body.
//
// @Summary      Log in
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  envelopeLogin
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.AuthLoginsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	h.cookies.SetAccess(c, pair.AccessToken)
	h.cookies.SetRefresh(c, pair.RefreshToken)
	return respond(c, http.StatusOK, "logged in", loginData{User: user, Tokens: pair})
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrBadCredentials):
		return "bad_credentials"
	case errors.Is(err, domain.ErrResignedAccount):
		return "resigned"
	default:
		return "error"
	}
}

// Reissue returns the access token the session verifier minted from the
// refresh token. The verifier has already set the cookie.
//
// @Summary      Reissue access token
// @Tags         users
// @Produce      json
// @Param        RefreshToken  header    string  false  "Refresh token when not sent as a cookie"
// @Success      200           {object}  envelopeReissue
// @Failure      400           {object}  errorResponse
// @Failure      401           {object}  errorResponse
// @Router       /users/reissue [post]
func (h *AuthHandler) Reissue(c echo.Context) error {
	token := middleware.ReissuedAccessToken(c)
	if token == "" {
		return domain.ErrExpiredRefreshToken
	}
	return respond(c, http.StatusOK, "access token reissued", reissueData{AccessToken: token})
}

// Logout revokes the stored refresh token and clears the session cookies.
// Access tokens already issued stay valid until they expire.
//
// @Summary      Log out
// @Tags         users
// @Produce      json
// @Success      200  {object}  envelope
// @Failure      401  {object}  errorResponse
// @Router       /users/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), u); err != nil {
		return err
	}
	h.cookies.Clear(c)
	return respond(c, http.StatusOK, "logged out", nil)
}

// Resign permanently closes the caller's own account.
//
// @Summary      Resign own account
// @Tags         users
// @Produce      json
// @Success      200  {object}  envelope
// @Failure      401  {object}  errorResponse
// @Router       /users/resign [post]
func (h *AuthHandler) Resign(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.authService.Resign(c.Request().Context(), u.ID); err != nil {
		return err
	}
	h.cookies.Clear(c)
	return respond(c, http.StatusOK, "account resigned", nil)
}

// AdminResign closes another user's account.
//
// @Summary      Resign a user (admin)
// @Tags         admin
// @Produce      json
// @Param        userId  path      string  true  "User id"
// @Success      200     {object}  envelope
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /admin/users/{userId}/resign [post]
func (h *AuthHandler) AdminResign(c echo.Context) error {
	if err := h.authService.Resign(c.Request().Context(), c.Param("userId")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "account resigned", nil)
}
