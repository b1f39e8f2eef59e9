package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sixhundredbills/forum/internal/core/ports"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get handles GET /users/profile.
//
// @Summary      Get my profile
// @Tags         users
// @Produce      json
// @Success      200  {object}  envelopeProfile
// @Failure      401  {object}  errorResponse
// @Router       /users/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	p, err := h.service.GetProfile(c.Request().Context(), u)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "profile", p)
}

// Update handles PUT /users/profile. The current password is required and
// the new one may not repeat any of the last three.
//
// @Summary      Update my profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      updateProfileRequest  true  "Profile"
// @Success      200   {object}  envelopeProfile
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /users/profile [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.UpdateProfile(c.Request().Context(), u, ports.UpdateProfileInput{
		Name:        req.Name,
		Password:    req.Password,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "profile updated", p)
}
