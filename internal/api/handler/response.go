package handler

import "github.com/labstack/echo/v4"

// envelope is the success counterpart of the API error envelope.
type envelope struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, envelope{Message: message, StatusCode: code, Data: data})
}
