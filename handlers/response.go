package handlers

import (
	"github.com/labstack/echo/v4"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{
		Success: status < 400,
		Message: message,
		Data:    data,
	})
}

func respondErrors(c echo.Context, status int, message string, errs []string) error {
	return c.JSON(status, Response{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}
