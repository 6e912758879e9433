package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func Health(c echo.Context) error {
	return respond(c, http.StatusOK, "ok", nil)
}
