// utils/response.go
package utils

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/models"
)

// RespondError maps an application error onto the standard response envelope.
// Internal errors are logged server-side and masked in the response body.
func RespondError(c echo.Context, err error) error {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		message = "Something went wrong"
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
	})
}
