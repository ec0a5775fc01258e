package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ValidateCreateTask enforces the required fields of a new task. Only the
// title is mandatory; everything else defaults server-side.
func ValidateCreateTask(title string) error {
	if title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	return nil
}
