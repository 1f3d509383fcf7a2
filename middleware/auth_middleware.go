// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rooftrack/rooftrack_backend/access"
	"github.com/rooftrack/rooftrack_backend/models"
)

// RequireRole gates a route to callers whose derived role is at least one of
// the allowed roles. Record-level ownership still happens inside handlers
// through the access package; this only cuts off whole route groups.
func RequireRole(allowed ...access.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, err := CallerFromContext(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: no verified identity",
				})
			}

			for _, role := range allowed {
				if caller.Role == role {
					return next(c)
				}
			}

			c.Logger().Errorf("Access denied for role %s on %s", caller.Role, c.Request().URL.Path)
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your role",
			})
		}
	}
}

// RequireAdmin is shorthand for the admin-only route groups.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(access.RoleAdmin)
}
