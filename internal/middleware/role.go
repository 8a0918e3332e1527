package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns a middleware that aborts with 403 unless the role
// stored by JWTAuth is one of roles.  It must run after JWTAuth.
func RequireRole(message string, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": message})
			}
			return next(c)
		}
	}
}

// RequireSuperuser guards catalogue mutations.
func RequireSuperuser() echo.MiddlewareFunc {
	return RequireRole("You do not have enough privileges.", "superuser")
}
