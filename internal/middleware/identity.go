package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/site-inspection-api/internal/model"
)

// CurrentUser returns the user stored by JWTAuth, or nil on public routes.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(ContextUser).(*model.User)
	return u
}

// userID extracts a user identifier for rate-limit keys.  It returns "anon"
// when no user is authenticated.
func userID(c echo.Context) string {
	if s, ok := c.Get(ContextUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
