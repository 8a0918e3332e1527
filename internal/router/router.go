package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/site-inspection-api/internal/handler"
	"github.com/iliyamo/site-inspection-api/internal/middleware"
)

// Prefix is the mount point of every API route.
const Prefix = "/api/v1"

// RegisterRoutes registers routes that do not require authentication and
// are not versioned: liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the session endpoints.  Login, refresh and logout
// need no access token; /user/me does.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, verifier middleware.TokenVerifier) {
	g := e.Group(Prefix)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/user/me", a.Me, middleware.JWTAuth(verifier))
}
