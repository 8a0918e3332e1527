package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/site-inspection-api/internal/handler"
	"github.com/iliyamo/site-inspection-api/internal/middleware"
)

// RegisterPosts mounts the owner-scoped post endpoints.  Static segments
// such as /projects take precedence over :username in echo's router.
func RegisterPosts(e *echo.Echo, p *handler.PostHandler, verifier middleware.TokenVerifier) {
	g := e.Group(Prefix)
	auth := middleware.JWTAuth(verifier)

	g.POST("/:username/post", p.Create, auth)
	g.GET("/:username/posts", p.List)
	g.GET("/:username/post/:id", p.Get)
	g.PATCH("/:username/post/:id", p.Patch, auth)
	g.DELETE("/:username/post/:id", p.Delete, auth)
	g.DELETE("/:username/db_post/:id", p.HardDelete, auth, middleware.RequireSuperuser())
}
