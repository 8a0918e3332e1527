package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/site-inspection-api/internal/config"
	"github.com/iliyamo/site-inspection-api/internal/handler"
	"github.com/iliyamo/site-inspection-api/internal/middleware"
)

// RegisterResources mounts the catalogue entities.  Reads are public and
// cached; writes need a superuser and drop the cached reads of the entity
// they touch.
func RegisterResources(e *echo.Echo, ents *handler.Entities, verifier middleware.TokenVerifier, cacheCfg config.CacheConfig, rdb *redis.Client) {
	g := e.Group(Prefix)
	cache := middleware.NewRedisCache(cacheCfg, rdb)
	auth := middleware.JWTAuth(verifier)
	su := middleware.RequireSuperuser()

	for _, ep := range ents.Endpoints() {
		one, many := "/"+ep.One, "/"+ep.Many
		inval := middleware.InvalidateOnWrite(cacheCfg, rdb, Prefix+one, Prefix+many)

		g.POST(one, ep.Routes.Create, auth, su, inval)
		g.GET(many, ep.Routes.List, cache)
		g.GET(one+"/:name", ep.Routes.Get, cache)
		g.PATCH(one+"/:name", ep.Routes.Patch, auth, su, inval)
		g.DELETE(one+"/:name", ep.Routes.Delete, auth, su, inval)
	}

	g.GET("/buildinglevels/building/:building_id", ents.LevelsByBuilding, cache)
}
