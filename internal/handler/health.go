package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a liveness endpoint used by load balancers and monitoring
// systems.  It returns a plain text "ok" with 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Ready reports 503 while the database is unreachable.
func Ready(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := dbCtx(c)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.Logger().Warnf("ready: %v", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	}
}
