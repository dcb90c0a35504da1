package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/collabnext/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func HealthHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// ReadyHandler reports whether the primary store answers.
func ReadyHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)
	if cc.App.Store == nil {
		return c.String(http.StatusOK, "OK")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := cc.App.Store.Ping(ctx); err != nil {
		cc.Log.Warn("Primary store not reachable", "err", err)
		return c.String(http.StatusServiceUnavailable, "primary store unavailable")
	}
	return c.String(http.StatusOK, "OK")
}
