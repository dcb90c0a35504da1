package middleware

import (
	"context"

	"github.com/collabnext/backend/internal/autofill"
	"github.com/collabnext/backend/internal/topicspace"
	"github.com/collabnext/backend/pkg/logger"
	"github.com/collabnext/backend/pkg/query"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const RequestIDHeader = "X-Request-ID"

// Searcher resolves a search request into a response.
type Searcher interface {
	Search(ctx context.Context, req query.Request) query.Response
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Searcher     Searcher
	Suggester    *autofill.Suggester
	DefaultGraph topicspace.DefaultGraph
	TopicSpace   *topicspace.Space
	Store        Pinger
	Log          *logger.Logger
}

type AppContext struct {
	echo.Context
	App       *App
	RequestID string
	Log       *logger.Logger
}

// AppContextMiddleware wraps every request in an AppContext carrying the
// application and a request scoped logger. Incoming request ids are kept,
// missing ones are generated.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(RequestIDHeader)
			if id == "" {
				generated, err := gonanoid.New()
				if err != nil {
					app.Log.Warn("Failed to generate request id", "err", err)
				}
				id = generated
			}
			c.Response().Header().Set(RequestIDHeader, id)

			cc := &AppContext{
				Context:   c,
				App:       app,
				RequestID: id,
				Log:       app.Log.With("request_id", id),
			}
			return next(cc)
		}
	}
}
