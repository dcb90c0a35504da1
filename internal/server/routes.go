package server

import (
	"github.com/collabnext/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", routes.HealthHandler)
	e.GET("/ready", routes.ReadyHandler)

	// Search
	e.POST("/initial-search", routes.InitialSearchHandler)

	// Autofill
	e.POST("/autofill-institutions", routes.AutofillInstitutionsHandler)
	e.POST("/autofill-topics", routes.AutofillTopicsHandler)

	// Graphs
	e.POST("/get-default-graph", routes.DefaultGraphHandler)
	e.POST("/get-topic-space-default-graph", routes.TopicSpaceDefaultHandler)
	e.POST("/search-topic-space", routes.SearchTopicSpaceHandler)
}
