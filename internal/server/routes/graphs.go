package routes

import (
	"net/http"

	"github.com/collabnext/backend/internal/server/middleware"
	"github.com/collabnext/backend/internal/topicspace"

	"github.com/labstack/echo/v4"
)

// DefaultGraphHandler returns the overview graph shown before any search.
func DefaultGraphHandler(c echo.Context) error {
	g := c.(*middleware.AppContext).App.DefaultGraph
	if g.Nodes == nil {
		g.Nodes = []map[string]any{}
	}
	if g.Edges == nil {
		g.Edges = []map[string]any{}
	}
	return c.JSON(http.StatusOK, map[string]any{"graph": g})
}

func TopicSpaceDefaultHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"graph": topicspace.Domains()})
}

// SearchTopicSpaceHandler returns the classification chain of every topic
// matching the term.
func SearchTopicSpaceHandler(c echo.Context) error {
	type body struct {
		Topic string `json:"topic" validate:"required"`
	}
	data := new(body)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	space := c.(*middleware.AppContext).App.TopicSpace
	var res topicspace.Result
	if space != nil {
		res = space.Search(data.Topic)
	}
	return c.JSON(http.StatusOK, map[string]any{"graph": res})
}
