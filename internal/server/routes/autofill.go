package routes

import (
	"net/http"

	"github.com/collabnext/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

type possibleSearches struct {
	PossibleSearches []string `json:"possible_searches"`
}

// AutofillInstitutionsHandler suggests institutions containing what the user
// has typed.
func AutofillInstitutionsHandler(c echo.Context) error {
	type body struct {
		Institution string `json:"institution"`
	}
	data := new(body)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	s := c.(*middleware.AppContext).App.Suggester
	return c.JSON(http.StatusOK, possibleSearches{PossibleSearches: s.Institutions(data.Institution)})
}

func AutofillTopicsHandler(c echo.Context) error {
	type body struct {
		Topic string `json:"topic"`
	}
	data := new(body)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	s := c.(*middleware.AppContext).App.Suggester
	return c.JSON(http.StatusOK, possibleSearches{PossibleSearches: s.Topics(data.Topic)})
}
