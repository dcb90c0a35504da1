package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/collabnext/backend/internal/server/middleware"
	"github.com/collabnext/backend/internal/util"
	"github.com/collabnext/backend/pkg/query"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

// entryList accepts either a JSON array of names or a single newline or
// comma delimited string.
type entryList []string

func (l *entryList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("extra_institutions must be a list or a string")
	}
	*l = util.SplitEntries(raw)
	return nil
}

// InitialSearchHandler runs a search over any combination of institution,
// researcher and topic.
func InitialSearchHandler(c echo.Context) error {
	type searchBody struct {
		Organization      string    `json:"organization"`
		Researcher        string    `json:"researcher"`
		Topic             string    `json:"topic"`
		Type              string    `json:"type"`
		ExtraInstitutions entryList `json:"extra_institutions"`
		Page              int       `json:"page" validate:"omitempty,min=1"`
		PerPage           int       `json:"per_page" validate:"omitempty,min=1,max=200"`
	}

	data := new(searchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	cc := c.(*middleware.AppContext)
	resp := cc.App.Searcher.Search(c.Request().Context(), query.Request{
		Institution:       data.Organization,
		Researcher:        data.Researcher,
		Topic:             data.Topic,
		ExtraInstitutions: data.ExtraInstitutions,
		Page:              data.Page,
		PerPage:           data.PerPage,
	})

	if resp.Err != nil {
		cc.Log.Error("Search failed", "err", resp.Err)
		return c.JSON(http.StatusInternalServerError, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
