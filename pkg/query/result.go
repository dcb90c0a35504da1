package query

import (
	"encoding/json"
	"errors"

	"github.com/collabnext/backend/pkg/common"
	"github.com/collabnext/backend/pkg/paginate"
)

// ErrorMarker is the message of the error response body.
const ErrorMarker = "An unexpected error occurred"

// ErrUnexpected wraps failures that turn a request into the error response.
var ErrUnexpected = errors.New("unexpected resolution failure")

// Result is a populated search result.
type Result struct {
	Metadata           any                  `json:"metadata"`
	MetadataPagination *paginate.Pagination `json:"metadata_pagination,omitempty"`
	ExtraMetadata      any                  `json:"extra_metadata,omitempty"`
	Graph              common.Graph         `json:"graph"`
	List               []common.ListItem    `json:"list"`
	Coordinates        []common.Coordinate  `json:"coordinates,omitempty"`
}

// Response is the user visible outcome of a search. It serializes as {}
// when nothing was found, as {"error": ErrorMarker} when Err is set and as
// the result otherwise.
type Response struct {
	Result *Result
	Err    error
}

func (r Response) Empty() bool {
	return r.Err == nil && r.Result == nil
}

func (r Response) MarshalJSON() ([]byte, error) {
	switch {
	case r.Err != nil:
		return json.Marshal(map[string]string{"error": ErrorMarker})
	case r.Result == nil:
		return []byte("{}"), nil
	default:
		return json.Marshal(r.Result)
	}
}

func emptyResponse() Response {
	return Response{}
}

func errorResponse(err error) Response {
	if !errors.Is(err, ErrUnexpected) {
		err = errors.Join(ErrUnexpected, err)
	}
	return Response{Err: err}
}
