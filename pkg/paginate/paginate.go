package paginate

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPerPage = errors.New("per page must be positive")
	ErrInvalidPage    = errors.New("page must be at least 1")
)

// Pagination describes the position of one page within a sorted list.
type Pagination struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	TotalTopics int `json:"total_topics"`
}

// TotalPages returns ceil(total / perPage).
func TotalPages(total, perPage int) (int, error) {
	if perPage <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPerPage, perPage)
	}
	pages := total / perPage
	if total%perPage != 0 {
		pages++
	}
	return pages, nil
}

// Slice returns items[(page-1)*perPage : page*perPage] together with the
// pagination block. A page past the end yields an empty slice.
func Slice[T any](items []T, page, perPage int) ([]T, Pagination, error) {
	if perPage <= 0 {
		return nil, Pagination{}, fmt.Errorf("%w: %d", ErrInvalidPerPage, perPage)
	}
	if page < 1 {
		return nil, Pagination{}, fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}

	total := len(items)
	pages, _ := TotalPages(total, perPage)
	p := Pagination{TotalPages: pages, CurrentPage: page, TotalTopics: total}

	// Compare in pages first so (page-1)*perPage cannot overflow.
	if page-1 >= pages {
		return []T{}, p, nil
	}
	start := (page - 1) * perPage
	end := start + min(perPage, total-start)
	return items[start:end], p, nil
}
