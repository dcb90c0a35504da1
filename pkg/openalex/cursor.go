package openalex

import (
	"context"
	"net/url"
	"strconv"
)

// Cursor walks a cursor-paginated listing one page per Next call. It stops
// after the client's page cap even when the API reports more pages, so the
// number of requests for one scan is bounded.
type Cursor[T any] struct {
	client *Client
	path   string
	params url.Values

	next  string
	pages int
	done  bool
}

func newCursor[T any](c *Client, path string, params url.Values) *Cursor[T] {
	params.Set("per-page", strconv.Itoa(perPage))
	return &Cursor[T]{client: c, path: path, params: params, next: "*"}
}

// Next fetches the next page. more reports whether another call may return
// results. After an error the cursor is exhausted.
func (cur *Cursor[T]) Next(ctx context.Context) (results []T, more bool, err error) {
	if cur.done {
		return nil, false, nil
	}

	params := url.Values{}
	for k, v := range cur.params {
		params[k] = append([]string(nil), v...)
	}
	params.Set("cursor", cur.next)

	var page listPage[T]
	if err := cur.client.get(ctx, cur.path, params, &page); err != nil {
		cur.done = true
		return nil, false, err
	}
	cur.pages++

	if page.Meta.NextCursor == nil || *page.Meta.NextCursor == "" || len(page.Results) == 0 || cur.pages >= cur.client.pageCap {
		cur.done = true
	} else {
		cur.next = *page.Meta.NextCursor
	}
	return page.Results, !cur.done, nil
}

// Pages returns how many pages have been fetched.
func (cur *Cursor[T]) Pages() int {
	return cur.pages
}

// Collect drains the cursor, calling fn for every page.
func (cur *Cursor[T]) Collect(ctx context.Context, fn func([]T)) error {
	for {
		results, more, err := cur.Next(ctx)
		if err != nil {
			return err
		}
		if len(results) > 0 {
			fn(results)
		}
		if !more {
			return nil
		}
	}
}
