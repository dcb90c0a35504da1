package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/collabnext/backend/pkg/common"
	"github.com/collabnext/backend/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.openalex.org"
	DefaultPageCap = 10
	perPage        = 200
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("openalex: not found")

// Client talks to the OpenAlex REST API. Identical requests that are in
// flight at the same time share one round trip; nothing is cached after it
// completes.
type Client struct {
	baseURL string
	mailto  string
	pageCap int

	http    *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	log     *logger.Logger
	tracer  trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// WithMailto identifies the caller for the API's polite pool.
func WithMailto(mailto string) Option {
	return func(c *Client) {
		c.mailto = mailto
	}
}

// WithRateLimit bounds outgoing requests per second. rps <= 0 disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithPageCap bounds the number of pages a Cursor fetches.
func WithPageCap(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageCap = n
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		pageCap: DefaultPageCap,
		http:    http.DefaultClient,
		limiter: rate.NewLimiter(rate.Inf, 0),
		tracer:  noop.NewTracerProvider().Tracer("openalex"),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Author fetches one author by short id or full OpenAlex URL.
func (c *Client) Author(ctx context.Context, id string) (*Author, error) {
	var a Author
	if err := c.get(ctx, "/authors/"+common.ShortID(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// LastKnownInstitutions returns the author's last known institutions in the
// order the API lists them.
func (c *Client) LastKnownInstitutions(ctx context.Context, authorID string) ([]Ref, error) {
	var a struct {
		LastKnownInstitutions []Ref `json:"last_known_institutions"`
	}
	params := url.Values{"select": {"id,last_known_institutions"}}
	if err := c.get(ctx, "/authors/"+common.ShortID(authorID), params, &a); err != nil {
		return nil, err
	}
	return a.LastKnownInstitutions, nil
}

// AuthorsByROR iterates the authors whose last known institution has the
// given ROR id.
func (c *Client) AuthorsByROR(ror string) *Cursor[Author] {
	return newCursor[Author](c, "/authors", url.Values{
		"filter": {"last_known_institutions.ror:" + ror},
	})
}

// InstitutionsBySubfield iterates institutions with works in the subfield,
// selecting only the fields needed to count them.
func (c *Client) InstitutionsBySubfield(subfieldID string) *Cursor[Institution] {
	return newCursor[Institution](c, "/institutions", url.Values{
		"filter": {"topics.subfield.id:" + common.ShortID(subfieldID)},
		"select": {"id,display_name,topics"},
	})
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	ctx, span := c.tracer.Start(ctx, "openalex.get", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	// The shared fetch outlives any single caller; each caller waits on its
	// own context.
	ch := c.group.DoChan(target, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), target)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		return res.Err
	}
	if res.Shared {
		c.log.Debug("Shared in-flight OpenAlex request", "path", path)
	}
	if err := json.Unmarshal(res.Val.([]byte), out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("Fetching from OpenAlex", "url", target)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openalex returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
