package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/collabnext/backend/pkg/logger"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const DefaultEndpoint = "https://semopenalex.org/sparql"

// Binding is one solution of a SELECT query with every bound variable
// flattened to its string value. Unbound optional variables are missing.
type Binding map[string]string

type Client struct {
	endpoint string
	http     *http.Client
	log      *logger.Logger
	tracer   trace.Tracer
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

// NewClient creates a client for a SPARQL 1.1 protocol endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		http:     http.DefaultClient,
		tracer:   noop.NewTracerProvider().Tracer("sparql"),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

type resultsDoc struct {
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Query posts a SELECT query and returns its bindings.
func (c *Client) Query(ctx context.Context, query string) ([]Binding, error) {
	ctx, span := c.tracer.Start(ctx, "sparql.Query")
	defer span.End()

	c.log.Debug("Executing SPARQL query", "query", query)

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json, application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("sparql endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		span.RecordError(err)
		return nil, err
	}

	var doc resultsDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode sparql results: %w", err)
	}

	out := make([]Binding, 0, len(doc.Results.Bindings))
	for _, row := range doc.Results.Bindings {
		b := make(Binding, len(row))
		for name, term := range row {
			b[name] = term.Value
		}
		out = append(out, b)
	}
	c.log.Info("SPARQL query returned results", "count", len(out))
	return out, nil
}
