package query

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/collabnext/backend/pkg/common"
	"github.com/collabnext/backend/pkg/logger"
	"github.com/collabnext/backend/pkg/normalize"
	"github.com/collabnext/backend/pkg/paginate"
	"github.com/collabnext/backend/pkg/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Dispatcher classifies a search, tries the primary store, falls back to
// federation and assembles the response. It is safe for concurrent use.
type Dispatcher struct {
	cfg        Config
	primary    PrimaryResolver
	federation FederationResolver
	normalizer *normalize.Normalizer
	log        *logger.Logger
	tracer     trace.Tracer
	trace      Tracer
}

type DispatcherOption func(*Dispatcher)

func WithLogger(log *logger.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = log
	}
}

func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// WithTrace records every resolution state transition into t.
func WithTrace(t Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		d.trace = t
	}
}

func NewDispatcher(cfg Config, primary PrimaryResolver, federation FederationResolver, normalizer *normalize.Normalizer, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		cfg:        cfg.withDefaults(),
		primary:    primary,
		federation: federation,
		normalizer: normalizer,
		tracer:     noop.NewTracerProvider().Tracer("query"),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(d)
	}
	return d
}

// Search resolves req. It never returns an error: failures and panics
// become the error response, missing data becomes the empty response.
func (d *Dispatcher) Search(ctx context.Context, req Request) (resp Response) {
	c := Classify(req)

	ctx, span := d.tracer.Start(ctx, "query.Search", trace.WithAttributes(
		attribute.String("shape", c.Shape.String()),
		attribute.Int("page", req.Page),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", ErrUnexpected, r)
			d.log.Error("Panic while resolving search", "shape", c.Shape.String(), "err", err, "stack", string(debug.Stack()))
			resp = errorResponse(err)
		}
		switch {
		case resp.Err != nil:
			span.RecordError(resp.Err)
			span.SetStatus(codes.Error, resp.Err.Error())
			recordKind(d.trace, TraceEventErrorResponse, c.Shape)
		case resp.Result == nil:
			recordKind(d.trace, TraceEventRespondEmpty, c.Shape)
		default:
			recordKind(d.trace, TraceEventRespond, c.Shape)
		}
	}()

	recordKind(d.trace, TraceEventDispatch, c.Shape)
	d.log.Info("Dispatching search", "shape", c.Shape.String(),
		"institution", c.Query.Institution, "researcher", c.Query.Researcher, "topic", c.Query.Topic)

	page, perPage := req.Page, req.PerPage
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = d.cfg.perPage(c.Shape)
	}
	if page < 1 {
		return errorResponse(fmt.Errorf("%w: %d", paginate.ErrInvalidPage, page))
	}
	if perPage < 1 {
		return errorResponse(fmt.Errorf("%w: %d", paginate.ErrInvalidPerPage, perPage))
	}

	var (
		result *Result
		err    error
	)
	switch {
	case c.Shape == ShapeNone:
		d.log.Warn("Search without filters")
		return emptyResponse()
	case c.Shape.Batch():
		result, err = d.batch(ctx, c, page, perPage)
	default:
		result, err = d.single(ctx, c.Shape, c.Query, page, perPage)
	}
	if err != nil {
		d.log.Error("Error building search result", "shape", c.Shape.String(), "err", err)
		return errorResponse(err)
	}
	if result == nil {
		return emptyResponse()
	}
	return Response{Result: result}
}

func (d *Dispatcher) single(ctx context.Context, shape Shape, q Query, page, perPage int) (*Result, error) {
	primary := d.primary.Resolve(ctx, shape, q)
	recordLookup(d.trace, TraceEventPrimaryLookup, shape, primary.Kind, primary.Err)

	switch primary.Kind {
	case common.OutcomeFound:
		d.log.Info("Found in primary store", "shape", shape.String())
		return d.assemblePrimary(ctx, shape, q, primary.Record, page, perPage)
	case common.OutcomeExternalFailure:
		d.log.Error("Primary store lookup failed, falling back to federation", "shape", shape.String(), "err", primary.Err)
	default:
		d.log.Info("Not in primary store, falling back to federation", "shape", shape.String())
	}

	fed := d.federation.Resolve(ctx, shape, q)
	recordLookup(d.trace, TraceEventFederation, shape, fed.Kind, fed.Err)

	switch fed.Kind {
	case common.OutcomeFound:
		return d.assembleFederated(ctx, shape, fed.Record)
	case common.OutcomeExternalFailure:
		d.log.Error("Federation lookup failed", "shape", shape.String(), "err", fed.Err)
	default:
		d.log.Warn("No results found", "shape", shape.String())
	}
	return nil, nil
}

func (d *Dispatcher) assemblePrimary(ctx context.Context, shape Shape, q Query, rec *store.Record, page, perPage int) (*Result, error) {
	related := relatedRows(rec, shape)

	src := primarySource(rec, q)
	if shape == ShapeInstitutionTopic {
		src["derived.people_count"] = float64(len(rec.Data))
	}

	meta, err := d.normalize(ctx, normalize.SchemaPrimary, shape, src)
	if err != nil {
		return nil, err
	}

	items, pg, err := paginate.Slice(related, page, perPage)
	if err != nil {
		return nil, err
	}

	d.log.Debug("Building graph", "shape", shape.String(), "related", len(items))
	g, err := shapeGraph(shape, normalize.SchemaPrimary, meta, items)
	if err != nil {
		return nil, err
	}
	if shape == ShapeInstitution || shape == ShapeResearcher {
		attachTopics(&g, items, rec.SubfieldTopics())
	}

	return &Result{
		Metadata:           meta,
		MetadataPagination: &pg,
		Graph:              g,
		List:               common.ListFrom(items),
		Coordinates:        shapeCoordinates(shape, meta, related, d.cfg.MapLimit),
	}, nil
}

func (d *Dispatcher) assembleFederated(ctx context.Context, shape Shape, res *Resolution) (*Result, error) {
	meta, err := d.normalize(ctx, normalize.SchemaFederation, shape, res.clone())
	if err != nil {
		return nil, err
	}

	d.log.Debug("Building graph", "shape", shape.String(), "related", len(res.Related))
	g, err := shapeGraph(shape, normalize.SchemaFederation, meta, res.Related)
	if err != nil {
		return nil, err
	}

	return &Result{
		Metadata:    meta,
		Graph:       g,
		List:        common.ListFrom(res.Related),
		Coordinates: shapeCoordinates(shape, meta, res.Related, d.cfg.MapLimit),
	}, nil
}

func (d *Dispatcher) normalize(ctx context.Context, schema normalize.Schema, shape Shape, src map[string]any) (normalize.Metadata, error) {
	kind, ok := shapeKinds[shape]
	if !ok {
		return nil, fmt.Errorf("%w for shape %s", normalize.ErrUnknownTable, shape)
	}
	meta, err := d.normalizer.Normalize(ctx, schema, kind, src)
	if err != nil {
		return nil, err
	}
	if shape == ShapeTopic {
		meta["name"] = titleCaser.String(meta.Text("name"))
	}
	return meta, nil
}
