package query

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/collabnext/backend/pkg/common"
	"github.com/collabnext/backend/pkg/logger"
	"github.com/collabnext/backend/pkg/openalex"
	"github.com/collabnext/backend/pkg/sparql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Resolution is a federated answer: the flattened source fields keyed the
// way the federation tables expect, and the related list ordered by count
// descending.
type Resolution struct {
	Source  map[string]any
	Related []common.Related
}

// FederationResolver answers a query from the triple-store and the external
// API when the primary store has nothing.
type FederationResolver interface {
	Resolve(ctx context.Context, shape Shape, q Query) common.Outcome[*Resolution]
}

// TripleStore runs SPARQL SELECT queries.
type TripleStore interface {
	Query(ctx context.Context, query string) ([]sparql.Binding, error)
}

// ExternalAPI is the part of the OpenAlex client federation needs.
type ExternalAPI interface {
	Author(ctx context.Context, id string) (*openalex.Author, error)
	AuthorsByROR(ror string) *openalex.Cursor[openalex.Author]
	InstitutionsBySubfield(subfieldID string) *openalex.Cursor[openalex.Institution]
}

// Federation resolves every single entity shape in two steps: metadata from
// the triple-store, then the related list from the triple-store or the
// external API. Nothing from step one makes the outcome Absent; a failed
// step two leaves the related list empty.
type Federation struct {
	triples TripleStore
	api     ExternalAPI
	cfg     FederationConfig
	known   map[string]struct{}
	log     *logger.Logger
	tracer  trace.Tracer
}

type FederationOption func(*Federation)

func WithFederationLogger(log *logger.Logger) FederationOption {
	return func(f *Federation) {
		f.log = log
	}
}

func WithFederationTracer(tracer trace.Tracer) FederationOption {
	return func(f *Federation) {
		f.tracer = tracer
	}
}

func NewFederation(triples TripleStore, api ExternalAPI, cfg FederationConfig, opts ...FederationOption) *Federation {
	if cfg.MinAuthors <= 0 {
		cfg.MinAuthors = DefaultMinAuthors
	}
	f := &Federation{
		triples: triples,
		api:     api,
		cfg:     cfg,
		known:   make(map[string]struct{}, len(cfg.KnownInstitutions)),
		tracer:  noop.NewTracerProvider().Tracer("federation"),
	}
	for _, name := range cfg.KnownInstitutions {
		f.known[strings.ToLower(name)] = struct{}{}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f
}

func (f *Federation) Resolve(ctx context.Context, shape Shape, q Query) common.Outcome[*Resolution] {
	ctx, span := f.tracer.Start(ctx, "federation.Resolve", trace.WithAttributes(attribute.String("shape", shape.String())))
	defer span.End()

	q, ok, err := f.resolveIDs(ctx, q)
	if err != nil {
		return common.Failed[*Resolution](err)
	}
	if !ok {
		return common.Absent[*Resolution]()
	}

	src := make(map[string]any)
	addInput(src, q)

	var steps []metadataStep
	switch shape {
	case ShapeResearcher:
		steps = []metadataStep{f.author(q)}
	case ShapeInstitution:
		steps = []metadataStep{f.institution(q)}
	case ShapeTopic:
		steps = []metadataStep{f.subfield(q)}
	case ShapeInstitutionTopic:
		steps = []metadataStep{f.institution(q), f.subfield(q)}
	case ShapeInstitutionResearcher:
		steps = []metadataStep{f.author(q), f.institution(q)}
	case ShapeResearcherTopic:
		steps = []metadataStep{f.author(q), f.subfield(q)}
	case ShapeAllThree:
		steps = []metadataStep{f.institution(q), f.subfield(q), f.author(q)}
	default:
		return common.Failed[*Resolution](fmt.Errorf("no federation for shape %s", shape))
	}

	for _, step := range steps {
		found, err := f.metadata(ctx, src, step)
		if err != nil {
			return common.Failed[*Resolution](err)
		}
		if !found {
			f.log.Warn("No triple-store metadata", "section", step.section, "shape", shape.String())
			return common.Absent[*Resolution]()
		}
	}

	var related []common.Related
	switch shape {
	case ShapeResearcher, ShapeInstitutionResearcher:
		related = f.authorSubfields(ctx, text(src, "author.author"))
	case ShapeInstitution:
		related = f.institutionSubfields(ctx, text(src, "institution.ror"))
	case ShapeTopic:
		related = f.subfieldInstitutions(ctx, text(src, "subfield.subfield"))
		// Neither source counts the authors of a subfield.
		src["derived.researchers"] = 0.0
	case ShapeInstitutionTopic:
		related = f.institutionTopicAuthors(ctx, q)
		src["derived.people_count"] = float64(len(related))
		src["derived.work_count"] = sumCounts(related)
	case ShapeResearcherTopic, ShapeAllThree:
		related = f.researcherTopicWorks(ctx, q)
		src["derived.work_count"] = float64(len(related))
		src["derived.cited_by_count"] = sumCounts(related)
	}

	sortRelated(related)
	f.log.Info("Resolved from federation", "shape", shape.String(), "related", len(related))
	return common.Found(&Resolution{Source: src, Related: related})
}

type metadataStep struct {
	section string
	query   string
}

func (f *Federation) author(q Query) metadataStep {
	return metadataStep{section: "author", query: sparql.AuthorMetadataQuery(q.Researcher)}
}

func (f *Federation) institution(q Query) metadataStep {
	return metadataStep{section: "institution", query: sparql.InstitutionMetadataQuery(q.Institution)}
}

func (f *Federation) subfield(q Query) metadataStep {
	return metadataStep{section: "subfield", query: sparql.SubfieldMetadataQuery(q.Topic)}
}

// metadata copies the first binding of step into src under its section,
// rewriting entity IRIs into the canonical namespace.
func (f *Federation) metadata(ctx context.Context, src map[string]any, step metadataStep) (bool, error) {
	bindings, err := f.triples.Query(ctx, step.query)
	if err != nil {
		err = common.External("triple-store", fmt.Errorf("%s metadata: %w", step.section, err))
		f.log.Error("Triple-store query failed", "section", step.section, "err", err)
		return false, err
	}
	if len(bindings) == 0 {
		return false, nil
	}
	for k, v := range bindings[0] {
		src[step.section+"."+k] = sparql.Canonical(v)
	}
	return true, nil
}

// resolveIDs replaces OpenAlex ids of batch entries by the names the
// triple-store knows them under.
func (f *Federation) resolveIDs(ctx context.Context, q Query) (Query, bool, error) {
	lookups := []struct {
		id   string
		kind string
		dst  *string
	}{
		{q.AuthorID, "author", &q.Researcher},
		{q.InstitutionID, "institution", &q.Institution},
	}
	for _, l := range lookups {
		if l.id == "" || *l.dst != "" {
			continue
		}
		bindings, err := f.triples.Query(ctx, sparql.NameByIDQuery(l.kind, common.ShortID(l.id)))
		if err != nil {
			return q, false, common.External("triple-store", fmt.Errorf("%s name: %w", l.kind, err))
		}
		if len(bindings) == 0 || bindings[0]["name"] == "" {
			return q, false, nil
		}
		*l.dst = bindings[0]["name"]
	}
	return q, true, nil
}

// authorSubfields sums the author's topic counts per subfield.
func (f *Federation) authorSubfields(ctx context.Context, authorID string) []common.Related {
	if authorID == "" {
		return []common.Related{}
	}
	author, err := f.api.Author(ctx, authorID)
	if err != nil {
		f.log.Error("Error fetching author topics", "author", authorID, "err", common.External("openalex", err))
		return []common.Related{}
	}

	totals := make(map[string]float64)
	var order []string
	for _, t := range author.Topics {
		name := t.Subfield.DisplayName
		if name == "" {
			continue
		}
		if _, ok := totals[name]; !ok {
			order = append(order, name)
		}
		totals[name] += t.Count
	}

	out := make([]common.Related, 0, len(order))
	for _, name := range order {
		out = append(out, common.Related{Label: name, Count: totals[name]})
	}
	return out
}

// institutionSubfields counts, per subfield, the authors of the institution
// working in it and keeps subfields above the configured minimum.
func (f *Federation) institutionSubfields(ctx context.Context, ror string) []common.Related {
	if ror == "" {
		return []common.Related{}
	}
	counts := make(map[string]float64)
	var order []string
	err := f.api.AuthorsByROR(ror).Collect(ctx, func(authors []openalex.Author) {
		for _, a := range authors {
			seen := make(map[string]struct{})
			for _, t := range a.Topics {
				name := t.Subfield.DisplayName
				if name == "" {
					continue
				}
				if _, ok := seen[name]; ok {
					continue
				}
				seen[name] = struct{}{}
				if _, ok := counts[name]; !ok {
					order = append(order, name)
				}
				counts[name]++
			}
		}
	})
	if err != nil {
		f.log.Error("Error listing institution authors", "ror", ror, "err", common.External("openalex", err))
	}

	out := make([]common.Related, 0, len(order))
	for _, name := range order {
		if counts[name] > float64(f.cfg.MinAuthors) {
			out = append(out, common.Related{Label: name, Count: counts[name]})
		}
	}
	return out
}

// subfieldInstitutions totals, per institution, its topic counts inside the
// subfield. With known institutions configured only those are kept.
func (f *Federation) subfieldInstitutions(ctx context.Context, subfieldID string) []common.Related {
	if subfieldID == "" {
		return []common.Related{}
	}
	short := common.ShortID(subfieldID)
	var out []common.Related
	err := f.api.InstitutionsBySubfield(subfieldID).Collect(ctx, func(insts []openalex.Institution) {
		for _, inst := range insts {
			if len(f.known) > 0 {
				if _, ok := f.known[strings.ToLower(inst.DisplayName)]; !ok {
					continue
				}
			}
			var count float64
			for _, t := range inst.Topics {
				if common.ShortID(t.Subfield.ID) == short {
					count += t.Count
				}
			}
			if count > 0 {
				out = append(out, common.Related{ID: inst.ID, Label: inst.DisplayName, Count: count})
			}
		}
	})
	if err != nil {
		f.log.Error("Error listing subfield institutions", "subfield", subfieldID, "err", common.External("openalex", err))
	}
	if out == nil {
		out = []common.Related{}
	}
	return out
}

// institutionTopicAuthors lists the institution's authors in the subfield,
// counting their works.
func (f *Federation) institutionTopicAuthors(ctx context.Context, q Query) []common.Related {
	bindings, err := f.triples.Query(ctx, sparql.InstitutionTopicAuthorsQuery(q.Institution, q.Topic))
	if err != nil {
		f.log.Error("Error listing institution topic authors", "err", common.External("triple-store", err))
		return []common.Related{}
	}
	out := make([]common.Related, 0, len(bindings))
	for _, b := range bindings {
		if b["name"] == "" {
			continue
		}
		works := 0.0
		if b["works"] != "" {
			works = float64(strings.Count(b["works"], ",") + 1)
		}
		out = append(out, common.Related{ID: sparql.Canonical(b["author"]), Label: b["name"], Count: works})
	}
	return out
}

// researcherTopicWorks lists the researcher's works in the subfield with
// their citation counts.
func (f *Federation) researcherTopicWorks(ctx context.Context, q Query) []common.Related {
	bindings, err := f.triples.Query(ctx, sparql.ResearcherTopicWorksQuery(q.Researcher, q.Topic))
	if err != nil {
		f.log.Error("Error listing researcher topic works", "err", common.External("triple-store", err))
		return []common.Related{}
	}
	out := make([]common.Related, 0, len(bindings))
	for _, b := range bindings {
		if b["title"] == "" {
			continue
		}
		out = append(out, common.Related{
			ID:    sparql.Canonical(b["work"]),
			Label: b["title"],
			Count: common.ParseCount(b["cited_by_count"]),
		})
	}
	return out
}

func text(src map[string]any, key string) string {
	s, _ := src[key].(string)
	return s
}

func sumCounts(related []common.Related) float64 {
	var total float64
	for _, r := range related {
		total += r.Count
	}
	return total
}

// clone returns a shallow copy so callers can add fields per use.
func (r *Resolution) clone() map[string]any {
	return maps.Clone(r.Source)
}
