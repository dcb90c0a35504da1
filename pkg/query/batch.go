package query

import (
	"context"
	"fmt"

	"github.com/collabnext/backend/pkg/common"
	"github.com/collabnext/backend/pkg/graph"
	"github.com/collabnext/backend/pkg/normalize"
	"github.com/collabnext/backend/pkg/paginate"
	"golang.org/x/sync/errgroup"
)

// batchEntry is one resolved entity of a batch search.
type batchEntry struct {
	name       string
	meta       normalize.Metadata
	graph      common.Graph
	pagination paginate.Pagination
}

// batch resolves every entry of a researcher or institution list. Entries
// are resolved with at most BatchParallelism in flight; the output keeps
// input order. Entries found nowhere are skipped.
func (d *Dispatcher) batch(ctx context.Context, c Classified, page, perPage int) (*Result, error) {
	entryShape, inputs, toQuery := ShapeResearcher, c.Researchers, researcherEntry
	if c.Shape == ShapeBatchInstitutions {
		entryShape, inputs, toQuery = ShapeInstitution, c.Institutions, institutionEntry
	}

	entries := make([]*batchEntry, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.BatchParallelism)
	for i, input := range inputs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: panic in batch entry %q: %v", ErrUnexpected, input, r)
				}
			}()
			entries[i], err = d.batchEntry(gctx, c.Shape, entryShape, input, toQuery(input), page, perPage)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metadata := make(map[string]normalize.Metadata)
	graphs := make([]common.Graph, 0, len(entries))
	pg := paginate.Pagination{CurrentPage: page}
	for _, e := range entries {
		if e == nil {
			continue
		}
		metadata[e.name] = e.meta
		graphs = append(graphs, e.graph)
		pg.TotalPages = max(pg.TotalPages, e.pagination.TotalPages)
		pg.TotalTopics = max(pg.TotalTopics, e.pagination.TotalTopics)
	}
	if len(metadata) == 0 {
		d.log.Warn("No batch entry found", "shape", c.Shape.String(), "entries", len(inputs))
		return nil, nil
	}

	merged := graph.Merge(graphs...)
	if nodes, edges := graph.DuplicateIDs(merged); len(nodes) > 0 || len(edges) > 0 {
		d.log.Warn("Merged graph has ids with differing payloads", "nodes", nodes, "edges", edges)
		if d.trace != nil {
			d.trace.Record(TraceEvent{Kind: TraceEventDuplicateNodes, Shape: c.Shape, IDs: append(nodes, edges...)})
		}
	}

	coords := researcherCoordinates(entries)
	if c.Shape == ShapeBatchInstitutions {
		coords = institutionCoordinates(entries)
	}

	return &Result{
		Metadata:           metadata,
		MetadataPagination: &pg,
		ExtraMetadata:      metadata,
		Graph:              merged,
		List:               []common.ListItem{},
		Coordinates:        coords,
	}, nil
}

func (d *Dispatcher) batchEntry(ctx context.Context, batchShape, entryShape Shape, input string, q Query, page, perPage int) (*batchEntry, error) {
	var (
		schema  normalize.Schema
		src     map[string]any
		related []common.Related
	)

	primary := d.primary.Resolve(ctx, entryShape, q)
	recordLookup(d.trace, TraceEventPrimaryLookup, entryShape, primary.Kind, primary.Err)
	if primary.IsFound() {
		schema = normalize.SchemaPrimary
		src = primarySource(primary.Record, q)
		related = relatedRows(primary.Record, entryShape)
	} else {
		if primary.Err != nil {
			d.log.Error("Primary store lookup failed for batch entry", "entry", input, "err", primary.Err)
		}
		fed := d.federation.Resolve(ctx, entryShape, q)
		recordLookup(d.trace, TraceEventFederation, entryShape, fed.Kind, fed.Err)
		if !fed.IsFound() {
			d.log.Warn("Batch entry not found", "entry", input, "err", fed.Err)
			if d.trace != nil {
				d.trace.Record(TraceEvent{Kind: TraceEventBatchEntry, Shape: batchShape, Entry: input, Outcome: fed.Kind})
			}
			return nil, nil
		}
		schema = normalize.SchemaFederation
		src = fed.Record.clone()
		related = fed.Record.Related
	}

	items, pg, err := paginate.Slice(related, page, perPage)
	if err != nil {
		return nil, err
	}
	src["derived.topics"] = common.ListFrom(items)

	meta, err := d.normalize(ctx, schema, batchShape, src)
	if err != nil {
		return nil, err
	}

	nameField, subjectType := "researcher_name", common.EntityResearcher
	if batchShape == ShapeBatchInstitutions {
		nameField, subjectType = "institution_name", common.EntityInstitution
	}
	name := meta.Text(nameField)
	if name == "" {
		name = input
		meta[nameField] = name
	}

	g, err := graph.Build(graph.Spec{
		Subject:     entity(meta.Text("open_alex_link"), name, subjectType),
		Related:     items,
		RelatedType: common.EntityTopic,
		EdgeLabel:   "researches",
	})
	if err != nil {
		return nil, err
	}

	if d.trace != nil {
		d.trace.Record(TraceEvent{Kind: TraceEventBatchEntry, Shape: batchShape, Entry: input, Outcome: common.OutcomeFound})
	}
	return &batchEntry{name: name, meta: meta, graph: g, pagination: pg}, nil
}

func institutionCoordinates(entries []*batchEntry) []common.Coordinate {
	out := []common.Coordinate{}
	for _, e := range entries {
		if e == nil {
			continue
		}
		out = append(out, common.Coordinate{
			Link:  e.meta.Text("open_alex_link"),
			Name:  e.name,
			Count: e.meta.Count("author_count"),
		})
	}
	return out
}

// researcherCoordinates counts researchers per institution in order of
// first appearance.
func researcherCoordinates(entries []*batchEntry) []common.Coordinate {
	out := []common.Coordinate{}
	index := make(map[string]int)
	for _, e := range entries {
		if e == nil {
			continue
		}
		name := e.meta.Text("institution_name")
		if name == "" {
			continue
		}
		link := e.meta.Text("institution_url")
		key := link
		if key == "" {
			key = name
		}
		if i, ok := index[key]; ok {
			out[i].Count++
			continue
		}
		index[key] = len(out)
		out = append(out, common.Coordinate{Link: link, Name: name, Count: 1})
	}
	return out
}
