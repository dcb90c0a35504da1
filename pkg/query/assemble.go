package query

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/collabnext/backend/pkg/common"
	"github.com/collabnext/backend/pkg/graph"
	"github.com/collabnext/backend/pkg/normalize"
	"github.com/collabnext/backend/pkg/store"
)

const (
	researcherScale            = 50
	institutionScale           = 100
	institutionResearcherScale = 100
)

var shapeKinds = map[Shape]normalize.Kind{
	ShapeInstitution:           normalize.KindInstitution,
	ShapeResearcher:            normalize.KindResearcher,
	ShapeTopic:                 normalize.KindTopic,
	ShapeInstitutionResearcher: normalize.KindInstitutionResearcher,
	ShapeInstitutionTopic:      normalize.KindInstitutionTopic,
	ShapeResearcherTopic:       normalize.KindResearcherTopic,
	ShapeAllThree:              normalize.KindAllThree,
	ShapeBatchResearchers:      normalize.KindBatchResearcherEntry,
	ShapeBatchInstitutions:     normalize.KindBatchInstitutionEntry,
}

// rowSpec names the columns of a primary data row that make up one related
// entry.
type rowSpec struct {
	label string
	count string
	id    string
}

var primaryRows = map[Shape]rowSpec{
	ShapeInstitution:           {label: "topic_subfield", count: "num_of_authors"},
	ShapeResearcher:            {label: "topic", count: "num_of_works"},
	ShapeTopic:                 {label: "institution_name", count: "num_of_authors", id: "institution_id"},
	ShapeInstitutionResearcher: {label: "topic_name", count: "num_of_works"},
	ShapeInstitutionTopic:      {label: "author_name", count: "num_of_works", id: "author_id"},
	ShapeResearcherTopic:       {label: "work_name", count: "num_of_citations"},
	ShapeAllThree:              {label: "work_name", count: "cited_by_count"},
}

// relatedRows extracts the related list of a primary record, ordered by
// count descending. Rows without a label are dropped.
func relatedRows(rec *store.Record, shape Shape) []common.Related {
	if rec == nil {
		return []common.Related{}
	}
	spec := primaryRows[shape]
	out := make([]common.Related, 0, len(rec.Data))
	for _, row := range rec.Data {
		label := rowText(row[spec.label])
		if label == "" {
			continue
		}
		r := common.Related{Label: label, Count: common.ParseCount(row[spec.count])}
		if spec.id != "" {
			r.ID = rowText(row[spec.id])
		}
		out = append(out, r)
	}
	sortRelated(out)
	return out
}

func rowText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func sortRelated(related []common.Related) {
	slices.SortStableFunc(related, func(a, b common.Related) int {
		return cmp.Compare(b.Count, a.Count)
	})
}

// primarySource flattens rec and adds the request values.
func primarySource(rec *store.Record, q Query) map[string]any {
	src := rec.Flatten()
	addInput(src, q)
	return src
}

func addInput(src map[string]any, q Query) {
	src["input.institution"] = q.Institution
	src["input.researcher"] = q.Researcher
	src["input.topic"] = q.Topic
}

func entity(id, label string, typ common.EntityType) common.Entity {
	if id == "" {
		id = label
	}
	return common.Entity{ID: id, Label: label, Type: typ}
}

// link is an extra node connected from the subject.
type link struct {
	node  common.Entity
	label string
}

func compose(spec graph.Spec, links ...link) (common.Graph, error) {
	g, err := graph.Build(spec)
	if err != nil {
		return common.Graph{}, err
	}
	for _, l := range links {
		if l.node.ID == "" {
			continue
		}
		graph.Attach(&g, l.node, graph.NewRelation(spec.Subject, l.node, l.label))
	}
	return g, nil
}

// shapeGraph builds the graph of a single entity shape from canonical
// metadata. Primary results are sized against their subject; federated ones
// carry NUMBER nodes instead.
func shapeGraph(shape Shape, schema normalize.Schema, m normalize.Metadata, related []common.Related) (common.Graph, error) {
	sized := schema == normalize.SchemaPrimary

	switch shape {
	case ShapeInstitution:
		spec := graph.Spec{
			Subject:     entity(m.Text("oa_link"), m.Text("name"), common.EntityInstitution),
			Related:     related,
			RelatedType: common.EntityTopic,
		}
		if sized {
			spec.EdgeLabel = "has_topic"
			spec.Total, spec.Scale = m.Count("author_count"), institutionScale
		} else {
			spec.EdgeLabel, spec.CountLabel = "researches", "number"
		}
		return compose(spec)

	case ShapeResearcher:
		spec := graph.Spec{
			Subject:     entity(m.Text("oa_link"), m.Text("name"), common.EntityResearcher),
			Related:     related,
			RelatedType: common.EntityTopic,
			EdgeLabel:   "researches",
		}
		if sized {
			spec.Total, spec.Scale = m.Count("work_count"), researcherScale
		} else {
			spec.CountLabel = "number"
		}
		inst := entity(m.Text("institution_url"), m.Text("current_institution"), common.EntityInstitution)
		return compose(spec, link{inst, "memberOf"})

	case ShapeTopic:
		return compose(graph.Spec{
			Subject:     entity(m.Text("oa_link"), m.Text("name"), common.EntityTopic),
			Related:     related,
			RelatedType: common.EntityInstitution,
			EdgeLabel:   "researches",
			Inbound:     true,
			CountLabel:  "number",
		})

	case ShapeInstitutionTopic:
		topic := entity(m.Text("topic_oa_link"), m.Text("topic_name"), common.EntityTopic)
		return compose(graph.Spec{
			Subject:     entity(m.Text("institution_oa_link"), m.Text("institution_name"), common.EntityInstitution),
			Related:     related,
			RelatedType: common.EntityResearcher,
			EdgeLabel:   "memberOf",
			Inbound:     true,
			CountLabel:  "numWorks",
		}, link{topic, "researches"})

	case ShapeInstitutionResearcher:
		spec := graph.Spec{
			Subject:     entity(m.Text("researcher_oa_link"), m.Text("researcher_name"), common.EntityResearcher),
			Related:     related,
			RelatedType: common.EntityTopic,
			EdgeLabel:   "researches",
		}
		if sized {
			spec.Total, spec.Scale = m.Count("work_count"), institutionResearcherScale
		} else {
			spec.CountLabel = "number"
		}
		inst := entity(m.Text("institution_oa_link"), m.Text("institution_name"), common.EntityInstitution)
		return compose(spec, link{inst, "memberOf"})

	case ShapeResearcherTopic, ShapeAllThree:
		instName := m.Text("current_institution")
		if shape == ShapeAllThree {
			instName = m.Text("institution_name")
		}
		inst := entity(m.Text("institution_oa_link"), instName, common.EntityInstitution)
		topic := entity(m.Text("topic_oa_link"), m.Text("topic_name"), common.EntityTopic)
		return compose(graph.Spec{
			Subject:     entity(m.Text("researcher_oa_link"), m.Text("researcher_name"), common.EntityResearcher),
			Related:     related,
			RelatedType: common.EntityWork,
			EdgeLabel:   "authored",
			CountLabel:  "citedBy",
		}, link{inst, "memberOf"}, link{topic, "researches"})
	}

	return common.Graph{}, fmt.Errorf("no graph for shape %s", shape)
}

// attachTopics hangs the topics of every paged subfield off its node with a
// has_topic edge. A topic shared by two subfields gets one node and two edges.
func attachTopics(g *common.Graph, items []common.Related, topics map[string][]string) {
	if len(topics) == 0 {
		return
	}
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		seen[n.ID] = true
	}
	for _, r := range items {
		parent := common.Entity{ID: r.Key(), Label: r.Label, Type: common.EntityTopic}
		for _, name := range topics[r.Label] {
			child := entity("", name, common.EntityTopic)
			edge := graph.NewRelation(parent, child, "has_topic")
			if seen[child.ID] {
				g.Edges = append(g.Edges, edge)
				continue
			}
			seen[child.ID] = true
			graph.Attach(g, child, edge)
		}
	}
}

// shapeCoordinates returns the map view entries of a single entity shape.
func shapeCoordinates(shape Shape, m normalize.Metadata, related []common.Related, mapLimit int) []common.Coordinate {
	switch shape {
	case ShapeInstitution:
		return []common.Coordinate{{Link: m.Text("oa_link"), Name: m.Text("name"), Count: m.Count("author_count")}}
	case ShapeResearcher:
		if m.Text("current_institution") == "" {
			return nil
		}
		return []common.Coordinate{{Link: m.Text("institution_url"), Name: m.Text("current_institution"), Count: 1}}
	case ShapeTopic:
		top := related[:min(mapLimit, len(related))]
		out := make([]common.Coordinate, 0, len(top))
		for _, r := range top {
			out = append(out, common.Coordinate{Link: r.ID, Name: r.Label, Count: r.Count})
		}
		return out
	default:
		return nil
	}
}
