package graph

import (
	"errors"
	"fmt"
	"math"

	"github.com/collabnext/backend/pkg/common"
)

// ErrDegenerateScale is returned when related nodes are to be sized against
// a total of zero.
var ErrDegenerateScale = errors.New("degenerate scale")

// Spec describes a subject entity and the entities related to it.
//
// Related nodes are sized as Count/Total*Scale when Scale is positive; the
// scale is a visual weight only. When CountLabel is set every related entity
// also gets a NUMBER node carrying its count, linked with CountLabel.
type Spec struct {
	Subject     common.Entity
	Related     []common.Related
	RelatedType common.EntityType
	EdgeLabel   string

	// Inbound draws edges from the related entity to the subject.
	Inbound bool

	Total float64
	Scale float64

	CountLabel string
}

// Build turns spec into a graph: the subject node first, then for each
// related entry its node, its edge and optionally its NUMBER node.
func Build(spec Spec) (common.Graph, error) {
	sized := spec.Scale > 0
	if sized && (spec.Total == 0 || math.IsNaN(spec.Total) || math.IsInf(spec.Total, 0)) {
		return common.Graph{}, fmt.Errorf("%w: total %v for %q", ErrDegenerateScale, spec.Total, spec.Subject.ID)
	}

	g := common.Graph{
		Nodes: make([]common.Entity, 0, 1+len(spec.Related)*2),
		Edges: make([]common.Relation, 0, len(spec.Related)*2),
	}
	g.Nodes = append(g.Nodes, spec.Subject)

	for _, r := range spec.Related {
		node := common.Entity{
			ID:    r.Key(),
			Label: r.Label,
			Type:  spec.RelatedType,
		}
		if sized {
			node.Size = r.Count / spec.Total * spec.Scale
		}
		g.Nodes = append(g.Nodes, node)

		if spec.Inbound {
			g.Edges = append(g.Edges, NewRelation(node, spec.Subject, spec.EdgeLabel))
		} else {
			g.Edges = append(g.Edges, NewRelation(spec.Subject, node, spec.EdgeLabel))
		}

		if spec.CountLabel != "" {
			num := NumberNode(node.ID, r.Count)
			g.Nodes = append(g.Nodes, num)
			g.Edges = append(g.Edges, NewRelation(node, num, spec.CountLabel))
		}
	}

	return g, nil
}

// Attach appends a node and the edge linking it, in place.
func Attach(g *common.Graph, node common.Entity, edge common.Relation) {
	g.Nodes = append(g.Nodes, node)
	g.Edges = append(g.Edges, edge)
}
