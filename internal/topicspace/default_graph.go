package topicspace

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/collabnext/backend/pkg/common"
)

// DefaultGraph is the precomputed overview graph shown before any search.
// Nodes and edges keep every field of the file.
type DefaultGraph struct {
	Nodes []map[string]any `json:"nodes"`
	Edges []map[string]any `json:"edges"`
}

func ParseDefaultGraph(data []byte) (*DefaultGraph, error) {
	var g DefaultGraph
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to decode default graph: %w", err)
	}
	return &g, nil
}

// Strongest keeps, for every edge start, the edges with the highest
// connecting_works count, and drops TOPIC nodes no kept edge points to.
func (g *DefaultGraph) Strongest() DefaultGraph {
	most := make(map[string]float64)
	for _, e := range g.Edges {
		start, works := key(e["start"]), worksOf(e)
		if cur, ok := most[start]; !ok || works > cur {
			most[start] = works
		}
	}

	out := DefaultGraph{Nodes: []map[string]any{}, Edges: []map[string]any{}}
	needed := make(map[string]struct{})
	for _, e := range g.Edges {
		if worksOf(e) == most[key(e["start"])] {
			out.Edges = append(out.Edges, e)
			needed[key(e["end"])] = struct{}{}
		}
	}
	for _, n := range g.Nodes {
		if n["type"] == "TOPIC" {
			if _, ok := needed[key(n["id"])]; !ok {
				continue
			}
		}
		out.Nodes = append(out.Nodes, n)
	}
	return out
}

func key(v any) string {
	return fmt.Sprint(v)
}

func worksOf(e map[string]any) float64 {
	return common.ParseCount(e["connecting_works"])
}
