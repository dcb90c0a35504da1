package graph

import (
	"github.com/collabnext/backend/pkg/common"
)

// Merge unions graphs. Nodes and edges are deduplicated by full structural
// equality and keep the order of their first occurrence. Entries that share
// an id but differ in any other field are all retained; see DuplicateIDs.
// Edges whose endpoints are missing from the node list are kept as they are.
func Merge(graphs ...common.Graph) common.Graph {
	out := common.EmptyGraph()
	seenNodes := make(map[common.Entity]struct{})
	seenEdges := make(map[common.Relation]struct{})

	for _, g := range graphs {
		for _, n := range g.Nodes {
			if _, ok := seenNodes[n]; ok {
				continue
			}
			seenNodes[n] = struct{}{}
			out.Nodes = append(out.Nodes, n)
		}
		for _, e := range g.Edges {
			if _, ok := seenEdges[e]; ok {
				continue
			}
			seenEdges[e] = struct{}{}
			out.Edges = append(out.Edges, e)
		}
	}

	return out
}

// DuplicateIDs reports node and edge ids that occur more than once in g.
// On a merged graph these are entries sharing an id with differing payloads.
func DuplicateIDs(g common.Graph) (nodeIDs []string, edgeIDs []string) {
	nodeCount := make(map[string]int)
	for _, n := range g.Nodes {
		nodeCount[n.ID]++
		if nodeCount[n.ID] == 2 {
			nodeIDs = append(nodeIDs, n.ID)
		}
	}
	edgeCount := make(map[string]int)
	for _, e := range g.Edges {
		edgeCount[e.ID]++
		if edgeCount[e.ID] == 2 {
			edgeIDs = append(edgeIDs, e.ID)
		}
	}
	return nodeIDs, edgeIDs
}
