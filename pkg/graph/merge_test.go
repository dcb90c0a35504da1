package graph

import (
	"reflect"
	"sort"
	"testing"

	"github.com/collabnext/backend/pkg/common"
)

func sampleGraph(subject string, topics ...string) common.Graph {
	s := common.Entity{ID: subject, Label: subject, Type: common.EntityInstitution}
	related := make([]common.Related, 0, len(topics))
	for _, t := range topics {
		related = append(related, common.Related{Label: t, Count: 1})
	}
	g, _ := Build(Spec{Subject: s, Related: related, RelatedType: common.EntitySubfield, EdgeLabel: "researches"})
	return g
}

func nodeSet(g common.Graph) []string {
	out := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n.ID+"|"+n.Label+"|"+string(n.Type))
	}
	sort.Strings(out)
	return out
}

func edgeSet(g common.Graph) []string {
	out := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		out = append(out, e.ID+"|"+e.Label)
	}
	sort.Strings(out)
	return out
}

func TestMergeIdempotent(t *testing.T) {
	g := sampleGraph("Howard University", "Physics", "Biology")
	merged := Merge(g, g)
	if !reflect.DeepEqual(merged, g) {
		t.Fatalf("Merge(G, G) != G\n got %#v\nwant %#v", merged, g)
	}
}

func TestMergeCommutative(t *testing.T) {
	a := sampleGraph("Howard University", "Physics", "Biology")
	b := sampleGraph("Morgan State University", "Physics", "Chemistry")

	ab, ba := Merge(a, b), Merge(b, a)
	if !reflect.DeepEqual(nodeSet(ab), nodeSet(ba)) {
		t.Fatalf("node sets differ:\n%v\n%v", nodeSet(ab), nodeSet(ba))
	}
	if !reflect.DeepEqual(edgeSet(ab), edgeSet(ba)) {
		t.Fatalf("edge sets differ:\n%v\n%v", edgeSet(ab), edgeSet(ba))
	}
	// Physics is shared and must appear once.
	if len(ab.Nodes) != 5 {
		t.Fatalf("expected 5 distinct nodes, got %d", len(ab.Nodes))
	}
}

func TestMergeKeepsSameIDWithDifferentPayload(t *testing.T) {
	a := common.Graph{Nodes: []common.Entity{{ID: "x", Label: "x", Type: common.EntityTopic, Size: 10}}}
	b := common.Graph{Nodes: []common.Entity{{ID: "x", Label: "x", Type: common.EntityTopic, Size: 20}}}

	merged := Merge(a, b)
	if len(merged.Nodes) != 2 {
		t.Fatalf("expected both payloads retained, got %d nodes", len(merged.Nodes))
	}
	nodes, edges := DuplicateIDs(merged)
	if !reflect.DeepEqual(nodes, []string{"x"}) || len(edges) != 0 {
		t.Fatalf("DuplicateIDs() = %v, %v", nodes, edges)
	}
}

func TestMergeKeepsDanglingEdges(t *testing.T) {
	g := common.Graph{Edges: []common.Relation{{ID: "a-b", Start: "a", End: "b", Label: "memberOf"}}}
	merged := Merge(g)
	if len(merged.Nodes) != 0 || len(merged.Edges) != 1 {
		t.Fatalf("unexpected merge of dangling edge: %+v", merged)
	}
}

func TestMergeNothingIsEmptyGraph(t *testing.T) {
	merged := Merge()
	if merged.Nodes == nil || merged.Edges == nil {
		t.Fatal("Merge() should return non-nil slices")
	}
}
