package topicspace

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/collabnext/backend/pkg/common"
)

const spaceFile = `{"nodes":[
	{"id":"T1","label":"Graph Neural Networks","keywords":"deep learning; graphs","summary":"GNNs","wikipedia_url":"https://en.wikipedia.org/wiki/GNN",
	 "subfield_id":1702,"subfield_name":"Artificial Intelligence","field_id":17,"field_name":"Computer Science","domain_id":3,"domain_name":"Physical Sciences"},
	{"id":"T2","label":"Reinforcement Learning","keywords":"agents; deep learning","summary":"RL","wikipedia_url":"",
	 "subfield_id":1702,"subfield_name":"Artificial Intelligence","field_id":17,"field_name":"Computer Science","domain_id":3,"domain_name":"Physical Sciences"},
	{"id":"T3","label":"Protein Folding","keywords":"proteins","summary":"","wikipedia_url":"",
	 "subfield_id":1312,"subfield_name":"Molecular Biology","field_id":13,"field_name":"Biochemistry","domain_id":1,"domain_name":"Life Sciences"}
]}`

func mustSpace(t *testing.T) *Space {
	t.Helper()
	s, err := Parse([]byte(spaceFile))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return s
}

func TestSearchMatchesEveryLevel(t *testing.T) {
	s := mustSpace(t)
	tests := []struct {
		term   string
		topics int
	}{
		{"Graph Neural Networks", 1},
		{"Artificial Intelligence", 2},
		{"Computer Science", 2},
		{"Physical Sciences", 2},
		{"deep learning", 2},
		{"proteins", 1},
		{"deep", 0},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			r := s.Search(tt.term)
			var topics int
			for _, n := range r.Graph.Nodes {
				if n.Type == common.EntityTopic {
					topics++
				}
			}
			if topics != tt.topics {
				t.Fatalf("got %d topics, want %d", topics, tt.topics)
			}
		})
	}
}

func TestSearchMergesSharedAncestors(t *testing.T) {
	r := mustSpace(t).Search("Artificial Intelligence")
	if len(r.Graph.Nodes) != 5 {
		t.Fatalf("expected 2 topics and 3 shared ancestors, got %+v", r.Graph.Nodes)
	}
	if len(r.Graph.Edges) != 4 {
		t.Fatalf("expected 4 edges, got %+v", r.Graph.Edges)
	}
	first := r.Graph.Edges[0]
	if first.ID != "T1-1702" || first.Label != "hasSubfield" || first.EndType != common.EntitySubfield {
		t.Fatalf("unexpected first edge %+v", first)
	}
}

func TestResultJSONInlinesDetails(t *testing.T) {
	b, err := json.Marshal(mustSpace(t).Search("proteins"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(b)
	if !strings.Contains(got, `{"id":"T3","label":"Protein Folding","type":"TOPIC","keywords":"proteins","summary":"","wikipedia_url":""}`) {
		t.Fatalf("topic node details missing: %s", got)
	}
	if !strings.Contains(got, `{"id":"1312","label":"Molecular Biology","type":"SUBFIELD"}`) {
		t.Fatalf("subfield node should have no details: %s", got)
	}

	b, _ = json.Marshal(mustSpace(t).Search("nothing"))
	if string(b) != `{"nodes":[],"edges":[]}` {
		t.Fatalf("empty search = %s", b)
	}
}

func TestDomains(t *testing.T) {
	g := Domains()
	if len(g.Nodes) != 4 || len(g.Edges) != 0 {
		t.Fatalf("unexpected domain graph %+v", g)
	}
	if g.Nodes[3] != (common.Entity{ID: "4", Label: "Health Sciences", Type: common.EntityDomain}) {
		t.Fatalf("unexpected last domain %+v", g.Nodes[3])
	}
}

func TestDefaultGraphStrongest(t *testing.T) {
	g, err := ParseDefaultGraph([]byte(`{
		"nodes":[
			{"id":"I1","label":"Howard University","type":"INSTITUTION"},
			{"id":"I2","label":"Morgan State University","type":"INSTITUTION"},
			{"id":"T1","label":"Optics","type":"TOPIC"},
			{"id":"T2","label":"Biology","type":"TOPIC"},
			{"id":"T3","label":"Geology","type":"TOPIC"}],
		"edges":[
			{"start":"I1","end":"T1","connecting_works":5},
			{"start":"I1","end":"T2","connecting_works":9},
			{"start":"I2","end":"T2","connecting_works":3},
			{"start":"I2","end":"T3","connecting_works":3}]}`))
	if err != nil {
		t.Fatalf("ParseDefaultGraph() error = %v", err)
	}

	out := g.Strongest()
	var ends []string
	for _, e := range out.Edges {
		ends = append(ends, e["start"].(string)+">"+e["end"].(string))
	}
	if strings.Join(ends, ",") != "I1>T2,I2>T2,I2>T3" {
		t.Fatalf("unexpected edges %v", ends)
	}
	var ids []string
	for _, n := range out.Nodes {
		ids = append(ids, n["id"].(string))
	}
	if strings.Join(ids, ",") != "I1,I2,T2,T3" {
		t.Fatalf("unexpected nodes %v", ids)
	}
}
