package topicspace

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/collabnext/backend/pkg/common"
	"github.com/collabnext/backend/pkg/graph"
)

// ID is an identifier that may be encoded as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %s", data)
	}
	*id = ID(n.String())
	return nil
}

// Topic is one entry of the topic space file with its classification chain.
type Topic struct {
	ID           ID     `json:"id"`
	Label        string `json:"label"`
	Keywords     string `json:"keywords"`
	Summary      string `json:"summary"`
	WikipediaURL string `json:"wikipedia_url"`
	SubfieldID   ID     `json:"subfield_id"`
	SubfieldName string `json:"subfield_name"`
	FieldID      ID     `json:"field_id"`
	FieldName    string `json:"field_name"`
	DomainID     ID     `json:"domain_id"`
	DomainName   string `json:"domain_name"`
}

func (t Topic) keywords() []string {
	return strings.Split(t.Keywords, "; ")
}

// matches reports whether term names the topic, one of its ancestors or
// one of its keywords exactly.
func (t Topic) matches(term string) bool {
	return t.Label == term ||
		t.SubfieldName == term ||
		t.FieldName == term ||
		t.DomainName == term ||
		slices.Contains(t.keywords(), term)
}

// chain is the topic, subfield, field and domain path of t.
func (t Topic) chain() common.Graph {
	topic := common.Entity{ID: string(t.ID), Label: t.Label, Type: common.EntityTopic}
	subfield := common.Entity{ID: string(t.SubfieldID), Label: t.SubfieldName, Type: common.EntitySubfield}
	field := common.Entity{ID: string(t.FieldID), Label: t.FieldName, Type: common.EntityField}
	domain := common.Entity{ID: string(t.DomainID), Label: t.DomainName, Type: common.EntityDomain}
	return common.Graph{
		Nodes: []common.Entity{topic, subfield, field, domain},
		Edges: []common.Relation{
			graph.NewRelation(topic, subfield, "hasSubfield"),
			graph.NewRelation(subfield, field, "hasField"),
			graph.NewRelation(field, domain, "hasDomain"),
		},
	}
}

// Details are the descriptive fields carried by topic nodes.
type Details struct {
	Keywords     string `json:"keywords"`
	Summary      string `json:"summary"`
	WikipediaURL string `json:"wikipedia_url"`
}

// Space is the loaded topic space.
type Space struct {
	topics []Topic
}

// Parse decodes a topic space file of the form {"nodes": [topic...]}.
func Parse(data []byte) (*Space, error) {
	var doc struct {
		Nodes []Topic `json:"nodes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode topic space: %w", err)
	}
	return &Space{topics: doc.Nodes}, nil
}

func (s *Space) Len() int {
	if s == nil {
		return 0
	}
	return len(s.topics)
}

// Result is a topic space search result. Topic nodes are serialized with
// their details inlined.
type Result struct {
	Graph   common.Graph
	Details map[string]Details
}

// Search returns the merged classification chains of every topic matching
// term.
func (s *Space) Search(term string) Result {
	var chains []common.Graph
	details := make(map[string]Details)
	for _, t := range s.topics {
		if !t.matches(term) {
			continue
		}
		chains = append(chains, t.chain())
		details[string(t.ID)] = Details{Keywords: t.Keywords, Summary: t.Summary, WikipediaURL: t.WikipediaURL}
	}
	return Result{Graph: graph.Merge(chains...), Details: details}
}

type detailedNode struct {
	common.Entity
	*Details
}

func (r Result) MarshalJSON() ([]byte, error) {
	nodes := make([]detailedNode, 0, len(r.Graph.Nodes))
	for _, n := range r.Graph.Nodes {
		dn := detailedNode{Entity: n}
		if d, ok := r.Details[n.ID]; ok && n.Type == common.EntityTopic {
			dn.Details = &d
		}
		nodes = append(nodes, dn)
	}
	edges := r.Graph.Edges
	if edges == nil {
		edges = []common.Relation{}
	}
	return json.Marshal(struct {
		Nodes []detailedNode     `json:"nodes"`
		Edges []common.Relation `json:"edges"`
	}{nodes, edges})
}

// Domains is the entry graph of the topic space: the four top level domains
// and no edges.
func Domains() common.Graph {
	names := []string{"Physical Sciences", "Life Sciences", "Social Sciences", "Health Sciences"}
	g := common.EmptyGraph()
	for i, name := range names {
		g.Nodes = append(g.Nodes, common.Entity{ID: fmt.Sprint(i + 1), Label: name, Type: common.EntityDomain})
	}
	return g
}
