package common

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EntityType classifies a node of a response graph.
type EntityType string

const (
	EntityResearcher  EntityType = "RESEARCHER"
	EntityInstitution EntityType = "INSTITUTION"
	EntityTopic       EntityType = "TOPIC"
	EntitySubfield    EntityType = "SUBFIELD"
	EntityField       EntityType = "FIELD"
	EntityDomain      EntityType = "DOMAIN"
	EntityWork        EntityType = "WORK"
	EntityNumber      EntityType = "NUMBER"
)

// Graph is the visualization payload returned with every populated search
// result. It is built fresh per request and never persisted.
//
// A graph contains:
//   - Nodes: entities with an id that is unique within the graph
//   - Edges: directed relations whose id is derived from their endpoints
type Graph struct {
	Nodes []Entity   `json:"nodes"`
	Edges []Relation `json:"edges"`
}

// Entity represents a node in the graph. Size is a visual weight and is only
// set for nodes that are scaled relative to their subject.
//
// Entity is comparable; two entities are the same node only when every
// field matches.
type Entity struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Type  EntityType `json:"type"`
	Size  float64    `json:"size,omitempty"`
}

// Relation represents a directed edge between two entities. Its ID is a
// deterministic function of Start and End, see graph.EdgeID.
type Relation struct {
	ID        string     `json:"id"`
	Start     string     `json:"start"`
	End       string     `json:"end"`
	Label     string     `json:"label"`
	StartType EntityType `json:"start_type"`
	EndType   EntityType `json:"end_type"`
}

// EmptyGraph returns a graph with non-nil node and edge slices so it
// serializes as {"nodes": [], "edges": []}.
func EmptyGraph() Graph {
	return Graph{Nodes: []Entity{}, Edges: []Relation{}}
}

// Related is one (related entity, count) pair of a relation list. ID falls
// back to Label when the source has no separate identifier.
type Related struct {
	ID    string
	Label string
	Count float64
}

// Key returns the node id used for the related entity.
func (r Related) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Label
}

// ListItem is one row of the list view. It serializes as [label, count].
type ListItem struct {
	Label string
	Count float64
}

func (i ListItem) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{i.Label, jsonNumber(i.Count)})
}

func (i *ListItem) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("list item must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &i.Label); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &i.Count)
}

// Coordinate locates an entity for the map view. It serializes as
// [oa_link, name, count].
type Coordinate struct {
	Link  string
	Name  string
	Count float64
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Link, c.Name, jsonNumber(c.Count)})
}

// jsonNumber renders whole floats without a fractional part.
func jsonNumber(f float64) json.Number {
	return json.Number(FormatCount(f))
}

// FormatCount renders a count the way it appears in node labels and ids.
func FormatCount(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ListFrom converts a related list into list view rows, preserving order.
func ListFrom(related []Related) []ListItem {
	out := make([]ListItem, 0, len(related))
	for _, r := range related {
		out = append(out, ListItem{Label: r.Label, Count: r.Count})
	}
	return out
}

// ShortID returns the last path segment of an id, e.g. A123 for
// https://openalex.org/authors/A123.
func ShortID(id string) string {
	id = strings.TrimRight(id, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// ParseCount coerces a decoded JSON or triple-store value into a count.
// Unparseable and missing values count as zero.
func ParseCount(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
