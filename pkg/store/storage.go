package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when the primary store has no record for a name
// or a search. It is an expected condition, not a failure.
var ErrNotFound = errors.New("not found in primary store")

// SearchFunc names one of the stored search functions of the primary store.
type SearchFunc string

const (
	SearchAuthor                 SearchFunc = "search_by_author"
	SearchInstitution            SearchFunc = "search_by_institution"
	SearchTopic                  SearchFunc = "search_by_topic"
	SearchAuthorInstitution      SearchFunc = "search_by_author_institution"
	SearchInstitutionTopic       SearchFunc = "search_by_institution_topic"
	SearchAuthorTopic            SearchFunc = "search_by_author_topic"
	SearchAuthorInstitutionTopic SearchFunc = "search_by_author_institution_topic"
)

// Arity is the number of arguments the stored function takes.
func (f SearchFunc) Arity() int {
	switch f {
	case SearchAuthor, SearchInstitution, SearchTopic:
		return 1
	case SearchAuthorInstitution, SearchInstitutionTopic, SearchAuthorTopic:
		return 2
	case SearchAuthorInstitutionTopic:
		return 3
	default:
		return -1
	}
}

// ResearchStore is the primary relational store. Name lookups and searches
// return ErrNotFound when the store has nothing; any other error is a failed
// call.
type ResearchStore interface {
	ResolveAuthorID(ctx context.Context, name string) (string, error)
	ResolveInstitutionID(ctx context.Context, name string) (string, error)
	Search(ctx context.Context, fn SearchFunc, args ...string) (*Record, error)
	Ping(ctx context.Context) error
}

// Record is the nested document returned by a stored search function. Values
// are passed through untouched; mapping them onto output fields happens in
// the normalizer.
type Record struct {
	AuthorMetadata      map[string]any   `json:"author_metadata,omitempty"`
	InstitutionMetadata map[string]any   `json:"institution_metadata,omitempty"`
	Data                []map[string]any `json:"data"`
	SubfieldMetadata    json.RawMessage  `json:"subfield_metadata,omitempty"`
	Totals              map[string]any   `json:"totals,omitempty"`
}

// Cluster is one topic of the searched subfield.
type Cluster struct {
	Topic       string `json:"topic"`
	SubfieldURL string `json:"subfield_url"`
}

// Clusters decodes subfield_metadata when it holds the topic cluster list of
// a topic search. Researcher and institution searches carry a per-subfield
// map there instead, for which Clusters returns nil.
func (r *Record) Clusters() []Cluster {
	if r == nil || len(r.SubfieldMetadata) == 0 || r.SubfieldMetadata[0] != '[' {
		return nil
	}
	var clusters []Cluster
	if err := json.Unmarshal(r.SubfieldMetadata, &clusters); err != nil {
		return nil
	}
	return clusters
}

// SubfieldTopics decodes the per-subfield map of researcher and institution
// searches into topic names keyed by subfield. It returns nil for the cluster
// list of topic searches.
func (r *Record) SubfieldTopics() map[string][]string {
	if r == nil || len(r.SubfieldMetadata) == 0 || r.SubfieldMetadata[0] != '{' {
		return nil
	}
	var raw map[string][]struct {
		Name string `json:"topic_display_name"`
	}
	if err := json.Unmarshal(r.SubfieldMetadata, &raw); err != nil {
		return nil
	}
	out := make(map[string][]string, len(raw))
	for subfield, topics := range raw {
		names := make([]string, 0, len(topics))
		for _, t := range topics {
			if t.Name != "" {
				names = append(names, t.Name)
			}
		}
		out[subfield] = names
	}
	return out
}

// Flatten returns the record's scalar sections as one map keyed by
// "<section>.<field>": author.*, institution.*, totals.*, plus
// subfields.clusters and subfields.url for topic searches.
func (r *Record) Flatten() map[string]any {
	out := make(map[string]any)
	if r == nil {
		return out
	}
	for k, v := range r.AuthorMetadata {
		out["author."+k] = v
	}
	for k, v := range r.InstitutionMetadata {
		out["institution."+k] = v
	}
	for k, v := range r.Totals {
		out["totals."+k] = v
	}
	if clusters := r.Clusters(); len(clusters) > 0 {
		topics := make([]string, 0, len(clusters))
		for _, c := range clusters {
			topics = append(topics, c.Topic)
		}
		out["subfields.clusters"] = topics
		out["subfields.url"] = clusters[len(clusters)-1].SubfieldURL
	}
	return out
}
