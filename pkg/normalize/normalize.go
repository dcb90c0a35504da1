package normalize

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/collabnext/backend/pkg/common"
	"github.com/collabnext/backend/pkg/logger"
	"github.com/collabnext/backend/pkg/openalex"
)

var ErrUnknownTable = errors.New("no field table")

// Metadata is a canonical metadata record: every field of the kind's table
// is present, absent scalars are "" and absent lists are empty.
type Metadata map[string]any

// Text returns a field as a string, or "" when it is not one.
func (m Metadata) Text(name string) string {
	s, _ := m[name].(string)
	return s
}

// Count returns a numeric field, or 0 when it is absent.
func (m Metadata) Count(name string) float64 {
	return common.ParseCount(m[name])
}

// AffiliationLookup finds the last known institutions of an author. The
// returned order is the one the source reports.
type AffiliationLookup interface {
	LastKnownInstitutions(ctx context.Context, authorID string) ([]openalex.Ref, error)
}

// Normalizer maps flattened source records onto canonical metadata.
type Normalizer struct {
	lookup AffiliationLookup
	log    *logger.Logger
}

// New creates a normalizer. lookup may be nil, in which case a missing
// affiliation is reported as not found.
func New(lookup AffiliationLookup, log *logger.Logger) *Normalizer {
	return &Normalizer{lookup: lookup, log: log}
}

// Normalize applies the (schema, kind) table to source. It fails only when
// no table exists; lookup failures degrade to "".
func (n *Normalizer) Normalize(ctx context.Context, schema Schema, kind Kind, source map[string]any) (Metadata, error) {
	t, ok := tables[tableKey{schema, kind}]
	if !ok {
		return nil, fmt.Errorf("%w for %s/%s", ErrUnknownTable, schema, kind)
	}

	out := make(Metadata, len(t.Fields))
	for _, f := range t.Fields {
		var raw any
		if f.Source != "" {
			raw = source[f.Source]
		}
		out[f.Name] = coerce(f.Type, raw)
	}

	if t.Affiliation != nil && out.Text(t.Affiliation.NameField) == "" {
		n.fillAffiliation(ctx, out, t.Affiliation, source)
	}
	return out, nil
}

func (n *Normalizer) fillAffiliation(ctx context.Context, out Metadata, a *affiliation, source map[string]any) {
	authorID, _ := source[a.IDSource].(string)
	if authorID == "" || n.lookup == nil {
		n.log.Warn("No last known institution found", "author", authorID)
		return
	}

	n.log.Debug("Fetching last known institutions", "author", authorID)
	candidates, err := n.lookup.LastKnownInstitutions(ctx, authorID)
	if err != nil {
		n.log.Error("Error fetching last known institutions", "author", authorID, "err", common.External("openalex", err))
		return
	}
	if len(candidates) == 0 {
		n.log.Warn("No last known institution found", "author", authorID)
		return
	}

	first := candidates[0]
	out[a.NameField] = first.DisplayName
	if a.URLField != "" && out.Text(a.URLField) == "" {
		out[a.URLField] = first.ID
	}
}

func coerce(t FieldType, raw any) any {
	switch t {
	case Count:
		return toCount(raw)
	case List:
		return toList(raw)
	case Items:
		if items, ok := raw.([]common.ListItem); ok && items != nil {
			return items
		}
		return []common.ListItem{}
	default:
		return toText(raw)
	}
}

func toText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return common.FormatCount(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}

// toCount keeps numbers numeric. Triple-store values arrive as strings and
// are parsed; anything unparseable is treated as absent.
func toCount(raw any) any {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return ""
		}
		return f
	default:
		return common.ParseCount(v)
	}
}

func toList(raw any) []string {
	switch v := raw.(type) {
	case []string:
		if v == nil {
			return []string{}
		}
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toText(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		out := []string{}
		for _, part := range strings.Split(v, ";") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return []string{}
	}
}
