package autofill

import (
	"strings"
)

// List is an immutable list of suggestion candidates.
type List struct {
	entries []string
	lower   []string
}

// Parse splits raw on sep, trimming entries and dropping empty ones.
// Institution lists are ",\n" separated, subfield lists "\n" separated.
func Parse(raw, sep string) *List {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	parts := strings.Split(raw, sep)
	l := &List{
		entries: make([]string, 0, len(parts)),
		lower:   make([]string, 0, len(parts)),
	}
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(p), ","))
		if p == "" {
			continue
		}
		l.entries = append(l.entries, p)
		l.lower = append(l.lower, strings.ToLower(p))
	}
	return l
}

func New(entries ...string) *List {
	return Parse(strings.Join(entries, "\n"), "\n")
}

// Entries returns a copy of the list.
func (l *List) Entries() []string {
	if l == nil {
		return []string{}
	}
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Match returns every entry containing typed, ignoring case, in list order.
// An empty input matches everything.
func (l *List) Match(typed string) []string {
	out := []string{}
	if l == nil {
		return out
	}
	needle := strings.ToLower(typed)
	for i, entry := range l.lower {
		if strings.Contains(entry, needle) {
			out = append(out, l.entries[i])
		}
	}
	return out
}

// Suggester answers the autofill routes.
type Suggester struct {
	institutions *List
	subfields    *List
}

func NewSuggester(institutions, subfields *List) *Suggester {
	return &Suggester{institutions: institutions, subfields: subfields}
}

func (s *Suggester) Institutions(typed string) []string {
	return s.institutions.Match(typed)
}

// Topics only searches once something has been typed; the subfield list is
// too long to return whole.
func (s *Suggester) Topics(typed string) []string {
	if len(typed) == 0 {
		return []string{}
	}
	return s.subfields.Match(typed)
}

// KnownInstitutions is the institution list as plain names.
func (s *Suggester) KnownInstitutions() []string {
	return s.institutions.Entries()
}
