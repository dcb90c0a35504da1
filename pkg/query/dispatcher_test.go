package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/collabnext/backend/pkg/common"
	"github.com/collabnext/backend/pkg/graph"
	"github.com/collabnext/backend/pkg/logger"
	"github.com/collabnext/backend/pkg/logger/memory"
	"github.com/collabnext/backend/pkg/normalize"
	"github.com/collabnext/backend/pkg/openalex"
	"github.com/collabnext/backend/pkg/sparql"
	"github.com/collabnext/backend/pkg/store"
)

type fakePrimary struct {
	mu      sync.Mutex
	calls   []Shape
	resolve func(shape Shape, q Query) common.Outcome[*store.Record]
}

func (f *fakePrimary) Resolve(_ context.Context, shape Shape, q Query) common.Outcome[*store.Record] {
	f.mu.Lock()
	f.calls = append(f.calls, shape)
	f.mu.Unlock()
	if f.resolve == nil {
		return common.Absent[*store.Record]()
	}
	return f.resolve(shape, q)
}

type fakeFederation struct {
	mu      sync.Mutex
	calls   []Shape
	resolve func(shape Shape, q Query) common.Outcome[*Resolution]
}

func (f *fakeFederation) Resolve(_ context.Context, shape Shape, q Query) common.Outcome[*Resolution] {
	f.mu.Lock()
	f.calls = append(f.calls, shape)
	f.mu.Unlock()
	if f.resolve == nil {
		return common.Absent[*Resolution]()
	}
	return f.resolve(shape, q)
}

func (f *fakeFederation) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type emptyLookup struct{}

func (emptyLookup) LastKnownInstitutions(context.Context, string) ([]openalex.Ref, error) {
	return nil, nil
}

func newTestDispatcher(cfg Config, p PrimaryResolver, f FederationResolver, opts ...DispatcherOption) *Dispatcher {
	return NewDispatcher(cfg, p, f, normalize.New(emptyLookup{}, nil), opts...)
}

func fullRecord() *store.Record {
	return &store.Record{
		AuthorMetadata: map[string]any{
			"name":                       "Jane Doe",
			"num_of_works":               10.0,
			"num_of_citations":           3.0,
			"last_known_institution":     "Howard University",
			"last_known_institution_url": "https://openalex.org/I1",
			"openalex_url":               "https://openalex.org/A1",
		},
		InstitutionMetadata: map[string]any{
			"institution_name": "Howard University",
			"num_of_authors":   10.0,
			"num_of_works":     100.0,
			"openalex_url":     "https://openalex.org/I1",
		},
		Totals: map[string]any{"total_num_of_works": 5.0},
		Data: []map[string]any{{
			"topic_subfield":   "Computer Science",
			"topic":            "Computer Science",
			"topic_name":       "Computer Science",
			"institution_name": "Howard University",
			"institution_id":   "https://openalex.org/I1",
			"author_name":      "Jane Doe",
			"author_id":        "https://openalex.org/A1",
			"work_name":        "On Graphs",
			"num_of_authors":   2,
			"num_of_works":     4,
			"num_of_citations": 7,
			"cited_by_count":   7,
		}},
	}
}

func TestPrimaryHitNeverCallsFederation(t *testing.T) {
	requests := map[string]Request{
		"institution":            {Institution: "Howard University"},
		"researcher":             {Researcher: "Jane Doe"},
		"topic":                  {Topic: "Computer Science"},
		"institution researcher": {Institution: "Howard University", Researcher: "Jane Doe"},
		"institution topic":      {Institution: "Howard University", Topic: "Computer Science"},
		"researcher topic":       {Researcher: "Jane Doe", Topic: "Computer Science"},
		"all three":              {Institution: "Howard University", Researcher: "Jane Doe", Topic: "Computer Science"},
		"researcher list":        {Researcher: "Jane Doe\nJohn Roe"},
		"institution list":       {ExtraInstitutions: []string{"Howard University", "MIT"}},
	}

	for name, req := range requests {
		t.Run(name, func(t *testing.T) {
			primary := &fakePrimary{resolve: func(Shape, Query) common.Outcome[*store.Record] {
				return common.Found(fullRecord())
			}}
			federation := &fakeFederation{}
			resp := newTestDispatcher(Config{}, primary, federation).Search(context.Background(), req)

			if resp.Err != nil || resp.Result == nil {
				t.Fatalf("expected populated result, got %+v", resp)
			}
			if n := federation.count(); n != 0 {
				t.Fatalf("federation called %d times after a primary hit", n)
			}
		})
	}
}

func TestInstitutionPrimaryGraph(t *testing.T) {
	primary := &fakePrimary{resolve: func(Shape, Query) common.Outcome[*store.Record] {
		return common.Found(&store.Record{
			InstitutionMetadata: map[string]any{
				"institution_name": "Howard University",
				"num_of_authors":   50.0,
				"openalex_url":     "https://openalex.org/I1",
			},
			Data: []map[string]any{
				{"topic_subfield": "CompSci", "num_of_authors": 25.0},
				{"topic_subfield": "Biology", "num_of_authors": 20.0},
			},
		})
	}}
	resp := newTestDispatcher(Config{}, primary, &fakeFederation{}).Search(context.Background(), Request{Institution: "Howard University"})
	if resp.Result == nil {
		t.Fatalf("expected result, got %+v", resp)
	}

	g := resp.Result.Graph
	if g.Nodes[0] != (common.Entity{ID: "https://openalex.org/I1", Label: "Howard University", Type: common.EntityInstitution}) {
		t.Fatalf("unexpected subject %+v", g.Nodes[0])
	}
	sizes := map[string]float64{}
	for _, n := range g.Nodes[1:] {
		sizes[n.ID] = n.Size
	}
	if want := map[string]float64{"CompSci": 50, "Biology": 40}; !reflect.DeepEqual(sizes, want) {
		t.Fatalf("sizes = %v, want %v", sizes, want)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(g.Edges))
	}
	for _, e := range g.Edges {
		if e.Label != "has_topic" {
			t.Fatalf("unexpected edge label %q", e.Label)
		}
	}

	wantCoords := []common.Coordinate{{Link: "https://openalex.org/I1", Name: "Howard University", Count: 50}}
	if !reflect.DeepEqual(resp.Result.Coordinates, wantCoords) {
		t.Fatalf("coordinates = %+v", resp.Result.Coordinates)
	}
	if p := resp.Result.MetadataPagination; p == nil || p.TotalTopics != 2 || p.TotalPages != 1 || p.CurrentPage != 1 {
		t.Fatalf("unexpected pagination %+v", p)
	}
}

func TestInstitutionSubfieldTopics(t *testing.T) {
	primary := &fakePrimary{resolve: func(Shape, Query) common.Outcome[*store.Record] {
		return common.Found(&store.Record{
			InstitutionMetadata: map[string]any{
				"institution_name": "Howard University",
				"num_of_authors":   50.0,
				"openalex_url":     "https://openalex.org/I1",
			},
			Data: []map[string]any{
				{"topic_subfield": "CompSci", "num_of_authors": 25.0},
				{"topic_subfield": "Biology", "num_of_authors": 20.0},
			},
			SubfieldMetadata: json.RawMessage(`{
				"CompSci": [{"topic_display_name": "Graphs"}, {"topic_display_name": "Logic"}],
				"Biology": [{"topic_display_name": "Genetics"}]
			}`),
		})
	}}
	resp := newTestDispatcher(Config{}, primary, &fakeFederation{}).Search(context.Background(),
		Request{Institution: "Howard University", PerPage: 1})
	if resp.Result == nil {
		t.Fatalf("expected result, got %+v", resp)
	}

	g := resp.Result.Graph
	var ids []string
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	if want := []string{"https://openalex.org/I1", "CompSci", "Graphs", "Logic"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("nodes = %v, want %v", ids, want)
	}
	for _, n := range g.Nodes[2:] {
		if n.Type != common.EntityTopic || n.Size != 0 {
			t.Fatalf("unexpected topic node %+v", n)
		}
	}

	var edges []string
	for _, e := range g.Edges {
		if e.Label != "has_topic" {
			t.Fatalf("unexpected edge label %q", e.Label)
		}
		edges = append(edges, e.ID)
	}
	if want := []string{"https://openalex.org/I1-CompSci", "CompSci-Graphs", "CompSci-Logic"}; !reflect.DeepEqual(edges, want) {
		t.Fatalf("edges = %v, want %v", edges, want)
	}
}

func TestPageBeyondRangeIsEmpty(t *testing.T) {
	primary := &fakePrimary{resolve: func(Shape, Query) common.Outcome[*store.Record] {
		return common.Found(&store.Record{Data: []map[string]any{
			{"institution_name": "Howard University", "institution_id": "https://openalex.org/I1", "num_of_authors": 3.0},
		}})
	}}
	d := newTestDispatcher(Config{}, primary, &fakeFederation{})

	for _, page := range []int{math.MaxInt/20 + 2, math.MaxInt} {
		t.Run(fmt.Sprint(page), func(t *testing.T) {
			resp := d.Search(context.Background(), Request{Topic: "biology", Page: page})
			if resp.Result == nil {
				t.Fatalf("expected result, got %+v", resp)
			}
			if len(resp.Result.List) != 0 {
				t.Fatalf("expected empty list, got %v", resp.Result.List)
			}
			if p := resp.Result.MetadataPagination; p.TotalPages != 1 || p.CurrentPage != page || p.TotalTopics != 1 {
				t.Fatalf("unexpected pagination %+v", p)
			}
		})
	}
}

func TestTopicSecondPage(t *testing.T) {
	rows := make([]map[string]any, 0, 20)
	var want []common.ListItem
	for i := range 20 {
		name := fmt.Sprintf("Inst%02d", i)
		count := float64(20 - i)
		rows = append(rows, map[string]any{"institution_name": name, "institution_id": "https://openalex.org/I" + name, "num_of_authors": count})
		if i >= 5 && i <= 9 {
			want = append(want, common.ListItem{Label: name, Count: count})
		}
	}
	primary := &fakePrimary{resolve: func(Shape, Query) common.Outcome[*store.Record] {
		return common.Found(&store.Record{Data: rows})
	}}

	resp := newTestDispatcher(Config{}, primary, &fakeFederation{}).Search(context.Background(),
		Request{Topic: "computer science", Page: 2, PerPage: 5})
	if resp.Result == nil {
		t.Fatalf("expected result, got %+v", resp)
	}
	if !reflect.DeepEqual(resp.Result.List, want) {
		t.Fatalf("list = %v, want %v", resp.Result.List, want)
	}
	if p := resp.Result.MetadataPagination; p.TotalPages != 4 || p.CurrentPage != 2 || p.TotalTopics != 20 {
		t.Fatalf("unexpected pagination %+v", p)
	}
	if len(resp.Result.Coordinates) != 20 {
		t.Fatalf("expected coordinates for all institutions, got %d", len(resp.Result.Coordinates))
	}
	meta := resp.Result.Metadata.(normalize.Metadata)
	if meta.Text("name") != "Computer Science" {
		t.Fatalf("topic name not title-cased: %q", meta.Text("name"))
	}
}

func TestResearcherWithoutAffiliation(t *testing.T) {
	mem := memory.NewMemoryLogger()
	log := logger.New(mem)
	primary := &fakePrimary{resolve: func(Shape, Query) common.Outcome[*store.Record] {
		return common.Found(&store.Record{
			AuthorMetadata: map[string]any{
				"name":                   "Jane Doe",
				"num_of_works":           4.0,
				"openalex_url":           "https://openalex.org/A1",
				"last_known_institution": nil,
			},
			Data: []map[string]any{{"topic": "Optics", "num_of_works": 4.0}},
		})
	}}
	d := NewDispatcher(Config{}, primary, &fakeFederation{}, normalize.New(emptyLookup{}, log), WithLogger(log))

	resp := d.Search(context.Background(), Request{Researcher: "jane doe"})
	if resp.Result == nil {
		t.Fatalf("expected result, got %+v", resp)
	}
	meta := resp.Result.Metadata.(normalize.Metadata)
	if got := meta["current_institution"]; got != "" {
		t.Fatalf("current_institution = %#v, want empty", got)
	}
	if !mem.Contains("warn", "No last known institution found") {
		t.Fatalf("expected not found warning, got %v", mem.Entries())
	}
	for _, n := range resp.Result.Graph.Nodes {
		if n.Type == common.EntityInstitution {
			t.Fatalf("unexpected institution node %+v", n)
		}
	}
	if resp.Result.Coordinates != nil {
		t.Fatalf("unexpected coordinates %+v", resp.Result.Coordinates)
	}
}

type emptyTriples struct {
	mu      sync.Mutex
	queries int
}

func (e *emptyTriples) Query(context.Context, string) ([]sparql.Binding, error) {
	e.mu.Lock()
	e.queries++
	e.mu.Unlock()
	return nil, nil
}

func TestNothingFoundAnywhereIsEmptyObject(t *testing.T) {
	triples := &emptyTriples{}
	d := newTestDispatcher(Config{}, &fakePrimary{}, NewFederation(triples, nil, FederationConfig{}))

	resp := d.Search(context.Background(), Request{Institution: "Nowhere U", Researcher: "Nobody", Topic: "Nothing"})
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "{}" {
		t.Fatalf("got %s, want {}", b)
	}
	if triples.queries == 0 {
		t.Fatal("federation did not consult the triple-store")
	}
}

func TestUnexpectedFailuresBecomeErrorMarker(t *testing.T) {
	tests := []struct {
		name    string
		primary *fakePrimary
		req     Request
		is      error
	}{
		{
			name: "panic",
			primary: &fakePrimary{resolve: func(Shape, Query) common.Outcome[*store.Record] {
				panic("boom")
			}},
			req: Request{Researcher: "Jane Doe"},
		},
		{
			name: "degenerate scale",
			primary: &fakePrimary{resolve: func(Shape, Query) common.Outcome[*store.Record] {
				return common.Found(&store.Record{
					InstitutionMetadata: map[string]any{"institution_name": "Empty U", "num_of_authors": 0.0},
					Data:                []map[string]any{{"topic_subfield": "Biology", "num_of_authors": 1.0}},
				})
			}},
			req: Request{Institution: "Empty U"},
			is:  graph.ErrDegenerateScale,
		},
		{
			name:    "invalid page",
			primary: &fakePrimary{},
			req:     Request{Topic: "Biology", Page: -1},
		},
		{
			name: "panic in batch entry",
			primary: &fakePrimary{resolve: func(Shape, Query) common.Outcome[*store.Record] {
				panic("boom")
			}},
			req: Request{Researcher: "Jane Doe\nJohn Roe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := newTestDispatcher(Config{}, tt.primary, &fakeFederation{}).Search(context.Background(), tt.req)
			if resp.Err == nil {
				t.Fatalf("expected error response, got %+v", resp)
			}
			if !errors.Is(resp.Err, ErrUnexpected) {
				t.Fatalf("error does not wrap ErrUnexpected: %v", resp.Err)
			}
			if tt.is != nil && !errors.Is(resp.Err, tt.is) {
				t.Fatalf("error = %v, want %v", resp.Err, tt.is)
			}
			b, _ := json.Marshal(resp)
			if string(b) != `{"error":"An unexpected error occurred"}` {
				t.Fatalf("unexpected body %s", b)
			}
		})
	}
}

func TestFederationFallbackTrace(t *testing.T) {
	trail := NewQueryTrace()
	federation := &fakeFederation{resolve: func(shape Shape, q Query) common.Outcome[*Resolution] {
		return common.Found(&Resolution{
			Source: map[string]any{
				"input.researcher":                q.Researcher,
				"author.author":                   "https://openalex.org/A1",
				"author.current_institution":      "https://openalex.org/I1",
				"author.current_institution_name": "Howard University",
				"author.works_count":              "12",
			},
			Related: []common.Related{{Label: "Optics", Count: 3}, {Label: "Acoustics", Count: 1}},
		})
	}}
	d := newTestDispatcher(Config{}, &fakePrimary{}, federation, WithTrace(trail))

	resp := d.Search(context.Background(), Request{Researcher: "Jane Doe"})
	if resp.Result == nil {
		t.Fatalf("expected result, got %+v", resp)
	}

	wantKinds := []TraceEventKind{TraceEventDispatch, TraceEventPrimaryLookup, TraceEventFederation, TraceEventRespond}
	if got := trail.Kinds(); !reflect.DeepEqual(got, wantKinds) {
		t.Fatalf("trace = %v, want %v", got, wantKinds)
	}
	if got := trail.Lookups(TraceEventPrimaryLookup); !reflect.DeepEqual(got, []common.OutcomeKind{common.OutcomeAbsent}) {
		t.Fatalf("primary lookups = %v", got)
	}

	if resp.Result.MetadataPagination != nil {
		t.Fatalf("federated results are not paginated, got %+v", resp.Result.MetadataPagination)
	}
	wantList := []common.ListItem{{Label: "Optics", Count: 3}, {Label: "Acoustics", Count: 1}}
	if !reflect.DeepEqual(resp.Result.List, wantList) {
		t.Fatalf("list = %v", resp.Result.List)
	}

	meta := resp.Result.Metadata.(normalize.Metadata)
	if meta["work_count"] != 12.0 || meta.Text("current_institution") != "Howard University" {
		t.Fatalf("unexpected metadata %v", meta)
	}

	var numbers, memberOf int
	for _, n := range resp.Result.Graph.Nodes {
		if n.Type == common.EntityNumber {
			numbers++
		}
	}
	for _, e := range resp.Result.Graph.Edges {
		if e.Label == "memberOf" && e.End == "https://openalex.org/I1" {
			memberOf++
		}
	}
	if numbers != 2 || memberOf != 1 {
		t.Fatalf("expected 2 NUMBER nodes and 1 memberOf edge, got %d and %d", numbers, memberOf)
	}
}

func TestFederationRelatedListFailureKeepsMetadata(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	triples := &scriptedTriples{answers: map[string][]sparql.Binding{
		institutionSelect: {{
			"institution": "https://semopenalex.org/institution/I1",
			"ror":         "https://ror.org/05gt1vc06",
			"workscount":  "1200",
		}},
	}}
	mem := memory.NewMemoryLogger()
	federation := NewFederation(triples, openalex.NewClient(srv.URL), FederationConfig{},
		WithFederationLogger(logger.New(mem)))
	d := newTestDispatcher(Config{}, &fakePrimary{}, federation)

	resp := d.Search(context.Background(), Request{Institution: "Howard University"})
	if resp.Result == nil {
		t.Fatalf("expected result, got %+v", resp)
	}
	if requests.Load() == 0 {
		t.Fatal("related list was never requested")
	}
	if !mem.Contains("error", "Error listing institution authors") {
		t.Fatalf("expected related list failure to be logged, got %v", mem.Entries())
	}

	meta := resp.Result.Metadata.(normalize.Metadata)
	if meta.Text("name") != "Howard University" || meta.Text("oa_link") != "https://openalex.org/I1" ||
		meta.Text("ror") != "https://ror.org/05gt1vc06" || meta["works_count"] != 1200.0 {
		t.Fatalf("unexpected metadata %v", meta)
	}
	if len(resp.Result.List) != 0 {
		t.Fatalf("expected empty list, got %v", resp.Result.List)
	}
	g := resp.Result.Graph
	want := []common.Entity{{ID: "https://openalex.org/I1", Label: "Howard University", Type: common.EntityInstitution}}
	if !reflect.DeepEqual(g.Nodes, want) || len(g.Edges) != 0 {
		t.Fatalf("expected subject-only graph, got %+v", g)
	}
}

func TestBatchResearchers(t *testing.T) {
	records := map[string]*store.Record{
		"Jane Doe": {
			AuthorMetadata: map[string]any{
				"name": "Jane Doe", "openalex_url": "https://openalex.org/A1",
				"last_known_institution": "Howard University", "last_known_institution_url": "https://openalex.org/I1",
			},
			Data: []map[string]any{
				{"topic": "Optics", "num_of_works": 1.0},
				{"topic": "Computer Science", "num_of_works": 5.0},
				{"topic": "Acoustics", "num_of_works": 2.0},
			},
		},
		"John Roe": {
			AuthorMetadata: map[string]any{
				"name": "John Roe", "openalex_url": "https://openalex.org/A2",
				"last_known_institution": "Howard University", "last_known_institution_url": "https://openalex.org/I1",
			},
			Data: []map[string]any{{"topic": "Computer Science", "num_of_works": 3.0}},
		},
	}
	primary := &fakePrimary{resolve: func(_ Shape, q Query) common.Outcome[*store.Record] {
		if rec, ok := records[q.Researcher]; ok {
			return common.Found(rec)
		}
		return common.Absent[*store.Record]()
	}}
	federation := &fakeFederation{}
	trail := NewQueryTrace()
	d := newTestDispatcher(Config{BatchParallelism: 3}, primary, federation, WithTrace(trail))

	resp := d.Search(context.Background(), Request{Researcher: "jane doe\nNobody Known\njohn roe"})
	if resp.Result == nil {
		t.Fatalf("expected result, got %+v", resp)
	}
	r := resp.Result

	metadata := r.Metadata.(map[string]normalize.Metadata)
	if len(metadata) != 2 || metadata["Jane Doe"] == nil || metadata["John Roe"] == nil {
		t.Fatalf("unexpected metadata keys %v", metadata)
	}
	wantTopics := []common.ListItem{{Label: "Computer Science", Count: 5}, {Label: "Acoustics", Count: 2}, {Label: "Optics", Count: 1}}
	if got := metadata["Jane Doe"]["topics"]; !reflect.DeepEqual(got, wantTopics) {
		t.Fatalf("topics = %v, want %v", got, wantTopics)
	}
	if !reflect.DeepEqual(r.ExtraMetadata, r.Metadata) {
		t.Fatal("extra_metadata should mirror metadata")
	}
	if len(r.List) != 0 {
		t.Fatalf("batch list should be empty, got %v", r.List)
	}

	wantCoords := []common.Coordinate{{Link: "https://openalex.org/I1", Name: "Howard University", Count: 2}}
	if !reflect.DeepEqual(r.Coordinates, wantCoords) {
		t.Fatalf("coordinates = %+v", r.Coordinates)
	}

	var csNodes int
	for _, n := range r.Graph.Nodes {
		if n.ID == "Computer Science" {
			csNodes++
		}
	}
	if csNodes != 1 {
		t.Fatalf("shared topic node should be merged, found %d", csNodes)
	}
	if len(r.Graph.Nodes) != 5 || len(r.Graph.Edges) != 4 {
		t.Fatalf("unexpected graph size %d nodes %d edges", len(r.Graph.Nodes), len(r.Graph.Edges))
	}

	if p := r.MetadataPagination; p.TotalTopics != 3 || p.TotalPages != 1 {
		t.Fatalf("unexpected pagination %+v", p)
	}
	if n := federation.count(); n != 1 {
		t.Fatalf("expected one federation fallback, got %d", n)
	}
}

func TestBatchAllMissingIsEmpty(t *testing.T) {
	resp := newTestDispatcher(Config{}, &fakePrimary{}, &fakeFederation{}).Search(context.Background(),
		Request{ExtraInstitutions: []string{"Nowhere U", "I123"}})
	if !resp.Empty() {
		t.Fatalf("expected empty response, got %+v", resp)
	}
}

func TestResponseJSON(t *testing.T) {
	b, _ := json.Marshal(Response{})
	if string(b) != "{}" {
		t.Fatalf("empty response = %s", b)
	}

	b, _ = json.Marshal(Response{Result: &Result{Metadata: map[string]any{"name": "x"}, Graph: common.EmptyGraph(), List: []common.ListItem{}}})
	want := `{"metadata":{"name":"x"},"graph":{"nodes":[],"edges":[]},"list":[]}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}
