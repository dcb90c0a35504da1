package query

import (
	"reflect"
	"testing"
)

func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want Shape
	}{
		{"empty", Request{}, ShapeNone},
		{"institution", Request{Institution: "Howard University"}, ShapeInstitution},
		{"researcher", Request{Researcher: "jane doe"}, ShapeResearcher},
		{"topic", Request{Topic: "Computer Science"}, ShapeTopic},
		{"institution researcher", Request{Institution: "Howard University", Researcher: "Jane Doe"}, ShapeInstitutionResearcher},
		{"institution topic", Request{Institution: "Howard University", Topic: "Biology"}, ShapeInstitutionTopic},
		{"researcher topic", Request{Researcher: "Jane Doe", Topic: "Biology"}, ShapeResearcherTopic},
		{"all three", Request{Institution: "Howard University", Researcher: "Jane Doe", Topic: "Biology"}, ShapeAllThree},
		{"triple beats batch", Request{Institution: "Howard University", Researcher: "Jane Doe", Topic: "Biology", ExtraInstitutions: []string{"MIT"}}, ShapeAllThree},
		{"researcher list", Request{Researcher: "Jane Doe\nJohn Roe"}, ShapeBatchResearchers},
		{"single beats researcher list", Request{Topic: "Biology", Researcher: "Jane Doe\nJohn Roe"}, ShapeTopic},
		{"researcher list beats institution list", Request{Researcher: "Jane Doe\nJohn Roe", ExtraInstitutions: []string{"MIT"}}, ShapeBatchResearchers},
		{"institution list", Request{ExtraInstitutions: []string{"MIT", "Howard University"}}, ShapeBatchInstitutions},
		{"blank institution list", Request{ExtraInstitutions: []string{"", "  "}}, ShapeNone},
		{"single beats institution list", Request{Institution: "Howard University", ExtraInstitutions: []string{"MIT"}}, ShapeInstitution},
		{"whitespace only", Request{Institution: "  ", Topic: "\t"}, ShapeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.req).Shape; got != tt.want {
				t.Fatalf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyNormalizesInput(t *testing.T) {
	c := Classify(Request{Researcher: "  jane   DOE ", Topic: " Computer  Science"})
	want := Query{Researcher: "Jane Doe", Topic: "Computer Science"}
	if !reflect.DeepEqual(c.Query, want) {
		t.Fatalf("Query = %+v, want %+v", c.Query, want)
	}
}

func TestClassifyLists(t *testing.T) {
	c := Classify(Request{Researcher: "Jane Doe\n\n A5023888391 \r\nJohn Roe\nJane  Doe"})
	if want := []string{"Jane Doe", "A5023888391", "John Roe"}; !reflect.DeepEqual(c.Researchers, want) {
		t.Fatalf("Researchers = %v, want %v", c.Researchers, want)
	}

	c = Classify(Request{ExtraInstitutions: []string{"MIT", " Howard  University", "", "I27837315", "MIT"}})
	if want := []string{"MIT", "Howard University", "I27837315"}; !reflect.DeepEqual(c.Institutions, want) {
		t.Fatalf("Institutions = %v, want %v", c.Institutions, want)
	}
}

func TestBatchEntries(t *testing.T) {
	if got := researcherEntry("a5023888391"); got.AuthorID != "https://openalex.org/A5023888391" || got.Researcher != "" {
		t.Fatalf("researcherEntry(id) = %+v", got)
	}
	if got := researcherEntry("jane doe"); got.Researcher != "Jane Doe" || got.AuthorID != "" {
		t.Fatalf("researcherEntry(name) = %+v", got)
	}
	if got := institutionEntry("I27837315"); got.InstitutionID != "https://openalex.org/I27837315" {
		t.Fatalf("institutionEntry(id) = %+v", got)
	}
	if got := institutionEntry("Iowa State University"); got.Institution != "Iowa State University" {
		t.Fatalf("institutionEntry(name) = %+v", got)
	}
}
