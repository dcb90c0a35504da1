package query

import (
	"regexp"
	"strings"

	"github.com/collabnext/backend/internal/util"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Shape is the combination of filters a request supplies. Each shape selects
// one resolution strategy.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeInstitution
	ShapeResearcher
	ShapeTopic
	ShapeInstitutionResearcher
	ShapeInstitutionTopic
	ShapeResearcherTopic
	ShapeAllThree
	ShapeBatchResearchers
	ShapeBatchInstitutions
)

func (s Shape) String() string {
	switch s {
	case ShapeInstitution:
		return "institution"
	case ShapeResearcher:
		return "researcher"
	case ShapeTopic:
		return "topic"
	case ShapeInstitutionResearcher:
		return "institution_researcher"
	case ShapeInstitutionTopic:
		return "institution_topic"
	case ShapeResearcherTopic:
		return "researcher_topic"
	case ShapeAllThree:
		return "all_three"
	case ShapeBatchResearchers:
		return "batch_researchers"
	case ShapeBatchInstitutions:
		return "batch_institutions"
	default:
		return "none"
	}
}

// Batch reports whether the shape fans out over a list of entities.
func (s Shape) Batch() bool {
	return s == ShapeBatchResearchers || s == ShapeBatchInstitutions
}

// Request is a search as received from the transport layer. Researcher may
// hold a newline delimited list. Zero Page and PerPage select the defaults.
type Request struct {
	Institution       string
	Researcher        string
	Topic             string
	ExtraInstitutions []string
	Page              int
	PerPage           int
}

// Query is the normalized filter set handed to the resolvers. AuthorID and
// InstitutionID are set when a batch entry names an OpenAlex id instead of a
// name.
type Query struct {
	Institution   string
	Researcher    string
	Topic         string
	AuthorID      string
	InstitutionID string
}

// Classified is a request after normalization and classification.
type Classified struct {
	Shape        Shape
	Query        Query
	Researchers  []string
	Institutions []string
}

var titleCaser = cases.Title(language.English)

// Classify picks the shape of req. Precedence: all three filters, then any
// pair, then any single filter, then a researcher list, then an institution
// list. A researcher field with more than one line only counts as a list.
func Classify(req Request) Classified {
	inst := util.NormalizeName(req.Institution)
	topic := util.NormalizeName(req.Topic)

	var researchers []string
	for _, line := range strings.Split(req.Researcher, "\n") {
		if line = util.NormalizeName(line); line != "" {
			researchers = append(researchers, line)
		}
	}
	researcher := ""
	if len(researchers) == 1 {
		researcher = TitleName(researchers[0])
	}

	q := Query{Institution: inst, Researcher: researcher, Topic: topic}
	c := Classified{Query: q}

	switch {
	case inst != "" && researcher != "" && topic != "":
		c.Shape = ShapeAllThree
	case inst != "" && researcher != "":
		c.Shape = ShapeInstitutionResearcher
	case inst != "" && topic != "":
		c.Shape = ShapeInstitutionTopic
	case researcher != "" && topic != "":
		c.Shape = ShapeResearcherTopic
	case topic != "":
		c.Shape = ShapeTopic
	case inst != "":
		c.Shape = ShapeInstitution
	case researcher != "":
		c.Shape = ShapeResearcher
	case len(researchers) > 1:
		c.Shape = ShapeBatchResearchers
		c.Researchers = util.DedupeStrings(researchers)
	default:
		var extra []string
		for _, name := range req.ExtraInstitutions {
			if name = util.NormalizeName(name); name != "" {
				extra = append(extra, name)
			}
		}
		if len(extra) > 0 {
			c.Shape = ShapeBatchInstitutions
			c.Institutions = util.DedupeStrings(extra)
		}
	}
	return c
}

// TitleName title-cases a researcher name the way names are stored.
func TitleName(name string) string {
	return titleCaser.String(name)
}

var (
	authorIDPattern      = regexp.MustCompile(`^[Aa]\d+$`)
	institutionIDPattern = regexp.MustCompile(`^[Ii]\d+$`)
)

const openAlexPrefix = "https://openalex.org/"

// researcherEntry turns one batch line into a query: an OpenAlex author id
// such as A5023888391, or a name.
func researcherEntry(entry string) Query {
	if authorIDPattern.MatchString(entry) {
		return Query{AuthorID: openAlexPrefix + strings.ToUpper(entry)}
	}
	return Query{Researcher: TitleName(entry)}
}

// institutionEntry turns one batch entry into a query: an OpenAlex
// institution id such as I27837315, or a name.
func institutionEntry(entry string) Query {
	if institutionIDPattern.MatchString(entry) {
		return Query{InstitutionID: openAlexPrefix + strings.ToUpper(entry)}
	}
	return Query{Institution: entry}
}
