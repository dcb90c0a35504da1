package normalize

// Schema identifies the source a record came from.
type Schema string

const (
	SchemaPrimary    Schema = "primary"
	SchemaFederation Schema = "federation"
)

// Kind identifies the canonical metadata field set.
type Kind string

const (
	KindInstitution           Kind = "institution"
	KindResearcher            Kind = "researcher"
	KindTopic                 Kind = "topic"
	KindInstitutionTopic      Kind = "institution_topic"
	KindInstitutionResearcher Kind = "institution_researcher"
	KindResearcherTopic       Kind = "researcher_topic"
	KindAllThree              Kind = "all_three"
	KindBatchInstitutionEntry Kind = "batch_institution"
	KindBatchResearcherEntry  Kind = "batch_researcher"
)

// FieldType controls how a missing or raw value is coerced.
type FieldType int

const (
	// Text values become strings; missing values become "".
	Text FieldType = iota
	// Count values become numbers; missing values become "".
	Count
	// List values become []string; missing values become [].
	List
	// Items values are []common.ListItem; missing values become [].
	Items
)

// Field maps one canonical field onto a path of the flattened source. An
// empty Source always yields the zero value of the type.
type Field struct {
	Name   string
	Source string
	Type   FieldType
}

// affiliation names the fields filled by the last known institution lookup
// when NameField is empty after mapping. IDSource is the source path of the
// author id the lookup is keyed by.
type affiliation struct {
	NameField string
	URLField  string
	IDSource  string
}

type table struct {
	Fields      []Field
	Affiliation *affiliation
}

type tableKey struct {
	schema Schema
	kind   Kind
}

// Source paths are "<section>.<name>". Primary records use the sections of
// store.Record.Flatten; federation records use the binding names of the
// triple-store queries under author., institution. and subfield.; both add
// input.* for the request values and derived.* for values computed while
// building the list.
var tables = map[tableKey]table{
	{SchemaPrimary, KindInstitution}: {Fields: []Field{
		{"name", "institution.institution_name", Text},
		{"homepage", "institution.url", Text},
		{"works_count", "institution.num_of_works", Count},
		{"cited_count", "institution.num_of_citations", Count},
		{"author_count", "institution.num_of_authors", Count},
		{"oa_link", "institution.openalex_url", Text},
		{"ror", "institution.ror", Text},
	}},
	{SchemaPrimary, KindResearcher}: {
		Fields: []Field{
			{"name", "author.name", Text},
			{"orcid", "author.orcid", Text},
			{"work_count", "author.num_of_works", Count},
			{"cited_by_count", "author.num_of_citations", Count},
			{"current_institution", "author.last_known_institution", Text},
			{"institution_url", "author.last_known_institution_url", Text},
			{"oa_link", "author.openalex_url", Text},
		},
		Affiliation: &affiliation{NameField: "current_institution", URLField: "institution_url", IDSource: "author.openalex_url"},
	},
	{SchemaPrimary, KindTopic}: {Fields: []Field{
		{"name", "input.topic", Text},
		{"topic_clusters", "subfields.clusters", List},
		{"work_count", "totals.total_num_of_works", Count},
		{"cited_by_count", "totals.total_num_of_citations", Count},
		{"researchers", "totals.total_num_of_authors", Count},
		{"oa_link", "subfields.url", Text},
	}},
	{SchemaPrimary, KindInstitutionTopic}: {Fields: []Field{
		{"institution_name", "input.institution", Text},
		{"topic_name", "input.topic", Text},
		{"topic_clusters", "subfields.clusters", List},
		{"work_count", "totals.total_num_of_works", Count},
		{"cited_by_count", "totals.total_num_of_citations", Count},
		{"people_count", "derived.people_count", Count},
		{"topic_oa_link", "subfields.url", Text},
		{"institution_oa_link", "institution.openalex_url", Text},
		{"homepage", "institution.url", Text},
		{"ror", "institution.ror", Text},
	}},
	{SchemaPrimary, KindInstitutionResearcher}: {Fields: []Field{
		{"institution_name", "input.institution", Text},
		{"researcher_name", "input.researcher", Text},
		{"homepage", "institution.url", Text},
		{"institution_oa_link", "institution.openalex_url", Text},
		{"researcher_oa_link", "author.openalex_url", Text},
		{"orcid", "author.orcid", Text},
		{"work_count", "author.num_of_works", Count},
		{"cited_by_count", "author.num_of_citations", Count},
		{"ror", "institution.ror", Text},
		{"current_institution", "", Text},
	}},
	{SchemaPrimary, KindResearcherTopic}: {
		Fields: []Field{
			{"researcher_name", "input.researcher", Text},
			{"topic_name", "input.topic", Text},
			{"orcid", "author.orcid", Text},
			{"current_institution", "author.last_known_institution", Text},
			{"work_count", "totals.total_num_of_works", Count},
			{"cited_by_count", "totals.total_num_of_citations", Count},
			{"topic_clusters", "subfields.clusters", List},
			{"researcher_oa_link", "author.openalex_url", Text},
			{"topic_oa_link", "subfields.url", Text},
			{"institution_oa_link", "author.last_known_institution_url", Text},
		},
		Affiliation: &affiliation{NameField: "current_institution", URLField: "institution_oa_link", IDSource: "author.openalex_url"},
	},
	{SchemaPrimary, KindAllThree}: {Fields: []Field{
		{"institution_name", "input.institution", Text},
		{"topic_name", "input.topic", Text},
		{"researcher_name", "input.researcher", Text},
		{"topic_oa_link", "subfields.url", Text},
		{"institution_oa_link", "institution.openalex_url", Text},
		{"homepage", "institution.url", Text},
		{"orcid", "author.orcid", Text},
		{"topic_clusters", "subfields.clusters", List},
		{"researcher_oa_link", "author.openalex_url", Text},
		{"work_count", "totals.total_num_of_works", Count},
		{"cited_by_count", "totals.total_num_of_citations", Count},
		{"ror", "institution.ror", Text},
		{"current_institution", "", Text},
	}},
	{SchemaPrimary, KindBatchInstitutionEntry}: {Fields: []Field{
		{"institution_name", "institution.institution_name", Text},
		{"cited_count", "institution.num_of_citations", Count},
		{"author_count", "institution.num_of_authors", Count},
		{"works_count", "institution.num_of_works", Count},
		{"institution_url", "institution.url", Text},
		{"open_alex_link", "institution.openalex_url", Text},
		{"ror_link", "institution.ror", Text},
		{"topics", "derived.topics", Items},
	}},
	{SchemaPrimary, KindBatchResearcherEntry}: {
		Fields: []Field{
			{"researcher_name", "author.name", Text},
			{"orcid_link", "author.orcid", Text},
			{"works_count", "author.num_of_works", Count},
			{"open_alex_link", "author.openalex_url", Text},
			{"cited_count", "author.num_of_citations", Count},
			{"institution_name", "author.last_known_institution", Text},
			{"institution_url", "author.last_known_institution_url", Text},
			{"topics", "derived.topics", Items},
		},
		Affiliation: &affiliation{NameField: "institution_name", URLField: "institution_url", IDSource: "author.openalex_url"},
	},

	{SchemaFederation, KindInstitution}: {Fields: []Field{
		{"name", "input.institution", Text},
		{"homepage", "institution.homepage", Text},
		{"works_count", "institution.workscount", Count},
		{"cited_count", "institution.citedcount", Count},
		{"author_count", "institution.peoplecount", Count},
		{"oa_link", "institution.institution", Text},
		{"ror", "institution.ror", Text},
	}},
	{SchemaFederation, KindResearcher}: {
		Fields: []Field{
			{"name", "input.researcher", Text},
			{"orcid", "author.orcid", Text},
			{"work_count", "author.works_count", Count},
			{"cited_by_count", "author.cite_count", Count},
			{"current_institution", "author.current_institution_name", Text},
			{"institution_url", "author.current_institution", Text},
			{"oa_link", "author.author", Text},
		},
		Affiliation: &affiliation{NameField: "current_institution", URLField: "institution_url", IDSource: "author.author"},
	},
	{SchemaFederation, KindTopic}: {Fields: []Field{
		{"name", "input.topic", Text},
		{"topic_clusters", "subfield.topics", List},
		{"work_count", "subfield.workscount", Count},
		{"cited_by_count", "subfield.citedcount", Count},
		{"researchers", "derived.researchers", Count},
		{"oa_link", "subfield.subfield", Text},
	}},
	{SchemaFederation, KindInstitutionTopic}: {Fields: []Field{
		{"institution_name", "input.institution", Text},
		{"topic_name", "input.topic", Text},
		{"topic_clusters", "subfield.topics", List},
		{"work_count", "derived.work_count", Count},
		{"cited_by_count", "institution.citedcount", Count},
		{"people_count", "derived.people_count", Count},
		{"topic_oa_link", "subfield.subfield", Text},
		{"institution_oa_link", "institution.institution", Text},
		{"homepage", "institution.homepage", Text},
		{"ror", "institution.ror", Text},
	}},
	{SchemaFederation, KindInstitutionResearcher}: {Fields: []Field{
		{"institution_name", "input.institution", Text},
		{"researcher_name", "input.researcher", Text},
		{"homepage", "institution.homepage", Text},
		{"institution_oa_link", "institution.institution", Text},
		{"researcher_oa_link", "author.author", Text},
		{"orcid", "author.orcid", Text},
		{"work_count", "author.works_count", Count},
		{"cited_by_count", "author.cite_count", Count},
		{"ror", "institution.ror", Text},
		{"current_institution", "", Text},
	}},
	{SchemaFederation, KindResearcherTopic}: {
		Fields: []Field{
			{"researcher_name", "input.researcher", Text},
			{"topic_name", "input.topic", Text},
			{"orcid", "author.orcid", Text},
			{"current_institution", "author.current_institution_name", Text},
			{"work_count", "derived.work_count", Count},
			{"cited_by_count", "derived.cited_by_count", Count},
			{"topic_clusters", "subfield.topics", List},
			{"researcher_oa_link", "author.author", Text},
			{"topic_oa_link", "subfield.subfield", Text},
			{"institution_oa_link", "author.current_institution", Text},
		},
		Affiliation: &affiliation{NameField: "current_institution", URLField: "institution_oa_link", IDSource: "author.author"},
	},
	{SchemaFederation, KindAllThree}: {Fields: []Field{
		{"institution_name", "input.institution", Text},
		{"topic_name", "input.topic", Text},
		{"researcher_name", "input.researcher", Text},
		{"topic_oa_link", "subfield.subfield", Text},
		{"institution_oa_link", "institution.institution", Text},
		{"homepage", "institution.homepage", Text},
		{"orcid", "author.orcid", Text},
		{"topic_clusters", "subfield.topics", List},
		{"researcher_oa_link", "author.author", Text},
		{"work_count", "derived.work_count", Count},
		{"cited_by_count", "derived.cited_by_count", Count},
		{"ror", "institution.ror", Text},
		{"current_institution", "", Text},
	}},
	{SchemaFederation, KindBatchInstitutionEntry}: {Fields: []Field{
		{"institution_name", "input.institution", Text},
		{"cited_count", "institution.citedcount", Count},
		{"author_count", "institution.peoplecount", Count},
		{"works_count", "institution.workscount", Count},
		{"institution_url", "institution.homepage", Text},
		{"open_alex_link", "institution.institution", Text},
		{"ror_link", "institution.ror", Text},
		{"topics", "derived.topics", Items},
	}},
	{SchemaFederation, KindBatchResearcherEntry}: {
		Fields: []Field{
			{"researcher_name", "input.researcher", Text},
			{"orcid_link", "author.orcid", Text},
			{"works_count", "author.works_count", Count},
			{"open_alex_link", "author.author", Text},
			{"cited_count", "author.cite_count", Count},
			{"institution_name", "author.current_institution_name", Text},
			{"institution_url", "author.current_institution", Text},
			{"topics", "derived.topics", Items},
		},
		Affiliation: &affiliation{NameField: "institution_name", URLField: "institution_url", IDSource: "author.author"},
	},
}
