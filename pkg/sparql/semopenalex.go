package sparql

import "fmt"

const (
	foafName     = "<http://xmlns.com/foaf/0.1/name>"
	foafHomepage = "<http://xmlns.com/foaf/0.1/homepage>"
	memberOf     = "<http://www.w3.org/ns/org#memberOf>"
	creator      = "<http://purl.org/dc/terms/creator>"
	prefLabel    = "<http://www.w3.org/2004/02/skos/core#prefLabel>"
	broader      = "<http://www.w3.org/2004/02/skos/core#broader>"
	orcidID      = "<https://dbpedia.org/ontology/orcidId>"
	citedByCount = "<https://semopenalex.org/ontology/citedByCount>"
	worksCount   = "<https://semopenalex.org/ontology/worksCount>"
	rorID        = "<https://semopenalex.org/ontology/ror>"
	hasTopic     = "<https://semopenalex.org/ontology/hasTopic>"
	subfieldType = "<https://semopenalex.org/ontology/Subfield>"
)

// AuthorMetadataQuery selects cite_count, orcid (optional), works_count,
// current_institution_name, author and current_institution for an author
// name.
func AuthorMetadataQuery(name string) string {
	return fmt.Sprintf(`SELECT ?cite_count ?orcid ?works_count ?current_institution_name ?author ?current_institution
WHERE {
  ?author %[1]s %[2]s .
  ?author %[3]s ?cite_count .
  OPTIONAL { ?author %[4]s ?orcid . }
  ?author %[5]s ?works_count .
  ?author %[6]s ?current_institution .
  ?current_institution %[1]s ?current_institution_name .
}
LIMIT 1`, foafName, Literal(name), citedByCount, orcidID, worksCount, memberOf)
}

// InstitutionMetadataQuery selects ror, workscount, citedcount, homepage,
// institution and peoplecount for an institution name.
func InstitutionMetadataQuery(name string) string {
	return fmt.Sprintf(`SELECT ?ror ?workscount ?citedcount ?homepage ?institution (COUNT(DISTINCT ?people) AS ?peoplecount)
WHERE {
  ?institution %[1]s %[2]s .
  ?institution %[3]s ?ror .
  ?institution %[4]s ?workscount .
  ?institution %[5]s ?citedcount .
  ?institution %[6]s ?homepage .
  ?people %[7]s ?institution .
}
GROUP BY ?ror ?workscount ?citedcount ?homepage ?institution`,
		foafName, Literal(name), rorID, worksCount, citedByCount, foafHomepage, memberOf)
}

// SubfieldMetadataQuery selects subfield, workscount, citedcount and the
// "; " separated topic cluster names of a subfield label.
func SubfieldMetadataQuery(name string) string {
	return fmt.Sprintf(`SELECT ?subfield ?workscount ?citedcount (GROUP_CONCAT(DISTINCT ?topicname; SEPARATOR="; ") AS ?topics)
WHERE {
  ?subfield a %[1]s .
  ?subfield %[2]s %[3]s .
  OPTIONAL { ?subfield %[4]s ?workscount . }
  OPTIONAL { ?subfield %[5]s ?citedcount . }
  OPTIONAL {
    ?topic %[6]s ?subfield .
    ?topic %[2]s ?topicname .
  }
}
GROUP BY ?subfield ?workscount ?citedcount`,
		subfieldType, prefLabel, Literal(name), worksCount, citedByCount, broader)
}

// InstitutionTopicAuthorsQuery selects author, name and the ", " separated
// works of every member of the institution that published in the subfield.
func InstitutionTopicAuthorsQuery(institution, subfield string) string {
	return fmt.Sprintf(`SELECT DISTINCT ?author ?name (GROUP_CONCAT(DISTINCT ?work; SEPARATOR=", ") AS ?works)
WHERE {
  ?institution %[1]s %[2]s .
  ?author %[3]s ?institution .
  ?author %[1]s ?name .
  ?work %[4]s ?author .
  ?subfield a %[5]s .
  ?subfield %[6]s %[7]s .
  ?topic %[8]s ?subfield .
  ?work %[9]s ?topic .
}
GROUP BY ?author ?name`,
		foafName, Literal(institution), memberOf, creator, subfieldType, prefLabel, Literal(subfield), broader, hasTopic)
}

// ResearcherTopicWorksQuery selects work, title and cited_by_count of the
// researcher's works in the subfield.
func ResearcherTopicWorksQuery(researcher, subfield string) string {
	return fmt.Sprintf(`SELECT DISTINCT ?work ?title ?cited_by_count
WHERE {
  ?author %[1]s %[2]s .
  ?work %[3]s ?author .
  ?work %[1]s ?title .
  ?work %[4]s ?cited_by_count .
  ?subfield a %[5]s .
  ?subfield %[6]s %[7]s .
  ?topic %[8]s ?subfield .
  ?work %[9]s ?topic .
}`,
		foafName, Literal(researcher), creator, citedByCount, subfieldType, prefLabel, Literal(subfield), broader, hasTopic)
}

// NameByIDQuery selects the name of the entity kind/id, e.g. author/A1.
func NameByIDQuery(kind, id string) string {
	return fmt.Sprintf(`SELECT ?name
WHERE {
  %s %s ?name .
}
LIMIT 1`, IRI(EntityIRI(kind, id)), foafName)
}
