package sparql

import (
	"strings"
)

const (
	semOpenAlexPrefix = "https://semopenalex.org/"
	openAlexPrefix    = "https://openalex.org/"
)

// Kinds whose canonical ids keep a path segment; every other entity uses a
// bare short id such as https://openalex.org/A123.
var pathKinds = map[string]string{
	"subfield": "subfields",
	"field":    "fields",
	"domain":   "domains",
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Literal renders s as a quoted SPARQL string literal.
func Literal(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

// IRI renders a full IRI reference.
func IRI(s string) string {
	return "<" + s + ">"
}

// Canonical rewrites a triple-store entity IRI into the external API's
// namespace, e.g. https://semopenalex.org/author/A1 becomes
// https://openalex.org/A1. Other strings are returned unchanged.
func Canonical(uri string) string {
	rest, ok := strings.CutPrefix(uri, semOpenAlexPrefix)
	if !ok {
		return uri
	}
	kind, id, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		return uri
	}
	if plural, ok := pathKinds[kind]; ok {
		return openAlexPrefix + plural + "/" + id
	}
	return openAlexPrefix + id
}

// EntityIRI is the inverse of Canonical for a known kind and short id.
func EntityIRI(kind, id string) string {
	return semOpenAlexPrefix + kind + "/" + id
}
