package sparql

import (
	"strings"

	"github.com/orgraph/dispatch/internal/rdf"
)

// escapeLiteral applies SPARQL string escaping to a literal lexical form.
func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatIRI renders a resource identifier as a SPARQL IRI token.
func FormatIRI(iri string) string {
	return "<" + iri + ">"
}

// FormatTerm renders a term for use in a query or update body. When
// forceDatatype is set, literals carry an explicit datatype annotation even
// for the default xsd:string type; the store's exact-match delete semantics
// require the annotation to hit literals written with one.
func FormatTerm(t rdf.Term, forceDatatype bool) string {
	if !t.IsLiteral() {
		return FormatIRI(t.Value)
	}
	quoted := `"` + escapeLiteral(t.Value) + `"`
	if t.Lang != "" {
		return quoted + "@" + t.Lang
	}
	if forceDatatype {
		return quoted + "^^" + FormatIRI(t.ResolvedDatatype())
	}
	if t.Datatype != "" && t.Datatype != rdf.XSDString {
		return quoted + "^^" + FormatIRI(t.Datatype)
	}
	return quoted
}

// FormatTriple renders one fact as a triple pattern, ignoring its graph.
func FormatTriple(f rdf.Fact, forceDatatype bool) string {
	return FormatIRI(f.Subject) + " " + FormatIRI(f.Predicate) + " " + FormatTerm(f.Object, forceDatatype) + " ."
}

// formatTripleBlock renders facts as newline-joined triple patterns.
func formatTripleBlock(facts []rdf.Fact, forceDatatype bool) string {
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		lines = append(lines, "    "+FormatTriple(f, forceDatatype))
	}
	return strings.Join(lines, "\n")
}
