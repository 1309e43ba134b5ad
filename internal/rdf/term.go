// Package rdf provides the canonical fact model shared by the dispatcher:
// subject-predicate-object-graph quads with IRI or typed-literal objects.
package rdf

import (
	"fmt"
	"strings"
)

// XSDString is the default literal datatype. The backing store treats an
// unannotated literal and an xsd:string-annotated literal as different terms
// on exact-match deletes, so the datatype is always tracked explicitly.
const XSDString = "http://www.w3.org/2001/XMLSchema#string"

// TermKind discriminates IRI terms from literal terms.
type TermKind int

const (
	KindIRI TermKind = iota
	KindLiteral
)

// Term is one RDF term: a resource identifier or a typed/language-tagged
// literal value.
type Term struct {
	Kind     TermKind `json:"kind"`
	Value    string   `json:"value"`
	Datatype string   `json:"datatype,omitempty"` // literals only; empty means xsd:string
	Lang     string   `json:"lang,omitempty"`     // literals only
}

// IRI returns a resource term.
func IRI(value string) Term {
	return Term{Kind: KindIRI, Value: value}
}

// Literal returns a typed literal term. An empty datatype means xsd:string.
func Literal(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// LangLiteral returns a language-tagged string literal.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: lang}
}

// IsLiteral reports whether the term is a literal value.
func (t Term) IsLiteral() bool {
	return t.Kind == KindLiteral
}

// ResolvedDatatype returns the literal datatype, substituting xsd:string for
// an empty one. Meaningless for IRI terms.
func (t Term) ResolvedDatatype() string {
	if t.Datatype == "" {
		return XSDString
	}
	return t.Datatype
}

// key returns a canonical form used for fact identity. Language tags and
// datatypes participate: "10"^^xsd:integer and "10" are different terms.
func (t Term) key() string {
	if t.Kind == KindIRI {
		return "<" + t.Value + ">"
	}
	if t.Lang != "" {
		return fmt.Sprintf("%q@%s", t.Value, t.Lang)
	}
	return fmt.Sprintf("%q^^<%s>", t.Value, t.ResolvedDatatype())
}

// Fact is one subject-predicate-object triple plus the graph currently
// holding it. Facts are value types and never mutated after construction.
type Fact struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    Term   `json:"object"`
	Graph     string `json:"graph"`
}

// Key identifies a fact by (subject, predicate, object) only. Graph is
// deliberately excluded: the same fact legitimately exists in a staging
// graph and a partition graph at the same time, and reconciliation must
// treat those as one fact.
func (f Fact) Key() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(f.Subject)
	b.WriteString("> <")
	b.WriteString(f.Predicate)
	b.WriteString("> ")
	b.WriteString(f.Object.key())
	return b.String()
}

// InGraph returns a copy of the fact relocated to the given graph.
func (f Fact) InGraph(graph string) Fact {
	f.Graph = graph
	return f
}
