package sparql

import (
	"strings"
	"testing"

	"github.com/orgraph/dispatch/internal/rdf"
)

func TestFormatTermIRI(t *testing.T) {
	got := FormatTerm(rdf.IRI("http://ex.org/a"), false)
	if got != "<http://ex.org/a>" {
		t.Fatalf("unexpected IRI form: %q", got)
	}
}

func TestFormatTermPlainLiteral(t *testing.T) {
	got := FormatTerm(rdf.Literal("hello", ""), false)
	if got != `"hello"` {
		t.Fatalf("plain literal should stay unannotated on the query path: %q", got)
	}
}

func TestFormatTermForcesDefaultDatatype(t *testing.T) {
	got := FormatTerm(rdf.Literal("hello", ""), true)
	want := `"hello"^^<` + rdf.XSDString + `>`
	if got != want {
		t.Fatalf("delete-path literal missing forced xsd:string: got %q want %q", got, want)
	}
}

func TestFormatTermLangTag(t *testing.T) {
	got := FormatTerm(rdf.LangLiteral("bonjour", "fr"), true)
	if got != `"bonjour"@fr` {
		t.Fatalf("unexpected lang literal form: %q", got)
	}
}

func TestFormatTermEscaping(t *testing.T) {
	got := FormatTerm(rdf.Literal("line1\nline2 \"quoted\" \\slash", ""), false)
	want := `"line1\nline2 \"quoted\" \\slash"`
	if got != want {
		t.Fatalf("escaping mismatch: got %q want %q", got, want)
	}
}

func TestFormatTriple(t *testing.T) {
	f := rdf.Fact{
		Subject:   "http://ex.org/s",
		Predicate: "http://ex.org/p",
		Object:    rdf.Literal("42", "http://www.w3.org/2001/XMLSchema#integer"),
	}
	got := FormatTriple(f, false)
	if !strings.HasSuffix(got, `"42"^^<http://www.w3.org/2001/XMLSchema#integer> .`) {
		t.Fatalf("typed literal lost its datatype: %q", got)
	}
}
