package rdf

import "testing"

func TestFactKeyIgnoresGraph(t *testing.T) {
	a := Fact{Subject: "http://ex.org/s", Predicate: "http://ex.org/p", Object: IRI("http://ex.org/o"), Graph: "http://ex.org/g1"}
	b := a.InGraph("http://ex.org/g2")
	if a.Key() != b.Key() {
		t.Fatalf("keys differ across graphs: %q vs %q", a.Key(), b.Key())
	}
}

func TestFactKeyDistinguishesLiteralTyping(t *testing.T) {
	plain := Fact{Subject: "s", Predicate: "p", Object: Literal("10", "")}
	typed := Fact{Subject: "s", Predicate: "p", Object: Literal("10", "http://www.w3.org/2001/XMLSchema#integer")}
	if plain.Key() == typed.Key() {
		t.Fatalf("typed and plain literals collapsed to one key: %q", plain.Key())
	}
	// An explicit xsd:string annotation and the default are the same term.
	explicit := Fact{Subject: "s", Predicate: "p", Object: Literal("10", XSDString)}
	if plain.Key() != explicit.Key() {
		t.Fatalf("default and explicit xsd:string keys differ: %q vs %q", plain.Key(), explicit.Key())
	}
}

func TestFactKeyDistinguishesLangTags(t *testing.T) {
	en := Fact{Subject: "s", Predicate: "p", Object: LangLiteral("chat", "en")}
	fr := Fact{Subject: "s", Predicate: "p", Object: LangLiteral("chat", "fr")}
	if en.Key() == fr.Key() {
		t.Fatalf("language-tagged literals collapsed to one key")
	}
}

func TestFactSetDedup(t *testing.T) {
	f := Fact{Subject: "s", Predicate: "p", Object: IRI("o"), Graph: "g1"}
	s := NewFactSet(f, f.InGraph("g2"), f)
	if s.Len() != 1 {
		t.Fatalf("expected 1 distinct fact, got %d", s.Len())
	}
	if !s.Has(f.InGraph("g3")) {
		t.Fatalf("membership should ignore graph")
	}
}

func TestBySubjectPreservesOrder(t *testing.T) {
	facts := []Fact{
		{Subject: "b", Predicate: "p", Object: IRI("1")},
		{Subject: "a", Predicate: "p", Object: IRI("2")},
		{Subject: "b", Predicate: "p", Object: IRI("3")},
	}
	subjects, grouped := BySubject(facts)
	if len(subjects) != 2 || subjects[0] != "b" || subjects[1] != "a" {
		t.Fatalf("unexpected subject order: %v", subjects)
	}
	if len(grouped["b"]) != 2 {
		t.Fatalf("expected 2 facts for b, got %d", len(grouped["b"]))
	}
}

func TestSplitByObjectKind(t *testing.T) {
	facts := []Fact{
		{Subject: "s", Predicate: "p", Object: IRI("o")},
		{Subject: "s", Predicate: "p", Object: Literal("v", "")},
		{Subject: "s", Predicate: "p", Object: LangLiteral("v", "en")},
	}
	res, lit := SplitByObjectKind(facts)
	if len(res) != 1 || len(lit) != 2 {
		t.Fatalf("unexpected split: %d resources, %d literals", len(res), len(lit))
	}
}
