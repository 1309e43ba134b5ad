package changeset

import (
	"testing"

	"github.com/orgraph/dispatch/internal/rdf"
)

func fact(s string) rdf.Fact {
	return rdf.Fact{Subject: s, Predicate: "http://ex.org/p", Object: rdf.IRI("http://ex.org/o")}
}

func TestCoalesceSplitsMixedChangeset(t *testing.T) {
	sets := []Changeset{
		{Deletes: []rdf.Fact{fact("d1")}, Inserts: []rdf.Fact{fact("i1")}},
	}
	batches := Coalesce(sets)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if batches[0].Kind != KindDelete || batches[1].Kind != KindInsert {
		t.Fatalf("deletes must precede inserts within a changeset: %v, %v", batches[0].Kind, batches[1].Kind)
	}
}

func TestCoalesceKeepsDeleteBeforeNextInsert(t *testing.T) {
	// [{ins:{A}}, {del:{A}}] must coalesce to [insert{A}, delete{A}]:
	// and the mirrored case must yield [delete{A}, insert{A}], never a
	// merged or reordered pair.
	a := fact("A")
	sets := []Changeset{
		{Inserts: []rdf.Fact{a}},
		{Deletes: []rdf.Fact{a}},
	}
	batches := Coalesce(sets)
	if len(batches) != 2 || batches[0].Kind != KindInsert || batches[1].Kind != KindDelete {
		t.Fatalf("cross-changeset order lost: %+v", batches)
	}

	sets = []Changeset{
		{Deletes: []rdf.Fact{a}},
		{Inserts: []rdf.Fact{a}},
	}
	batches = Coalesce(sets)
	if len(batches) != 2 || batches[0].Kind != KindDelete || batches[1].Kind != KindInsert {
		t.Fatalf("delete batch must come first: %+v", batches)
	}
	if len(batches[0].Facts) != 1 || len(batches[1].Facts) != 1 {
		t.Fatalf("facts lost during coalescing: %+v", batches)
	}
}

func TestCoalesceMergesConsecutiveSameKind(t *testing.T) {
	sets := []Changeset{
		{Inserts: []rdf.Fact{fact("i1")}},
		{Inserts: []rdf.Fact{fact("i2"), fact("i3")}},
		{Deletes: []rdf.Fact{fact("d1")}},
		{Deletes: []rdf.Fact{fact("d2")}},
	}
	batches := Coalesce(sets)
	if len(batches) != 2 {
		t.Fatalf("expected 2 merged batches, got %d: %+v", len(batches), batches)
	}
	if batches[0].Kind != KindInsert || len(batches[0].Facts) != 3 {
		t.Fatalf("insert run not merged: %+v", batches[0])
	}
	if batches[1].Kind != KindDelete || len(batches[1].Facts) != 2 {
		t.Fatalf("delete run not merged: %+v", batches[1])
	}
}

func TestCoalesceSkipsEmptyChangesets(t *testing.T) {
	sets := []Changeset{
		{},
		{Inserts: []rdf.Fact{fact("i1")}},
		{},
	}
	batches := Coalesce(sets)
	if len(batches) != 1 || batches[0].Kind != KindInsert {
		t.Fatalf("unexpected batches: %+v", batches)
	}
}

func TestDecodeWireFormat(t *testing.T) {
	payload := []byte(`[
		{
			"inserts": [
				{"subject":{"type":"uri","value":"http://ex.org/s"},
				 "predicate":{"type":"uri","value":"http://ex.org/p"},
				 "object":{"type":"literal","value":"hello","xml:lang":"en"},
				 "graph":{"type":"uri","value":"http://ex.org/staging"}}
			],
			"deletes": [
				{"subject":{"type":"uri","value":"http://ex.org/s"},
				 "predicate":{"type":"uri","value":"http://ex.org/q"},
				 "object":{"type":"typed-literal","value":"10","datatype":"http://www.w3.org/2001/XMLSchema#integer"},
				 "graph":{"type":"uri","value":"http://ex.org/staging-del"}}
			]
		}
	]`)
	sets, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(sets) != 1 || len(sets[0].Inserts) != 1 || len(sets[0].Deletes) != 1 {
		t.Fatalf("unexpected shape: %+v", sets)
	}
	ins := sets[0].Inserts[0]
	if ins.Object.Lang != "en" || !ins.Object.IsLiteral() {
		t.Fatalf("language literal lost: %+v", ins.Object)
	}
	del := sets[0].Deletes[0]
	if del.Object.Datatype != "http://www.w3.org/2001/XMLSchema#integer" {
		t.Fatalf("typed literal lost datatype: %+v", del.Object)
	}
	if del.Graph != "http://ex.org/staging-del" {
		t.Fatalf("graph lost: %+v", del)
	}
}

func TestDecodeRejectsLiteralSubject(t *testing.T) {
	payload := []byte(`[{"inserts":[{"subject":{"type":"literal","value":"x"},"predicate":{"type":"uri","value":"p"},"object":{"type":"uri","value":"o"},"graph":{"type":"uri","value":"g"}}]}]`)
	if _, err := Decode(payload); err == nil {
		t.Fatalf("expected error for literal subject")
	}
}
