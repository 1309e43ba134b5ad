package changeset

import (
	"encoding/json"
	"fmt"

	"github.com/orgraph/dispatch/internal/rdf"
)

// wireTerm is the JSON form the upstream feed uses for one term, following
// the SPARQL results vocabulary ("uri" / "literal" / "typed-literal").
type wireTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// wireFact is one quad on the wire.
type wireFact struct {
	Subject   wireTerm `json:"subject"`
	Predicate wireTerm `json:"predicate"`
	Object    wireTerm `json:"object"`
	Graph     wireTerm `json:"graph"`
}

// wireChangeset is one changeset on the wire.
type wireChangeset struct {
	Inserts []wireFact `json:"inserts"`
	Deletes []wireFact `json:"deletes"`
}

func termFromWire(w wireTerm) rdf.Term {
	if w.Type == "uri" {
		return rdf.IRI(w.Value)
	}
	if w.Lang != "" {
		return rdf.LangLiteral(w.Value, w.Lang)
	}
	return rdf.Literal(w.Value, w.Datatype)
}

func factFromWire(w wireFact) (rdf.Fact, error) {
	if w.Subject.Type != "uri" || w.Predicate.Type != "uri" {
		return rdf.Fact{}, fmt.Errorf("subject and predicate must be uri terms, got %q/%q", w.Subject.Type, w.Predicate.Type)
	}
	return rdf.Fact{
		Subject:   w.Subject.Value,
		Predicate: w.Predicate.Value,
		Object:    termFromWire(w.Object),
		Graph:     w.Graph.Value,
	}, nil
}

// Decode parses an ordered array of wire changesets. Element order is
// preserved; it is the upstream staging order.
func Decode(payload []byte) ([]Changeset, error) {
	var wires []wireChangeset
	if err := json.Unmarshal(payload, &wires); err != nil {
		return nil, fmt.Errorf("decode changesets: %w", err)
	}
	sets := make([]Changeset, 0, len(wires))
	for i, w := range wires {
		var cs Changeset
		for _, wf := range w.Inserts {
			f, err := factFromWire(wf)
			if err != nil {
				return nil, fmt.Errorf("changeset %d insert: %w", i, err)
			}
			cs.Inserts = append(cs.Inserts, f)
		}
		for _, wf := range w.Deletes {
			f, err := factFromWire(wf)
			if err != nil {
				return nil, fmt.Errorf("changeset %d delete: %w", i, err)
			}
			cs.Deletes = append(cs.Deletes, f)
		}
		sets = append(sets, cs)
	}
	return sets, nil
}
