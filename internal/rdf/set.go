package rdf

// FactSet is a set of facts keyed on (subject, predicate, object) identity.
// Insertion order is preserved for deterministic iteration.
type FactSet struct {
	keys  map[string]int
	facts []Fact
}

// NewFactSet builds a set from the given facts, collapsing duplicates.
func NewFactSet(facts ...Fact) *FactSet {
	s := &FactSet{keys: make(map[string]int, len(facts))}
	for _, f := range facts {
		s.Add(f)
	}
	return s
}

// Add inserts a fact if no fact with the same identity is present.
// Returns true if the fact was added.
func (s *FactSet) Add(f Fact) bool {
	k := f.Key()
	if _, ok := s.keys[k]; ok {
		return false
	}
	s.keys[k] = len(s.facts)
	s.facts = append(s.facts, f)
	return true
}

// Has reports whether a fact with the same (s,p,o) identity is present,
// regardless of graph.
func (s *FactSet) Has(f Fact) bool {
	_, ok := s.keys[f.Key()]
	return ok
}

// Facts returns the set contents in insertion order.
func (s *FactSet) Facts() []Fact {
	out := make([]Fact, len(s.facts))
	copy(out, s.facts)
	return out
}

// Len returns the number of distinct facts.
func (s *FactSet) Len() int {
	return len(s.facts)
}

// BySubject groups facts by subject, preserving relative order within each
// group. The returned subject slice follows first-appearance order.
func BySubject(facts []Fact) (subjects []string, grouped map[string][]Fact) {
	grouped = make(map[string][]Fact)
	for _, f := range facts {
		if _, ok := grouped[f.Subject]; !ok {
			subjects = append(subjects, f.Subject)
		}
		grouped[f.Subject] = append(grouped[f.Subject], f)
	}
	return subjects, grouped
}

// SplitByObjectKind partitions facts into resource-valued and
// literal-valued groups, preserving relative order. The batch mutator
// deletes the two groups over different paths.
func SplitByObjectKind(facts []Fact) (resources, literals []Fact) {
	for _, f := range facts {
		if f.Object.IsLiteral() {
			literals = append(literals, f)
		} else {
			resources = append(resources, f)
		}
	}
	return resources, literals
}
