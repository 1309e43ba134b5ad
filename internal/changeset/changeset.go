// Package changeset models the upstream CDC feed: ordered changesets of
// inserted and deleted facts, and their coalescing into pure batches.
package changeset

import "github.com/orgraph/dispatch/internal/rdf"

// Changeset is one atomic unit from the upstream feed. Within a changeset
// the upstream stages deletes before inserts.
type Changeset struct {
	Inserts []rdf.Fact
	Deletes []rdf.Fact
}

// Empty reports whether the changeset carries no facts.
func (c Changeset) Empty() bool {
	return len(c.Inserts) == 0 && len(c.Deletes) == 0
}

// Kind tags a coalesced batch as pure deletes or pure inserts.
type Kind int

const (
	KindDelete Kind = iota
	KindInsert
)

func (k Kind) String() string {
	if k == KindDelete {
		return "delete"
	}
	return "insert"
}

// Batch is a coalesced run of same-kind facts.
type Batch struct {
	Kind  Kind
	Facts []rdf.Fact
}

// Coalesce merges an ordered changeset sequence into an ordered sequence of
// pure batches. Each changeset contributes its deletes before its inserts,
// and consecutive same-kind runs merge into one batch.
//
// Ordering invariant: the relative order BETWEEN batches is total; a
// changeset's delete batch is always attempted before the next changeset's
// inserts. Within a merged batch no fact-level order is preserved; intra-kind
// order does not affect placement decisions.
func Coalesce(sets []Changeset) []Batch {
	var batches []Batch
	appendRun := func(kind Kind, facts []rdf.Fact) {
		if len(facts) == 0 {
			return
		}
		if n := len(batches); n > 0 && batches[n-1].Kind == kind {
			batches[n-1].Facts = append(batches[n-1].Facts, facts...)
			return
		}
		run := make([]rdf.Fact, len(facts))
		copy(run, facts)
		batches = append(batches, Batch{Kind: kind, Facts: run})
	}
	for _, cs := range sets {
		appendRun(KindDelete, cs.Deletes)
		appendRun(KindInsert, cs.Inserts)
	}
	return batches
}
