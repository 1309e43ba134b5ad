// Package dispatch decides where changed facts belong: moving staged
// inserts into their owning partition graphs and reconciling staged deletes
// against the partitions currently holding them.
package dispatch

import "github.com/orgraph/dispatch/internal/rdf"

// Status is the terminal outcome of one dispatch decision. Ambiguous and
// pending are normal outcomes, not errors; errors are reserved for store
// failures.
type Status string

const (
	// StatusPlaced: moved into exactly one partition graph.
	StatusPlaced Status = "placed"
	// StatusPlacedMulti: duplicated into every candidate partition
	// (type explicitly allows multi-partition placement).
	StatusPlacedMulti Status = "placed-multi"
	// StatusPending: no owner resolvable yet; left in staging for a later
	// reconciliation pass.
	StatusPending Status = "pending"
	// StatusAmbiguous: more than one candidate where only one is allowed;
	// left untouched and reported for operator visibility.
	StatusAmbiguous Status = "ambiguous"
	// StatusDeleted: removed from its partition and both staging graphs.
	StatusDeleted Status = "deleted"
	// StatusFailed: a store operation failed mid-dispatch.
	StatusFailed Status = "failed"
)

// Mode tags a result as coming from the insert or delete path.
type Mode string

const (
	ModeInsert Mode = "insert"
	ModeDelete Mode = "delete"
)

// Result is one structured dispatch outcome. Produced for observability,
// never persisted as pipeline state.
type Result struct {
	Mode    Mode   `json:"mode"`
	Status  Status `json:"status"`
	Subject string `json:"subject,omitempty"`
	// Fact is set on delete-path results, which decide per fact.
	Fact *rdf.Fact `json:"fact,omitempty"`
	// Candidates are the partition graphs the resolver produced (insert
	// path) or the partition-prefixed graphs the fact was found in
	// (delete path).
	Candidates []string `json:"candidates,omitempty"`
	// Graphs are all graphs a delete-path fact was observed in.
	Graphs []string `json:"graphs,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// Succeeded reports whether the outcome is a completed placement/deletion.
func (r Result) Succeeded() bool {
	switch r.Status {
	case StatusPlaced, StatusPlacedMulti, StatusDeleted:
		return true
	}
	return false
}

// Summary aggregates result counts by status.
func Summary(results []Result) map[Status]int {
	out := make(map[Status]int)
	for _, r := range results {
		out[r.Status]++
	}
	return out
}
