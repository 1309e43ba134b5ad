package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orgraph/dispatch/internal/mutator"
	"github.com/orgraph/dispatch/internal/rdf"
)

// ProcessDeletes reconciles a batch of staged deleted facts. Each fact is
// looked up across all graphs; facts found in at most one partition graph
// are removed from every graph holding them, facts found in several are
// ambiguous and left everywhere.
//
// Ambiguity here is an accepted limitation: a bare (s,p,o) triple carries no
// identity strong enough to say which partition's deletion it represents.
func (d *Dispatcher) ProcessDeletes(ctx context.Context, facts []rdf.Fact) ([]Result, error) {
	// A batch may carry the same fact from both staging graphs; decide once.
	distinct := rdf.NewFactSet(facts...)
	results := make([]Result, 0, distinct.Len())
	for _, f := range distinct.Facts() {
		res, err := d.reconcileDelete(ctx, f)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (d *Dispatcher) reconcileDelete(ctx context.Context, f rdf.Fact) (Result, error) {
	base := Result{Mode: ModeDelete, Subject: f.Subject, Fact: &f}

	graphs, err := d.store.GraphsContaining(ctx, f)
	if err != nil {
		base.Status = StatusFailed
		base.Reason = err.Error()
		return base, fmt.Errorf("reconcile delete: %w", err)
	}
	base.Graphs = graphs

	var partitions []string
	for _, g := range graphs {
		if d.g.IsPartition(g) {
			partitions = append(partitions, g)
		}
	}
	base.Candidates = partitions

	if len(partitions) > 1 {
		// Cannot tell which partition's deletion this is; leave the fact
		// in place everywhere, including staging, and report.
		base.Status = StatusAmbiguous
		base.Reason = fmt.Sprintf("fact present in %d partitions", len(partitions))
		slog.Warn("Reconciler: ambiguous delete",
			"subject", f.Subject, "predicate", f.Predicate, "partitions", partitions)
		return base, nil
	}

	// Safe: remove the fact from every graph it was found in, partition
	// and staging graphs alike. Removal from staging
	// happens in the same pass so observers never see it gone from a
	// partition but still pending.
	for _, g := range graphs {
		if err := d.mut.Apply(ctx, mutator.ModeDelete, g, []rdf.Fact{f.InGraph(g)}); err != nil {
			base.Status = StatusFailed
			base.Reason = err.Error()
			return base, fmt.Errorf("delete fact from %s: %w", g, err)
		}
	}
	base.Status = StatusDeleted
	slog.Info("Reconciler: fact deleted",
		"subject", f.Subject, "predicate", f.Predicate, "graphs", len(graphs))
	return base, nil
}
