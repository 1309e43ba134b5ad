package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orgraph/dispatch/internal/mutator"
	"github.com/orgraph/dispatch/internal/rdf"
	"github.com/orgraph/dispatch/internal/resolver"
)

// ProcessInserts dispatches a batch of freshly staged inserted facts. Facts
// are grouped by subject; each subject gets one placement decision covering
// its whole staged neighborhood, not just the facts in this batch.
//
// The returned error is non-nil only for store failures; pending and
// ambiguous subjects are reported through their results and retried by a
// later reconciliation scan.
func (d *Dispatcher) ProcessInserts(ctx context.Context, facts []rdf.Fact) ([]Result, error) {
	subjects, _ := rdf.BySubject(facts)
	results := make([]Result, 0, len(subjects))
	for _, subject := range subjects {
		types, err := d.store.TypesOf(ctx, subject, d.g.InsertsStaging)
		if err != nil {
			return results, fmt.Errorf("dispatch inserts: %w", err)
		}
		res, err := d.DispatchSubject(ctx, subject, types)
		if err != nil {
			results = append(results, res)
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// DispatchSubject runs the per-subject placement state machine:
//
//	0 candidates            -> pending (left in staging)
//	1 candidate             -> placed (moved wholesale)
//	>1, type allows multi   -> placed-multi (duplicated into every candidate)
//	>1, type forbids multi  -> ambiguous (left untouched, reported)
func (d *Dispatcher) DispatchSubject(ctx context.Context, subject string, types []string) (Result, error) {
	base := Result{Mode: ModeInsert, Subject: subject}

	if len(types) == 0 {
		// No type triple ingested yet; the ownership table is keyed on
		// type, so there is nothing to try.
		base.Status = StatusPending
		base.Reason = "no type ingested for subject"
		return base, nil
	}

	candidates := make(resolver.PartitionSet)
	multiAllowed := true
	for _, typ := range types {
		set, err := d.res.Resolve(ctx, subject, typ)
		if err != nil {
			base.Status = StatusFailed
			base.Reason = err.Error()
			return base, fmt.Errorf("resolve ownership of %s: %w", subject, err)
		}
		if len(set) > 0 && !d.table.AllowsMultiple(typ) {
			multiAllowed = false
		}
		for _, id := range set.Sorted() {
			candidates.Add(id)
		}
	}
	base.Candidates = candidates.Sorted()

	switch {
	case len(candidates) == 0:
		base.Status = StatusPending
		base.Reason = "ownership path not yet resolvable"
		return base, nil
	case len(candidates) > 1 && !multiAllowed:
		base.Status = StatusAmbiguous
		base.Reason = fmt.Sprintf("%d candidate partitions for a single-partition type", len(candidates))
		slog.Warn("Dispatcher: ambiguous placement", "subject", subject, "candidates", base.Candidates)
		return base, nil
	}

	if err := d.move(ctx, subject, d.g.InsertsStaging, base.Candidates); err != nil {
		base.Status = StatusFailed
		base.Reason = err.Error()
		return base, err
	}
	if len(candidates) == 1 {
		base.Status = StatusPlaced
	} else {
		base.Status = StatusPlacedMulti
	}
	slog.Info("Dispatcher: subject placed",
		"subject", subject, "status", base.Status, "partitions", base.Candidates)
	return base, nil
}

// move relocates the full staged fact set of subject from fromGraph into
// every target graph: copy first, then remove from staging. A failure
// between the copy and the removal leaves the fact in both places; fact
// identity ignores graphs, so the next reconciliation converges instead of
// duplicating.
func (d *Dispatcher) move(ctx context.Context, subject, fromGraph string, toGraphs []string) error {
	facts, err := d.store.SubjectFacts(ctx, subject, fromGraph)
	if err != nil {
		return fmt.Errorf("move %s: %w", subject, err)
	}
	if len(facts) == 0 {
		// Already moved by an earlier pass; idempotent no-op.
		return nil
	}
	for _, target := range toGraphs {
		if err := d.mut.Apply(ctx, mutator.ModeInsert, target, facts); err != nil {
			return fmt.Errorf("move %s into %s: %w", subject, target, err)
		}
	}
	if err := d.mut.Apply(ctx, mutator.ModeDelete, fromGraph, facts); err != nil {
		return fmt.Errorf("move %s: clear staging: %w", subject, err)
	}
	return nil
}
