// Package mutator applies fact sets to the backing store in size-adaptive
// batches with failure backoff.
package mutator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orgraph/dispatch/internal/rdf"
)

// Mode selects the mutation direction.
type Mode string

const (
	ModeInsert Mode = "insert"
	ModeDelete Mode = "delete"
)

// Store is the slice of the backing store the mutator drives.
type Store interface {
	InsertFacts(ctx context.Context, graph string, facts []rdf.Fact) error
	DeleteFacts(ctx context.Context, graph string, facts []rdf.Fact) error
}

// FatalMutationError marks a mutation that failed at minimum granularity.
// It identifies the exact offending fact; the remainder of the operation for
// that graph was aborted, and progress committed before the failure stays
// committed.
type FatalMutationError struct {
	Mode  Mode
	Graph string
	Fact  rdf.Fact
	Err   error
}

func (e *FatalMutationError) Error() string {
	return fmt.Sprintf("fatal %s of %s in graph %s: %v", e.Mode, e.Fact.Key(), e.Graph, e.Err)
}

func (e *FatalMutationError) Unwrap() error {
	return e.Err
}

// BatchMutator applies mutations batch-wise, shrinking the batch size on
// failure and restoring it on success. A fixed quiescence delay precedes
// every store operation to limit concurrent load on the backing store.
type BatchMutator struct {
	store      Store
	batchSize  int
	quiescence time.Duration
}

// New creates a mutator with the configured starting batch size and
// quiescence delay.
func New(store Store, batchSize int, quiescence time.Duration) *BatchMutator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchMutator{store: store, batchSize: batchSize, quiescence: quiescence}
}

// pause observes the quiescence delay, honoring context cancellation between
// batches (never mid-operation).
func (m *BatchMutator) pause(ctx context.Context) error {
	if m.quiescence <= 0 {
		return nil
	}
	select {
	case <-time.After(m.quiescence):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply inserts or deletes facts in graph. Inserts run wholesale through the
// adaptive loop. Deletes run in two passes: resource-valued objects through
// the adaptive loop, then typed-literal objects one at a time; the store's
// ambiguous literal encoding under- or over-matches bulk literal deletes.
func (m *BatchMutator) Apply(ctx context.Context, mode Mode, graph string, facts []rdf.Fact) error {
	if len(facts) == 0 {
		return nil
	}
	switch mode {
	case ModeInsert:
		return m.adaptive(ctx, mode, graph, facts, m.store.InsertFacts)
	case ModeDelete:
		resources, literals := rdf.SplitByObjectKind(facts)
		if err := m.adaptive(ctx, mode, graph, resources, m.store.DeleteFacts); err != nil {
			return err
		}
		return m.literalPass(ctx, graph, literals)
	default:
		return fmt.Errorf("unknown mutation mode %q", mode)
	}
}

type storeOp func(ctx context.Context, graph string, facts []rdf.Fact) error

// adaptive is the size-adaptive batch loop: on failure the batch size halves
// (floor 1) and the same offset is retried; on success the offset advances
// and the configured size is restored. A size-1 failure is fatal.
func (m *BatchMutator) adaptive(ctx context.Context, mode Mode, graph string, facts []rdf.Fact, op storeOp) error {
	size := m.batchSize
	offset := 0
	for offset < len(facts) {
		end := offset + size
		if end > len(facts) {
			end = len(facts)
		}
		if err := m.pause(ctx); err != nil {
			return err
		}
		if err := op(ctx, graph, facts[offset:end]); err != nil {
			if end-offset <= 1 {
				return &FatalMutationError{Mode: mode, Graph: graph, Fact: facts[offset], Err: err}
			}
			size = size / 2
			if size < 1 {
				size = 1
			}
			slog.Warn("Mutator: batch failed, shrinking",
				"mode", mode, "graph", graph, "offset", offset, "new_size", size, "error", err)
			continue
		}
		offset = end
		size = m.batchSize
	}
	return nil
}

// literalPass removes typed-literal facts one at a time with full datatype
// annotation. Any failure here is already at minimum granularity.
func (m *BatchMutator) literalPass(ctx context.Context, graph string, literals []rdf.Fact) error {
	for _, f := range literals {
		if err := m.pause(ctx); err != nil {
			return err
		}
		if err := m.store.DeleteFacts(ctx, graph, []rdf.Fact{f}); err != nil {
			return &FatalMutationError{Mode: ModeDelete, Graph: graph, Fact: f, Err: err}
		}
	}
	return nil
}
