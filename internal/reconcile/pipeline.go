package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orgraph/dispatch/internal/changeset"
	"github.com/orgraph/dispatch/internal/dispatch"
	"github.com/orgraph/dispatch/internal/rdf"
	"github.com/orgraph/dispatch/internal/sparql"
)

// ScanStore is the slice of the backing store the scheduler sweeps.
type ScanStore interface {
	StagedFacts(ctx context.Context, graph string) ([]rdf.Fact, error)
	StagedSubjects(ctx context.Context, graph string) ([]sparql.SubjectType, error)
}

// Engine is the dispatch surface the pipeline drives.
type Engine interface {
	ProcessInserts(ctx context.Context, facts []rdf.Fact) ([]dispatch.Result, error)
	ProcessDeletes(ctx context.Context, facts []rdf.Fact) ([]dispatch.Result, error)
	DispatchSubject(ctx context.Context, subject string, types []string) (dispatch.Result, error)
}

// RunRecord is the structured outcome of one pipeline run, handed to the
// observability sink. The core produces it; whether it is persisted is the
// surrounding application's decision.
type RunRecord struct {
	ID       string
	Trigger  string
	Started  time.Time
	Finished time.Time
	Results  []dispatch.Result
	Err      error
}

// Sink consumes run records. Implementations must tolerate partial runs:
// Err may be set alongside committed results.
type Sink interface {
	RecordRun(ctx context.Context, run RunRecord)
}

type nopSink struct{}

func (nopSink) RecordRun(ctx context.Context, run RunRecord) {}

// Pipeline owns the serializer gate and the single pending follow-up timer.
// Created once at process start and long-lived; it is the only mutable state
// the process holds across requests.
type Pipeline struct {
	ser    *Serializer
	d      Engine
	store  ScanStore
	graphs dispatch.Graphs
	sink   Sink

	followUpDelay time.Duration

	mu      sync.Mutex
	pending *time.Timer
}

// NewPipeline wires the pipeline. A nil sink discards run records. A
// followUpDelay of zero or less disables the post-placement rescan.
func NewPipeline(d Engine, store ScanStore, graphs dispatch.Graphs, sink Sink, followUpDelay time.Duration) *Pipeline {
	if sink == nil {
		sink = nopSink{}
	}
	return &Pipeline{
		ser:           NewSerializer(),
		d:             d,
		store:         store,
		graphs:        graphs,
		sink:          sink,
		followUpDelay: followUpDelay,
	}
}

// HandleChangesets runs one inbound changeset sequence through the full
// pipeline under the gate: coalesce into pure batches, reconcile delete
// batches, dispatch insert batches, in order. Results for completed work are
// returned even when a later batch fails; committed moves are never rolled
// back.
func (p *Pipeline) HandleChangesets(ctx context.Context, sets []changeset.Changeset) ([]dispatch.Result, error) {
	if err := p.ser.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.ser.Release()

	run := p.beginRun("delta")
	batches := changeset.Coalesce(sets)
	var results []dispatch.Result
	var runErr error
	for _, b := range batches {
		var batchResults []dispatch.Result
		var err error
		switch b.Kind {
		case changeset.KindDelete:
			batchResults, err = p.d.ProcessDeletes(ctx, b.Facts)
		case changeset.KindInsert:
			batchResults, err = p.d.ProcessInserts(ctx, b.Facts)
		}
		results = append(results, batchResults...)
		if err != nil {
			runErr = fmt.Errorf("%s batch: %w", b.Kind, err)
			break
		}
	}
	p.finishRun(ctx, run, results, runErr)
	return results, runErr
}

// Scan re-evaluates the staging graphs: every staged deleted fact (when
// includeDeletes is set) through the delete reconciler, then every distinct
// typed subject in the inserts staging graph through the insert dispatcher.
// Previously pending or ambiguous facts are retried identically; no shortcut
// state is kept between passes.
func (p *Pipeline) Scan(ctx context.Context, includeDeletes bool) ([]dispatch.Result, error) {
	if err := p.ser.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.ser.Release()
	return p.scanLocked(ctx, includeDeletes)
}

func (p *Pipeline) scanLocked(ctx context.Context, includeDeletes bool) ([]dispatch.Result, error) {
	run := p.beginRun("scan")
	var results []dispatch.Result

	if includeDeletes {
		staged, err := p.store.StagedFacts(ctx, p.graphs.DeletesStaging)
		if err != nil {
			err = fmt.Errorf("scan deletes staging: %w", err)
			p.finishRun(ctx, run, results, err)
			return results, err
		}
		delResults, err := p.d.ProcessDeletes(ctx, staged)
		results = append(results, delResults...)
		if err != nil {
			p.finishRun(ctx, run, results, err)
			return results, err
		}
	}

	pairs, err := p.store.StagedSubjects(ctx, p.graphs.InsertsStaging)
	if err != nil {
		err = fmt.Errorf("scan inserts staging: %w", err)
		p.finishRun(ctx, run, results, err)
		return results, err
	}
	subjects, types := groupTypes(pairs)
	for _, subject := range subjects {
		res, err := p.d.DispatchSubject(ctx, subject, types[subject])
		results = append(results, res)
		if err != nil {
			p.finishRun(ctx, run, results, err)
			return results, err
		}
	}

	p.finishRun(ctx, run, results, nil)
	return results, nil
}

func groupTypes(pairs []sparql.SubjectType) (subjects []string, types map[string][]string) {
	types = make(map[string][]string)
	for _, pair := range pairs {
		if _, ok := types[pair.Subject]; !ok {
			subjects = append(subjects, pair.Subject)
		}
		types[pair.Subject] = append(types[pair.Subject], pair.Type)
	}
	return subjects, types
}

func (p *Pipeline) beginRun(trigger string) RunRecord {
	return RunRecord{ID: uuid.NewString(), Trigger: trigger, Started: time.Now()}
}

// finishRun hands the run to the sink and, when any subject was placed,
// schedules the debounced follow-up scan: one resolved ownership path may
// have unblocked others still pending.
func (p *Pipeline) finishRun(ctx context.Context, run RunRecord, results []dispatch.Result, runErr error) {
	run.Finished = time.Now()
	run.Results = results
	run.Err = runErr
	p.sink.RecordRun(ctx, run)

	summary := dispatch.Summary(results)
	slog.Info("Pipeline: run finished",
		"run_id", run.ID, "trigger", run.Trigger,
		"placed", summary[dispatch.StatusPlaced]+summary[dispatch.StatusPlacedMulti],
		"deleted", summary[dispatch.StatusDeleted],
		"pending", summary[dispatch.StatusPending],
		"ambiguous", summary[dispatch.StatusAmbiguous],
		"error", runErr)

	if summary[dispatch.StatusPlaced]+summary[dispatch.StatusPlacedMulti] > 0 {
		p.ScheduleFollowUp()
	}
}

// ScheduleFollowUp arms the single pending-timer slot. A newer schedule
// cancels any not-yet-fired predecessor, so at most one follow-up is ever
// outstanding.
func (p *Pipeline) ScheduleFollowUp() {
	if p.followUpDelay <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		p.pending.Stop()
	}
	p.pending = time.AfterFunc(p.followUpDelay, func() {
		p.mu.Lock()
		p.pending = nil
		p.mu.Unlock()
		if _, err := p.Scan(context.Background(), false); err != nil {
			slog.Warn("Pipeline: follow-up scan failed", "error", err)
		}
	})
}

// CancelPending disarms the follow-up timer slot, used at shutdown.
func (p *Pipeline) CancelPending() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
}

// StartupScan waits for the store connection to stabilize, then runs the
// full scan including deletes. Blocks; run it on its own goroutine.
func (p *Pipeline) StartupScan(ctx context.Context, delay time.Duration) {
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
	slog.Info("Pipeline: startup scan", "delay", delay)
	if _, err := p.Scan(ctx, true); err != nil {
		slog.Warn("Pipeline: startup scan failed", "error", err)
	}
}
