// Package journal persists dispatch outcomes to a local sqlite database for
// operator visibility. The dispatch core never reads it back; it exists so
// ambiguous and failed outcomes survive long enough to be investigated.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/orgraph/dispatch/internal/dispatch"
	"github.com/orgraph/dispatch/internal/reconcile"
)

// Journal records pipeline runs and per-fact outcomes.
type Journal struct {
	db *sql.DB
}

var _ reconcile.Sink = (*Journal)(nil)

// Open creates or opens the journal database and applies the schema.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordRun implements reconcile.Sink. Recording is best-effort: a journal
// failure is logged, never allowed to fail the pipeline run it describes.
func (j *Journal) RecordRun(ctx context.Context, run reconcile.RunRecord) {
	summary := dispatch.Summary(run.Results)
	errText := ""
	if run.Err != nil {
		errText = run.Err.Error()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, trigger_kind, started_at, finished_at, error_text, placed, deleted, pending, ambiguous, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Trigger, run.Started, run.Finished, errText,
		summary[dispatch.StatusPlaced]+summary[dispatch.StatusPlacedMulti],
		summary[dispatch.StatusDeleted],
		summary[dispatch.StatusPending],
		summary[dispatch.StatusAmbiguous],
		summary[dispatch.StatusFailed])
	if err != nil {
		slog.Warn("Journal: record run failed", "run_id", run.ID, "error", err)
		return
	}
	for _, res := range run.Results {
		j.recordOutcome(ctx, run.ID, res)
	}
}

func (j *Journal) recordOutcome(ctx context.Context, runID string, res dispatch.Result) {
	predicate, object := "", ""
	if res.Fact != nil {
		predicate = res.Fact.Predicate
		object = res.Fact.Object.Value
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, mode, status, subject, predicate, object, reason, candidates, graphs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, string(res.Mode), string(res.Status), res.Subject, predicate, object,
		res.Reason, strings.Join(res.Candidates, " "), strings.Join(res.Graphs, " "))
	if err != nil {
		slog.Warn("Journal: record outcome failed", "run_id", runID, "error", err)
	}
}

// RunSummary is one journaled pipeline run.
type RunSummary struct {
	RunID     string
	Trigger   string
	Started   time.Time
	Finished  time.Time
	ErrorText string
	Placed    int
	Deleted   int
	Pending   int
	Ambiguous int
	Failed    int
}

// RecentRuns returns the newest runs, most recent first.
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, trigger_kind, started_at, finished_at, error_text, placed, deleted, pending, ambiguous, failed
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Trigger, &r.Started, &r.Finished, &r.ErrorText,
			&r.Placed, &r.Deleted, &r.Pending, &r.Ambiguous, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Outcome is one journaled dispatch outcome.
type Outcome struct {
	RunID   string
	Mode    string
	Status  string
	Subject string
	Reason  string
}

// OutcomesByStatus lists the newest outcomes with the given status, most
// recent first. Used by the doctor command to surface ambiguous facts.
func (j *Journal) OutcomesByStatus(ctx context.Context, status string, limit int) ([]Outcome, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, mode, status, subject, reason
		FROM outcomes WHERE status = ? ORDER BY id DESC LIMIT ?`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.RunID, &o.Mode, &o.Status, &o.Subject, &o.Reason); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
