package cli

import (
	"fmt"
	"log/slog"

	"github.com/orgraph/dispatch/internal/config"
	"github.com/orgraph/dispatch/internal/dispatch"
	"github.com/orgraph/dispatch/internal/journal"
	"github.com/orgraph/dispatch/internal/mutator"
	"github.com/orgraph/dispatch/internal/reconcile"
	"github.com/orgraph/dispatch/internal/resolver"
	"github.com/orgraph/dispatch/internal/sparql"
)

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// runtime bundles the wired components a command needs.
type runtime struct {
	cfg      *config.Config
	store    *sparql.Store
	pipeline *reconcile.Pipeline
	journal  *journal.Journal
}

// buildRuntime wires store, resolver, mutator, dispatcher, journal, and
// pipeline from configuration.
func buildRuntime(cfg *config.Config) (*runtime, error) {
	client := sparql.NewHTTPClient(cfg.Store.QueryURL, cfg.Store.UpdateURL, cfg.Store.Timeout())
	store := sparql.NewStore(client)

	var table resolver.Table
	if cfg.Dispatch.PathsFile != "" {
		var err error
		table, err = resolver.LoadTable(cfg.Dispatch.PathsFile)
		if err != nil {
			return nil, fmt.Errorf("ownership paths: %w", err)
		}
	} else {
		slog.Warn("no ownership paths configured; every insert will stay pending")
	}

	graphs := dispatch.Graphs{
		OrgPrefix:      cfg.Graphs.OrgPrefix,
		InsertsStaging: cfg.Graphs.InsertsStaging,
		DeletesStaging: cfg.Graphs.DeletesStaging,
	}
	res := resolver.New(store, table, cfg.Graphs.OrgPrefix, cfg.Graphs.TokenPredicate)
	mut := mutator.New(store, cfg.Dispatch.BatchSize, cfg.Dispatch.Quiescence())
	d := dispatch.New(store, mut, res, table, graphs)

	rt := &runtime{cfg: cfg, store: store}

	var sink reconcile.Sink
	if cfg.Journal.Enabled {
		path, err := cfg.JournalPath()
		if err != nil {
			return nil, fmt.Errorf("journal path: %w", err)
		}
		j, err := journal.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		rt.journal = j
		sink = j
	}

	rt.pipeline = reconcile.NewPipeline(d, store, graphs, sink, cfg.Dispatch.FollowUpDelay())
	return rt, nil
}

// close releases runtime resources.
func (rt *runtime) close() {
	rt.pipeline.CancelPending()
	if rt.journal != nil {
		rt.journal.Close()
	}
}
