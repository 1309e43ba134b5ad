package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/orgraph/dispatch/internal/dispatch"
	"github.com/orgraph/dispatch/internal/journal"
	"github.com/orgraph/dispatch/internal/resolver"
	"github.com/orgraph/dispatch/internal/sparql"
)

type checkStatus int

const (
	checkPass checkStatus = iota
	checkWarn
	checkFail
)

type doctorCheck struct {
	name    string
	status  checkStatus
	message string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run config, store, and journal diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		checks := runDoctor()
		failures := 0
		for _, c := range checks {
			label := color.GreenString("PASS")
			switch c.status {
			case checkWarn:
				label = color.YellowString("WARN")
			case checkFail:
				label = color.RedString("FAIL")
				failures++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", label, c.name, c.message)
		}
		if failures > 0 {
			return fmt.Errorf("doctor found %d failing check(s)", failures)
		}
		return nil
	},
}

func runDoctor() []doctorCheck {
	var checks []doctorCheck

	cfg, err := loadConfig()
	if err != nil {
		return append(checks, doctorCheck{"config", checkFail, err.Error()})
	}
	checks = append(checks, doctorCheck{"config", checkPass, "loaded and valid"})

	if cfg.Dispatch.PathsFile == "" {
		checks = append(checks, doctorCheck{"ownership-paths", checkWarn, "no paths file configured; inserts will stay pending"})
	} else if table, err := resolver.LoadTable(cfg.Dispatch.PathsFile); err != nil {
		checks = append(checks, doctorCheck{"ownership-paths", checkFail, err.Error()})
	} else {
		checks = append(checks, doctorCheck{"ownership-paths", checkPass, fmt.Sprintf("%d path(s)", len(table))})
	}

	client := sparql.NewHTTPClient(cfg.Store.QueryURL, cfg.Store.UpdateURL, cfg.Store.Timeout())
	store := sparql.NewStore(client)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		checks = append(checks, doctorCheck{"store", checkFail, err.Error()})
	} else {
		checks = append(checks, doctorCheck{"store", checkPass, cfg.Store.QueryURL})
	}

	if !cfg.Journal.Enabled {
		checks = append(checks, doctorCheck{"journal", checkWarn, "disabled; outcomes are not persisted"})
		return checks
	}
	path, err := cfg.JournalPath()
	if err != nil {
		return append(checks, doctorCheck{"journal", checkFail, err.Error()})
	}
	j, err := journal.Open(path)
	if err != nil {
		return append(checks, doctorCheck{"journal", checkFail, err.Error()})
	}
	defer j.Close()
	ambiguous, err := j.OutcomesByStatus(ctx, string(dispatch.StatusAmbiguous), 10)
	if err != nil {
		checks = append(checks, doctorCheck{"journal", checkFail, err.Error()})
	} else if len(ambiguous) > 0 {
		checks = append(checks, doctorCheck{"journal", checkWarn,
			fmt.Sprintf("%d recent ambiguous outcome(s); latest subject %s", len(ambiguous), ambiguous[0].Subject)})
	} else {
		checks = append(checks, doctorCheck{"journal", checkPass, path})
	}
	return checks
}
