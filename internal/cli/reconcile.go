package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgraph/dispatch/internal/dispatch"
)

var reconcileSkipDeletes bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconciliation scan against the configured store and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		rt, err := buildRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.close()

		results, runErr := rt.pipeline.Scan(cmd.Context(), !reconcileSkipDeletes)
		summary := dispatch.Summary(results)
		fmt.Fprintf(cmd.OutOrStdout(), "scan: %d outcomes (placed=%d deleted=%d pending=%d ambiguous=%d failed=%d)\n",
			len(results),
			summary[dispatch.StatusPlaced]+summary[dispatch.StatusPlacedMulti],
			summary[dispatch.StatusDeleted],
			summary[dispatch.StatusPending],
			summary[dispatch.StatusAmbiguous],
			summary[dispatch.StatusFailed])
		return runErr
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileSkipDeletes, "skip-deletes", false, "Only re-dispatch staged inserts")
}
