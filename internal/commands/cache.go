package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/activity"
)

func newCacheCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the shared vendor classification cache",
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired vendor classifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.cache.Prune(cmd.Context())
			if err != nil {
				return err
			}
			e.record(activity.ActionCachePrune, fmt.Sprintf("%d expired entries", n), "", e.effectiveDebt(cmd.Context()))
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired vendor entries\n", n)
			return nil
		},
	}

	cmd.AddCommand(prune)
	return cmd
}
