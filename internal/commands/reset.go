package commands

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/activity"
)

func newResetCommand(dir *string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete your value settings, credit ledger and transactions",
		Long:  "Delete your value settings, credit ledger and transactions. The shared vendor cache is kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}

			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.svc.ResetAccount(cmd.Context(), e.userID); err != nil {
				return err
			}
			e.record(activity.ActionReset, "settings, credit and transactions deleted", "", decimal.Zero)
			fmt.Fprintf(cmd.OutOrStdout(), "Reset account %s\n", e.userID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")

	return cmd
}
