package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/impact"
)

func newTransactionsCommand(dir *string) *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "List saved transactions with their debt and credit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			txs, err := e.svc.Transactions(ctx, e.userID)
			if err != nil {
				return err
			}
			settings, err := e.svc.ValueSettings(ctx, e.userID)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tNAME\tAMOUNT\tDEBT\tCREDIT\tSTATUS")
			for _, tx := range txs {
				if pendingOnly && (tx.Analyzed || tx.IsCreditApplication) {
					continue
				}
				c := impact.TransactionImpact(tx, &settings)
				status := "analyzed"
				switch {
				case tx.IsCreditApplication:
					status = "credit applied"
				case !tx.Analyzed:
					status = "pending"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					tx.Date.Format("2006-01-02"), tx.Name, tx.Amount.StringFixed(2),
					c.Negative.StringFixed(2), c.Positive.StringFixed(2), status)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "only show transactions still waiting for classification")

	return cmd
}
