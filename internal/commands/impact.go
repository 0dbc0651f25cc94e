package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/impact"
)

func newImpactCommand(dir *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Show societal debt and the top categories driving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			a, err := e.svc.ComputeImpact(ctx, e.userID)
			if err != nil {
				return err
			}
			negative, positive, err := e.svc.Breakdown(ctx, e.userID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSummary(out, a)
			if len(negative) > 0 {
				fmt.Fprintln(out, "\nTop negative categories:")
				printCategories(out, negative, func(c impact.CategoryEntry) string { return c.NegativeImpact.StringFixed(2) })
			}
			if len(positive) > 0 {
				fmt.Fprintln(out, "\nTop positive categories:")
				printCategories(out, positive, func(c impact.CategoryEntry) string { return c.PositiveImpact.StringFixed(2) })
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", impact.DefaultTopLimit, "number of categories to show")

	return cmd
}

func printSummary(out io.Writer, a impact.Analysis) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total spent:\t%s\n", a.TotalSpent.StringFixed(2))
	fmt.Fprintf(tw, "Negative impact:\t%s\n", a.NegativeImpact.StringFixed(2))
	fmt.Fprintf(tw, "Positive impact:\t%s\n", a.PositiveImpact.StringFixed(2))
	fmt.Fprintf(tw, "Net societal debt:\t%s\n", a.NetSocietalDebt.StringFixed(2))
	fmt.Fprintf(tw, "Applied credit:\t%s\n", a.AppliedCredit.StringFixed(2))
	fmt.Fprintf(tw, "Effective debt:\t%s\n", a.EffectiveDebt.StringFixed(2))
	fmt.Fprintf(tw, "Debt percentage:\t%s%%\n", a.DebtPercentage.StringFixed(2))
	fmt.Fprintf(tw, "Transactions:\t%d (%d with debt, %d with credit)\n", a.TotalTransactions, a.TransactionsWithDebt, a.TransactionsWithCredit)
	tw.Flush()
}

func printCategories(out io.Writer, entries []impact.CategoryEntry, amount func(impact.CategoryEntry) string) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, c := range entries {
		fmt.Fprintf(tw, "  %s\t%s\tspent %s\n", c.Name, amount(c), c.TotalSpent.StringFixed(2))
	}
	tw.Flush()
}
