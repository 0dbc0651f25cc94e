package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/activity"
	"github.com/ethos-ledger/ethos/internal/apperr"
)

func newCreditCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Apply positive impact against your societal debt",
	}

	apply := &cobra.Command{
		Use:   "apply <amount>",
		Short: "Consume unused positive impact up to amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return apperr.Invalid("amount", args[0], "not a number")
			}

			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.svc.ApplyCredit(cmd.Context(), e.userID, amount)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.Success {
				e.record(activity.ActionCredit, "requested "+amount.StringFixed(2)+", none available", "", e.effectiveDebt(cmd.Context()))
				fmt.Fprintln(out, "No unused credit available.")
				return nil
			}
			e.record(activity.ActionCredit,
				fmt.Sprintf("requested %s, applied %s", amount.StringFixed(2), res.AmountApplied.StringFixed(2)),
				strings.Join(res.ConsumedIDs, " "), e.effectiveDebt(cmd.Context()))
			fmt.Fprintf(out, "Applied %s credit from %d transactions\n", res.AmountApplied.StringFixed(2), len(res.ConsumedIDs))
			if res.Shortfall.IsPositive() {
				fmt.Fprintf(out, "Shortfall: %s\n", res.Shortfall.StringFixed(2))
			}
			fmt.Fprintf(out, "Total applied: %s\n", res.State.AppliedCredit.StringFixed(2))
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the credit ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			st, err := e.store.LoadCreditState(cmd.Context(), e.userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Phase: %s\n", st.Phase())
			fmt.Fprintf(out, "Available: %s\n", st.AvailableCredit.StringFixed(2))
			fmt.Fprintf(out, "Applied: %s\n", st.AppliedCredit.StringFixed(2))
			fmt.Fprintf(out, "Consumed transactions: %d\n", len(st.CreditTransactionIDs))
			if !st.LastAppliedAt.IsZero() {
				fmt.Fprintf(out, "Last applied: %s on %s\n", st.LastAppliedAmount.StringFixed(2), st.LastAppliedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.AddCommand(apply, show)
	return cmd
}
