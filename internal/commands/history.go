package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/activity"
)

func newHistoryCommand(dir *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent ledger activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := activity.Tail(e.root, e.userID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No activity yet.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTION\tEFFECTIVE DEBT\tDETAILS")
			for _, en := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", en.Timestamp.Local().Format("2006-01-02 15:04"), en.Action, en.EffectiveDebt.StringFixed(2), en.Details)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show (0 for all)")

	return cmd
}
