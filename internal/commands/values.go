package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/activity"
	"github.com/ethos-ledger/ethos/internal/apperr"
	"github.com/ethos-ledger/ethos/internal/values"
)

func newValuesCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "values",
		Short: "Show or change how much each value category matters to you",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show category levels and multipliers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.svc.ValueSettings(cmd.Context(), e.userID)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), s)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <category> <level>",
		Short: "Set a category level; other categories rebalance to keep the budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[1])
			if err != nil {
				return apperr.Invalid("level", args[1], "must be an integer")
			}

			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.svc.UpdateValueLevel(cmd.Context(), e.userID, categoryID(args[0]), level)
			if err != nil {
				return err
			}
			e.record(activity.ActionValues, fmt.Sprintf("set %s to %d", categoryID(args[0]), level), "", e.effectiveDebt(cmd.Context()))
			printSettings(cmd.OutOrStdout(), s)
			return nil
		},
	}

	reorder := &cobra.Command{
		Use:   "reorder <category>...",
		Short: "Set the order in which points are redistributed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order := make([]string, len(args))
			for i, a := range args {
				order[i] = categoryID(a)
			}

			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.svc.ReorderCategories(cmd.Context(), e.userID, order)
			if err != nil {
				return err
			}
			e.record(activity.ActionValues, "order "+strings.Join(order, ", "), "", e.effectiveDebt(cmd.Context()))
			printSettings(cmd.OutOrStdout(), s)
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Return every category to neutral",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.svc.ResetValues(cmd.Context(), e.userID)
			if err != nil {
				return err
			}
			e.record(activity.ActionValues, "reset to neutral", "", e.effectiveDebt(cmd.Context()))
			printSettings(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.AddCommand(show, set, reorder, reset)
	return cmd
}

// categoryID accepts an id or display name; unknown input is passed through
// so validation reports it.
func categoryID(arg string) string {
	if c, ok := values.Lookup(arg); ok {
		return c.ID
	}
	return arg
}

func printSettings(out io.Writer, s values.Settings) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tID\tLEVEL\tMULTIPLIER")
	for _, c := range values.Categories() {
		l := s.Level(c.ID)
		fmt.Fprintf(tw, "%s %s\t%s\t%d\t%s\n", c.Emoji, c.DisplayName, c.ID, l, values.MultiplierForLevel(l).StringFixed(2))
	}
	tw.Flush()
	fmt.Fprintf(out, "Budget: %d/%d\n", s.Sum(), values.Budget())
	fmt.Fprintf(out, "Order: %v\n", s.Order)
}
