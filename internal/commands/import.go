package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/activity"
	"github.com/ethos-ledger/ethos/internal/apperr"
	"github.com/ethos-ledger/ethos/internal/importer"
	"github.com/ethos-ledger/ethos/internal/model"
	"github.com/ethos-ledger/ethos/internal/service"
)

func newImportCommand(dir *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import transactions and analyze them",
		Long: "Import transactions from a file, or from every CSV waiting in import/ when no file is given.\n" +
			"Imported files in import/ are moved to import/processed/ once the batch is saved.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			reg := importer.DefaultRegistry()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				txs, err := reg.ParseFile(formatFor(args[0], format), args[0])
				if err != nil {
					return err
				}
				return analyze(cmd, e, out, txs)
			}

			files, err := importer.Scan(e.root)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "No files to import.")
				return nil
			}

			var all []model.Transaction
			for _, f := range files {
				txs, err := reg.ParseFile(formatFor(f.Path, format), f.Path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d transactions\n", f.Name, len(txs))
				all = append(all, txs...)
			}
			if err := analyze(cmd, e, out, all); err != nil {
				return err
			}
			for _, f := range files {
				if err := importer.MarkProcessed(e.root, f.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "chase", "import format ("+strings.Join(importer.DefaultRegistry().Formats(), ", ")+")")

	return cmd
}

func newAnalyzeCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Re-run classification and impact analysis on the saved transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()
			return analyze(cmd, e, cmd.OutOrStdout(), nil)
		},
	}
}

// formatFor picks the json parser for .json files regardless of the flag.
func formatFor(path, flag string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return flag
}

// analyze runs the pipeline and prints its outcome. A classifier failure is
// reported as a warning because the resolved part of the batch is saved.
func analyze(cmd *cobra.Command, e *env, out io.Writer, txs []model.Transaction) error {
	res, err := e.svc.Analyze(cmd.Context(), e.userID, txs)
	switch {
	case err == nil:
	case service.IsRejected(err):
		return err
	case errors.Is(err, apperr.ErrUpstream) && res.RunID != "":
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	default:
		return err
	}

	r := res.Resolution
	e.record(activity.ActionAnalyze,
		fmt.Sprintf("%d transactions, %d classified, %d pending", len(r.Transactions), len(r.Classified), len(r.Pending)),
		res.RunID, res.Analysis.EffectiveDebt)
	fmt.Fprintf(out, "Analyzed %d transactions (%d from cache, %d classified, %d pending)\n",
		len(r.Transactions), len(r.CacheHits), len(r.Classified), len(r.Pending))
	printSummary(out, res.Analysis)
	return nil
}
