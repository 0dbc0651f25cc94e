package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/activity"
	"github.com/ethos-ledger/ethos/internal/apperr"
	"github.com/ethos-ledger/ethos/internal/report"
)

var reportWriters = map[string]struct {
	ext   string
	write func(io.Writer, report.Report) error
}{
	"csv":            {".csv", report.WriteCSV},
	"categories-csv": {"-categories.csv", report.WriteCategoriesCSV},
	"xlsx":           {".xlsx", report.WriteXLSX},
}

func newReportCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export impact reports",
	}

	var format, output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the impact report to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, ok := reportWriters[format]
			if !ok {
				return apperr.Invalid("format", format, "must be csv, categories-csv or xlsx")
			}

			e, err := openEnv(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer e.Close()

			snap, err := e.store.LoadSnapshot(cmd.Context(), e.userID)
			if err != nil {
				return err
			}
			now := time.Now()
			r := report.Build(e.userID, snap.Batch.Transactions, snap.Settings, snap.Credit, now)

			path := output
			if path == "" {
				path = filepath.Join(e.root, "exports", "ethos-"+now.Format("2006-01-02")+w.ext)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("creating export dir: %w", err)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			if err := w.write(f, r); err != nil {
				f.Close()
				return fmt.Errorf("writing %s report: %w", format, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", path, err)
			}

			e.record(activity.ActionReportWrite, format, path, r.Analysis.EffectiveDebt)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	export.Flags().StringVar(&format, "format", "xlsx", "csv, categories-csv or xlsx")
	export.Flags().StringVarP(&output, "output", "o", "", "output path (default exports/ethos-<date>.<ext>)")

	cmd.AddCommand(export)
	return cmd
}
