package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:     "ethos",
		Short:   "Value-weighted societal debt from your spending",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dir, "dir", ".", "ledger directory containing ethos.yaml")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(&dir),
		newAnalyzeCommand(&dir),
		newImpactCommand(&dir),
		newTransactionsCommand(&dir),
		newValuesCommand(&dir),
		newCreditCommand(&dir),
		newReportCommand(&dir),
		newCacheCommand(&dir),
		newResetCommand(&dir),
		newHistoryCommand(&dir),
	)

	return rootCmd
}
