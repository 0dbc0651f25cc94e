package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ethos-ledger/ethos/internal/config"
	"github.com/ethos-ledger/ethos/internal/importer"
	"github.com/ethos-ledger/ethos/internal/store"
)

func newInitCommand() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ethos ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, userID)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "me", "user id the ledger belongs to")

	return cmd
}

func runInit(out io.Writer, dir, userID string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	dirs := []string{
		importer.ImportDir,
		filepath.Join(importer.ImportDir, "processed"),
		"exports",
		"logs",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(userID)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := cfg.Database.Path + "\nexports/\n" + filepath.Join(importer.ImportDir, "processed") + "/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, importer.ImportDir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	st, err := store.Open(filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Initialized ethos ledger for %s at %s\n", userID, dir)
	return nil
}
