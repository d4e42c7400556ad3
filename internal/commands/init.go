package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/stockval/internal/accounts"
	"github.com/cleared-dev/stockval/internal/config"
)

func newInitCommand() *cobra.Command {
	var name string
	var storeID int

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new stockval project",
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

			if err := runInit(absDir, name, storeID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized stockval project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business or store name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().IntVar(&storeID, "store-id", 1, "balance-sheet store ID")

	return cmd
}

func runInit(dir, name string, storeID int) error {
	cfg := config.Default(name)
	cfg.Business.StoreID = storeID

	dirs := []string{
		cfg.Store.Path,
		filepath.Dir(cfg.Log.RunLog),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	svc := accounts.NewService(accounts.DefaultChart(name, storeID))
	if err := svc.Save(dir); err != nil {
		return fmt.Errorf("writing account chart: %w", err)
	}

	gitignore := cfg.Store.Path + "/\n" + filepath.Dir(cfg.Log.RunLog) + "/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}
