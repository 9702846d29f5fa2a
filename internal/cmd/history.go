package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-certcheck/internal/agent"
	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/export"
	"github.com/certwatch-app/cw-certcheck/internal/ui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed runs from the run store",
	Long: `List the most recent completed runs kept in the SQLite run store.

Example:
  cw-certcheck history --limit 10 -c /path/to/certcheck.yaml`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Store.Driver != config.StoreSQLite {
		fmt.Println(ui.RenderWarning("Run history is only kept with the sqlite store (store.driver: sqlite)"))
		return nil
	}

	a, err := agent.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	defer a.Close()

	runs, err := a.History(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println(ui.RenderInfo("No completed runs yet"))
		return nil
	}

	return export.WriteHistory(os.Stdout, runs)
}
