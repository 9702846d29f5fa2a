package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the cw-certcheck configuration without checking any hosts.

Example:
  cw-certcheck validate -c /path/to/certcheck.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	criterion := cfg.Checker.PassCriterion
	if criterion == "" {
		criterion = "(any issuer)"
	}
	store := cfg.Store.Driver
	if cfg.Store.Driver == config.StoreSQLite {
		store += " (" + cfg.Store.Path + ")"
	}
	report := "disabled"
	if cfg.ReportEnabled() {
		report = cfg.Report.Endpoint
	}

	fmt.Println(ui.RenderSuccess("Configuration is valid!"))
	fmt.Println(ui.RenderField("  Pass criterion: ", criterion))
	fmt.Println(ui.RenderField("  Timeout:        ", cfg.Checker.Timeout.String()))
	fmt.Println(ui.RenderField("  Attempts:       ", fmt.Sprintf("%d (%s apart, retry %s)", cfg.Checker.MaxRetries, cfg.Checker.RetryDelay, cfg.Checker.RetryPolicy)))
	fmt.Println(ui.RenderField("  Workers:        ", fmt.Sprintf("%d", cfg.Checker.MaxWorkers)))
	fmt.Println(ui.RenderField("  Listen:         ", cfg.Server.Listen))
	fmt.Println(ui.RenderField("  Storage:        ", store))
	fmt.Println(ui.RenderField("  Reporting:      ", report))

	return nil
}
