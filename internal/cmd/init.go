package cmd

import (
	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-certcheck/internal/cmd/initcmd"
)

var (
	initOutputPath     string
	initNonInteractive bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new cw-certcheck configuration",
	Long: `Interactively create a new cw-certcheck configuration file.

The wizard will guide you through setting up:
  • Probe settings (pass criterion, timeout, attempts, workers)
  • HTTP API and run storage
  • Optional reporting to CertWatch

Examples:
  # Interactive mode (default)
  cw-certcheck init

  # Specify output path
  cw-certcheck init -o /etc/certwatch/certcheck.yaml

  # Non-interactive mode (for CI/scripting)
  CW_PASS_CRITERION="Let's Encrypt" CW_STORE_DRIVER=sqlite cw-certcheck init --non-interactive

Environment variables for non-interactive mode (all optional):
  CW_PASS_CRITERION    Issuer substring required to pass (default: any issuer)
  CW_TIMEOUT           Per-attempt timeout (default: 5s)
  CW_MAX_RETRIES       Total attempts per host (default: 2)
  CW_RETRY_DELAY       Pause between attempts (default: 500ms)
  CW_RETRY_POLICY      all or transient (default: all)
  CW_MAX_WORKERS       Concurrent probes (default: 100)
  CW_ENFORCE_VALIDITY  Fail expired certificates (default: true)
  CW_LISTEN            HTTP listen address (default: :8080)
  CW_STORE_DRIVER      memory or sqlite (default: memory)
  CW_STORE_PATH        SQLite database path (default: ./certcheck.db)
  CW_API_KEY           CertWatch API key; enables reporting when set
  CW_REPORT_ENDPOINT   Report endpoint (default: https://api.certwatch.app)
  CW_LOG_LEVEL         Log level (default: info)`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", "./certcheck.yaml",
		"Output path for the configuration file")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false,
		"Run in non-interactive mode using environment variables")
}

func runInit(_ *cobra.Command, _ []string) error {
	if initNonInteractive {
		return initcmd.RunNonInteractive(initOutputPath)
	}

	wizard := initcmd.NewWizard()
	wizard.SetOutputPath(initOutputPath)
	return wizard.Run()
}
