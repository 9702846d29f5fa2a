package initcmd

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/ui"
)

// NewWelcomeForm creates the welcome and file configuration form.
func NewWelcomeForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to CertWatch Certificate Checker Setup!").
				Description("This wizard will help you create a configuration file for cw-certcheck.\n\n"+
					"You'll choose:\n"+
					"  • How hosts are probed (timeouts, retries, concurrency)\n"+
					"  • Where completed runs are kept\n"+
					"  • Optionally, a CertWatch API key to report runs"),

			huh.NewInput().
				Title("Config file path").
				Description("Where to save the configuration file").
				Placeholder("./certcheck.yaml").
				Value(&state.ConfigPath).
				Validate(ValidateConfigPath),
		),
	).WithTheme(ui.CreateTheme())
}

// NewCheckerForm creates the probe configuration form.
func NewCheckerForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Checker Configuration").
				Description("Configure how certificates are fetched"),

			huh.NewInput().
				Title("Default Pass Criterion").
				Description("Issuer substring a certificate must contain to pass. Leave empty to pass any issuer.").
				Placeholder("Let's Encrypt").
				Value(&state.PassCriterion).
				Validate(ValidatePassCriterion),

			huh.NewInput().
				Title("Connection Timeout").
				Description("Per-attempt timeout for the TLS handshake").
				Placeholder("5s").
				Value(&state.Timeout).
				Validate(ValidateTimeout),

			huh.NewInput().
				Title("Attempts").
				Description("Total connection attempts per host (1 disables retries)").
				Placeholder("2").
				Value(&state.MaxRetries).
				Validate(ValidateMaxRetries),

			huh.NewInput().
				Title("Retry Delay").
				Description("Pause between attempts").
				Placeholder("500ms").
				Value(&state.RetryDelay).
				Validate(ValidateRetryDelay),

			huh.NewSelect[string]().
				Title("Retry Policy").
				Description("Which failures are retried").
				Options(
					huh.NewOption("All failures (recommended)", config.RetryPolicyAll),
					huh.NewOption("Transient network failures only", config.RetryPolicyTransient),
				).
				Value(&state.RetryPolicy),

			huh.NewInput().
				Title("Max Workers").
				Description("Hosts probed concurrently in batch mode").
				Placeholder("100").
				Value(&state.MaxWorkers).
				Validate(ValidateMaxWorkers),

			huh.NewConfirm().
				Title("Fail expired certificates?").
				Description("Certificates outside their validity window fail regardless of issuer").
				Value(&state.EnforceExpiry).
				Affirmative("Yes").
				Negative("No"),
		),
	).WithTheme(ui.CreateTheme())
}

// NewServerForm creates the HTTP API and storage form.
func NewServerForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Server Configuration").
				Description("Settings used by 'cw-certcheck serve'"),

			huh.NewInput().
				Title("Listen Address").
				Description("Address for the HTTP API and /metrics").
				Placeholder(":8080").
				Value(&state.Listen).
				Validate(ValidateListen),

			huh.NewSelect[string]().
				Title("Run Storage").
				Description("Where completed runs are kept").
				Options(
					huh.NewOption("In memory (lost on restart)", config.StoreMemory),
					huh.NewOption("SQLite database", config.StoreSQLite),
				).
				Value(&state.StoreDriver),

			huh.NewSelect[string]().
				Title("Log Level").
				Description("Logging verbosity").
				Options(
					huh.NewOption("Debug (verbose)", "debug"),
					huh.NewOption("Info (recommended)", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error (quiet)", "error"),
				).
				Value(&state.LogLevel),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Database Path").
				Description("SQLite file for completed runs").
				Placeholder("./certcheck.db").
				Value(&state.StorePath).
				Validate(ValidateStorePath),
		).WithHideFunc(func() bool {
			return state.StoreDriver != config.StoreSQLite
		}),
	).WithTheme(ui.CreateTheme())
}

// NewReportForm creates the optional report sink form.
func NewReportForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Report completed runs to CertWatch?").
				Description("Each completed run is posted to the CertWatch API").
				Value(&state.EnableReport).
				Affirmative("Yes").
				Negative("No"),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("API Endpoint").
				Placeholder("https://api.certwatch.app").
				Value(&state.ReportEndpoint).
				Validate(ValidateEndpoint),

			huh.NewInput().
				Title("CertWatch API Key").
				Description("Your API key with 'cloud:sync' scope").
				Placeholder("cw_xxxxxxxx_xxxxxxxxxxxx").
				Value(&state.ReportKey).
				EchoMode(huh.EchoModePassword).
				Validate(ValidateAPIKey),
		).WithHideFunc(func() bool {
			return !state.EnableReport
		}),
	).WithTheme(ui.CreateTheme())
}

// NewOverwriteConfirmForm creates a form to confirm file overwrite.
func NewOverwriteConfirmForm(state *WizardState, path string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("File '%s' already exists. Overwrite?", path)).
				Description("The existing file will be replaced with the new configuration.").
				Value(&state.OverwriteFile).
				Affirmative("Yes, overwrite").
				Negative("No, cancel"),
		),
	).WithTheme(ui.CreateTheme())
}
