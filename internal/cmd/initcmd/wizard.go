package initcmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/certwatch-app/cw-certcheck/internal/ui"
)

// Wizard manages the interactive configuration wizard.
type Wizard struct {
	state      *WizardState
	outputPath string
}

// NewWizard creates a new wizard instance.
func NewWizard() *Wizard {
	return &Wizard{
		state: NewWizardState(),
	}
}

// SetOutputPath sets the output path (from command line flag).
func (w *Wizard) SetOutputPath(path string) {
	w.outputPath = path
	if path != "" {
		w.state.ConfigPath = path
	}
}

// Run executes the wizard flow.
func (w *Wizard) Run() error {
	// Setup signal handling for graceful Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println()
		fmt.Println(ui.RenderWarning("Setup canceled by user"))
		os.Exit(0)
	}()

	// Print header
	fmt.Println()
	fmt.Println(ui.RenderHeader("CertWatch Certificate Checker Setup"))
	fmt.Println()

	// Step 1: Welcome and file configuration
	if err := NewWelcomeForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	// Step 2: Check for existing file
	if err := w.handleExistingFile(); err != nil {
		return err
	}

	// Step 3: Checker configuration
	fmt.Println(ui.RenderSection("Checker Configuration"))
	if err := NewCheckerForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	// Step 4: Server and storage
	fmt.Println(ui.RenderSection("Server Configuration"))
	if err := NewServerForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	// Step 5: Optional reporting
	fmt.Println(ui.RenderSection("Reporting"))
	if err := NewReportForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	// Step 6: Generate and validate config
	cfg, err := w.state.ToConfig()
	if err != nil {
		return w.handleError(fmt.Errorf("failed to create configuration: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return w.handleValidationError(err)
	}

	// Step 7: Write config file
	fmt.Println()
	if err := WriteConfig(cfg, w.state.ConfigPath); err != nil {
		return w.handleError(err)
	}

	// Step 8: Show success and next steps
	w.showSuccess()

	return nil
}

func (w *Wizard) handleExistingFile() error {
	if !FileExists(w.state.ConfigPath) {
		return nil
	}

	form := NewOverwriteConfirmForm(w.state, w.state.ConfigPath)
	if err := form.Run(); err != nil {
		return w.handleError(err)
	}

	if !w.state.OverwriteFile {
		fmt.Println(ui.RenderWarning("Setup canceled: file already exists"))
		os.Exit(0)
	}

	return nil
}

func (w *Wizard) handleError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println()
		fmt.Println(ui.RenderWarning("Setup canceled"))
		os.Exit(0)
	}
	fmt.Println()
	fmt.Println(ui.RenderError(err.Error()))
	return err
}

func (w *Wizard) handleValidationError(err error) error {
	fmt.Println()
	fmt.Println(ui.RenderError("Configuration validation failed:"))
	fmt.Println(ui.RenderError("  " + err.Error()))
	fmt.Println()
	fmt.Println(ui.RenderInfo("Please run 'cw-certcheck init' again with corrected values."))
	return err
}

func (w *Wizard) showSuccess() {
	fmt.Println()
	fmt.Println(ui.RenderSuccess("Config written to " + w.state.ConfigPath))
	fmt.Println(ui.RenderSuccess("Validated successfully"))
	fmt.Println()

	criterion := w.state.PassCriterion
	if strings.TrimSpace(criterion) == "" {
		criterion = "(any issuer)"
	}
	report := "disabled"
	if w.state.EnableReport {
		report = w.state.ReportEndpoint
	}

	// Show summary
	fmt.Println(ui.TitleStyle.Render("Configuration Summary:"))
	fmt.Println(ui.RenderField("  Pass criterion: ", criterion))
	fmt.Println(ui.RenderField("  Timeout:        ", w.state.Timeout))
	fmt.Println(ui.RenderField("  Attempts:       ", w.state.MaxRetries))
	fmt.Println(ui.RenderField("  Workers:        ", w.state.MaxWorkers))
	fmt.Println(ui.RenderField("  Storage:        ", w.state.StoreDriver))
	fmt.Println(ui.RenderField("  Reporting:      ", report))
	fmt.Println()

	fmt.Println(ui.TitleStyle.Render("Next steps:"))
	fmt.Println()
	fmt.Println("  To validate your config:")
	fmt.Println("    " + ui.RenderCode("cw-certcheck validate -c "+w.state.ConfigPath))
	fmt.Println()
	fmt.Println("  To check hosts from a file:")
	fmt.Println("    " + ui.RenderCode("cw-certcheck check -c "+w.state.ConfigPath+" -f hosts.csv"))
	fmt.Println()
	fmt.Println("  To start the API server:")
	fmt.Println("    " + ui.RenderCode("cw-certcheck serve -c "+w.state.ConfigPath))
	fmt.Println()
}

// RunNonInteractive runs the wizard in non-interactive mode using environment variables.
func RunNonInteractive(outputPath string) error {
	state, err := stateFromEnv(os.Getenv)
	if err != nil {
		return err
	}
	state.ConfigPath = outputPath

	// Convert and validate
	cfg, err := state.ToConfig()
	if err != nil {
		return fmt.Errorf("failed to create configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// Write config
	if err := WriteConfig(cfg, state.ConfigPath); err != nil {
		return err
	}

	fmt.Println(ui.RenderSuccess("Config written to " + state.ConfigPath))
	return nil
}

// stateFromEnv fills a WizardState from CW_ variables, keeping defaults for unset ones.
func stateFromEnv(getenv func(string) string) (*WizardState, error) {
	state := NewWizardState()

	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set("CW_PASS_CRITERION", &state.PassCriterion)
	set("CW_TIMEOUT", &state.Timeout)
	set("CW_RETRY_DELAY", &state.RetryDelay)
	set("CW_MAX_RETRIES", &state.MaxRetries)
	set("CW_MAX_WORKERS", &state.MaxWorkers)
	set("CW_RETRY_POLICY", &state.RetryPolicy)
	set("CW_LISTEN", &state.Listen)
	set("CW_STORE_DRIVER", &state.StoreDriver)
	set("CW_STORE_PATH", &state.StorePath)
	set("CW_REPORT_ENDPOINT", &state.ReportEndpoint)
	set("CW_LOG_LEVEL", &state.LogLevel)

	if v := strings.ToLower(strings.TrimSpace(getenv("CW_ENFORCE_VALIDITY"))); v != "" {
		state.EnforceExpiry = v != "false" && v != "0" && v != "no"
	}

	if key := strings.TrimSpace(getenv("CW_API_KEY")); key != "" {
		if err := ValidateAPIKey(key); err != nil {
			return nil, fmt.Errorf("CW_API_KEY: %w", err)
		}
		state.EnableReport = true
		state.ReportKey = key
	}

	return state, nil
}
