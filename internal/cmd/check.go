package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-certcheck/internal/agent"
	"github.com/certwatch-app/cw-certcheck/internal/export"
	"github.com/certwatch-app/cw-certcheck/internal/input"
	"github.com/certwatch-app/cw-certcheck/internal/scanner"
	"github.com/certwatch-app/cw-certcheck/internal/state"
	"github.com/certwatch-app/cw-certcheck/internal/ui"
)

var errChecksFailed = errors.New("one or more hosts failed the check")

var (
	checkFile       string
	checkPassName   string
	checkExport     string
	checkOutput     string
	checkStream     bool
	checkSkipHeader bool
	checkStrict     bool
)

var checkCmd = &cobra.Command{
	Use:   "check [hosts...]",
	Short: "Check the certificate issuer of one or more hosts",
	Long: `Connect to each host, fetch its leaf certificate and check that the issuer
contains the pass criterion. Hosts come from arguments, a file, or both.

Files ending in .csv and .xlsx are read from their first column; anything else
is read as one host per line.

Examples:
  cw-certcheck check example.com 10.0.0.7 api.example.com:8443
  cw-certcheck check -f hosts.xlsx --pass-name "DigiCert" --export excel -o results.xlsx
  cw-certcheck check -f hosts.txt --stream --strict`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFile, "file", "f", "", "read hosts from a .csv, .xlsx or text file")
	checkCmd.Flags().StringVarP(&checkPassName, "pass-name", "p", "", "issuer substring required to pass (default: checker.pass_criterion)")
	checkCmd.Flags().StringVarP(&checkExport, "export", "e", "table", "output format: table, markdown, csv, txt or excel")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "", "write the export to a file instead of stdout")
	checkCmd.Flags().BoolVar(&checkStream, "stream", false, "probe hosts one at a time and print progress")
	checkCmd.Flags().BoolVar(&checkSkipHeader, "skip-header", true, "skip the first row of .csv and .xlsx files")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "exit with an error when any host fails")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(checkExport)
	if err != nil {
		return err
	}
	if format == export.FormatExcel && checkOutput == "" {
		return fmt.Errorf("the excel export requires --output")
	}

	hosts, err := collectHosts(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := agent.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := execute(ctx, a, hosts)
	if err != nil {
		return err
	}

	if err := writeResults(format, run); err != nil {
		return err
	}

	printSummary(cmd.ErrOrStderr(), run.Summary)

	if checkStrict && run.Summary.FailCount > 0 {
		return errChecksFailed
	}
	return nil
}

func collectHosts(args []string) ([]string, error) {
	hosts := input.FromText(strings.Join(args, "\n"))

	if checkFile != "" {
		loaded, err := input.LoadFile(checkFile, input.Options{SkipHeader: checkSkipHeader})
		if err != nil {
			return nil, fmt.Errorf("failed to read hosts: %w", err)
		}
		hosts = append(hosts, loaded...)
	}

	if len(hosts) == 0 {
		return nil, fmt.Errorf("no hosts given: pass hosts as arguments or use --file")
	}
	return hosts, nil
}

// execute runs the hosts as a batch, or as a stream with a progress line per host.
func execute(ctx context.Context, a *agent.Agent, hosts []string) (*state.Run, error) {
	run, err := a.Submit(hosts, checkPassName)
	if err != nil {
		return nil, err
	}

	if !checkStream {
		return a.Batch(ctx, run.ID)
	}

	err = a.Stream(ctx, run.ID, func(ev scanner.Event) error {
		if ev.Result != nil {
			printProgress(os.Stderr, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a.Get(ctx, run.ID)
}

func printProgress(w io.Writer, ev scanner.Event) {
	r := ev.Result
	detail := r.Error
	if r.Certificate != nil && detail == "" {
		detail = r.Certificate.Issuer
	}

	status := ui.RenderSuccess(string(r.Status))
	if !r.Passed() {
		status = ui.RenderError(string(r.Status))
	}
	fmt.Fprintf(w, "[%6.2f%%] %s %s %s\n", ev.Progress, status, r.NormalizedURL, ui.MutedStyle.Render(detail))
}

func writeResults(format export.Format, run *state.Run) error {
	var w io.Writer = os.Stdout
	if checkOutput != "" {
		f, err := os.Create(checkOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, format, run.Results, *run.Summary); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}

	if checkOutput != "" {
		fmt.Fprintln(os.Stderr, ui.RenderSuccess("Results written to "+checkOutput))
	}
	return nil
}

func printSummary(w io.Writer, s *scanner.RunSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.RenderStatus(s.PassCount, s.FailCount))
	fmt.Fprintln(w, ui.RenderField("  Hosts:               ", fmt.Sprintf("%d", s.Total)))
	fmt.Fprintln(w, ui.RenderField("  Avg connection (ms): ", fmt.Sprintf("%.2f", s.AverageConnectionTimeMS)))
	fmt.Fprintln(w, ui.RenderField("  Duration (ms):       ", fmt.Sprintf("%.2f", s.DurationMS)))
	if len(s.ExceptionHistogram) > 0 {
		fmt.Fprintln(w, ui.RenderField("  Exceptions:          ", export.FormatHistogram(s.ExceptionHistogram)))
	}
}
