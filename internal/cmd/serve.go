package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-certcheck/internal/agent"
	"github.com/certwatch-app/cw-certcheck/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the certificate checker HTTP API",
	Long: `Start the HTTP API. Clients submit host lists, then fetch results as one
batch or follow them as a server-sent event stream, and download exports.

Example:
  cw-certcheck serve -c /path/to/certcheck.yaml
  CW_SERVER_LISTEN=:9000 cw-certcheck serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := agent.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	defer a.Close()

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting CertWatch certificate checker on %s\n", cfg.Server.Listen)
	fmt.Printf("Storage: %s, metrics: %v\n", cfg.Store.Driver, cfg.Server.Metrics)

	if err := server.New(a, a.Logger().Named("http")).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Println("Server stopped gracefully")
	return nil
}
