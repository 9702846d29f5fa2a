// Package cmd provides CLI commands for the CertWatch certificate checker.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/version"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cw-certcheck",
	Short: "CertWatch certificate checker - verify who issued your TLS certificates",
	Long: `cw-certcheck connects to a list of hosts, fetches each leaf certificate and
checks that its issuer contains an expected name.

Check hosts from the command line or a file:
  cw-certcheck check example.com api.example.com --pass-name "Let's Encrypt"
  cw-certcheck check -f hosts.csv --export csv -o results.csv

Or run the HTTP API:
  cw-certcheck serve -c /path/to/certcheck.yaml

For more information, visit: https://certwatch.app/docs/certcheck`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./certcheck.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Bind flags to viper
	//nolint:errcheck // error is ignored because the flag is guaranteed to exist
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/certwatch")
		viper.SetConfigType("yaml")
		viper.SetConfigName("certcheck")
	}

	// Read environment variables with CW_ prefix, e.g. CW_CHECKER_TIMEOUT
	viper.SetEnvPrefix("CW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Failed to read config file:", err)
	}
}

// loadConfig loads and validates the configuration. --verbose raises the log level to debug.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if viper.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// GetVersion returns the version information
func GetVersion() string {
	return version.GetVersion()
}
