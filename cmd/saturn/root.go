package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"mercator-hq/saturn/pkg/cli"
	"mercator-hq/saturn/pkg/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "saturn",
	Short: "Saturn - cloud cost ledger",
	Long: `Saturn ingests cloud cost data from the provider API or CSV exports,
aggregates it per service and region, and tracks spending against budgets.

It provides:
  - Per-service, per-region and per-tag cost aggregation with trends
  - Budgets with utilization, projections and alert notifications
  - Time-limited, optionally password-protected shareable snapshots
  - CSV and JSON exports
  - A drop directory for automatic CSV imports`,
	Version:       Version,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "saturn.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
}

// loadConfig loads the dotenv file and the configuration. A missing default
// config file yields the defaults with environment overrides applied.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, cli.NewConfigError("env-file", fmt.Sprintf("failed to load %s: %v", envFile, err))
	}

	explicit := cmd.Flag("config") != nil && cmd.Flag("config").Changed
	if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) && !explicit {
		cfg := config.Default()
		config.ApplyEnvOverrides(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, cli.WrapConfigError("defaults", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError(cfgFile, err)
	}
	return cfg, nil
}
