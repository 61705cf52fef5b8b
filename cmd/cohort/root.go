package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cohort"
	"github.com/aretw0/cohort/internal/cli"
	"github.com/aretw0/cohort/internal/config"
	"github.com/aretw0/cohort/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cohort",
	Short: "Cohort simulates synthetic populations through disease modules",
	Long: `Cohort loads a library of JSON/YAML disease modules and advances
synthetic people through them over simulated time.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the module library")
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for snapshots (in-memory when empty)")
}

// loadConfig reads the configuration file and overlays the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = config.DefaultFile
	}

	cfg, err := config.Load(path, explicit)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir, _ = flags.GetString("dir")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.LogJSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr, _ = flags.GetString("redis-addr")
	}
	return cfg, nil
}

// openEngine loads the configuration and the module library for read-only commands.
func openEngine(cmd *cobra.Command) (*cohort.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return cli.NewEngine(cmd.Context(), cfg, logger, domain.LifecycleHooks{})
}
