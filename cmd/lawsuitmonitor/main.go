package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"LawsuitMonitor/internal/config"
	"LawsuitMonitor/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "lawsuitmonitor",
	Short: "Monitor AI training-data litigation",
	Long: `lawsuitmonitor searches the court docket archive and legal news feeds for
lawsuits about AI training data, scores them, and reports what is new today.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config (defaults to $LAWSUIT_MONITOR_CONFIG)")
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	return cfg, logger, nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
