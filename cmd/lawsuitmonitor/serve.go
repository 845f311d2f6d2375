package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"LawsuitMonitor/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run on the configured interval and expose Prometheus metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.Serve(ctx); err != nil {
			logger.Error("application stopped", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
