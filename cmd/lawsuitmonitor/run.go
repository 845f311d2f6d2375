package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"LawsuitMonitor/internal/app"
	"LawsuitMonitor/internal/report"
)

var runQuiet bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single monitoring run and print the markdown report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		rep, err := application.Run(cmd.Context())
		if !runQuiet {
			fmt.Fprint(os.Stdout, report.Render(rep, cfg.Scheduler.Location()))
		}
		if err != nil {
			logger.Error("run failed", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Do not print the report to stdout")
	rootCmd.AddCommand(runCmd)
}
