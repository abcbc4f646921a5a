package main

import (
	"github.com/spf13/cobra"

	"uofgsched/internal/config"
	appLog "uofgsched/internal/log"
)

var (
	configPath string
	verbose    bool

	// cfg is loaded once before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "uofgsched",
	Short: "Export a UofG course schedule and sync it to a calendar",
	Long: `uofgsched scrapes a University of Guelph student schedule from the
Colleague self-service portal (after an interactive browser login), writes it
out as an iCalendar feed, and can import that feed into Google Calendar or
Outlook.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			appLog.SetLevel(appLog.LevelDebug)
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "uofgsched.yaml", "path to config file (created with defaults if missing)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
