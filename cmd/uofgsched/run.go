package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	runTerm    string
	runGoogle  bool
	runOutlook bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: scrape, generate, optionally import",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		term := resolveTerm(runTerm)

		count, err := exportFeed(ctx, cfg, term)
		if err != nil {
			return err
		}
		fmt.Printf("Parsed %d meetings -> %s\n", count, cfg.Output)

		if runGoogle {
			created, err := importFeed(ctx, cfg, "google", cfg.Output)
			if err != nil {
				return err
			}
			fmt.Printf("Created %d events in Google calendar %q\n", created, cfg.CalendarName)
		}
		if runOutlook {
			created, err := importFeed(ctx, cfg, "outlook", cfg.Output)
			if err != nil {
				return err
			}
			fmt.Printf("Created %d events in Outlook calendar %q\n", created, cfg.CalendarName)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runTerm, "term", "", "term code, e.g. W24 (default from config)")
	runCmd.Flags().BoolVar(&runGoogle, "google", false, "import the feed into Google Calendar")
	runCmd.Flags().BoolVar(&runOutlook, "outlook", false, "import the feed into Outlook")
	rootCmd.AddCommand(runCmd)
}
