package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	importProvider string
	importFeedPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an existing feed into a remote calendar",
	Long: `Reads a previously generated feed and replays its events into the
named provider's calendar, creating the calendar if it does not exist yet.

There is no duplicate detection: importing the same feed twice creates every
event twice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		feedPath := importFeedPath
		if feedPath == "" {
			feedPath = cfg.Output
		}
		created, err := importFeed(cmd.Context(), cfg, importProvider, feedPath)
		if err != nil {
			return err
		}
		fmt.Printf("Created %d events in %s calendar %q\n", created, importProvider, cfg.CalendarName)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importProvider, "provider", "", "calendar provider: google or outlook")
	importCmd.Flags().StringVar(&importFeedPath, "ics", "", "feed file to import (default: configured output path)")
	importCmd.MarkFlagRequired("provider")
	rootCmd.AddCommand(importCmd)
}
