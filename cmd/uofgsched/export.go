package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var exportTerm string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Scrape the schedule and write the iCalendar feed",
	Long: `Opens a browser window for institutional login, scrapes the schedule
for the given term and writes the generated feed to the configured output
path. Does not touch any remote calendar.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		term := resolveTerm(exportTerm)
		count, err := exportFeed(cmd.Context(), cfg, term)
		if err != nil {
			return err
		}
		fmt.Printf("Parsed %d meetings -> %s\n", count, cfg.Output)
		return nil
	},
}

// resolveTerm applies the configured default when no term was passed and
// upper-cases the token the way the portal expects.
func resolveTerm(flag string) string {
	term := strings.ToUpper(strings.TrimSpace(flag))
	if term == "" {
		term = cfg.Term
	}
	return term
}

func init() {
	exportCmd.Flags().StringVar(&exportTerm, "term", "", "term code, e.g. W24 (default from config)")
	rootCmd.AddCommand(exportCmd)
}
