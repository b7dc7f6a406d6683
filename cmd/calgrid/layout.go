package main

import (
	"time"

	"github.com/spf13/cobra"

	"calgrid/internal/config"
	"calgrid/internal/layout"
	"calgrid/internal/timecalc"
)

var (
	layoutView string
	layoutDate string
)

var layoutCmd = &cobra.Command{
	Use:     "layout",
	Short:   "Print the month, week or day layout around a date",
	Example: `  calgrid layout --view week --date 2025-12-23 --ics work.ics --events local.yaml`,
	Args:    cobra.NoArgs,
	RunE:    runLayout,
}

func init() {
	layoutCmd.Flags().StringVar(&layoutView, "view", "month", "View: month, week or day")
	layoutCmd.Flags().StringVar(&layoutDate, "date", "", "Anchor day YYYY-MM-DD (default today)")
}

func runLayout(cmd *cobra.Command, args []string) error {
	view, err := layout.ParseViewMode(layoutView)
	if err != nil {
		return err
	}
	anchor, err := parseDay("date", layoutDate, timecalc.StartOfDay(time.Now()))
	if err != nil {
		return err
	}
	first, err := parseWeekStart()
	if err != nil {
		return err
	}

	reg, err := loadInputs()
	if err != nil {
		return err
	}

	out, err := layout.NewLayouters(config.DefaultGrid(), first).Layout(view, reg.Events(), anchor)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}
