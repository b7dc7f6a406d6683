package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"calgrid/internal/model"
	"calgrid/internal/recurrence"
	"calgrid/internal/timecalc"
)

var (
	expandFrom string
	expandTo   string
	expandMax  int
)

var expandCmd = &cobra.Command{
	Use:     "expand",
	Short:   "Print every event occurring between two days, recurring series expanded",
	Example: `  calgrid expand --from 2025-12-01 --to 2025-12-31 --events local.yaml`,
	Args:    cobra.NoArgs,
	RunE:    runExpand,
}

func init() {
	expandCmd.Flags().StringVar(&expandFrom, "from", "", "First day YYYY-MM-DD (default today)")
	expandCmd.Flags().StringVar(&expandTo, "to", "", "Last day YYYY-MM-DD, inclusive (default from + 30 days)")
	expandCmd.Flags().IntVar(&expandMax, "max", 0, "Cap on occurrences per series (0 uses the built-in cap)")
}

func runExpand(cmd *cobra.Command, args []string) error {
	from, err := parseDay("from", expandFrom, timecalc.StartOfDay(time.Now()))
	if err != nil {
		return err
	}
	to, err := parseDay("to", expandTo, from.AddDate(0, 0, 30))
	if err != nil {
		return err
	}
	if to.Before(from) {
		return errors.New("--to is before --from")
	}

	reg, err := loadInputs()
	if err != nil {
		return err
	}

	res, err := recurrence.ExpandAll(reg.Events(), recurrence.Config{
		Window:                 model.DateRange{Start: from, End: timecalc.EndOfDay(to)},
		MaxOccurrencesPerEvent: expandMax,
	})
	if err != nil {
		return err
	}
	if res.Events == nil {
		res.Events = []model.Event{}
	}
	return printJSON(cmd.OutOrStdout(), res.Events)
}
