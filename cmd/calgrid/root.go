package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"calgrid/internal/config"
	"calgrid/internal/ics"
	appLog "calgrid/internal/log"
	"calgrid/internal/model"
	"calgrid/internal/registry"
	"calgrid/internal/timecalc"
)

const dateLayout = "2006-01-02"

var (
	logLevel string
	debug    bool

	// Inputs shared by layout and expand.
	icsFiles   []string
	eventsFile string
	weekStart  string
)

var rootCmd = &cobra.Command{
	Use:   "calgrid",
	Short: "Calendar layout and recurrence engine",
	Long: `calgrid expands recurring events and positions them on month, week
and day grids. Results are printed as JSON, or served over HTTP by "serve".`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		appLog.Init(debug)
		level := appLog.ParseLevel(logLevel)
		if debug {
			level = appLog.LevelDebug
		}
		appLog.SetLevel(level)
	},
}

// Execute is the entry point called from main.
func Execute() {
	err := rootCmd.Execute()
	appLog.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info or error")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Human-readable debug logging")

	for _, c := range []*cobra.Command{layoutCmd, expandCmd} {
		c.Flags().StringSliceVar(&icsFiles, "ics", nil, "ICS file to read events from (repeatable)")
		c.Flags().StringVar(&eventsFile, "events", "", "YAML events file")
		c.Flags().StringVar(&weekStart, "week-start", "monday", "First day of the week")
	}

	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(serveCmd)
}

// sourceID names an ICS file after its base name; names already used get a
// numeric suffix ("cal", "cal-2", ...).
func sourceID(path string, used map[string]bool) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id := base
	for n := 2; used[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	used[id] = true
	return id
}

// loadInputs reads every --ics file as its own source and the --events file
// into a fresh registry.
func loadInputs() (*registry.Registry, error) {
	reg := registry.New()

	used := make(map[string]bool, len(icsFiles))
	for _, path := range icsFiles {
		id := sourceID(path, used)
		events, err := ics.ParseFile(path, id)
		if err != nil {
			return nil, err
		}
		if err := reg.ReplaceSource(id, events); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := reg.AddResource(model.Resource{ID: id, Title: id}); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if eventsFile != "" {
		if err := addEventsFile(reg, eventsFile); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func addEventsFile(reg *registry.Registry, path string) error {
	events, err := config.LoadEvents(path)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := reg.AddEvent(ev); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	appLog.Info("events file loaded", "path", path, "event_count", len(events))
	return nil
}

func parseWeekStart() (time.Weekday, error) {
	wd, ok := timecalc.ParseWeekday(weekStart)
	if !ok {
		return 0, fmt.Errorf("--week-start %q: unknown weekday", weekStart)
	}
	return wd, nil
}

// parseDay reads a YYYY-MM-DD flag in local time; empty yields def.
func parseDay(name, v string, def time.Time) (time.Time, error) {
	if v == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s %q: want YYYY-MM-DD", name, v)
	}
	return t, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
