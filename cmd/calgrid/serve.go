package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"calgrid/internal/config"
	"calgrid/internal/ics"
	appLog "calgrid/internal/log"
	"calgrid/internal/refresh"
	"calgrid/internal/registry"
	"calgrid/internal/web"
)

var (
	serveConfigPath string
	serveListen     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep ICS feeds in sync and serve layouts over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "/etc/calgrid/config.yaml", "Path to config file")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, err := config.Load(serveConfigPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", serveConfigPath)
		return err
	}

	// CLI --listen overrides config file listen if provided.
	if serveListen != "" {
		conf.Listen = serveListen
	}
	if !cmd.Flags().Changed("log-level") && !debug {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"events_file", conf.EventsFile,
		"ics_count", len(conf.ICS),
	)

	reg := registry.New()
	if conf.EventsFile != "" {
		if err := addEventsFile(reg, conf.EventsFile); err != nil {
			appLog.Error("failed to load events file", err, "path", conf.EventsFile)
			return err
		}
	}

	server := web.NewServer(conf, reg)
	scheduler := refresh.New(ics.NewFetcher(conf.CacheDir), reg, conf.Sources(),
		refresh.WithOnSync(server.InvalidateCache))

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	// A failed first sync is not fatal; the cron schedule retries.
	if err := scheduler.RunOnce(ctx); err != nil {
		appLog.Error("initial ICS sync had errors", err)
	}
	if err := scheduler.Start(conf.RefreshCron); err != nil {
		return err
	}
	defer scheduler.Stop()

	if err := server.ListenAndServe(ctx); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		return err
	}
	appLog.Info("calgrid exiting")
	return nil
}
