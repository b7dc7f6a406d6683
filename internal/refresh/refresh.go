// Package refresh keeps the registry in sync with the subscribed ICS feeds
// on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"calgrid/internal/ics"
	appLog "calgrid/internal/log"
	"calgrid/internal/model"
	"calgrid/internal/registry"
)

var ErrAlreadyStarted = errors.New("refresh: scheduler already started")

// Fetcher is the part of ics.Fetcher the scheduler needs.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []ics.Source) ([]ics.FetchResult, []error)
}

// Scheduler runs fetch → parse → registry sync, once on demand or on a
// cron schedule. A source that fails to fetch or parse keeps the events it
// had from the previous run.
type Scheduler struct {
	fetcher  Fetcher
	registry *registry.Registry
	sources  []ics.Source
	onSync   func()

	run sync.Mutex // one sync at a time

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithOnSync registers a callback run after every sync that changed the
// registry, e.g. to drop cached layouts.
func WithOnSync(fn func()) Option {
	return func(s *Scheduler) { s.onSync = fn }
}

// New creates a scheduler and registers one resource per source.
func New(fetcher Fetcher, reg *registry.Registry, sources []ics.Source, opts ...Option) *Scheduler {
	s := &Scheduler{
		fetcher:  fetcher,
		registry: reg,
		sources:  sources,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, src := range sources {
		res := model.Resource{ID: src.ID, Title: src.Name, Color: src.Color}
		if err := reg.AddResource(res); err != nil && !errors.Is(err, registry.ErrDuplicate) {
			appLog.Error("refresh: register resource failed", err, "id", src.ID)
		}
	}
	return s
}

// RunOnce syncs every source and returns the joined per-source errors.
// Sources without errors are synced even when others fail.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.run.Lock()
	defer s.run.Unlock()

	results, errs := s.fetcher.FetchAll(ctx, s.sources)

	synced := 0
	for _, res := range results {
		events, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, fmt.Errorf("source %s: parse: %w", res.Source.ID, err))
			continue
		}
		if err := s.registry.ReplaceSource(res.Source.ID, events); err != nil {
			errs = append(errs, fmt.Errorf("source %s: sync: %w", res.Source.ID, err))
			appLog.Error("refresh: registry sync failed", err, "id", res.Source.ID)
			continue
		}
		synced++
		appLog.Debug("refresh: source synced", "id", res.Source.ID, "event_count", len(events), "from_cache", res.FromCache)
	}

	appLog.Info("refresh: run completed", "sources", len(s.sources), "synced", synced, "errors", len(errs))

	if synced > 0 && s.onSync != nil {
		s.onSync()
	}
	return errors.Join(errs...)
}

// Start schedules RunOnce on a standard 5-field cron spec. Runs that would
// overlap a still-running one are skipped.
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrAlreadyStarted
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := c.AddFunc(spec, func() {
		if err := s.RunOnce(ctx); err != nil {
			appLog.Error("refresh: scheduled run had errors", err)
		}
	}); err != nil {
		cancel()
		return fmt.Errorf("refresh: schedule %q: %w", spec, err)
	}

	s.cron, s.cancel = c, cancel
	c.Start()
	appLog.Info("refresh: scheduler started", "spec", spec, "sources", len(s.sources))
	return nil
}

// Stop cancels in-flight fetches and waits for a running job to return.
// It is safe to call on a scheduler that was never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	appLog.Info("refresh: scheduler stopped")
}

// cronLogger routes cron's own messages through the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
