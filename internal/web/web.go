package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"calgrid/internal/config"
	"calgrid/internal/layout"
	appLog "calgrid/internal/log"
	"calgrid/internal/model"
	"calgrid/internal/recurrence"
	"calgrid/internal/registry"
	"calgrid/internal/timecalc"
)

const (
	dateLayout     = "2006-01-02"
	layoutCacheTTL = 30 * time.Second
	shutdownGrace  = 5 * time.Second
)

// Server exposes computed layouts and the registry over HTTP.
type Server struct {
	cfg       *config.Config
	registry  *registry.Registry
	layouters layout.Layouters
	mux       *http.ServeMux

	// now is swapped in tests.
	now func() time.Time

	// Computed layouts keyed by view and anchor day. InvalidateCache drops
	// them all and bumps layoutGen, so a layout computed before the bump is
	// never stored.
	layoutMu    sync.RWMutex
	layoutCache map[layoutKey]layoutEntry
	layoutGen   uint64
}

type layoutKey struct {
	view model.ViewMode
	day  string
}

type layoutEntry struct {
	layout    model.Layout
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, reg *registry.Registry) *Server {
	s := &Server{
		cfg:         cfg,
		registry:    reg,
		layouters:   layout.NewLayouters(cfg.Grid, cfg.Weekday()),
		mux:         http.NewServeMux(),
		now:         time.Now,
		layoutCache: make(map[layoutKey]layoutEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// InvalidateCache drops every cached layout.
func (s *Server) InvalidateCache() {
	s.layoutMu.Lock()
	clear(s.layoutCache)
	s.layoutGen++
	s.layoutMu.Unlock()
}

// storeLayout caches out unless the cache was invalidated since gen was read.
// Expired entries are evicted on the way.
func (s *Server) storeLayout(key layoutKey, out model.Layout, gen uint64, now time.Time) {
	s.layoutMu.Lock()
	defer s.layoutMu.Unlock()

	if gen != s.layoutGen {
		return
	}
	for k, e := range s.layoutCache {
		if now.Sub(e.updatedAt) >= layoutCacheTTL {
			delete(s.layoutCache, k)
		}
	}
	s.layoutCache[key] = layoutEntry{layout: out, updatedAt: now}
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials count as disabled.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="calgrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/layout", s.handleLayout)
	s.mux.HandleFunc("GET /api/occurrences", s.handleOccurrences)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleLayout computes the layout of one view.
//
// GET /api/layout?view=month|week|day&date=YYYY-MM-DD
//   - view: default month
//   - date: anchor day, default today
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	view, err := layout.ParseViewMode(q.Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	anchor, err := s.parseDate(q.Get("date"), s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := layoutKey{view: view, day: anchor.Format(dateLayout)}
	now := s.now()

	s.layoutMu.RLock()
	entry, ok := s.layoutCache[key]
	gen := s.layoutGen
	s.layoutMu.RUnlock()
	if ok && now.Sub(entry.updatedAt) < layoutCacheTTL {
		writeJSON(w, http.StatusOK, entry.layout)
		return
	}

	events := s.registry.Events()
	out, err := s.layouters.Layout(view, events, anchor)
	if err != nil {
		s.writeEngineError(w, "api layout", err)
		return
	}

	appLog.Debug("api layout computed", "view", view, "date", key.day, "events", len(events), "slots", len(out.Slots), "overflows", len(out.Overflows))

	s.storeLayout(key, out, gen, now)

	writeJSON(w, http.StatusOK, out)
}

// occurrencesResponse is the JSON response shape for /api/occurrences.
type occurrencesResponse struct {
	RangeStart      time.Time     `json:"range_start"`
	RangeEnd        time.Time     `json:"range_end"`
	Occurrences     []model.Event `json:"occurrences"`
	TruncatedEvents []string      `json:"truncated_events,omitempty"`
}

// handleOccurrences returns every event occurring in [from, to], recurring
// series expanded.
//
// GET /api/occurrences?from=YYYY-MM-DD&to=YYYY-MM-DD
//   - from: default today
//   - to:   default from + horizon_days; the span may not exceed horizon_days
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := s.parseDate(q.Get("from"), s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := s.parseDate(q.Get("to"), from.AddDate(0, 0, s.cfg.HorizonDays))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to is before from")
		return
	}
	if timecalc.DaysBetween(from, to) > s.cfg.HorizonDays {
		writeError(w, http.StatusBadRequest, "range exceeds horizon_days")
		return
	}

	window := model.DateRange{Start: from, End: timecalc.EndOfDay(to)}
	res, err := recurrence.ExpandAll(s.registry.Events(), recurrence.Config{Window: window})
	if err != nil {
		s.writeEngineError(w, "api occurrences", err)
		return
	}

	occ := res.Events
	if occ == nil {
		occ = []model.Event{}
	}
	writeJSON(w, http.StatusOK, occurrencesResponse{
		RangeStart:      window.Start,
		RangeEnd:        window.End,
		Occurrences:     occ,
		TruncatedEvents: res.TruncatedEvents,
	})
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Events    []model.Event    `json:"events"`
	Resources []model.Resource `json:"resources"`
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, eventsResponse{
		Events:    s.registry.Events(),
		Resources: s.registry.Resources(),
	})
}

// writeEngineError maps engine failures: a rule the engine cannot expand is
// the data's fault (422), anything else is ours.
func (s *Server) writeEngineError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, recurrence.ErrUnsupportedFrequency) {
		appLog.Error(what+": unsupported recurrence", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	appLog.Error(what+" failed", err)
	writeError(w, http.StatusInternalServerError, "layout computation failed")
}

func (s *Server) today() time.Time {
	return timecalc.StartOfDay(s.now())
}

// parseDate reads a YYYY-MM-DD value in local time; empty yields def.
func (s *Server) parseDate(v string, def time.Time) (time.Time, error) {
	if v == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, errors.New("invalid date " + v + ": want YYYY-MM-DD")
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
