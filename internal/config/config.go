package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"calgrid/internal/ics"
	"calgrid/internal/model"
	"calgrid/internal/timecalc"
)

const (
	defaultListen      = "127.0.0.1:8080"
	defaultWeekStart   = "monday"
	defaultRefreshCron = "*/15 * * * *"
	defaultLogLevel    = "info"
	defaultHorizonDays = 42
	defaultCacheDir    = "./var/ics-cache"
)

var (
	ErrEmptyPath = errors.New("config: path is empty")
	ErrNilConfig = errors.New("config: config is nil")
	ErrInvalid   = errors.New("config: invalid")
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID names the source; it becomes the SourceID of its events.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label, also used as the resource title.
	Name string `yaml:"name" json:"name"`
	// Color is applied to events of this source that carry none.
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address of the API.
	Listen string `yaml:"listen" json:"listen"`

	// WeekStart is the first column of week rows, "monday" .. "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a standard 5-field cron spec for re-fetching ICS feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is "debug", "info" or "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// EventsFile optionally points at a YAML list of local events.
	EventsFile string `yaml:"events_file,omitempty" json:"events_file,omitempty"`

	// CacheDir holds the ICS disk cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// HorizonDays bounds /api/occurrences queries.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// Grid is the cell geometry layouts are computed for.
	Grid model.Grid `yaml:"grid" json:"grid"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultGrid is a 7-column month grid with room for four event rows per cell.
func DefaultGrid() model.Grid {
	return model.Grid{
		CellWidth:    120,
		CellHeight:   110,
		HeaderHeight: 22,
		RowHeight:    20,
		RowGap:       2,
		HourHeight:   48,
		AllDayHeight: 66,
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		WeekStart:   defaultWeekStart,
		RefreshCron: defaultRefreshCron,
		LogLevel:    defaultLogLevel,
		CacheDir:    defaultCacheDir,
		HorizonDays: defaultHorizonDays,
		Grid:        DefaultGrid(),
		ICS:         []ICSConfig{},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly. It does not reject bad values;
// see Validate.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.WeekStart == "" {
		c.WeekStart = defaultWeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}

	def := DefaultGrid()
	if c.Grid.CellWidth <= 0 {
		c.Grid.CellWidth = def.CellWidth
	}
	if c.Grid.CellHeight <= 0 {
		c.Grid.CellHeight = def.CellHeight
	}
	if c.Grid.RowHeight <= 0 {
		c.Grid.RowHeight = def.RowHeight
	}
	if c.Grid.HourHeight <= 0 {
		c.Grid.HourHeight = def.HourHeight
	}
	if c.Grid.HeaderHeight < 0 {
		c.Grid.HeaderHeight = 0
	}
	if c.Grid.RowGap < 0 {
		c.Grid.RowGap = 0
	}
	if c.Grid.AllDayHeight < 0 {
		c.Grid.AllDayHeight = 0
	}

	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			c.ICS[i].ID = fmt.Sprintf("ics-%d", i+1)
		}
		if c.ICS[i].Name == "" {
			c.ICS[i].Name = c.ICS[i].ID
		}
	}
}

// Validate reports every value Normalize cannot repair.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := timecalc.ParseWeekday(c.WeekStart); !ok {
		errs = append(errs, fmt.Errorf("week_start %q: unknown weekday", c.WeekStart))
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("refresh %q: %w", c.RefreshCron, err))
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q: want debug, info or error", c.LogLevel))
	}

	seen := make(map[string]bool, len(c.ICS))
	for _, src := range c.ICS {
		if src.URL == "" {
			errs = append(errs, fmt.Errorf("ics %s: url is empty", src.ID))
		}
		if seen[src.ID] {
			errs = append(errs, fmt.Errorf("ics %s: duplicate id", src.ID))
		}
		seen[src.ID] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Weekday is WeekStart parsed; invalid values fall back to Monday.
func (c *Config) Weekday() time.Weekday {
	if wd, ok := timecalc.ParseWeekday(c.WeekStart); ok {
		return wd
	}
	return time.Monday
}

// Sources converts the ICS list into fetcher sources.
func (c *Config) Sources() []ics.Source {
	out := make([]ics.Source, 0, len(c.ICS))
	for _, s := range c.ICS {
		out = append(out, ics.Source{ID: s.ID, Name: s.Name, URL: s.URL, Color: s.Color})
	}
	return out
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating the parent directory) and returned.
//   - Otherwise the YAML is read, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path atomically (temp file in the same directory, then
// rename) with 0600 permissions, creating the parent directory (0700).
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}
	if cfg == nil {
		return ErrNilConfig
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return writeAtomic(dir, path, data)
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".calgrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
