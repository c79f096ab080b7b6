package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes a single upstream schedule source: which fetcher
// kind to run, where it points, and where its raw artifact lands.
type SourceConfig struct {
	// Name is the source identifier used for adapter dispatch and logging.
	Name string `yaml:"name" json:"name"`

	// Kind selects the fetcher implementation:
	// "momence", "marianatek", "httpjson", "browser" or "icalfeed".
	Kind string `yaml:"kind" json:"kind"`

	// Enabled sources are fetched; disabled ones are reported as skipped.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Timeout bounds the whole fetch for this source.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// OutputFile is the artifact filename (relative to the raw directory)
	// the fetcher writes its payload to.
	OutputFile string `yaml:"output_file" json:"output_file"`

	// URL is the endpoint for httpjson/browser/icalfeed sources, or the
	// API base for marianatek.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// HostID selects the provider tenant for momence sources.
	HostID int `yaml:"host_id,omitempty" json:"host_id,omitempty"`

	// PageSize controls pagination for paginated APIs.
	PageSize int `yaml:"page_size,omitempty" json:"page_size,omitempty"`
}

// FilterConfig holds the classification rule lists. Patterns are regular
// expressions matched case-insensitively against event names.
type FilterConfig struct {
	// AlwaysIncludeVenues are venues whose events always pass the filter.
	AlwaysIncludeVenues []string `yaml:"always_include_venues" json:"always_include_venues"`

	// OverridePatterns force inclusion even when an exclude pattern matches.
	OverridePatterns []string `yaml:"override_patterns" json:"override_patterns"`

	// ExcludePatterns mark routine high-frequency sessions.
	ExcludePatterns []string `yaml:"exclude_patterns" json:"exclude_patterns"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the status API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone the day window is anchored in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DaysAhead is the default scrape window in days.
	DaysAhead int `yaml:"days_ahead" json:"days_ahead"`

	// OutputDir is where combined artifacts are written.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// RawDir is where per-source raw artifacts are written.
	RawDir string `yaml:"raw_dir" json:"raw_dir"`

	// RefreshCron is a cron expression for scheduled runs. Empty disables
	// the scheduler; the process then runs once and exits.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Workers bounds concurrent source fetches.
	Workers int `yaml:"workers" json:"workers"`

	// Sequential forces one-at-a-time fetching.
	Sequential bool `yaml:"sequential" json:"sequential"`

	// ApplyFilter runs the routine-session classifier on the deduplicated
	// events before writing the artifact.
	ApplyFilter bool `yaml:"apply_filter" json:"apply_filter"`

	Sources []SourceConfig `yaml:"sources" json:"sources"`
	Filter  FilterConfig   `yaml:"filter" json:"filter"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// status API endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultSources returns the built-in source roster. Every name here has a
// matching adapter in internal/normalize.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:       "arc_marianatek",
			Kind:       "marianatek",
			Enabled:    true,
			Timeout:    60 * time.Second,
			OutputFile: "arc_classes.json",
			URL:        "https://arc.marianatek.com",
			PageSize:   500,
		},
		{
			Name:       "community_sauna_legitfit",
			Kind:       "httpjson",
			Enabled:    true,
			Timeout:    120 * time.Second,
			OutputFile: "community_sauna.json",
			URL:        "https://api.legitfit.com/v2/community-sauna-baths/timetable",
		},
		{
			Name:       "rebase_mindbody",
			Kind:       "httpjson",
			Enabled:    true,
			Timeout:    90 * time.Second,
			OutputFile: "rebase_classes.json",
			URL:        "https://widgets.mindbodyonline.com/widgets/schedules/rebase-recovery/instances",
		},
		{
			Name:       "momence_schedule",
			Kind:       "momence",
			Enabled:    true,
			Timeout:    60 * time.Second,
			OutputFile: "sauna_plunge.json",
			HostID:     99521,
			PageSize:   200,
		},
		{
			Name:       "andsoul_momence",
			Kind:       "momence",
			Enabled:    true,
			Timeout:    60 * time.Second,
			OutputFile: "andsoul_events.json",
			HostID:     47026,
			PageSize:   200,
		},
		{
			Name:       "urban_heat_momence",
			Kind:       "momence",
			Enabled:    true,
			Timeout:    60 * time.Second,
			OutputFile: "urban_heat_events.json",
			HostID:     58214,
			PageSize:   200,
		},
		{
			Name:       "wellnest_eventbrite",
			Kind:       "httpjson",
			Enabled:    true,
			Timeout:    60 * time.Second,
			OutputFile: "wellnest_events.json",
			URL:        "https://www.eventbrite.co.uk/org/wellnest-london/events.json",
		},
		{
			Name:       "sauna_social_club",
			Kind:       "browser",
			Enabled:    true,
			Timeout:    60 * time.Second,
			OutputFile: "sauna_social_club_events.json",
			URL:        "https://www.saunasocialclub.com/events",
		},
		{
			// Needs a full browser session and sometimes manual steps
			// upstream, so it ships disabled.
			Name:       "rooftop_saunas",
			Kind:       "browser",
			Enabled:    false,
			Timeout:    120 * time.Second,
			OutputFile: "rooftop_saunas_discovered.json",
			URL:        "https://www.rooftopsaunas.com/",
		},
		{
			Name:       "swesauna",
			Kind:       "icalfeed",
			Enabled:    true,
			Timeout:    90 * time.Second,
			OutputFile: "swesauna_events.json",
			URL:        "https://www.swesauna.co.uk/events/feed.ics",
		},
	}
}

// DefaultFilter returns the built-in classification rules.
func DefaultFilter() FilterConfig {
	return FilterConfig{
		AlwaysIncludeVenues: []string{
			"Sauna Social Club",
			"Sauna & Plunge",
			"Urban Heat Wellness",
			"SweSauna",
		},
		OverridePatterns: []string{
			`workshop`,
			`special`,
			`birthday`,
			`ritual`,
			`ceremony`,
			`aufguss`,
			`banya`,
			`halloween`,
			`nye`,
			`new\s*year`,
			`galentine`,
			`valentine`,
			`solstice`,
			`equinox`,
			`full\s*moon`,
			`sound\s*bath`,
			`sound\s*healing`,
			`rewind\s*&\s*revive`,
			`arc\s*after\s*dark`,
			`arc\s*birthday`,
			`mythic\s*sauna`,
			`sparkling\s*sauna`,
			`lange\s*saunanacht`,
			`rekindling`,
			`transient\s*radio`,
		},
		ExcludePatterns: []string{
			// Arc Community standard sessions.
			`free\s*flow\s*\d+`,
			// Rebase Recovery standard classes.
			`member.?s.?suite`,
			`contrast.?immersion`,
			`urban.?oasis`,
			`prana.?flow`,
			`ladies.?only`,
			`mat.?pilates`,
			`dynamic.?flow`,
			`morning.?fix`,
			// Community Sauna hourly bookings.
			`off[-\s]*peak\s*\d*h?\s*sauna`,
			`peak\s*\d+min\s*sauna`,
			`peak\s*\d+h\s*sauna`,
			`nhs\s*free\s*sauna`,
			`peak\s*time\s*\d*h?\s*sauna`,
			`\d+h?\s*sauna\s*session`,
			`members?\s*slot`,
			// WellNest recurring session; exact match so specials survive.
			`^breathwork,\s*saunas?\s*&\s*ice\s*baths?$`,
		},
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Europe/London",
		DaysAhead:   7,
		OutputDir:   "data/scraped",
		RawDir:      "data/scraped/raw",
		RefreshCron: "",
		Workers:     4,
		Sources:     DefaultSources(),
		Filter:      DefaultFilter(),
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/London"
	}
	if c.DaysAhead <= 0 {
		c.DaysAhead = 7
	}
	if c.OutputDir == "" {
		c.OutputDir = "data/scraped"
	}
	if c.RawDir == "" {
		c.RawDir = filepath.Join(c.OutputDir, "raw")
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Sources == nil {
		c.Sources = DefaultSources()
	}
	for i := range c.Sources {
		if c.Sources[i].Timeout <= 0 {
			c.Sources[i].Timeout = 60 * time.Second
		}
		if c.Sources[i].OutputFile == "" {
			c.Sources[i].OutputFile = c.Sources[i].Name + ".json"
		}
	}
	if c.Filter.AlwaysIncludeVenues == nil && c.Filter.OverridePatterns == nil && c.Filter.ExcludePatterns == nil {
		c.Filter = DefaultFilter()
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600) and
// returned, so a first run leaves an editable file behind.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename, 0600).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
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

	tmp, err := os.CreateTemp(dir, ".saunawatch-config-*.tmp")
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
