package configuration

import (
	"fmt"
	"net/url"
	"time"

	"pingwatch/internal/incident"
	"pingwatch/internal/models"
)

const (
	CONFIG_PATH       = "pingwatch.yml"
	ENV_FILE          = ".env"
	ENV_PREFIX        = "PINGWATCH"
	INCIDENT_LOG_PATH = "timeout.txt"
	DEFAULT_TIMEOUT   = "60s"
	DEFAULT_DELAY     = "5s"
)

type AppConfig struct {
	ConfigFile string
	EnvFile    string
}

var Config AppConfig

type MonitorConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
	Enabled *bool  `mapstructure:"enabled" yaml:"enabled,omitempty"`
}

type APIConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Bind          string `mapstructure:"bind"`
	Port          string `mapstructure:"port"`
	RatePerMinute int    `mapstructure:"rate_per_minute"`
	Burst         int    `mapstructure:"burst"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// FileConfig mirrors the YAML document.
type FileConfig struct {
	Monitor         []MonitorConfig `mapstructure:"monitor"`
	Delay           string          `mapstructure:"delay"`
	UserAgent       string          `mapstructure:"user_agent"`
	FollowRedirects bool            `mapstructure:"follow_redirects"`
	SkipSSL         bool            `mapstructure:"skip_ssl"`
	IncidentLog     string          `mapstructure:"incident_log"`
	IncidentFormat  string          `mapstructure:"incident_format"`
	RecentIncidents int             `mapstructure:"recent_incidents"`
	Database        string          `mapstructure:"database"`
	Webhook         string          `mapstructure:"webhook"`
	API             APIConfig       `mapstructure:"api"`
	Log             LogConfig       `mapstructure:"log"`
}

// Settings is the parsed, ready to use configuration of a monitoring run.
type Settings struct {
	Targets         []models.Target
	Delay           time.Duration
	UserAgent       string
	FollowRedirects bool
	SkipSSL         bool
	IncidentLog     string
	IncidentFormat  incident.Format
	RecentIncidents int
	Database        string
	Webhook         string
	API             APIConfig
	Log             LogConfig
}

func (s *Settings) EnabledTargets() []models.Target {
	var enabled []models.Target
	for _, t := range s.Targets {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	return enabled
}

func (s *Settings) Validate() error {
	if len(s.EnabledTargets()) == 0 {
		return fmt.Errorf("no enabled targets configured")
	}

	for _, t := range s.Targets {
		u, err := url.ParseRequestURI(t.URL)
		if err != nil {
			return fmt.Errorf("invalid url %q: %w", t.URL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid url %q: scheme must be http or https", t.URL)
		}
		if u.Host == "" {
			return fmt.Errorf("invalid url %q: missing host", t.URL)
		}
		if t.Timeout <= 0 {
			return fmt.Errorf("invalid timeout for %s: must be positive", t.URL)
		}
	}

	if s.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	if !s.IncidentFormat.Valid() {
		return fmt.Errorf("unsupported incident format %q", s.IncidentFormat)
	}
	if s.IncidentLog == "" {
		return fmt.Errorf("incident log path is empty")
	}
	if s.RecentIncidents <= 0 {
		return fmt.Errorf("recent_incidents must be positive")
	}

	return nil
}

func (a APIConfig) Address() string {
	return fmt.Sprintf("%s:%s", a.Bind, a.Port)
}
