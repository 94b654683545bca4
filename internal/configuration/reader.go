package configuration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"pingwatch/internal/helper"
	"pingwatch/internal/incident"
	"pingwatch/internal/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ConfigReader struct {
	viper *viper.Viper
}

func NewConfigReader() *ConfigReader {
	v := viper.New()

	v.SetDefault("delay", DEFAULT_DELAY)
	v.SetDefault("user_agent", "")
	v.SetDefault("follow_redirects", true)
	v.SetDefault("skip_ssl", false)
	v.SetDefault("incident_log", INCIDENT_LOG_PATH)
	v.SetDefault("incident_format", string(incident.FormatText))
	v.SetDefault("recent_incidents", 5)
	v.SetDefault("database", "")
	v.SetDefault("webhook", "")
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.bind", "127.0.0.1")
	v.SetDefault("api.port", "8090")
	v.SetDefault("api.rate_per_minute", 120)
	v.SetDefault("api.burst", 20)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("log.compress", true)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &ConfigReader{viper: v}
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment. Variables
// that are already set win. A missing file is only an error when required.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if err != nil && !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ReadConfig reads the YAML file at filePath. A missing file is tolerated
// unless required, so targets can come from flags alone.
func (cr *ConfigReader) ReadConfig(filePath string, required bool) error {
	if filePath == "" {
		return nil
	}

	if _, err := os.Stat(filePath); errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}

	cr.viper.SetConfigFile(filePath)
	cr.viper.SetConfigType("yaml")

	if err := cr.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", filePath, err)
	}

	return nil
}

func (cr *ConfigReader) ParseConfig() (*Settings, error) {
	var fc FileConfig
	if err := cr.viper.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	settings := &Settings{
		Delay:           helper.ParseDuration(fc.Delay, DEFAULT_DELAY),
		UserAgent:       fc.UserAgent,
		FollowRedirects: fc.FollowRedirects,
		SkipSSL:         fc.SkipSSL,
		IncidentLog:     fc.IncidentLog,
		IncidentFormat:  incident.Format(strings.ToLower(fc.IncidentFormat)),
		RecentIncidents: fc.RecentIncidents,
		Database:        fc.Database,
		Webhook:         fc.Webhook,
		API:             fc.API,
		Log:             fc.Log,
	}

	for _, m := range fc.Monitor {
		settings.Targets = append(settings.Targets, ParseTarget(m))
	}

	return settings, nil
}

func ParseTarget(m MonitorConfig) models.Target {
	enabled := true
	if m.Enabled != nil {
		enabled = *m.Enabled
	}

	return models.Target{
		URL:     strings.TrimSpace(m.URL),
		Timeout: helper.ParseDuration(m.Timeout, DEFAULT_TIMEOUT),
		Enabled: enabled,
	}
}

// Load reads the env file and config file and parses the result.
func Load(configFile, envFile string, configRequired bool) (*Settings, error) {
	if err := LoadEnvFile(envFile, envFile != ENV_FILE); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	reader := NewConfigReader()
	if err := reader.ReadConfig(configFile, configRequired); err != nil {
		return nil, err
	}

	return reader.ParseConfig()
}
