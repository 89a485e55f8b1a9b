package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWorldTimeBaseURL  = "https://worldtimeapi.org/api"
	DefaultTimezoneDBBaseURL = "http://api.timezonedb.com/v2.1"
	DefaultUserAgent         = "worldtime-app/1.0"
	DefaultServiceName       = "worldtime"

	CalendarLocal = "local"
	CalendarUTC   = "utc"
)

// WorldTimeConfig points at the worldtimeapi.org compatible service.
type WorldTimeConfig struct {
	BaseURL string `toml:"base_url" yaml:"base_url"`
}

// TimezoneDBConfig points at the TimeZoneDB compatible service.
type TimezoneDBConfig struct {
	BaseURL string `toml:"base_url" yaml:"base_url"`
	APIKey  string `toml:"api_key" yaml:"api_key"`
}

// HTTPConfig configures the optional streamable HTTP transport.
type HTTPConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Host      string `toml:"host" yaml:"host"`
	Port      int    `toml:"port" yaml:"port"`
	APIKey    string `toml:"api_key" yaml:"api_key"`
	Stateless bool   `toml:"stateless" yaml:"stateless"`
}

// TelemetryConfig enables OTLP trace export when OTLPEndpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string `toml:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name" yaml:"service_name"`
}

// Config is everything the server needs at construction time.
type Config struct {
	WorldTime      WorldTimeConfig  `toml:"worldtime" yaml:"worldtime"`
	TimezoneDB     TimezoneDBConfig `toml:"timezonedb" yaml:"timezonedb"`
	UserAgent      string           `toml:"user_agent" yaml:"user_agent"`
	RequestTimeout time.Duration    `toml:"request_timeout" yaml:"request_timeout"`
	// RangeCalendar selects the zone whose calendar picks the day of a localized
	// range: "local", "utc" or an IANA zone name.
	RangeCalendar string          `toml:"range_calendar" yaml:"range_calendar"`
	HTTP          HTTPConfig      `toml:"http" yaml:"http"`
	Telemetry     TelemetryConfig `toml:"telemetry" yaml:"telemetry"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		WorldTime:     WorldTimeConfig{BaseURL: DefaultWorldTimeBaseURL},
		TimezoneDB:    TimezoneDBConfig{BaseURL: DefaultTimezoneDBBaseURL},
		UserAgent:     DefaultUserAgent,
		RangeCalendar: CalendarLocal,
		HTTP: HTTPConfig{
			Host: "127.0.0.1",
			Port: 3000,
		},
		Telemetry: TelemetryConfig{ServiceName: DefaultServiceName},
	}
}

// Load builds a Config from the defaults, the optional file at path and the
// environment, in that order. TOML is assumed unless the file ends in .yaml or .yml.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, c); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("TIMEZONE_DB_API_KEY"); key != "" {
		c.TimezoneDB.APIKey = key
	}
	if base := os.Getenv("WORLDTIME_API_BASE"); base != "" {
		c.WorldTime.BaseURL = base
	}
	if base := os.Getenv("TIMEZONEDB_API_BASE"); base != "" {
		c.TimezoneDB.BaseURL = base
	}
	if ua := os.Getenv("WORLDTIME_USER_AGENT"); ua != "" {
		c.UserAgent = ua
	}
	if cal := os.Getenv("WORLDTIME_RANGE_CALENDAR"); cal != "" {
		c.RangeCalendar = cal
	}
	if key := os.Getenv("WORLDTIME_HTTP_API_KEY"); key != "" {
		c.HTTP.APIKey = key
	}
	if endpoint := os.Getenv("WORLDTIME_OTLP_ENDPOINT"); endpoint != "" {
		c.Telemetry.OTLPEndpoint = endpoint
	}
}

// Validate reports configuration that cannot work. A missing TimeZoneDB key is not
// an error here; upstream rejects those requests.
func (c *Config) Validate() error {
	var errs []error

	for name, raw := range map[string]string{
		"worldtime.base_url":  c.WorldTime.BaseURL,
		"timezonedb.base_url": c.TimezoneDB.BaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s: invalid URL %q", name, raw))
		}
	}

	if _, err := c.Calendar(); err != nil {
		errs = append(errs, err)
	}

	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout: must not be negative"))
	}

	if c.HTTP.Enabled && (c.HTTP.Port <= 0 || c.HTTP.Port > 65535) {
		errs = append(errs, fmt.Errorf("http.port: %d out of range", c.HTTP.Port))
	}

	return errors.Join(errs...)
}

// Calendar resolves RangeCalendar to a location.
func (c *Config) Calendar() (*time.Location, error) {
	switch strings.ToLower(strings.TrimSpace(c.RangeCalendar)) {
	case "", CalendarLocal:
		return time.Local, nil
	case CalendarUTC:
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.RangeCalendar)
	if err != nil {
		return nil, fmt.Errorf("range_calendar: unknown zone %q", c.RangeCalendar)
	}
	return loc, nil
}

// HTTPAddr is the listen address of the HTTP transport.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
