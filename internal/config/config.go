package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server and CLI configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
	Stores    StoresConfig    `yaml:"stores"`
	Markers   MarkersConfig   `yaml:"markers"`
	Retry     RetryConfig     `yaml:"retry"`
	Report    ReportConfig    `yaml:"report"`
	Chart     ChartConfig     `yaml:"chart"`
	API       APIConfig       `yaml:"api"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TransportConfig selects how the server is reached: "stdio" for MCP over
// stdin/stdout, "http" for the REST API plus streamable MCP.
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig locates one log database and its table.
type StoreConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

type StoresConfig struct {
	Security StoreConfig `yaml:"security"`
	Alarm    StoreConfig `yaml:"alarm"`
	Trend    StoreConfig `yaml:"trend"`
	Approval string      `yaml:"approval"`
}

type MarkersConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

type ReportConfig struct {
	Title       string `yaml:"title"`
	RowsPerPage int    `yaml:"rows_per_page"`
	Timezone    string `yaml:"timezone"`
}

type ChannelConfig struct {
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
}

type ChartConfig struct {
	Width    int             `yaml:"width"`
	Height   int             `yaml:"height"`
	Channels []ChannelConfig `yaml:"channels"`
}

type APIConfig struct {
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	Burst           int           `yaml:"burst"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	// CORSOrigins lists browser origins allowed to call the API. Empty
	// disables CORS handling.
	CORSOrigins []string `yaml:"cors_origins"`
}

// Transport modes.
const (
	ModeStdio = "stdio"
	ModeHTTP  = "http"
)

// Default marker substrings of the batch start and end events.
const (
	DefaultStartMarker = "M`0090`00 00 Data Changed 0 --> 1"
	DefaultEndMarker   = "M`0299`08 08 Data Changed 0 --> 1"
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Transport: TransportConfig{Mode: ModeStdio},
		Log:       LogConfig{Level: "info"},
		Stores: StoresConfig{
			Security: StoreConfig{Path: "seculog.db", Table: "TB_SECULOG"},
			Alarm:    StoreConfig{Path: "alarmlog.db", Table: "TB_ALARMLOG"},
			Trend:    StoreConfig{Path: "trendlog.db", Table: "TB_TRENDLOG"},
			Approval: "approval.db",
		},
		Markers: MarkersConfig{Start: DefaultStartMarker, End: DefaultEndMarker},
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 50 * time.Millisecond,
			MaxInterval:     time.Second,
		},
		Report: ReportConfig{Title: "Batch Report", RowsPerPage: 40, Timezone: "Local"},
		Chart: ChartConfig{
			Width:  960,
			Height: 400,
			Channels: []ChannelConfig{
				{Name: "Temperature", Unit: "°C"},
				{Name: "Pressure", Unit: "kPa"},
				{Name: "Concentration", Unit: "mg/L"},
			},
		},
		API: APIConfig{RateLimitPerSec: 10, Burst: 20, CacheTTL: 30 * time.Second},
	}
}

// Load reads configuration from the YAML file named by BATCHREPORT_CONFIG_PATH,
// if any, and environment variables.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("BATCHREPORT_CONFIG_PATH"))
}

// LoadFrom is Load with an explicit file path. An empty path skips the file.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Transport.Mode = strings.ToLower(strings.TrimSpace(cfg.Transport.Mode))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"BATCHREPORT_SERVER_HOST":    &cfg.Server.Host,
		"BATCHREPORT_TRANSPORT":      &cfg.Transport.Mode,
		"BATCHREPORT_LOG_LEVEL":      &cfg.Log.Level,
		"BATCHREPORT_SECURITY_DB":    &cfg.Stores.Security.Path,
		"BATCHREPORT_SECURITY_TABLE": &cfg.Stores.Security.Table,
		"BATCHREPORT_ALARM_DB":       &cfg.Stores.Alarm.Path,
		"BATCHREPORT_ALARM_TABLE":    &cfg.Stores.Alarm.Table,
		"BATCHREPORT_TREND_DB":       &cfg.Stores.Trend.Path,
		"BATCHREPORT_TREND_TABLE":    &cfg.Stores.Trend.Table,
		"BATCHREPORT_APPROVAL_DB":    &cfg.Stores.Approval,
		"BATCHREPORT_START_MARKER":   &cfg.Markers.Start,
		"BATCHREPORT_END_MARKER":     &cfg.Markers.End,
		"BATCHREPORT_REPORT_TITLE":   &cfg.Report.Title,
		"BATCHREPORT_TIMEZONE":       &cfg.Report.Timezone,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BATCHREPORT_SERVER_PORT":   &cfg.Server.Port,
		"BATCHREPORT_ROWS_PER_PAGE": &cfg.Report.RowsPerPage,
		"BATCHREPORT_RETRY_MAX":     &cfg.Retry.MaxAttempts,
		"BATCHREPORT_API_BURST":     &cfg.API.Burst,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("BATCHREPORT_API_RATE_LIMIT"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid BATCHREPORT_API_RATE_LIMIT: %w", err)
		}
		cfg.API.RateLimitPerSec = n
	}
	if v := os.Getenv("BATCHREPORT_API_CORS_ORIGINS"); v != "" {
		cfg.API.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.API.CORSOrigins = append(cfg.API.CORSOrigins, origin)
			}
		}
	}
	if v := os.Getenv("BATCHREPORT_API_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid BATCHREPORT_API_CACHE_TTL: %w", err)
		}
		cfg.API.CacheTTL = d
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a request.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Transport.Mode {
	case ModeStdio, ModeHTTP:
	default:
		errs = append(errs, fmt.Errorf("transport.mode %q must be %s or %s", c.Transport.Mode, ModeStdio, ModeHTTP))
	}
	if c.Report.RowsPerPage <= 0 {
		errs = append(errs, fmt.Errorf("report.rows_per_page must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Chart.Channels) != 3 {
		errs = append(errs, fmt.Errorf("chart.channels must list 3 channels, got %d", len(c.Chart.Channels)))
	}
	if strings.TrimSpace(c.Markers.Start) == "" || strings.TrimSpace(c.Markers.End) == "" {
		errs = append(errs, fmt.Errorf("markers.start and markers.end must be set"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1"))
	}
	for _, origin := range c.API.CORSOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("api.cors_origins entry %q needs an http or https scheme", origin))
		}
	}
	return errors.Join(errs...)
}

// Location resolves report.timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("report.timezone %q: %w", c.Report.Timezone, err)
	}
	return loc, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
