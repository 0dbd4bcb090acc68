package config

import (
	"fmt"
	"os"
	"time"

	"appointease/internal/slots"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int    `yaml:"port"`
		APIKey          string `yaml:"api_key"`
		RatePerMinute   int    `yaml:"rate_per_minute"`
		RateBurst       int    `yaml:"rate_burst"`
		ShutdownSeconds int    `yaml:"shutdown_seconds"`
	} `yaml:"server"`

	Schedule struct {
		Timezone        string `yaml:"timezone"`
		SeedDays        int    `yaml:"seed_days"`
		StartTime       string `yaml:"start_time"`
		EndTime         string `yaml:"end_time"`
		LunchStart      string `yaml:"lunch_start"`
		LunchEnd        string `yaml:"lunch_end"`
		IntervalMinutes int    `yaml:"interval_minutes"`
	} `yaml:"schedule"`

	Booking struct {
		CancelNoticeHours int `yaml:"cancel_notice_hours"`
	} `yaml:"booking"`

	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`

	Identity struct {
		DirectoryPath   string `yaml:"directory_path"`
		WatchSeconds    int    `yaml:"watch_seconds"`
		BaseURL         string `yaml:"base_url"`
		APIKey          string `yaml:"api_key"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"identity"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"journal"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
		GRPCHealthPort    int  `yaml:"grpc_health_port"`
	} `yaml:"monitoring"`
}

// Load reads the YAML config at path, expanding ${ENV_VAR} placeholders.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Schedule.SeedDays == 0 {
		cfg.Schedule.SeedDays = 14
	}
	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		cfg.Journal.Path = "data/appointease.db"
	}

	if _, err = cfg.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location returns the configured schedule timezone, defaulting to local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

func (c *Config) BusinessHours() slots.BusinessHours {
	hours := slots.DefaultBusinessHours
	if c.Schedule.StartTime != "" {
		hours.StartTime = c.Schedule.StartTime
	}
	if c.Schedule.EndTime != "" {
		hours.EndTime = c.Schedule.EndTime
	}
	hours.LunchStart = c.Schedule.LunchStart
	hours.LunchEnd = c.Schedule.LunchEnd
	return hours
}

func (c *Config) SlotInterval() int {
	if c.Schedule.IntervalMinutes <= 0 {
		return 30
	}
	return c.Schedule.IntervalMinutes
}

func (c *Config) CancelNotice() time.Duration {
	if c.Booking.CancelNoticeHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Booking.CancelNoticeHours) * time.Hour
}

func (c *Config) IdentityCacheTTL() time.Duration {
	if c.Identity.CacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Identity.CacheTTLSeconds) * time.Second
}

func (c *Config) IdentityWatchInterval() time.Duration {
	if c.Identity.WatchSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Identity.WatchSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ShutdownSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
