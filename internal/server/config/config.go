package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server settings. Values come from built-in
// defaults, then an optional YAML file (CONFIG_FILE), then environment
// variables; later sources win.
type Config struct {
	Port          string        `yaml:"port"`
	BaseURL       string        `yaml:"base_url"`
	DataFile      string        `yaml:"data_file"`
	UploadDir     string        `yaml:"upload_dir"`
	SiteName      string        `yaml:"site_name"`
	AdminPassword string        `yaml:"admin_password"`
	MaxFileSize   int64         `yaml:"max_file_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	SweepGrace    time.Duration `yaml:"sweep_grace"`
	ThumbMaxPx    int           `yaml:"thumb_max_px"`
	RateLimitRPS  float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int          `yaml:"rate_limit_burst"`
}

// Load builds the configuration. A missing or unreadable config file
// is fatal only when one was explicitly requested.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           "3000",
		BaseURL:        "http://localhost:3000",
		DataFile:       "./data/catalog.json",
		UploadDir:      "./uploads",
		SiteName:       "WINZAP",
		AdminPassword:  "winzap2024",
		MaxFileSize:    500 * 1024 * 1024, // 500MB
		FlushInterval:  5 * time.Minute,
		SweepInterval:  1 * time.Hour,
		SweepGrace:     30 * time.Minute,
		ThumbMaxPx:     512,
		RateLimitRPS:   10,
		RateLimitBurst: 20,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("admin password must not be empty")
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	slog.Info("config file loaded", "path", path)
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.BaseURL = getEnv("BASE_URL", c.BaseURL)
	c.DataFile = getEnv("DATA_FILE", c.DataFile)
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.SiteName = getEnv("SITE_NAME", c.SiteName)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	c.MaxFileSize = getEnvInt64("MAX_FILE_SIZE", c.MaxFileSize)
	c.FlushInterval = getEnvDuration("FLUSH_INTERVAL_MINUTES", c.FlushInterval, time.Minute)
	c.SweepInterval = getEnvDuration("SWEEP_INTERVAL_MINUTES", c.SweepInterval, time.Minute)
	c.SweepGrace = getEnvDuration("SWEEP_GRACE_MINUTES", c.SweepGrace, time.Minute)
	c.ThumbMaxPx = getEnvInt("THUMB_MAX_PX", c.ThumbMaxPx)
	c.RateLimitRPS = getEnvFloat64("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration, unit time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			return time.Duration(n * float64(unit))
		}
	}
	return fallback
}
