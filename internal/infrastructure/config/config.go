package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings for the HTTP API and its external
// dependencies.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	DB       DBConfig       `yaml:"db"`
	Auth     AuthConfig     `yaml:"auth"`
	Market   MarketConfig   `yaml:"market"`
	Notifier NotifierConfig `yaml:"notifier"`
	Scan     ScanConfig     `yaml:"scan"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type AuthConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl"`
	Secret   string        `yaml:"secret"`
}

type MarketConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type NotifierConfig struct {
	OneSignal OneSignalConfig `yaml:"onesignal"`
}

type OneSignalConfig struct {
	Enabled bool   `yaml:"enabled"`
	AppID   string `yaml:"app_id"`
	APIKey  string `yaml:"api_key"`
}

type ScanConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Interval       time.Duration `yaml:"interval"`
	Timezone       string        `yaml:"timezone"`
	HeartbeatHours []int         `yaml:"heartbeat_hours"`
	AdminEmail     string        `yaml:"admin_email"`
}

// LoadFromFile loads settings from a YAML file, then layers env overrides.
func LoadFromFile(path string) (Config, error) {
	// Pick up a .env file when present.
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev-secret-change-me"
	}
	if cfg.Market.BaseURL == "" {
		cfg.Market.BaseURL = "https://brapi.dev/api"
	}
	if cfg.Market.Timeout == 0 {
		cfg.Market.Timeout = 10 * time.Second
	}
	if cfg.Scan.Interval == 0 {
		cfg.Scan.Interval = 15 * time.Minute
	}
	if cfg.Scan.Timezone == "" {
		cfg.Scan.Timezone = "America/Sao_Paulo"
	}
	if len(cfg.Scan.HeartbeatHours) == 0 {
		cfg.Scan.HeartbeatHours = []int{11, 16}
	}
	if cfg.Scan.AdminEmail == "" {
		cfg.Scan.AdminEmail = "engenhariadahumanidade@gmail.com"
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("DATABASE_URL"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("AUTH_SECRET"); val != "" {
		cfg.Auth.Secret = val
	}
	if val := os.Getenv("BRAPI_BASE_URL"); val != "" {
		cfg.Market.BaseURL = val
	}
	if val := os.Getenv("BRAPI_TOKEN"); val != "" {
		cfg.Market.Token = val
	}
	if val := os.Getenv("ONESIGNAL_APP_ID"); val != "" {
		cfg.Notifier.OneSignal.AppID = val
	}
	if val := os.Getenv("ONESIGNAL_API_KEY"); val != "" {
		cfg.Notifier.OneSignal.APIKey = val
	}
	if val := os.Getenv("ONESIGNAL_ENABLED"); val != "" {
		cfg.Notifier.OneSignal.Enabled = (val == "true")
	}
	if val := os.Getenv("SCAN_ENABLED"); val != "" {
		cfg.Scan.Enabled = (val == "true")
	}
	if val := os.Getenv("SCAN_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Scan.Interval = d
		}
	}
	if val := os.Getenv("SCAN_TIMEZONE"); val != "" {
		cfg.Scan.Timezone = val
	}
	if val := os.Getenv("SCAN_HEARTBEAT_HOURS"); val != "" {
		var hours []int
		for _, part := range strings.Split(val, ",") {
			if h, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				hours = append(hours, h)
			}
		}
		if len(hours) > 0 {
			cfg.Scan.HeartbeatHours = hours
		}
	}
	if val := os.Getenv("ADMIN_EMAIL"); val != "" {
		cfg.Scan.AdminEmail = val
	}
	return cfg
}
