package utils

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PostgresConfig describes the connection to the token control-plane database.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Config is the full service configuration, loaded once at startup.
type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
		Level      string `yaml:"level"`
	} `yaml:"logger"`

	Cache struct {
		RedisHost         string `yaml:"redis_host"`
		SceneCacheDB      int    `yaml:"scene_cache_db"`
		RateLimitDB       int    `yaml:"rate_limit_db"`
		SceneCacheEnabled bool   `yaml:"scene_cache_enabled"`
		SceneCacheTTLSecs int    `yaml:"scene_cache_ttl_secs"`
		// Derived from SceneCacheTTLSecs by LoadConfig.
		SceneCacheTTL time.Duration `yaml:"-"`
	} `yaml:"cache"`

	Limits struct {
		MaxUploadBytes int `yaml:"max_upload_bytes"`
		MaxSceneBytes  int `yaml:"max_scene_bytes"`
	} `yaml:"limits"`

	Viewer struct {
		DefaultPointSize    int    `yaml:"default_point_size"`
		ChromePath          string `yaml:"chrome_path"`
		ChromeNoSandbox     bool   `yaml:"chrome_no_sandbox"`
		SnapshotTimeoutSecs int    `yaml:"snapshot_timeout_secs"`
	} `yaml:"viewer"`

	RateLimiter struct {
		IntervalSecs      int  `yaml:"interval_secs"`
		UserLimit         int  `yaml:"user_limit"`
		EnableUserLimiter bool `yaml:"enable_user_limiter"`
		// Derived from IntervalSecs by LoadConfig.
		Interval time.Duration `yaml:"-"`
	} `yaml:"rate_limiter"`

	Auth struct {
		Postgres PostgresConfig `yaml:"postgres"`
	} `yaml:"auth"`
}

// AppConfig holds the active configuration. Tests mutate it directly.
var AppConfig Config

const defaultConfigFile = "config.yaml"

func defaultConfig() Config {
	var cfg Config
	cfg.Server.Host = ""
	cfg.Server.Port = ":8080"
	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 50
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 28
	cfg.Cache.SceneCacheTTLSecs = int((24 * time.Hour).Seconds())
	cfg.Limits.MaxUploadBytes = 64 << 20
	cfg.Limits.MaxSceneBytes = 128 << 20
	cfg.Viewer.DefaultPointSize = 5
	cfg.Viewer.SnapshotTimeoutSecs = 30
	cfg.RateLimiter.IntervalSecs = 60
	return cfg
}

// LoadConfig reads config.yaml (path overridable via SPLATVIEW_CONFIG) on top
// of built-in defaults and stores the result in AppConfig. A missing file is
// not an error; the defaults stand.
func LoadConfig() Config {
	cfg := defaultConfig()

	path := os.Getenv("SPLATVIEW_CONFIG")
	if path == "" {
		path = defaultConfigFile
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			Error("Failed to parse config file, using defaults", "path", path, "error", err)
			cfg = defaultConfig()
		}
	} else if !os.IsNotExist(err) {
		Error("Failed to read config file, using defaults", "path", path, "error", err)
	}

	cfg.Cache.SceneCacheTTL = time.Duration(cfg.Cache.SceneCacheTTLSecs) * time.Second
	cfg.RateLimiter.Interval = time.Duration(cfg.RateLimiter.IntervalSecs) * time.Second

	AppConfig = cfg
	return cfg
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	return AppConfig
}
