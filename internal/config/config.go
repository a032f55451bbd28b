package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files, environment variables and flags.
type Config struct {
	AppName              string        `mapstructure:"app_name"`
	Env                  string        `mapstructure:"app_env"`
	LogLevel             string        `mapstructure:"log_level"`
	HTTPSOnly            bool          `mapstructure:"https_only"`
	TargetsFile          string        `mapstructure:"targets_file"`
	ReportersFile        string        `mapstructure:"reporters_file"`
	FetchIntervalSeconds int64         `mapstructure:"fetch_interval"`
	FetchInterval        time.Duration `mapstructure:"-"`
	// URLs are ad-hoc targets given on the command line.
	URLs []string `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"https-only": "https_only",
	"targets":    "targets_file",
	"reporters":  "reporters_file",
	"interval":   "fetch_interval",
	"log-level":  "log_level",
	"storage":    "storage_type",
	"db":         "bbolt_path",
}

// RegisterFlags declares the CLI flags Load understands.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Bool("https-only", true, "only allow https targets and redirects")
	fs.String("targets", "", "targets file (YAML or JSON)")
	fs.String("reporters", "", "reporters file (YAML or JSON); empty disables reporting")
	fs.Int64("interval", 0, "seconds between fetch passes; 0 runs a single pass")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("storage", "", "history storage type: bbolt or none")
	fs.String("db", "", "bbolt history database path")
}

// Load reads configuration from defaults, configs/.env, environment variables
// and any flags in fs that were set explicitly. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "portal-fetch")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("https_only", true)
	v.SetDefault("targets_file", "./configs/targets.yaml")
	v.SetDefault("reporters_file", "")
	v.SetDefault("fetch_interval", 0) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/history.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))
	cfg.TargetsFile = strings.TrimSpace(cfg.TargetsFile)
	cfg.ReportersFile = strings.TrimSpace(cfg.ReportersFile)

	if cfg.FetchIntervalSeconds < 0 {
		return nil, fmt.Errorf("invalid fetch_interval (must be zero or positive seconds)")
	}
	cfg.FetchInterval = time.Duration(cfg.FetchIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
