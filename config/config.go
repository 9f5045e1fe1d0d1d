package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPath is where the service looks for its config file.
const DefaultPath = "config/config.yaml"

// Config is the service configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Model     ModelConfig     `mapstructure:"model"`
	Cache     CacheConfig     `mapstructure:"cache"`
	History   HistoryConfig   `mapstructure:"history"`
	Export    ExportConfig    `mapstructure:"export"`
	Present   PresentConfig   `mapstructure:"present"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port        string        `mapstructure:"port"`
	MaxUploadMB int64         `mapstructure:"max_upload_mb"`
	ResultTTL   time.Duration `mapstructure:"result_ttl"`
}

type ModelConfig struct {
	URL             string        `mapstructure:"url"`
	CachePath       string        `mapstructure:"cache_path"`
	SHA256          string        `mapstructure:"sha256"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	MissingFeatures string        `mapstructure:"missing_features"`
}

type CacheConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ExportConfig struct {
	FileName      string `mapstructure:"file_name"`
	RiskDecimals  int32  `mapstructure:"risk_decimals"`
	ValueDecimals int32  `mapstructure:"value_decimals"`
}

type PresentConfig struct {
	HighlightThreshold float64 `mapstructure:"highlight_threshold"`
	DefaultTop         int     `mapstructure:"default_top"`
}

// NormalizeConfig adds header renames on top of the built-in ones. Renames
// are a list rather than a map because viper lower-cases map keys.
type NormalizeConfig struct {
	Renames []RenameRule `mapstructure:"renames"`
}

type RenameRule struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stockout-risk")
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.result_ttl", 30*time.Minute)

	v.SetDefault("model.url", "")
	v.SetDefault("model.cache_path", "artifacts/pipeline.json")
	v.SetDefault("model.sha256", "")
	v.SetDefault("model.fetch_timeout", 60*time.Second)
	v.SetDefault("model.missing_features", "fill")

	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key", "stockout:artifact")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "./stockout.db")

	v.SetDefault("export.file_name", "stockout_predictions.csv")
	v.SetDefault("export.risk_decimals", 3)
	v.SetDefault("export.value_decimals", 2)

	v.SetDefault("present.highlight_threshold", 0.7)
	v.SetDefault("present.default_top", 0)
}

// Load reads configPath (if it exists), then .env and STOCKOUT_* environment
// overrides, on top of built-in defaults.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env failed: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STOCKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config failed: %w", err)
			}
		} else if configPath != DefaultPath {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	return &cfg, nil
}

// LoadDefault loads DefaultPath; a missing file means defaults only.
func LoadDefault() (*Config, error) {
	return Load(DefaultPath)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if c.Model.URL == "" && c.Model.CachePath == "" && c.Cache.Backend == "file" {
		return fmt.Errorf("model.url or model.cache_path is required")
	}
	switch strings.ToLower(c.Model.MissingFeatures) {
	case "", "fill", "fail":
	default:
		return fmt.Errorf("model.missing_features must be fill or fail, got %q", c.Model.MissingFeatures)
	}
	switch c.Cache.Backend {
	case "file":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
		if c.Model.URL == "" {
			return fmt.Errorf("model.url is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be file or redis, got %q", c.Cache.Backend)
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	for i, r := range c.Normalize.Renames {
		if strings.TrimSpace(r.From) == "" || strings.TrimSpace(r.To) == "" {
			return fmt.Errorf("normalize.renames[%d] needs both from and to", i)
		}
	}
	if c.Export.RiskDecimals < 0 || c.Export.RiskDecimals > 6 {
		return fmt.Errorf("export.risk_decimals must be between 0 and 6")
	}
	if c.Export.ValueDecimals < 0 || c.Export.ValueDecimals > 6 {
		return fmt.Errorf("export.value_decimals must be between 0 and 6")
	}
	if c.Present.HighlightThreshold <= 0 || c.Present.HighlightThreshold > 1 {
		return fmt.Errorf("present.highlight_threshold must be in (0,1]")
	}
	return nil
}

// MaxUploadBytes is the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
