// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	OpenCage  OpenCageConfig  `yaml:"opencage" mapstructure:"opencage"`
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Cluster   ClusterConfig   `yaml:"cluster" mapstructure:"cluster"`
	Filter    FilterConfig    `yaml:"filter" mapstructure:"filter"`
	Scorer    ScorerConfig    `yaml:"scorer" mapstructure:"scorer"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// OpenCageConfig holds OpenCage geocoder settings.
type OpenCageConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Limit   int    `yaml:"limit" mapstructure:"limit"`
}

// NominatimConfig holds Nominatim geocoder settings.
type NominatimConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	Limit     int    `yaml:"limit" mapstructure:"limit"`
}

// ClusterConfig holds spatial clustering parameters.
type ClusterConfig struct {
	MaxDistKm float64 `yaml:"max_dist_km" mapstructure:"max_dist_km"`
	MinSize   int     `yaml:"min_size" mapstructure:"min_size"`
}

// FilterConfig holds candidate filtering parameters.
type FilterConfig struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// ScorerConfig holds the served relevance classifier endpoint. An empty URL
// disables scoring.
type ScorerConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// StoreConfig configures the story store backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// BatchConfig configures concurrent batch resolution.
type BatchConfig struct {
	MaxConcurrentStories int `yaml:"max_concurrent_stories" mapstructure:"max_concurrent_stories"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NEWSATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("opencage.base_url", "https://api.opencagedata.com/geocode/v1/json")
	v.SetDefault("opencage.limit", 10)
	v.SetDefault("nominatim.enabled", false)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "newsatlas-geolocate")
	v.SetDefault("nominatim.limit", 20)
	v.SetDefault("cluster.max_dist_km", 150)
	v.SetDefault("cluster.min_size", 1)
	v.SetDefault("filter.threshold", 0.1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "geolocate.db")
	v.SetDefault("batch.max_concurrent_stories", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks configuration invariants shared by all commands.
func (c *Config) Validate() error {
	var problems []string

	if c.Cluster.MaxDistKm <= 0 {
		problems = append(problems, "cluster.max_dist_km must be > 0")
	}
	if c.Cluster.MinSize < 1 {
		problems = append(problems, "cluster.min_size must be >= 1")
	}
	if c.Filter.Threshold < 0 || c.Filter.Threshold >= 1 {
		problems = append(problems, "filter.threshold must be in [0, 1)")
	}
	if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
		problems = append(problems, "store.driver must be postgres or sqlite")
	}
	if c.Batch.MaxConcurrentStories < 1 || c.Batch.MaxConcurrentStories > 50 {
		problems = append(problems, "batch.max_concurrent_stories must be between 1 and 50")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
