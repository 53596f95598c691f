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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Registry   RegistryConfig   `yaml:"registry" mapstructure:"registry"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the campaign persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// RegistryConfig configures the cadastral registry API client.
type RegistryConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// GeocodeConfig configures the geocoding provider client.
type GeocodeConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey       string  `yaml:"api_key" mapstructure:"api_key"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLDays int     `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
}

// ClassifierConfig holds the confidence classifier thresholds. The
// completeness cutoffs are deliberately configuration, not constants, so
// the business owner can retune them without a code change.
type ClassifierConfig struct {
	UltraHighCompleteness float64 `yaml:"ultra_high_completeness" mapstructure:"ultra_high_completeness"`
	HighCompleteness      float64 `yaml:"high_completeness" mapstructure:"high_completeness"`
	WeightedCompleteness  bool    `yaml:"weighted_completeness" mapstructure:"weighted_completeness"`
}

// PipelineConfig configures campaign orchestration.
type PipelineConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ReportConfig configures the campaign workbook writer.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// PricingConfig holds per-provider API pricing (EUR per call).
type PricingConfig struct {
	RegistryPerParcel  float64 `yaml:"registry_per_parcel" mapstructure:"registry_per_parcel"`
	GeocodePerAddress  float64 `yaml:"geocode_per_address" mapstructure:"geocode_per_address"`
	StartingBalanceEUR float64 `yaml:"starting_balance_eur" mapstructure:"starting_balance_eur"`
}

// ServerConfig configures the status API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LANDACQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "landacq.db")
	v.SetDefault("registry.rate_limit", 5)
	v.SetDefault("registry.timeout_secs", 30)
	v.SetDefault("registry.max_retries", 3)
	v.SetDefault("geocode.rate_limit", 10)
	v.SetDefault("geocode.timeout_secs", 20)
	v.SetDefault("geocode.cache_ttl_days", 30)
	v.SetDefault("classifier.ultra_high_completeness", 0.75)
	v.SetDefault("classifier.high_completeness", 0.5)
	v.SetDefault("classifier.weighted_completeness", false)
	v.SetDefault("pipeline.workers", 8)
	v.SetDefault("report.output_dir", ".")
	v.SetDefault("pricing.registry_per_parcel", 1.06)
	v.SetDefault("pricing.geocode_per_address", 0.005)
	v.SetDefault("server.port", 8080)
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

// Validate checks that thresholds and drivers are sane before a run starts.
func (c *Config) Validate() error {
	if c.Classifier.UltraHighCompleteness < 0 || c.Classifier.UltraHighCompleteness > 1 {
		return eris.Errorf("config: ultra_high_completeness must be in [0,1] (got %v)", c.Classifier.UltraHighCompleteness)
	}
	if c.Classifier.HighCompleteness < 0 || c.Classifier.HighCompleteness > 1 {
		return eris.Errorf("config: high_completeness must be in [0,1] (got %v)", c.Classifier.HighCompleteness)
	}
	if c.Classifier.HighCompleteness > c.Classifier.UltraHighCompleteness {
		return eris.New("config: high_completeness must not exceed ultra_high_completeness")
	}
	if c.Pipeline.Workers < 1 {
		return eris.Errorf("config: pipeline.workers must be >= 1 (got %d)", c.Pipeline.Workers)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
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
