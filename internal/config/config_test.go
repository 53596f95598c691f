package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "landacq.db", cfg.Store.SQLitePath)
	assert.InDelta(t, 0.75, cfg.Classifier.UltraHighCompleteness, 0.0001)
	assert.InDelta(t, 0.5, cfg.Classifier.HighCompleteness, 0.0001)
	assert.False(t, cfg.Classifier.WeightedCompleteness)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.InDelta(t, 1.06, cfg.Pricing.RegistryPerParcel, 0.0001)
	assert.InDelta(t, 0.005, cfg.Pricing.GeocodePerAddress, 0.0001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LANDACQ_CLASSIFIER_HIGH_COMPLETENESS", "0.6")
	t.Setenv("LANDACQ_STORE_DRIVER", "postgres")
	t.Setenv("LANDACQ_PIPELINE_WORKERS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.6, cfg.Classifier.HighCompleteness, 0.0001)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"ultra high out of range", func(c *Config) { c.Classifier.UltraHighCompleteness = 1.5 }, true},
		{"high above ultra high", func(c *Config) {
			c.Classifier.HighCompleteness = 0.9
			c.Classifier.UltraHighCompleteness = 0.8
		}, true},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "oracle" }, true},
		{"postgres driver ok", func(c *Config) { c.Store.Driver = "postgres" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
