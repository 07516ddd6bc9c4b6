package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shallweswim/backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "https://api.tidesandcurrents.noaa.gov", cfg.NOAABaseURL)
}

func TestNewWithOptions(t *testing.T) {
	cfg := New(
		WithEnvironment("development"),
		WithLogLevel("debug"),
		WithListenAddr(":9090"),
		WithHTTPTimeout(5*time.Second),
	)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestWithLogLevelInvalidFallsBack(t *testing.T) {
	cfg := New(WithLogLevel("shouting"))
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "local")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LISTEN_ADDR", ":3000")
	t.Setenv("HTTP_TIMEOUT", "3s")

	cfg := LoadFromEnv()
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
}

func TestGetPipelineConfigDefaults(t *testing.T) {
	cfg := GetPipelineConfig()

	assert.Equal(t, defaultLRUSize, cfg.LRUSize)
	require.Len(t, cfg.Kinds, 3)

	tide := cfg.Policy(models.KindTideHeight)
	assert.Equal(t, 15*time.Minute, tide.Staleness)
	assert.Equal(t, 6*time.Hour, tide.Horizon)

	temp := cfg.Policy(models.KindWaterTemperature)
	assert.Equal(t, 2*time.Hour, temp.Staleness)
	assert.Greater(t, temp.Lookback, 24*time.Hour)
}

func TestGetPipelineConfigEnvOverrides(t *testing.T) {
	t.Setenv("TIDE_STALENESS_MINUTES", "5")
	t.Setenv("TEMP_HORIZON_MINUTES", "90")
	t.Setenv("PIPELINE_LRU_SIZE", "32")

	cfg := GetPipelineConfig()
	assert.Equal(t, 5*time.Minute, cfg.Policy(models.KindTideHeight).Staleness)
	assert.Equal(t, 90*time.Minute, cfg.Policy(models.KindWaterTemperature).Horizon)
	assert.Equal(t, 32, cfg.LRUSize)
}

func TestPolicyUnknownKindFallsBack(t *testing.T) {
	cfg := GetPipelineConfig()
	fallback := cfg.Policy(models.Kind("wave_height"))
	assert.Equal(t, cfg.Policy(models.KindTideHeight), fallback)
}
