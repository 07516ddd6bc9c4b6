package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shallweswim/backend-go/internal/models"
)

// KindPolicy bundles the per-kind tunables of the pipeline: how long cached
// data stays fresh, how far past the last sample an estimate may be
// extrapolated, how freshness is classified, and the window requested from
// the feed on each refresh.
type KindPolicy struct {
	// Staleness is the max age of a cache entry before a refresh is attempted.
	Staleness time.Duration

	// Horizon is the max distance beyond the series span for which the engine
	// still produces an (extrapolated) estimate.
	Horizon time.Duration

	// FreshFor / AgingFor / StaleFor classify the distance between the query
	// time and the last usable sample. Beyond StaleFor the kind is reported
	// unavailable.
	FreshFor time.Duration
	AgingFor time.Duration
	StaleFor time.Duration

	// Lookback / Lookahead define the fetch window around now on refresh.
	Lookback  time.Duration
	Lookahead time.Duration
}

// PipelineConfig holds cache and engine tunables. Values are read once at
// startup and treated as immutable for the process lifetime.
type PipelineConfig struct {
	LRUSize        int
	RefreshTimeout time.Duration
	Kinds          map[models.Kind]KindPolicy
}

const (
	defaultLRUSize               = 256
	defaultRefreshTimeoutSeconds = 30
)

// GetPipelineConfig returns pipeline tunables from environment variables or
// defaults. Tide and current staleness is short since conditions queries are
// near-real-time; temperature series cover days and refresh on a longer cycle.
func GetPipelineConfig() *PipelineConfig {
	cfg := &PipelineConfig{
		LRUSize:        getEnvInt("PIPELINE_LRU_SIZE", defaultLRUSize),
		RefreshTimeout: durationEnvInt("PIPELINE_REFRESH_TIMEOUT_SECONDS", defaultRefreshTimeoutSeconds, time.Second),
		Kinds: map[models.Kind]KindPolicy{
			models.KindTideHeight: {
				Staleness: durationEnvInt("TIDE_STALENESS_MINUTES", 15, time.Minute),
				Horizon:   durationEnvInt("TIDE_HORIZON_MINUTES", 6*60, time.Minute),
				FreshFor:  time.Hour,
				AgingFor:  3 * time.Hour,
				StaleFor:  6 * time.Hour,
				Lookback:  24 * time.Hour,
				Lookahead: 48 * time.Hour,
			},
			models.KindCurrentVector: {
				Staleness: durationEnvInt("CURRENT_STALENESS_MINUTES", 15, time.Minute),
				Horizon:   durationEnvInt("CURRENT_HORIZON_MINUTES", 6*60, time.Minute),
				FreshFor:  time.Hour,
				AgingFor:  3 * time.Hour,
				StaleFor:  6 * time.Hour,
				Lookback:  24 * time.Hour,
				Lookahead: 48 * time.Hour,
			},
			models.KindWaterTemperature: {
				Staleness: durationEnvInt("TEMP_STALENESS_MINUTES", 2*60, time.Minute),
				Horizon:   durationEnvInt("TEMP_HORIZON_MINUTES", 3*60, time.Minute),
				FreshFor:  30 * time.Minute,
				AgingFor:  time.Hour,
				StaleFor:  3 * time.Hour,
				Lookback:  8 * 24 * time.Hour,
				Lookahead: 0,
			},
		},
	}

	log.Debug().
		Int("LRUSize", cfg.LRUSize).
		Dur("RefreshTimeout", cfg.RefreshTimeout).
		Dur("TideStaleness", cfg.Kinds[models.KindTideHeight].Staleness).
		Dur("CurrentStaleness", cfg.Kinds[models.KindCurrentVector].Staleness).
		Dur("TempStaleness", cfg.Kinds[models.KindWaterTemperature].Staleness).
		Msg("Pipeline configuration loaded")

	return cfg
}

// Policy returns the policy for a kind, falling back to the tide policy for
// unknown kinds so a misconfigured caller degrades rather than panics.
func (c *PipelineConfig) Policy(kind models.Kind) KindPolicy {
	if p, ok := c.Kinds[kind]; ok {
		return p
	}
	return c.Kinds[models.KindTideHeight]
}

func durationEnvInt(key string, defaultVal int, unit time.Duration) time.Duration {
	return time.Duration(getEnvInt(key, defaultVal)) * unit
}
