package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shallweswim/backend-go/internal/config"
	"github.com/shallweswim/backend-go/internal/models"
)

// ErrInsufficientData means the series has fewer than two samples and cannot
// be interpolated.
var ErrInsufficientData = errors.New("insufficient data to interpolate")

// ErrHorizonExceeded means the query time is farther from the series span
// than the configured extrapolation horizon. The engine refuses to guess
// rather than extrapolate indefinitely.
var ErrHorizonExceeded = errors.New("query time beyond extrapolation horizon")

// Estimate is the engine's answer for one series at one query time.
type Estimate struct {
	Value        float64
	Direction    *float64
	Trend        *models.TideTrend
	Extrapolated bool

	// LastSample is the timestamp of the series' most recent sample, used for
	// freshness classification.
	LastSample int64
}

// Engine computes interpolated or extrapolated values from cached series.
// It never mutates a series.
type Engine struct {
	cfg *config.PipelineConfig
}

func New(cfg *config.PipelineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Estimate evaluates a series at the query time. Inside the series span the
// per-kind interpolator applies; outside it, linear extrapolation from the
// boundary slope, but only within the configured horizon for the kind.
func (e *Engine) Estimate(series *models.Series, at time.Time) (*Estimate, error) {
	if series == nil || len(series.Samples) < 2 {
		return nil, ErrInsufficientData
	}

	ts := at.UnixMilli()
	start, end, _ := series.Span()
	horizon := e.cfg.Policy(series.Kind).Horizon.Milliseconds()

	var distance int64
	switch {
	case ts < start:
		distance = start - ts
	case ts > end:
		distance = ts - end
	}
	if distance > horizon {
		return nil, fmt.Errorf("%s/%s at %s: %w", series.StationID, series.Kind,
			at.UTC().Format(time.RFC3339), ErrHorizonExceeded)
	}

	interp := interpolatorFor(series.Kind)
	value, slope := interp(series.Samples, ts)

	est := &Estimate{
		Value:        value,
		Extrapolated: distance > 0,
		LastSample:   series.Samples[len(series.Samples)-1].Timestamp,
	}

	if series.Kind == models.KindTideHeight {
		trend := models.TideRising
		if slope < 0 {
			trend = models.TideFalling
		}
		est.Trend = &trend
	}

	if series.Kind == models.KindCurrentVector {
		est.Direction = interpolateDirection(series.Samples, ts)
	}

	return est, nil
}

// Classify maps the distance between the query time and the last usable
// sample onto a freshness class. Samples in the future (predictions) count
// as fresh.
func (e *Engine) Classify(kind models.Kind, at time.Time, lastSample int64) models.Freshness {
	policy := e.cfg.Policy(kind)
	age := at.Sub(models.TimeOf(lastSample))
	switch {
	case age <= policy.FreshFor:
		return models.FreshnessFresh
	case age <= policy.AgingFor:
		return models.FreshnessAging
	case age <= policy.StaleFor:
		return models.FreshnessStale
	default:
		return models.FreshnessUnavailable
	}
}
