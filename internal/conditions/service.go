package conditions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shallweswim/backend-go/internal/config"
	"github.com/shallweswim/backend-go/internal/engine"
	"github.com/shallweswim/backend-go/internal/feed"
	"github.com/shallweswim/backend-go/internal/models"
)

// Service assembles per-location condition snapshots from the cache and the
// engine. A kind that cannot be computed is flagged unavailable with a
// reason; the service never substitutes a placeholder value, and one bad
// series never fails the whole snapshot.
type Service struct {
	cache     CacheProvider
	engine    *engine.Engine
	locations *config.Locations

	// now is a clock hook for tests.
	now func() time.Time
}

func NewService(cacheProvider CacheProvider, eng *engine.Engine, locations *config.Locations) *Service {
	return &Service{
		cache:     cacheProvider,
		engine:    eng,
		locations: locations,
		now:       time.Now,
	}
}

var ErrUnknownLocation = errors.New("unknown location")

func (s *Service) GetConditions(ctx context.Context, locationID string, at *time.Time) (*models.ConditionsSnapshot, error) {
	loc, ok := s.locations.Get(locationID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, locationID)
	}

	queryTime := s.now()
	if at != nil {
		queryTime = *at
	}

	snapshot := &models.ConditionsSnapshot{
		ResponseType: "conditions",
		LocationID:   loc.ID,
		LocationName: loc.Name,
		AsOf:         queryTime.UnixMilli(),
		Kinds:        make(map[models.Kind]*models.KindConditions, len(loc.Stations)),
	}

	// Independent stations refresh independently; compute the kinds in
	// parallel so one slow feed does not serialize the rest.
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for kind, stationID := range loc.Stations {
		wg.Add(1)
		go func(kind models.Kind, stationID string) {
			defer wg.Done()
			kc := s.computeKind(ctx, stationID, kind, queryTime)
			mu.Lock()
			snapshot.Kinds[kind] = kc
			mu.Unlock()
		}(kind, stationID)
	}
	wg.Wait()

	overall := models.FreshnessUnavailable
	first := true
	for _, kc := range snapshot.Kinds {
		if kc.Status != models.StatusAvailable {
			snapshot.Partial = true
			continue
		}
		if first {
			overall = kc.Freshness
			first = false
		} else {
			overall = models.WorseOf(overall, kc.Freshness)
		}
	}
	snapshot.Freshness = overall

	return snapshot, nil
}

// computeKind produces the per-kind slice of a snapshot, degrading to an
// unavailable marker on any data problem.
func (s *Service) computeKind(ctx context.Context, stationID string, kind models.Kind, queryTime time.Time) *models.KindConditions {
	kc := &models.KindConditions{
		Kind:      kind,
		StationID: stationID,
		Status:    models.StatusUnavailable,
		Freshness: models.FreshnessUnavailable,
	}

	entry, err := s.cache.GetOrRefresh(ctx, stationID, kind)
	if err != nil {
		if errors.Is(err, feed.ErrNoData) {
			kc.Reason = "station has no data for the requested range"
		} else {
			kc.Reason = "station feed unavailable"
		}
		log.Warn().Err(err).
			Str("station_id", stationID).
			Str("kind", string(kind)).
			Msg("Series unavailable for snapshot")
		return kc
	}

	est, err := s.engine.Estimate(entry.Series, queryTime)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInsufficientData):
			kc.Reason = "insufficient data to interpolate"
		case errors.Is(err, engine.ErrHorizonExceeded):
			kc.Reason = "no estimate available this far from last sample"
		default:
			kc.Reason = "estimate failed"
		}
		return kc
	}

	freshness := s.engine.Classify(kind, queryTime, est.LastSample)
	if freshness == models.FreshnessUnavailable {
		kc.Reason = "data too old to trust"
		return kc
	}

	age := queryTime.Sub(models.TimeOf(est.LastSample))
	ageSeconds := int64(age.Seconds())

	value := est.Value
	kc.Status = models.StatusAvailable
	kc.Reason = ""
	kc.Value = &value
	kc.Direction = est.Direction
	kc.Trend = est.Trend
	kc.Extrapolated = est.Extrapolated
	kc.DataAgeSeconds = &ageSeconds
	kc.Freshness = freshness
	return kc
}
