package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
	"github.com/shallweswim/backend-go/internal/cache"
	"github.com/shallweswim/backend-go/internal/config"
	"github.com/shallweswim/backend-go/internal/models"
)

// Scheduler periodically warms the time-series cache for every configured
// (station, kind) pair so request paths mostly hit fresh entries. Refresh
// periods follow the per-kind staleness thresholds.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cache     *cache.TimeSeriesCache
	pipeline  *config.PipelineConfig
	locations *config.Locations
}

func New(c *cache.TimeSeriesCache, pipeline *config.PipelineConfig, locations *config.Locations) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     c,
		pipeline:  pipeline,
		locations: locations,
	}
}

// Start schedules one warm job per kind and starts the scheduler in the
// background. The first run happens immediately so the cache is populated
// before the first request.
func (s *Scheduler) Start() error {
	for _, kind := range models.AllKinds() {
		stations := s.stationsFor(kind)
		if len(stations) == 0 {
			continue
		}

		interval := s.pipeline.Policy(kind).Staleness
		if interval <= 0 {
			interval = 15 * time.Minute
		}

		kind := kind
		_, err := s.scheduler.Every(interval).StartImmediately().Do(func() {
			s.warmKind(kind, stations)
		})
		if err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler. In-flight refreshes finish on their own timeout.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) warmKind(kind models.Kind, stations []string) {
	log.Debug().Str("kind", string(kind)).Int("stations", len(stations)).Msg("Warming series")

	var wg sync.WaitGroup
	for _, stationID := range stations {
		stationID := stationID
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.cache.Warm(context.Background(), stationID, kind); err != nil {
				log.Warn().Err(err).
					Str("station_id", stationID).
					Str("kind", string(kind)).
					Msg("Warm refresh failed")
			}
		}()
	}
	wg.Wait()
}

// stationsFor collects the distinct stations mapped to a kind across all
// locations.
func (s *Scheduler) stationsFor(kind models.Kind) []string {
	seen := make(map[string]bool)
	var stations []string
	for _, id := range s.locations.IDs() {
		loc, _ := s.locations.Get(id)
		if stationID, ok := loc.Stations[kind]; ok && !seen[stationID] {
			seen[stationID] = true
			stations = append(stations, stationID)
		}
	}
	return stations
}
