package conditions

import (
	"context"

	"github.com/shallweswim/backend-go/internal/models"
)

// SeriesFreshness reports the two ages that matter for one cached series:
// how long ago it was fetched, and how far the query time is from its most
// recent sample.
type SeriesFreshness struct {
	StationID string `json:"stationId"`

	FetchTime       *int64 `json:"fetchTime,omitempty"`
	FetchAgeSeconds *int64 `json:"fetchAgeSeconds,omitempty"`

	LatestValueTime       *int64 `json:"latestValueTime,omitempty"`
	LatestValueAgeSeconds *int64 `json:"latestValueAgeSeconds,omitempty"`

	Failures int `json:"failures,omitempty"`
}

// FreshnessReport summarizes cache state per (location, kind) without
// triggering any refresh.
type FreshnessReport struct {
	ResponseType string                                      `json:"responseType"`
	AsOf         int64                                       `json:"asOf"`
	Locations    map[string]map[models.Kind]*SeriesFreshness `json:"locations"`
}

func (s *Service) Freshness(ctx context.Context) (*FreshnessReport, error) {
	now := s.now()
	report := &FreshnessReport{
		ResponseType: "freshness",
		AsOf:         now.UnixMilli(),
		Locations:    make(map[string]map[models.Kind]*SeriesFreshness),
	}

	for _, id := range s.locations.IDs() {
		loc, _ := s.locations.Get(id)
		perKind := make(map[models.Kind]*SeriesFreshness, len(loc.Stations))
		for kind, stationID := range loc.Stations {
			sf := &SeriesFreshness{StationID: stationID}
			if entry, ok := s.cache.Peek(stationID, kind); ok {
				fetchTime := entry.FetchedAt.UnixMilli()
				fetchAge := int64(now.Sub(entry.FetchedAt).Seconds())
				sf.FetchTime = &fetchTime
				sf.FetchAgeSeconds = &fetchAge
				sf.Failures = entry.Failures
				if last := entry.Series.Last(); last != nil {
					latest := last.Timestamp
					latestAge := int64(now.Sub(models.TimeOf(latest)).Seconds())
					sf.LatestValueTime = &latest
					sf.LatestValueAgeSeconds = &latestAge
				}
			}
			perKind[kind] = sf
		}
		report.Locations[id] = perKind
	}

	return report, nil
}
