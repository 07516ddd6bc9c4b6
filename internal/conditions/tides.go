package conditions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shallweswim/backend-go/internal/models"
)

// ErrNoTideStation means the location has no tide height mapping.
var ErrNoTideStation = errors.New("location has no tide station")

// GetTideTable returns the most recent tide extreme before the query time
// and the next two after it. The tide series holds high/low extremes, so
// the table is read straight off the samples; an extreme's type comes from
// comparing it to its neighbors.
func (s *Service) GetTideTable(ctx context.Context, locationID string, at *time.Time) (*models.TideTable, error) {
	loc, ok := s.locations.Get(locationID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, locationID)
	}
	stationID, ok := loc.Stations[models.KindTideHeight]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoTideStation, locationID)
	}

	queryTime := s.now()
	if at != nil {
		queryTime = *at
	}
	ts := queryTime.UnixMilli()

	entry, err := s.cache.GetOrRefresh(ctx, stationID, models.KindTideHeight)
	if err != nil {
		return nil, fmt.Errorf("getting tide series: %w", err)
	}

	samples := entry.Series.Samples
	idx := entry.Series.IndexAtOrAfter(ts)

	table := &models.TideTable{
		ResponseType: "tides",
		LocationID:   loc.ID,
		AsOf:         ts,
	}
	if idx > 0 {
		table.Previous = append(table.Previous, tideEvent(samples, idx-1))
	}
	for i := idx; i < len(samples) && len(table.Next) < 2; i++ {
		table.Next = append(table.Next, tideEvent(samples, i))
	}

	return table, nil
}

func tideEvent(samples []models.Sample, idx int) models.TideEvent {
	return models.TideEvent{
		Timestamp: samples[idx].Timestamp,
		Height:    samples[idx].Value,
		Type:      extremeType(samples, idx),
	}
}

// extremeType classifies an extreme by its neighbors: higher than either
// neighbor means high water.
func extremeType(samples []models.Sample, idx int) models.TideType {
	if idx > 0 {
		if samples[idx].Value > samples[idx-1].Value {
			return models.TideHigh
		}
		return models.TideLow
	}
	if idx+1 < len(samples) && samples[idx].Value > samples[idx+1].Value {
		return models.TideHigh
	}
	return models.TideLow
}
