package models

import (
	"fmt"
	"sort"
	"time"
)

// Sample is a single observation or prediction from a station feed.
// Timestamps are unix milliseconds. Direction is only set for
// current_vector samples (degrees true, direction of flow).
type Sample struct {
	Timestamp int64    `json:"timestamp"`
	Value     float64  `json:"value"`
	Direction *float64 `json:"direction,omitempty"`
}

// Series is the normalized, time-ordered sample sequence for one
// (station, kind) pair. A Series is immutable once built; the cache
// replaces it wholesale on refresh and readers never mutate it.
type Series struct {
	StationID string   `json:"stationId"`
	Kind      Kind     `json:"kind"`
	Samples   []Sample `json:"samples"`
}

// Validate checks the series invariants: known kind, non-empty station,
// strictly increasing timestamps with no duplicates.
func (s *Series) Validate() error {
	if s.StationID == "" {
		return fmt.Errorf("series missing station id")
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("series for station %s: unknown kind %q", s.StationID, s.Kind)
	}
	for i := 1; i < len(s.Samples); i++ {
		prev, cur := s.Samples[i-1].Timestamp, s.Samples[i].Timestamp
		if cur == prev {
			return fmt.Errorf("series %s/%s: duplicate timestamp %d", s.StationID, s.Kind, cur)
		}
		if cur < prev {
			return fmt.Errorf("series %s/%s: timestamps out of order at index %d", s.StationID, s.Kind, i)
		}
	}
	return nil
}

// Span returns the first and last sample timestamps. ok is false for a
// series with no samples.
func (s *Series) Span() (start, end int64, ok bool) {
	if len(s.Samples) == 0 {
		return 0, 0, false
	}
	return s.Samples[0].Timestamp, s.Samples[len(s.Samples)-1].Timestamp, true
}

// Last returns the most recent sample, or nil for an empty series.
func (s *Series) Last() *Sample {
	if len(s.Samples) == 0 {
		return nil
	}
	return &s.Samples[len(s.Samples)-1]
}

// IndexAtOrAfter returns the index of the first sample with timestamp >= ts.
func (s *Series) IndexAtOrAfter(ts int64) int {
	return sort.Search(len(s.Samples), func(i int) bool {
		return s.Samples[i].Timestamp >= ts
	})
}

// TimeOf converts a sample timestamp back into a time.Time.
func TimeOf(ts int64) time.Time {
	return time.UnixMilli(ts).UTC()
}
