package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/shallweswim/backend-go/internal/config"
	"github.com/shallweswim/backend-go/internal/feed"
	"github.com/shallweswim/backend-go/internal/models"
	"golang.org/x/sync/singleflight"
)

// Entry is the cached state for one (station, kind) key. Entries are
// replaced wholesale on refresh and never partially mutated, so a reader
// holding an Entry sees a consistent series.
type Entry struct {
	Series          *models.Series
	FetchedAt       time.Time
	SourceStationID string

	// Failures counts consecutive refresh failures since the last successful
	// fetch. Freshness classification escalates on repeated failures.
	Failures int
}

// Key identifies one cached series.
type Key struct {
	StationID string
	Kind      models.Kind
}

func (k Key) String() string {
	return k.StationID + ":" + string(k.Kind)
}

// TimeSeriesCache holds the most recently fetched series per (station, kind)
// and guarantees at most one refresh fetch in flight per key.
//
// Policy (stale-while-revalidate): a fresh entry is returned directly; a
// stale entry is returned immediately while a single background refresh
// runs; only a key that has never been populated blocks the caller on the
// refresh, and concurrent callers join the same in-flight fetch.
type TimeSeriesCache struct {
	feed    feed.Client
	cfg     *config.PipelineConfig
	entries *lru.Cache[string, *Entry]
	flight  singleflight.Group

	// refreshing marks keys with a background refresh in progress so stale
	// reads do not keep spawning goroutines for the same key.
	refreshing sync.Map

	// now is a clock hook for tests.
	now func() time.Time

	hits            atomic.Uint64
	misses          atomic.Uint64
	refreshes       atomic.Uint64
	refreshFailures atomic.Uint64
}

func New(feedClient feed.Client, cfg *config.PipelineConfig) (*TimeSeriesCache, error) {
	entries, err := lru.New[string, *Entry](cfg.LRUSize)
	if err != nil {
		return nil, fmt.Errorf("creating entry cache: %w", err)
	}
	return &TimeSeriesCache{
		feed:    feedClient,
		cfg:     cfg,
		entries: entries,
		now:     time.Now,
	}, nil
}

// GetOrRefresh returns the cached entry for a key, refreshing per the
// stale-while-revalidate policy. The fast path takes no lock across any
// network call; the LRU's own locking covers only map access.
func (c *TimeSeriesCache) GetOrRefresh(ctx context.Context, stationID string, kind models.Kind) (*Entry, error) {
	key := Key{StationID: stationID, Kind: kind}

	if entry, ok := c.entries.Get(key.String()); ok {
		if c.now().Sub(entry.FetchedAt) < c.cfg.Policy(kind).Staleness {
			c.hits.Add(1)
			return entry, nil
		}
		// Serve stale immediately; at most one refresh proceeds in the
		// background, extra callers join it and discard the result.
		c.refreshAsync(key)
		return entry, nil
	}
	c.misses.Add(1)

	// Never populated: block on the (single) refresh.
	v, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
		return c.refresh(key)
	})
	if err != nil {
		// A concurrent refresh may have populated the key between our lookup
		// and joining the flight; prefer serving that over failing.
		if entry, ok := c.entries.Get(key.String()); ok {
			return entry, nil
		}
		return nil, err
	}
	return v.(*Entry), nil
}

// Peek returns the current entry without triggering any refresh. Used by the
// freshness report.
func (c *TimeSeriesCache) Peek(stationID string, kind models.Kind) (*Entry, bool) {
	return c.entries.Get(Key{StationID: stationID, Kind: kind}.String())
}

// Warm refreshes a key if it is absent or stale, blocking until done. Used
// by the background scheduler so request paths find warm entries.
func (c *TimeSeriesCache) Warm(ctx context.Context, stationID string, kind models.Kind) error {
	key := Key{StationID: stationID, Kind: kind}
	if entry, ok := c.entries.Get(key.String()); ok {
		if c.now().Sub(entry.FetchedAt) < c.cfg.Policy(kind).Staleness {
			return nil
		}
	}
	_, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
		return c.refresh(key)
	})
	return err
}

func (c *TimeSeriesCache) refreshAsync(key Key) {
	if _, inFlight := c.refreshing.LoadOrStore(key.String(), true); inFlight {
		return
	}
	go func() {
		defer c.refreshing.Delete(key.String())
		_, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
			return c.refresh(key)
		})
		if err != nil {
			log.Warn().Err(err).
				Str("station_id", key.StationID).
				Str("kind", string(key.Kind)).
				Msg("Background refresh failed, serving stale data")
		}
	}()
}

// refresh performs one fetch for a key. On failure the previous entry (if
// any) keeps its series and FetchedAt, with the failure count bumped, so
// freshness classification can escalate without the data disappearing.
func (c *TimeSeriesCache) refresh(key Key) (*Entry, error) {
	c.refreshes.Add(1)

	policy := c.cfg.Policy(key.Kind)
	now := c.now()

	// The refresh owns its own timeout: it may outlive the request that
	// triggered it.
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RefreshTimeout)
	defer cancel()

	series, err := c.feed.Fetch(ctx, key.StationID, key.Kind, now.Add(-policy.Lookback), now.Add(policy.Lookahead))
	if err != nil {
		c.refreshFailures.Add(1)
		if prev, ok := c.entries.Get(key.String()); ok {
			bumped := &Entry{
				Series:          prev.Series,
				FetchedAt:       prev.FetchedAt,
				SourceStationID: prev.SourceStationID,
				Failures:        prev.Failures + 1,
			}
			c.entries.Add(key.String(), bumped)
			return bumped, err
		}
		if errors.Is(err, feed.ErrNoData) {
			return nil, fmt.Errorf("station %s has no %s data: %w", key.StationID, key.Kind, err)
		}
		return nil, fmt.Errorf("refreshing %s/%s: %w", key.StationID, key.Kind, err)
	}

	entry := &Entry{
		Series:          series,
		FetchedAt:       now,
		SourceStationID: key.StationID,
	}
	c.entries.Add(key.String(), entry)

	log.Debug().
		Str("station_id", key.StationID).
		Str("kind", string(key.Kind)).
		Int("samples", len(series.Samples)).
		Msg("Refreshed series")

	return entry, nil
}

// Stats returns refresh and hit/miss counters.
func (c *TimeSeriesCache) Stats() map[string]uint64 {
	return map[string]uint64{
		"hits":             c.hits.Load(),
		"misses":           c.misses.Load(),
		"refreshes":        c.refreshes.Load(),
		"refresh_failures": c.refreshFailures.Load(),
	}
}
