package conditions

import (
	"context"
	"time"

	"github.com/shallweswim/backend-go/internal/cache"
	"github.com/shallweswim/backend-go/internal/models"
)

// API is the surface the rendering/HTTP layer consumes.
type API interface {
	GetConditions(ctx context.Context, locationID string, at *time.Time) (*models.ConditionsSnapshot, error)
	GetTideTable(ctx context.Context, locationID string, at *time.Time) (*models.TideTable, error)
	Freshness(ctx context.Context) (*FreshnessReport, error)
}

// CacheProvider is the slice of the time-series cache the service needs.
type CacheProvider interface {
	GetOrRefresh(ctx context.Context, stationID string, kind models.Kind) (*cache.Entry, error)
	Peek(stationID string, kind models.Kind) (*cache.Entry, bool)
}
