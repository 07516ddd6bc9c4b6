package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shallweswim/backend-go/internal/models"
)

// Client fetches raw station samples for one (station, kind) pair. The
// returned series is normalized: strictly ordered by timestamp, duplicates
// removed. Implementations must return ErrNoData (possibly wrapped) when the
// feed responded but has nothing in the range, so callers can tell an empty
// answer apart from a transport failure.
type Client interface {
	Fetch(ctx context.Context, stationID string, kind models.Kind, start, end time.Time) (*models.Series, error)
}

// ErrNoData means the feed answered successfully but had no samples for the
// requested range. Distinct from a FeedError: the cache keeps serving a
// stale-but-present entry in both cases, but a key that has never been
// populated reports no-data rather than a fetch failure.
var ErrNoData = errors.New("no data for requested range")

// FeedError is a transport or parse failure talking to a station feed.
type FeedError struct {
	StationID string
	Kind      models.Kind
	Message   string
	Err       error
}

func (e *FeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feed error for %s/%s: %s: %v", e.StationID, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("feed error for %s/%s: %s", e.StationID, e.Kind, e.Message)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a FeedError for a station/kind pair.
func NewFeedError(stationID string, kind models.Kind, message string, err error) *FeedError {
	return &FeedError{
		StationID: stationID,
		Kind:      kind,
		Message:   message,
		Err:       err,
	}
}
