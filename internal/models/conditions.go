package models

// TideTrend is the direction of tide change at the query time.
type TideTrend string

const (
	TideRising  TideTrend = "RISING"
	TideFalling TideTrend = "FALLING"
)

// TideType marks a tide extreme as high or low water.
type TideType string

const (
	TideHigh TideType = "HIGH"
	TideLow  TideType = "LOW"
)

// Freshness classifies how trustworthy an estimate is, based on the distance
// between the query time and the last sample backing it.
type Freshness string

const (
	FreshnessFresh       Freshness = "fresh"
	FreshnessAging       Freshness = "aging"
	FreshnessStale       Freshness = "stale"
	FreshnessUnavailable Freshness = "unavailable"
)

// rank orders freshness classes from best to worst for merging.
func (f Freshness) rank() int {
	switch f {
	case FreshnessFresh:
		return 0
	case FreshnessAging:
		return 1
	case FreshnessStale:
		return 2
	default:
		return 3
	}
}

// WorseOf returns the worse of two freshness classes.
func WorseOf(a, b Freshness) Freshness {
	if a.rank() >= b.rank() {
		return a
	}
	return b
}

// KindStatus reports whether a kind could be computed for a snapshot.
type KindStatus string

const (
	StatusAvailable   KindStatus = "available"
	StatusUnavailable KindStatus = "unavailable"
)

// KindConditions is the per-kind slice of a snapshot. Value, Direction and
// Trend are nil when Status is unavailable; the service never substitutes a
// placeholder number for a kind it could not compute.
type KindConditions struct {
	Kind           Kind       `json:"kind"`
	StationID      string     `json:"stationId,omitempty"`
	Status         KindStatus `json:"status"`
	Reason         string     `json:"reason,omitempty"`
	Value          *float64   `json:"value,omitempty"`
	Direction      *float64   `json:"direction,omitempty"`
	Trend          *TideTrend `json:"trend,omitempty"`
	Extrapolated   bool       `json:"extrapolated,omitempty"`
	DataAgeSeconds *int64     `json:"dataAgeSeconds,omitempty"`
	Freshness      Freshness  `json:"freshness"`
}

// ConditionsSnapshot answers "what are conditions at time AsOf" for one
// location. Snapshots are recomputed per request and never cached.
type ConditionsSnapshot struct {
	ResponseType string                   `json:"responseType"`
	LocationID   string                   `json:"locationId"`
	LocationName string                   `json:"locationName,omitempty"`
	AsOf         int64                    `json:"asOf"`
	Kinds        map[Kind]*KindConditions `json:"kinds"`
	Freshness    Freshness                `json:"freshness"`
	Partial      bool                     `json:"partial"`
}

// TideEvent is one high or low water extreme.
type TideEvent struct {
	Timestamp int64    `json:"timestamp"`
	Height    float64  `json:"height"`
	Type      TideType `json:"type"`
}

// TideTable lists the extremes bracketing a query time: the most recent past
// extreme and the next upcoming ones.
type TideTable struct {
	ResponseType string      `json:"responseType"`
	LocationID   string      `json:"locationId"`
	AsOf         int64       `json:"asOf"`
	Previous     []TideEvent `json:"previous"`
	Next         []TideEvent `json:"next"`
}
