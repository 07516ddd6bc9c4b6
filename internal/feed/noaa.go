package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shallweswim/backend-go/internal/models"
	"github.com/shallweswim/backend-go/pkg/noaa/client"
)

// NOAAClient fetches station series from the NOAA Tides and Currents API
// (https://api.tidesandcurrents.noaa.gov/api/prod/). One product per kind:
// hilo tide predictions, current predictions, and water temperature readings.
type NOAAClient struct {
	httpClient client.Interface
}

func NewNOAAClient(httpClient client.Interface) *NOAAClient {
	return &NOAAClient{httpClient: httpClient}
}

// noaaTimeFormat is the timestamp format NOAA uses in responses.
const noaaTimeFormat = "2006-01-02 15:04"

type noaaTimeValue struct {
	Time  string `json:"t"`
	Value string `json:"v"`
}

type noaaError struct {
	Message string `json:"message"`
}

type noaaPredictionsResponse struct {
	Predictions []noaaTimeValue `json:"predictions"`
	Error       *noaaError      `json:"error"`
}

type noaaDataResponse struct {
	Data  []noaaTimeValue `json:"data"`
	Error *noaaError      `json:"error"`
}

type noaaCurrentPrediction struct {
	Time          string  `json:"Time"`
	VelocityMajor float64 `json:"Velocity_Major"`
	Direction     float64 `json:"Direction"`
}

type noaaCurrentsResponse struct {
	CurrentPredictions struct {
		CP []noaaCurrentPrediction `json:"cp"`
	} `json:"current_predictions"`
	Error *noaaError `json:"error"`
}

func (c *NOAAClient) Fetch(ctx context.Context, stationID string, kind models.Kind, start, end time.Time) (*models.Series, error) {
	path := buildRequestPath(stationID, kind, start, end)

	log.Debug().
		Str("station_id", stationID).
		Str("kind", string(kind)).
		Time("start", start).
		Time("end", end).
		Msg("Fetching series from NOAA")

	resp, err := c.httpClient.Get(ctx, path)
	if err != nil {
		return nil, NewFeedError(stationID, kind, "fetching", err)
	}

	var samples []models.Sample
	switch kind {
	case models.KindTideHeight:
		samples, err = parsePredictions(resp.Body)
	case models.KindWaterTemperature:
		samples, err = parseData(resp.Body)
	case models.KindCurrentVector:
		samples, err = parseCurrents(resp.Body)
	default:
		return nil, NewFeedError(stationID, kind, "unsupported kind", nil)
	}
	if err != nil {
		return nil, wrapParseErr(stationID, kind, err)
	}

	series := &models.Series{
		StationID: stationID,
		Kind:      kind,
		Samples:   normalize(samples),
	}
	if len(series.Samples) == 0 {
		return nil, fmt.Errorf("station %s kind %s: %w", stationID, kind, ErrNoData)
	}
	if err := series.Validate(); err != nil {
		return nil, NewFeedError(stationID, kind, "invalid series", err)
	}
	return series, nil
}

// buildRequestPath assembles the datagetter query for one kind. Timestamps
// are requested and parsed in GMT so series are comparable across stations.
func buildRequestPath(stationID string, kind models.Kind, start, end time.Time) string {
	params := url.Values{}
	params.Set("application", "shallweswim")
	params.Set("station", stationID)
	params.Set("begin_date", start.UTC().Format("20060102 15:04"))
	params.Set("end_date", end.UTC().Format("20060102 15:04"))
	params.Set("time_zone", "gmt")
	params.Set("units", "english")
	params.Set("format", "json")

	switch kind {
	case models.KindTideHeight:
		params.Set("product", "predictions")
		params.Set("datum", "MLLW")
		params.Set("interval", "hilo")
	case models.KindCurrentVector:
		params.Set("product", "currents_predictions")
	case models.KindWaterTemperature:
		params.Set("product", "water_temperature")
	}

	return "/api/prod/datagetter?" + params.Encode()
}

func parsePredictions(body []byte) ([]models.Sample, error) {
	var resp noaaPredictionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding predictions: %w", err)
	}
	if resp.Error != nil {
		return nil, apiError(resp.Error)
	}
	return timeValueSamples(resp.Predictions)
}

func parseData(body []byte) ([]models.Sample, error) {
	var resp noaaDataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding data: %w", err)
	}
	if resp.Error != nil {
		return nil, apiError(resp.Error)
	}
	return timeValueSamples(resp.Data)
}

func parseCurrents(body []byte) ([]models.Sample, error) {
	var resp noaaCurrentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding current predictions: %w", err)
	}
	if resp.Error != nil {
		return nil, apiError(resp.Error)
	}

	samples := make([]models.Sample, 0, len(resp.CurrentPredictions.CP))
	for _, cp := range resp.CurrentPredictions.CP {
		ts, err := parseNoaaTime(cp.Time)
		if err != nil {
			return nil, err
		}
		direction := cp.Direction
		samples = append(samples, models.Sample{
			Timestamp: ts,
			Value:     cp.VelocityMajor,
			Direction: &direction,
		})
	}
	return samples, nil
}

func timeValueSamples(entries []noaaTimeValue) ([]models.Sample, error) {
	samples := make([]models.Sample, 0, len(entries))
	for _, e := range entries {
		ts, err := parseNoaaTime(e.Time)
		if err != nil {
			return nil, err
		}
		value, err := strconv.ParseFloat(e.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing value %q: %w", e.Value, err)
		}
		samples = append(samples, models.Sample{Timestamp: ts, Value: value})
	}
	return samples, nil
}

func parseNoaaTime(timeStr string) (int64, error) {
	t, err := time.ParseInLocation(noaaTimeFormat, timeStr, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parsing time %q: %w", timeStr, err)
	}
	return t.UnixMilli(), nil
}

// apiError maps a NOAA error payload to the right error family. NOAA reports
// an empty range as an error with a "No data was found" message, which for
// the cache is a valid-but-empty answer, not a transport failure.
func apiError(e *noaaError) error {
	if strings.Contains(strings.ToLower(e.Message), "no data") {
		return fmt.Errorf("%s: %w", e.Message, ErrNoData)
	}
	return fmt.Errorf("noaa api: %s", e.Message)
}

func wrapParseErr(stationID string, kind models.Kind, err error) error {
	if errors.Is(err, ErrNoData) {
		return fmt.Errorf("station %s kind %s: %w", stationID, kind, err)
	}
	return NewFeedError(stationID, kind, "parsing response", err)
}

// normalize sorts samples and drops duplicate timestamps, keeping the last
// occurrence. NOAA occasionally repeats a reading at a timestamp; the series
// invariant forbids duplicates.
func normalize(samples []models.Sample) []models.Sample {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp < samples[j].Timestamp
	})
	out := samples[:0]
	for _, s := range samples {
		if len(out) > 0 && out[len(out)-1].Timestamp == s.Timestamp {
			out[len(out)-1] = s
			continue
		}
		out = append(out, s)
	}
	return out
}
