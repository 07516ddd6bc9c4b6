package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shallweswim/backend-go/internal/conditions"
	"github.com/shallweswim/backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	snapshot *models.ConditionsSnapshot
	table    *models.TideTable
	report   *conditions.FreshnessReport
	err      error

	gotAt *time.Time
}

func (m *mockService) GetConditions(_ context.Context, locationID string, at *time.Time) (*models.ConditionsSnapshot, error) {
	m.gotAt = at
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

func (m *mockService) GetTideTable(_ context.Context, locationID string, at *time.Time) (*models.TideTable, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.table, nil
}

func (m *mockService) Freshness(_ context.Context) (*conditions.FreshnessReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func testSnapshot() *models.ConditionsSnapshot {
	value := 3.2
	return &models.ConditionsSnapshot{
		ResponseType: "conditions",
		LocationID:   "coney",
		AsOf:         time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
		Kinds: map[models.Kind]*models.KindConditions{
			models.KindTideHeight: {
				Kind:      models.KindTideHeight,
				Status:    models.StatusAvailable,
				Value:     &value,
				Freshness: models.FreshnessFresh,
			},
		},
		Freshness: models.FreshnessFresh,
	}
}

func TestHandleConditions(t *testing.T) {
	service := &mockService{snapshot: testSnapshot()}
	mux := NewHandler(service).Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/conditions?location=coney", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got models.ConditionsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "conditions", got.ResponseType)
	assert.Equal(t, "coney", got.LocationID)
	assert.Nil(t, service.gotAt, "no at parameter defaults to now")
}

func TestHandleConditionsWithAt(t *testing.T) {
	service := &mockService{snapshot: testSnapshot()}
	mux := NewHandler(service).Routes()

	req := httptest.NewRequest(http.MethodGet,
		"/api/conditions?location=coney&at=2026-06-01T09:30:00Z", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, service.gotAt)
	assert.Equal(t, time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC), service.gotAt.UTC())
}

func TestHandleConditionsErrors(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		err      error
		wantCode int
	}{
		{
			name:     "missing location",
			url:      "/api/conditions",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad at parameter",
			url:      "/api/conditions?location=coney&at=yesterday",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown location",
			url:      "/api/conditions?location=atlantis",
			err:      conditions.ErrUnknownLocation,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockService{snapshot: testSnapshot(), err: tt.err}
			mux := NewHandler(service).Routes()

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, "error", errResp.ResponseType)
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestHandleTides(t *testing.T) {
	service := &mockService{table: &models.TideTable{
		ResponseType: "tides",
		LocationID:   "coney",
		Previous:     []models.TideEvent{{Height: 5.4, Type: models.TideHigh}},
		Next:         []models.TideEvent{{Height: 1.0, Type: models.TideLow}},
	}}
	mux := NewHandler(service).Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/tides?location=coney", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.TideTable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Previous, 1)
	assert.Equal(t, models.TideHigh, got.Previous[0].Type)
}

func TestHandleFreshness(t *testing.T) {
	service := &mockService{report: &conditions.FreshnessReport{
		ResponseType: "freshness",
		Locations:    map[string]map[models.Kind]*conditions.SeriesFreshness{},
	}}
	mux := NewHandler(service).Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/freshness", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got conditions.FreshnessReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "freshness", got.ResponseType)
}
