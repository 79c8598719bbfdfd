package place

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studyspots/studyspots-api/internal/types"
)

type MockService struct {
	mock.Mock
}

var _ Service = (*MockService)(nil)

func (m *MockService) NearbyCafes(ctx context.Context, query NearbyQuery) ([]types.CafeResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CafeResult), args.Error(1)
}

func (m *MockService) RequestCity(ctx context.Context, request types.CityRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func TestGetNearbyCafes(t *testing.T) {
	svc := new(MockService)
	handler := NewHandler(svc, slog.Default())

	summary := "Quiet back room, strong wifi."
	svc.On("NearbyCafes", mock.Anything, mock.MatchedBy(func(q NearbyQuery) bool {
		return q.Lat != nil && *q.Lat == 43.46 && q.Lng != nil && *q.Lng == -80.52 &&
			q.RadiusKm == 2.5 && q.Limit == 10
	})).Return([]types.CafeResult{
		{
			Place:      types.Place{ID: uuid.New(), Name: "Settlement Co."},
			Vibes:      &types.VibeRecord{Summary: &summary},
			DistanceKm: 0.8,
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/cafes?lat=43.46&lng=-80.52&radius_km=2.5&limit=10", nil)
	rec := httptest.NewRecorder()
	handler.GetNearbyCafes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body []types.CafeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Settlement Co.", body[0].Name)
	assert.Equal(t, 0.8, body[0].DistanceKm)
	require.NotNil(t, body[0].Vibes)
	assert.Equal(t, summary, *body[0].Vibes.Summary)
}

func TestGetNearbyCafesEmptyResultIsEmptyArray(t *testing.T) {
	svc := new(MockService)
	handler := NewHandler(svc, slog.Default())

	svc.On("NearbyCafes", mock.Anything, mock.Anything).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/cafes?lat=1&lng=1", nil)
	rec := httptest.NewRecorder()
	handler.GetNearbyCafes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestGetNearbyCafesInvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"bad lat", "lat=abc&lng=1"},
		{"bad lng", "lat=1&lng=abc"},
		{"bad radius", "lat=1&lng=1&radius_km=-2"},
		{"bad limit", "lat=1&lng=1&limit=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			handler := NewHandler(svc, slog.Default())

			req := httptest.NewRequest(http.MethodGet, "/cafes?"+tt.query, nil)
			rec := httptest.NewRecorder()
			handler.GetNearbyCafes(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			svc.AssertNotCalled(t, "NearbyCafes")
		})
	}
}

func TestGetNearbyCafesMissingLocation(t *testing.T) {
	svc := new(MockService)
	handler := NewHandler(svc, slog.Default())

	svc.On("NearbyCafes", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("latitude/longitude or address required: %w", types.ErrBadRequest))

	req := httptest.NewRequest(http.MethodGet, "/cafes", nil)
	rec := httptest.NewRecorder()
	handler.GetNearbyCafes(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Detail, "location")
}

func TestGetNearbyCafesServiceFailure(t *testing.T) {
	svc := new(MockService)
	handler := NewHandler(svc, slog.Default())

	svc.On("NearbyCafes", mock.Anything, mock.Anything).
		Return(nil, errors.New("pool exhausted"))

	req := httptest.NewRequest(http.MethodGet, "/cafes?lat=1&lng=1", nil)
	rec := httptest.NewRecorder()
	handler.GetNearbyCafes(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestCityCreated(t *testing.T) {
	svc := new(MockService)
	handler := NewHandler(svc, slog.Default())

	svc.On("RequestCity", mock.Anything, mock.MatchedBy(func(r types.CityRequest) bool {
		return r.City == "Kingston, ON" && r.Email != nil && *r.Email == "student@example.com"
	})).Return(nil)

	body := strings.NewReader(`{"city":"Kingston, ON","email":"student@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/requests", body)
	rec := httptest.NewRecorder()
	handler.RequestCity(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"recorded"}`, rec.Body.String())
}

func TestRequestCityInvalidBody(t *testing.T) {
	svc := new(MockService)
	handler := NewHandler(svc, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.RequestCity(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "RequestCity")
}

func TestRequestCityBlankCity(t *testing.T) {
	svc := new(MockService)
	handler := NewHandler(svc, slog.Default())

	svc.On("RequestCity", mock.Anything, mock.Anything).
		Return(fmt.Errorf("city is required: %w", types.ErrBadRequest))

	req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(`{"city":""}`))
	rec := httptest.NewRecorder()
	handler.RequestCity(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
