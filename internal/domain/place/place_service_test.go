package place

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studyspots/studyspots-api/internal/types"
)

type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) PlaceExists(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) SavePlace(ctx context.Context, place types.Place) (uuid.UUID, error) {
	args := m.Called(ctx, place)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRepository) SaveVibeRecord(ctx context.Context, placeID uuid.UUID, record *types.VibeRecord) error {
	args := m.Called(ctx, placeID, record)
	return args.Error(0)
}

func (m *MockRepository) GetNearbyPlaces(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]types.CafeResult, error) {
	args := m.Called(ctx, lat, lng, radiusKm, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CafeResult), args.Error(1)
}

func (m *MockRepository) SaveCityRequest(ctx context.Context, request types.CityRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (float64, float64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(float64), args.Get(1).(float64), args.Error(2)
}

func floatPtr(v float64) *float64 { return &v }

func sampleResults() []types.CafeResult {
	return []types.CafeResult{
		{Place: types.Place{ID: uuid.New(), Name: "Settlement Co."}, DistanceKm: 0.8},
	}
}

func TestNearbyCafesWithCoordinates(t *testing.T) {
	repo := new(MockRepository)
	geocoder := new(MockGeocoder)
	svc := NewService(repo, geocoder, slog.Default())

	repo.On("GetNearbyPlaces", mock.Anything, 43.46, -80.52, 2.0, 10).
		Return(sampleResults(), nil)

	got, err := svc.NearbyCafes(context.Background(), NearbyQuery{
		Lat: floatPtr(43.46), Lng: floatPtr(-80.52), RadiusKm: 2.0, Limit: 10,
	})

	require.NoError(t, err)
	assert.Len(t, got, 1)
	geocoder.AssertNotCalled(t, "Geocode")
}

func TestNearbyCafesAppliesDefaults(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockGeocoder), slog.Default())

	repo.On("GetNearbyPlaces", mock.Anything, 43.46, -80.52, defaultRadiusKm, defaultLimit).
		Return(sampleResults(), nil)

	_, err := svc.NearbyCafes(context.Background(), NearbyQuery{
		Lat: floatPtr(43.46), Lng: floatPtr(-80.52),
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestNearbyCafesGeocodesAddress(t *testing.T) {
	repo := new(MockRepository)
	geocoder := new(MockGeocoder)
	svc := NewService(repo, geocoder, slog.Default())

	geocoder.On("Geocode", mock.Anything, "Waterloo, ON").Return(43.46, -80.52, nil).Once()
	repo.On("GetNearbyPlaces", mock.Anything, 43.46, -80.52, defaultRadiusKm, defaultLimit).
		Return(sampleResults(), nil)

	_, err := svc.NearbyCafes(context.Background(), NearbyQuery{Address: "Waterloo, ON"})
	require.NoError(t, err)

	// Second request with the same address hits the cache, not the geocoder.
	_, err = svc.NearbyCafes(context.Background(), NearbyQuery{Address: "Waterloo, ON"})
	require.NoError(t, err)

	geocoder.AssertNumberOfCalls(t, "Geocode", 1)
}

func TestNearbyCafesRequiresLocation(t *testing.T) {
	svc := NewService(new(MockRepository), new(MockGeocoder), slog.Default())

	_, err := svc.NearbyCafes(context.Background(), NearbyQuery{})

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBadRequest)
}

func TestNearbyCafesUnresolvableAddressIsBadRequest(t *testing.T) {
	repo := new(MockRepository)
	geocoder := new(MockGeocoder)
	svc := NewService(repo, geocoder, slog.Default())

	geocoder.On("Geocode", mock.Anything, "nowhere at all").
		Return(0.0, 0.0, types.ErrNotFound)

	_, err := svc.NearbyCafes(context.Background(), NearbyQuery{Address: "nowhere at all"})

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBadRequest)
	repo.AssertNotCalled(t, "GetNearbyPlaces")
}

func TestNearbyCafesGeocoderOutageIsServerError(t *testing.T) {
	geocoder := new(MockGeocoder)
	svc := NewService(new(MockRepository), geocoder, slog.Default())

	geocoder.On("Geocode", mock.Anything, "Waterloo, ON").
		Return(0.0, 0.0, errors.New("upstream timeout"))

	_, err := svc.NearbyCafes(context.Background(), NearbyQuery{Address: "Waterloo, ON"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrBadRequest)
}

func TestRequestCity(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockGeocoder), slog.Default())

	request := types.CityRequest{City: "Kingston, ON"}
	repo.On("SaveCityRequest", mock.Anything, request).Return(nil)

	require.NoError(t, svc.RequestCity(context.Background(), request))
	repo.AssertExpectations(t)
}

func TestRequestCityRejectsBlankCity(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockGeocoder), slog.Default())

	err := svc.RequestCity(context.Background(), types.CityRequest{City: "   "})

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBadRequest)
	repo.AssertNotCalled(t, "SaveCityRequest")
}
