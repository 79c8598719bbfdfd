package place

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/studyspots/studyspots-api/internal/domain/geo"
	"github.com/studyspots/studyspots-api/internal/types"
)

const (
	defaultRadiusKm = 5.0
	defaultLimit    = 50
)

var _ Service = (*ServiceImpl)(nil)

// Service is the read-side contract the HTTP layer consumes.
type Service interface {
	NearbyCafes(ctx context.Context, query NearbyQuery) ([]types.CafeResult, error)
	RequestCity(ctx context.Context, request types.CityRequest) error
}

// NearbyQuery carries the proximity search inputs. Either coordinates or an
// address must be present; zero Radius/Limit fall back to the defaults.
type NearbyQuery struct {
	Lat      *float64
	Lng      *float64
	Address  string
	RadiusKm float64
	Limit    int
}

type ServiceImpl struct {
	repo     Repository
	geocoder geo.Geocoder
	logger   *slog.Logger
	geoCache *cache.Cache
}

func NewService(repo Repository, geocoder geo.Geocoder, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:     repo,
		geocoder: geocoder,
		logger:   logger,
		geoCache: cache.New(30*time.Minute, time.Hour),
	}
}

// NearbyCafes resolves the search point and returns cafés ordered by distance.
// A place without a vibe record comes back with Vibes nil.
func (s *ServiceImpl) NearbyCafes(ctx context.Context, query NearbyQuery) ([]types.CafeResult, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "NearbyCafes")
	defer span.End()

	l := s.logger.With(slog.String("service", "NearbyCafes"))

	lat, lng, err := s.resolveLocation(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	radius := query.RadiusKm
	if radius <= 0 {
		radius = defaultRadiusKm
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	results, err := s.repo.GetNearbyPlaces(ctx, lat, lng, radius, limit)
	if err != nil {
		l.ErrorContext(ctx, "failed to query nearby places", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get nearby cafes: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(results)))
	span.SetStatus(codes.Ok, "nearby cafes retrieved")
	l.InfoContext(ctx, "nearby cafes retrieved",
		slog.Float64("lat", lat), slog.Float64("lng", lng), slog.Int("count", len(results)))
	return results, nil
}

func (s *ServiceImpl) resolveLocation(ctx context.Context, query NearbyQuery) (float64, float64, error) {
	if query.Lat != nil && query.Lng != nil {
		return *query.Lat, *query.Lng, nil
	}

	address := strings.TrimSpace(query.Address)
	if address == "" {
		return 0, 0, fmt.Errorf("latitude/longitude or address required: %w", types.ErrBadRequest)
	}

	if cached, ok := s.geoCache.Get(address); ok {
		coords := cached.([2]float64)
		return coords[0], coords[1], nil
	}

	lat, lng, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return 0, 0, fmt.Errorf("address not resolvable: %w", types.ErrBadRequest)
		}
		return 0, 0, fmt.Errorf("failed to geocode address: %w", err)
	}

	s.geoCache.Set(address, [2]float64{lat, lng}, cache.DefaultExpiration)
	return lat, lng, nil
}

// RequestCity appends one row to the unbounded city request log.
func (s *ServiceImpl) RequestCity(ctx context.Context, request types.CityRequest) error {
	if strings.TrimSpace(request.City) == "" {
		return fmt.Errorf("city is required: %w", types.ErrBadRequest)
	}

	if err := s.repo.SaveCityRequest(ctx, request); err != nil {
		s.logger.ErrorContext(ctx, "failed to save city request", slog.Any("error", err))
		return fmt.Errorf("failed to record city request: %w", err)
	}
	return nil
}
