package place

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/studyspots/studyspots-api/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	PlaceExists(ctx context.Context, externalID string) (bool, error)
	SavePlace(ctx context.Context, place types.Place) (uuid.UUID, error)
	SaveVibeRecord(ctx context.Context, placeID uuid.UUID, record *types.VibeRecord) error
	GetNearbyPlaces(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]types.CafeResult, error)
	SaveCityRequest(ctx context.Context, request types.CityRequest) error
}

// dbConn is the subset of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type dbConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	db     dbConn
}

func NewRepository(db dbConn, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
	}
}

func (r *RepositoryImpl) PlaceExists(ctx context.Context, externalID string) (bool, error) {
	query := `SELECT id FROM places WHERE external_id = $1`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query, externalID).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up place by external id: %w", err)
	}
	return true, nil
}

func (r *RepositoryImpl) SavePlace(ctx context.Context, place types.Place) (uuid.UUID, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "SavePlace", trace.WithAttributes(
		attribute.String("place.external_id", place.ExternalID),
	))
	defer span.End()

	if place.Latitude < -90 || place.Latitude > 90 || place.Longitude < -180 || place.Longitude > 180 {
		return uuid.Nil, fmt.Errorf("invalid coordinates: lat=%f, lng=%f", place.Latitude, place.Longitude)
	}
	if place.Name == "" {
		return uuid.Nil, fmt.Errorf("place name is required")
	}

	query := `
        INSERT INTO places (
            external_id, name, address, location, rating, price_level
        ) VALUES (
            $1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), $6, $7
        ) RETURNING id
    `
	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		place.ExternalID, place.Name, place.Address,
		place.Longitude, place.Latitude,
		place.Rating, place.PriceLevel,
	).Scan(&id)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, fmt.Errorf("failed to insert place: %w", err)
	}

	span.SetStatus(codes.Ok, "place saved")
	r.logger.InfoContext(ctx, "place saved", slog.String("name", place.Name), slog.String("id", id.String()))
	return id, nil
}

func (r *RepositoryImpl) SaveVibeRecord(ctx context.Context, placeID uuid.UUID, record *types.VibeRecord) error {
	query, args, err := sq.Insert("place_vibes").
		Columns(
			"place_id", "vibe_tags", "best_for", "summary",
			"noise_level", "wifi_quality", "outlets_level", "comfort_level",
			"food_type", "seating_tip", "busyness_info", "group_suitability",
			"is_late_night", "time_limit_status", "bathroom_status",
			"has_natural_light", "price_perception",
		).
		Values(
			placeID, record.VibeTags, record.BestFor, record.Summary,
			record.NoiseLevel, record.WifiQuality, record.OutletsLevel, record.ComfortLevel,
			record.FoodType, record.SeatingTip, record.BusynessInfo, record.GroupSuitability,
			record.IsLateNight, record.TimeLimitStatus, record.BathroomStatus,
			record.HasNaturalLight, record.PricePerception,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build vibe insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert vibe record: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetNearbyPlaces(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]types.CafeResult, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "GetNearbyPlaces", trace.WithAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lng", lng),
		attribute.Float64("radius_km", radiusKm),
	))
	defer span.End()

	query := `
        SELECT
            p.id, p.external_id, p.name, p.address, p.rating, p.price_level,
            ST_Y(p.location::geometry) AS lat,
            ST_X(p.location::geometry) AS lng,
            v.id,
            v.summary, v.seating_tip, v.busyness_info,
            v.noise_level, v.wifi_quality, v.outlets_level, v.comfort_level,
            v.food_type, v.group_suitability, v.time_limit_status, v.bathroom_status,
            v.price_perception, v.vibe_tags, v.best_for,
            v.is_late_night, v.has_natural_light,
            ROUND((ST_Distance(p.location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000)::numeric, 2)::float8 AS distance_km
        FROM places p
        LEFT JOIN place_vibes v ON p.id = v.place_id
        WHERE ST_DWithin(p.location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3 * 1000)
        ORDER BY distance_km ASC
        LIMIT $4
    `
	rows, err := r.db.Query(ctx, query, lng, lat, radiusKm, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query nearby places: %w", err)
	}
	defer rows.Close()

	var results []types.CafeResult
	for rows.Next() {
		var res types.CafeResult
		var vibeID *uuid.UUID
		var vibes types.VibeRecord

		err := rows.Scan(
			&res.ID, &res.ExternalID, &res.Name, &res.Address, &res.Rating, &res.PriceLevel,
			&res.Latitude, &res.Longitude,
			&vibeID,
			&vibes.Summary, &vibes.SeatingTip, &vibes.BusynessInfo,
			&vibes.NoiseLevel, &vibes.WifiQuality, &vibes.OutletsLevel, &vibes.ComfortLevel,
			&vibes.FoodType, &vibes.GroupSuitability, &vibes.TimeLimitStatus, &vibes.BathroomStatus,
			&vibes.PricePerception, &vibes.VibeTags, &vibes.BestFor,
			&vibes.IsLateNight, &vibes.HasNaturalLight,
			&res.DistanceKm,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nearby place: %w", err)
		}

		// No vibe row means "vibes unavailable", never an empty object.
		if vibeID != nil {
			res.Vibes = &vibes
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read nearby places: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(results)))
	span.SetStatus(codes.Ok, "nearby places retrieved")
	return results, nil
}

func (r *RepositoryImpl) SaveCityRequest(ctx context.Context, request types.CityRequest) error {
	query, args, err := sq.Insert("city_requests").
		Columns("city", "email").
		Values(request.City, request.Email).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build city request insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert city request: %w", err)
	}

	r.logger.InfoContext(ctx, "city request recorded", slog.String("city", request.City))
	return nil
}
