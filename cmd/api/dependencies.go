package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/studyspots/studyspots-api/internal/domain/geo"
	"github.com/studyspots/studyspots-api/internal/domain/place"
	"github.com/studyspots/studyspots-api/pkg/config"
	"github.com/studyspots/studyspots-api/pkg/db"
)

// Dependencies holds all application dependencies for the query service.
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	PlaceRepo place.Repository

	// Services
	PlaceService place.Service

	// Handlers
	PlaceHandler *place.Handler
}

// InitDependencies initializes all application dependencies.
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.PlaceRepo = place.NewRepository(deps.DB.Pool, logger)

	geocoder := geo.NewGoogleGeocoder(cfg.Maps.GeocodeEndpoint, cfg.Maps.APIKey)
	deps.PlaceService = place.NewService(deps.PlaceRepo, geocoder, logger)
	deps.PlaceHandler = place.NewHandler(deps.PlaceService, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations.
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// Cleanup closes all resources.
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
