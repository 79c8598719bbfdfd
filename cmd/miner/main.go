package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/studyspots/studyspots-api/internal/domain/discover"
	"github.com/studyspots/studyspots-api/internal/domain/mining"
	"github.com/studyspots/studyspots-api/internal/domain/place"
	"github.com/studyspots/studyspots-api/internal/llm"
	"github.com/studyspots/studyspots-api/pkg/config"
	"github.com/studyspots/studyspots-api/pkg/db"
)

const defaultLimit = 20

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.Maps.APIKey == "" || cfg.AI.APIKey == "" {
		logger.Error("GMAPS_KEY and GEMINI_API_KEY are required")
		os.Exit(1)
	}

	query := "Cafes in Waterloo, ON"
	if len(os.Args) > 1 {
		query = os.Args[1]
	}
	limit := defaultLimit
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			limit = n
		}
	}
	query = normalizeQuery(query)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(db.Config{
		DSN:             cfg.Database.DSN(),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}, logger)
	if err != nil {
		logger.Error("failed to connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close()

	if err := database.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	chatClient, err := llm.NewGeminiChatClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		logger.Error("failed to create AI client", slog.Any("error", err))
		os.Exit(1)
	}

	discoverer := discover.NewClient(discover.Config{
		Endpoint:   cfg.Maps.SearchEndpoint,
		APIKey:     cfg.Maps.APIKey,
		PagePacing: cfg.Mining.PagePacing,
	}, logger)

	extractor := mining.NewExtractor(chatClient, mining.ExtractorConfig{
		MinChars:    cfg.Mining.MinReviewChars,
		MaxAttempts: cfg.AI.MaxAttempts,
		Backoff:     cfg.AI.RetryBackoff,
		Timeout:     cfg.AI.RequestTimeout,
	}, logger)

	repo := place.NewRepository(database.Pool, logger)
	miner := mining.NewMiner(discoverer, extractor, repo, mining.MinerConfig{
		PlacePacing:    cfg.Mining.PlacePacing,
		MaxReviewChars: cfg.Mining.MaxReviewChars,
	}, logger)

	report, err := miner.Run(ctx, query, limit)
	if err != nil {
		logger.Error("mining run failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("mining summary",
		slog.String("query", report.Query),
		slog.Int("candidates", len(report.Outcomes)),
		slog.Int("persisted", report.Count(mining.OutcomePersisted)),
		slog.Int("duplicates", report.Count(mining.OutcomeSkippedDuplicate)),
		slog.Int("no_reviews", report.Count(mining.OutcomeSkippedNoReviews)),
		slog.Int("extraction_failed", report.Count(mining.OutcomeSkippedExtractionFailed)),
		slog.Int("store_errors", report.Count(mining.OutcomeStoreError)),
	)
}

// normalizeQuery turns a bare city into a café search so `miner "Kingston"`
// does what the operator means.
func normalizeQuery(query string) string {
	if strings.Contains(query, "Cafes") || strings.Contains(query, "Study") {
		return query
	}
	return "Cafes in " + query
}
