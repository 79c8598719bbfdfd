package mining

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/studyspots/studyspots-api/internal/domain/discover"
	"github.com/studyspots/studyspots-api/internal/types"
	"github.com/studyspots/studyspots-api/pkg/observability"
)

// Outcome is the terminal state of one candidate place in the pipeline.
type Outcome string

const (
	OutcomePersisted               Outcome = "PERSISTED"
	OutcomeSkippedDuplicate        Outcome = "SKIPPED_DUPLICATE"
	OutcomeSkippedNoReviews        Outcome = "SKIPPED_NO_REVIEWS"
	OutcomeSkippedExtractionFailed Outcome = "SKIPPED_EXTRACTION_FAILED"
	OutcomeStoreError              Outcome = "STORE_ERROR"
)

// PlaceOutcome records what happened to one candidate.
type PlaceOutcome struct {
	ExternalID string
	Name       string
	Outcome    Outcome
	Err        error
}

// Report summarizes one mining run.
type Report struct {
	Query    string
	Outcomes []PlaceOutcome
}

// Count returns how many candidates ended in the given state.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Outcome == outcome {
			n++
		}
	}
	return n
}

// Discoverer produces candidate places for a free-text query.
type Discoverer interface {
	Search(ctx context.Context, query string, target int) ([]discover.Candidate, error)
}

// VibeExtractor derives a VibeRecord from aggregated review text.
type VibeExtractor interface {
	Extract(ctx context.Context, reviewsText string) (*types.VibeRecord, error)
}

// Store is the persistence surface the pipeline needs.
type Store interface {
	PlaceExists(ctx context.Context, externalID string) (bool, error)
	SavePlace(ctx context.Context, place types.Place) (uuid.UUID, error)
	SaveVibeRecord(ctx context.Context, placeID uuid.UUID, record *types.VibeRecord) error
}

// Miner drives discovery, dedup, extraction and persistence, one place at a
// time. The pipeline is deliberately sequential: a single in-flight request
// per provider keeps the per-key rate limits satisfied by construction.
type Miner struct {
	discoverer Discoverer
	extractor  VibeExtractor
	store      Store
	logger     *slog.Logger
	limiter    *rate.Limiter
	maxChars   int
}

type MinerConfig struct {
	PlacePacing    time.Duration
	MaxReviewChars int
}

func NewMiner(discoverer Discoverer, extractor VibeExtractor, store Store, cfg MinerConfig, logger *slog.Logger) *Miner {
	pacing := cfg.PlacePacing
	if pacing <= 0 {
		pacing = time.Second
	}
	maxChars := cfg.MaxReviewChars
	if maxChars <= 0 {
		maxChars = 30000
	}
	return &Miner{
		discoverer: discoverer,
		extractor:  extractor,
		store:      store,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Every(pacing), 1),
		maxChars:   maxChars,
	}
}

// Run mines up to target places for the query. A failure for one candidate
// never aborts the batch; every candidate gets a recorded outcome. Run only
// errors when discovery itself cannot start or the context is cancelled.
func (m *Miner) Run(ctx context.Context, query string, target int) (*Report, error) {
	ctx, span := otel.Tracer("Miner").Start(ctx, "Run", trace.WithAttributes(
		attribute.String("query", query),
		attribute.Int("target", target),
	))
	defer span.End()

	l := m.logger.With(slog.String("component", "miner"), slog.String("query", query))

	candidates, err := m.discoverer.Search(ctx, query, target)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	l.InfoContext(ctx, "discovery returned candidates", slog.Int("count", len(candidates)))

	report := &Report{Query: query}
	for _, cand := range candidates {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		outcome := m.processCandidate(ctx, cand, l)
		report.Outcomes = append(report.Outcomes, outcome)
		observability.PlacesMined.WithLabelValues(string(outcome.Outcome)).Inc()
	}

	span.SetAttributes(attribute.Int("persisted", report.Count(OutcomePersisted)))
	span.SetStatus(codes.Ok, "mining run completed")
	l.InfoContext(ctx, "mining run completed",
		slog.Int("persisted", report.Count(OutcomePersisted)),
		slog.Int("duplicates", report.Count(OutcomeSkippedDuplicate)),
		slog.Int("no_reviews", report.Count(OutcomeSkippedNoReviews)),
		slog.Int("extraction_failed", report.Count(OutcomeSkippedExtractionFailed)),
		slog.Int("store_errors", report.Count(OutcomeStoreError)),
	)
	return report, nil
}

func (m *Miner) processCandidate(ctx context.Context, cand discover.Candidate, l *slog.Logger) PlaceOutcome {
	result := PlaceOutcome{ExternalID: cand.ExternalID, Name: cand.Name}

	exists, err := m.store.PlaceExists(ctx, cand.ExternalID)
	if err != nil {
		l.ErrorContext(ctx, "dedup lookup failed", slog.String("name", cand.Name), slog.Any("error", err))
		result.Outcome = OutcomeStoreError
		result.Err = err
		return result
	}
	if exists {
		l.DebugContext(ctx, "skipping known place", slog.String("name", cand.Name))
		result.Outcome = OutcomeSkippedDuplicate
		return result
	}

	reviewsText := AggregateReviews(cand.Reviews, m.maxChars)
	if reviewsText == "" {
		result.Outcome = OutcomeSkippedNoReviews
		return result
	}

	// One AI request in flight at a time, spaced to the provider's liking.
	if err := m.limiter.Wait(ctx); err != nil {
		result.Outcome = OutcomeSkippedExtractionFailed
		result.Err = err
		return result
	}

	record, err := m.extractor.Extract(ctx, reviewsText)
	if err != nil {
		if errors.Is(err, ErrInsufficientText) {
			result.Outcome = OutcomeSkippedNoReviews
			return result
		}
		l.WarnContext(ctx, "extraction failed, skipping place",
			slog.String("name", cand.Name), slog.Any("error", err))
		result.Outcome = OutcomeSkippedExtractionFailed
		result.Err = err
		return result
	}

	address := cand.Address
	place := types.Place{
		ExternalID: cand.ExternalID,
		Name:       cand.Name,
		Latitude:   cand.Latitude,
		Longitude:  cand.Longitude,
		Rating:     cand.Rating,
		PriceLevel: cand.PriceLevel,
	}
	if address != "" {
		place.Address = &address
	}

	placeID, err := m.store.SavePlace(ctx, place)
	if err != nil {
		l.ErrorContext(ctx, "failed to save place", slog.String("name", cand.Name), slog.Any("error", err))
		result.Outcome = OutcomeStoreError
		result.Err = err
		return result
	}

	if err := m.store.SaveVibeRecord(ctx, placeID, record); err != nil {
		// The place row stays; a missing vibe row reads as "vibes unavailable".
		l.ErrorContext(ctx, "failed to save vibe record, place kept without vibes",
			slog.String("name", cand.Name), slog.Any("error", err))
		result.Err = err
	}

	l.InfoContext(ctx, "place persisted", slog.String("name", cand.Name), slog.String("id", placeID.String()))
	result.Outcome = OutcomePersisted
	return result
}
