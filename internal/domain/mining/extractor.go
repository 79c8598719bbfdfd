package mining

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/studyspots/studyspots-api/internal/llm"
	"github.com/studyspots/studyspots-api/internal/types"
)

var (
	// ErrInsufficientText means the aggregated review text was too thin to be
	// worth a model call. The place is skipped, never retried.
	ErrInsufficientText = errors.New("insufficient review text for extraction")

	// ErrExtractionFailed means every attempt against the model failed to
	// produce a usable record. The place is skipped; the batch continues.
	ErrExtractionFailed = errors.New("vibe extraction failed after all attempts")
)

// Extractor turns aggregated review text into a VibeRecord by prompting the
// generative model and coercing whatever shape comes back into the fixed
// schema. The model is an untrusted collaborator: attempts, latency and
// output shape are all bounded here so failures never leak past Extract.
type Extractor struct {
	client      llm.ChatClient
	logger      *slog.Logger
	minChars    int
	maxAttempts int
	backoff     time.Duration
	timeout     time.Duration
}

type ExtractorConfig struct {
	MinChars    int
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration
}

func NewExtractor(client llm.ChatClient, cfg ExtractorConfig, logger *slog.Logger) *Extractor {
	if cfg.MinChars <= 0 {
		cfg.MinChars = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Extractor{
		client:      client,
		logger:      logger,
		minChars:    cfg.MinChars,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		timeout:     cfg.Timeout,
	}
}

// vibePayload mirrors the model's output vocabulary. Mapping it onto
// types.VibeRecord is the only place the two vocabularies meet.
type vibePayload struct {
	NoiseLevel       *string  `json:"noise_level"`
	Wifi             *string  `json:"wifi"`
	OutletsLevel     *string  `json:"outlets_level"`
	ComfortLevel     *string  `json:"comfort_level"`
	FoodType         *string  `json:"food_type"`
	BestFor          []string `json:"best_for"`
	GroupSuitability *string  `json:"group_suitability"`
	SeatingTip       *string  `json:"seating_tip"`
	BusynessInfo     *string  `json:"busyness_info"`
	IsLateNight      *bool    `json:"is_late_night"`
	TimeLimitStatus  *string  `json:"time_limit_status"`
	BathroomStatus   *string  `json:"bathroom_status"`
	HasNaturalLight  *bool    `json:"has_natural_light"`
	PricePerception  *string  `json:"price_perception"`
	Vibes            []string `json:"vibes"`
	Summary          *string  `json:"summary"`
}

// Extract returns a VibeRecord for the aggregated review text, or a definitive
// failure. Fields the model omitted stay nil; a partial record is a success.
func (e *Extractor) Extract(ctx context.Context, reviewsText string) (*types.VibeRecord, error) {
	if len(reviewsText) < e.minChars {
		return nil, ErrInsufficientText
	}

	l := e.logger.With(slog.String("component", "extractor"))
	prompt := vibeExtractionPrompt(reviewsText)
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	}

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		record, err := e.attempt(ctx, prompt, config)
		if err == nil {
			return record, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if llm.IsRateLimited(err) {
			l.WarnContext(ctx, "model rate limited, backing off",
				slog.Int("attempt", attempt), slog.Duration("backoff", e.backoff))
			if attempt < e.maxAttempts {
				select {
				case <-time.After(e.backoff):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			continue
		}

		l.WarnContext(ctx, "extraction attempt failed",
			slog.Int("attempt", attempt), slog.Any("error", err))
	}

	return nil, ErrExtractionFailed
}

func (e *Extractor) attempt(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*types.VibeRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	text, err := e.client.GenerateContent(callCtx, prompt, config)
	if err != nil {
		return nil, err
	}

	payload, err := normalizeModelOutput(text)
	if err != nil {
		return nil, err
	}
	return payload.toRecord(), nil
}

// normalizeModelOutput is the single shape-coercion step for untrusted model
// output: markdown fences are stripped, and a list-wrapped response is
// unwrapped to its first object-shaped element.
func normalizeModelOutput(text string) (*vibePayload, error) {
	cleaned := stripCodeFences(text)

	if strings.HasPrefix(cleaned, "[") {
		var elements []json.RawMessage
		if err := json.Unmarshal([]byte(cleaned), &elements); err != nil {
			return nil, fmt.Errorf("failed to parse model output list: %w", err)
		}
		if len(elements) == 0 {
			return nil, errors.New("model returned an empty list")
		}
		first := strings.TrimSpace(string(elements[0]))
		if !strings.HasPrefix(first, "{") {
			return nil, errors.New("model list element is not an object")
		}
		cleaned = first
	}

	var payload vibePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}
	return &payload, nil
}

func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

func (p *vibePayload) toRecord() *types.VibeRecord {
	return &types.VibeRecord{
		Summary:          p.Summary,
		SeatingTip:       p.SeatingTip,
		BusynessInfo:     p.BusynessInfo,
		NoiseLevel:       p.NoiseLevel,
		WifiQuality:      p.Wifi,
		OutletsLevel:     p.OutletsLevel,
		ComfortLevel:     p.ComfortLevel,
		FoodType:         p.FoodType,
		GroupSuitability: p.GroupSuitability,
		TimeLimitStatus:  p.TimeLimitStatus,
		BathroomStatus:   p.BathroomStatus,
		PricePerception:  p.PricePerception,
		VibeTags:         p.Vibes,
		BestFor:          p.BestFor,
		IsLateNight:      p.IsLateNight,
		HasNaturalLight:  p.HasNaturalLight,
	}
}
