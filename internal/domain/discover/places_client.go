package discover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// providerPageSize is the hard page-size cap imposed by the text search API.
	providerPageSize = 20

	fieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
		"places.rating,places.priceLevel,places.reviews,nextPageToken"
)

// Candidate is one venue returned by the discovery source, with its reviews
// denormalized so the pipeline never has to call back for them.
type Candidate struct {
	ExternalID string
	Name       string
	Address    string
	Latitude   float64
	Longitude  float64
	Rating     *float64
	PriceLevel *int
	Reviews    []string
}

// Client pages through the text search endpoint until a target count is
// reached or the source is exhausted. Partial results are normal: any page
// failure ends the search with whatever accumulated so far.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type Config struct {
	Endpoint   string
	APIKey     string
	PagePacing time.Duration
	Timeout    time.Duration
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	pacing := cfg.PagePacing
	if pacing <= 0 {
		pacing = 2 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(pacing), 1),
		logger:     logger,
	}
}

type searchRequest struct {
	TextQuery string `json:"textQuery"`
	PageSize  int    `json:"pageSize"`
	PageToken string `json:"pageToken,omitempty"`
}

type searchResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string `json:"formattedAddress"`
		Location         struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		Rating     *float64 `json:"rating"`
		PriceLevel string   `json:"priceLevel"`
		Reviews    []struct {
			Text struct {
				Text string `json:"text"`
			} `json:"text"`
		} `json:"reviews"`
	} `json:"places"`
	NextPageToken string `json:"nextPageToken"`
}

// Search returns up to target candidates for the free-text query. A smaller
// result set than requested is not an error.
func (c *Client) Search(ctx context.Context, query string, target int) ([]Candidate, error) {
	l := c.logger.With(slog.String("client", "discover"), slog.String("query", query))

	var candidates []Candidate
	pageToken := ""

	for len(candidates) < target {
		if len(candidates) > 0 {
			if err := c.limiter.Wait(ctx); err != nil {
				return candidates, err
			}
		}

		pageSize := target - len(candidates)
		if pageSize > providerPageSize {
			pageSize = providerPageSize
		}

		page, next, err := c.fetchPage(ctx, query, pageSize, pageToken)
		if err != nil {
			l.WarnContext(ctx, "discovery page failed, keeping partial results",
				slog.Int("accumulated", len(candidates)), slog.Any("error", err))
			return candidates, nil
		}

		candidates = append(candidates, page...)
		if next == "" {
			break
		}
		pageToken = next
	}

	l.InfoContext(ctx, "discovery finished", slog.Int("count", len(candidates)))
	return candidates, nil
}

func (c *Client) fetchPage(ctx context.Context, query string, pageSize int, pageToken string) ([]Candidate, string, error) {
	body, err := json.Marshal(searchRequest{TextQuery: query, PageSize: pageSize, PageToken: pageToken})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, "", fmt.Errorf("failed to decode search response: %w", err)
	}

	candidates := make([]Candidate, 0, len(parsed.Places))
	for _, p := range parsed.Places {
		cand := Candidate{
			ExternalID: p.ID,
			Name:       p.DisplayName.Text,
			Address:    p.FormattedAddress,
			Latitude:   p.Location.Latitude,
			Longitude:  p.Location.Longitude,
			Rating:     p.Rating,
			PriceLevel: priceLevelTier(p.PriceLevel),
		}
		for _, r := range p.Reviews {
			cand.Reviews = append(cand.Reviews, r.Text.Text)
		}
		candidates = append(candidates, cand)
	}
	return candidates, parsed.NextPageToken, nil
}

// priceLevelTier maps the provider's PRICE_LEVEL_* enum onto the 1..3 tier
// stored with a place. Unknown or unspecified levels land on the cheap tier.
func priceLevelTier(level string) *int {
	tier := 1
	switch level {
	case "PRICE_LEVEL_MODERATE":
		tier = 2
	case "PRICE_LEVEL_EXPENSIVE", "PRICE_LEVEL_VERY_EXPENSIVE":
		tier = 3
	case "":
		return nil
	}
	return &tier
}
