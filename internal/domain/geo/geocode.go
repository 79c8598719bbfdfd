package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/studyspots/studyspots-api/internal/types"
)

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, err error)
}

// GoogleGeocoder resolves addresses through the Google geocoding API.
type GoogleGeocoder struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewGoogleGeocoder(endpoint, apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns types.ErrNotFound when the provider cannot resolve the
// address; callers map that to a client error, not a server failure.
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (float64, float64, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocode request failed with status %d", resp.StatusCode)
	}

	var parsed geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, 0, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return 0, 0, fmt.Errorf("address %q not resolvable: %w", address, types.ErrNotFound)
	}

	loc := parsed.Results[0].Geometry.Location
	return loc.Lat, loc.Lng, nil
}
