package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// GeocodeClient resolves typed address text via the geocoding provider
type GeocodeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGeocodeClient creates a new geocoder client
func NewGeocodeClient(baseURL, apiKey string) *GeocodeClient {
	if apiKey == "" {
		log.Println("Warning: GEOCODER_API_KEY not set")
	}
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/geocode"
	}

	return &GeocodeClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves address text to coordinates and a normalized address.
// Returns (nil, nil) when the provider cannot resolve the text to a place;
// only transport-level failures are errors.
func (c *GeocodeClient) Geocode(ctx context.Context, addressText string) (*GeocodeResult, error) {
	endpoint := fmt.Sprintf("%s/json?address=%s&key=%s", c.baseURL, url.QueryEscape(addressText), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("geocoder error %d: %s", resp.StatusCode, string(body))
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse geocode response: %w", err)
	}

	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		log.Printf("[Geocoder] No result for %q (status %s)", addressText, parsed.Status)
		return nil, nil
	}

	top := parsed.Results[0]
	return &GeocodeResult{
		Lat:              top.Geometry.Location.Lat,
		Lng:              top.Geometry.Location.Lng,
		FormattedAddress: top.FormattedAddress,
	}, nil
}
