package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ServiceAreaClient asks the service-area engine whether a point is covered
type ServiceAreaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewServiceAreaClient creates a new service-area client
func NewServiceAreaClient(baseURL string) *ServiceAreaClient {
	return &ServiceAreaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Check reports whether (lat, lng) is inside the tool's service area
func (c *ServiceAreaClient) Check(ctx context.Context, lat, lng float64, toolID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/check?lat=%f&lng=%f&toolId=%s", c.baseURL, lat, lng, url.QueryEscape(toolID))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("service area request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("service area error %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		InServiceArea bool `json:"inServiceArea"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, fmt.Errorf("failed to parse service area response: %w", err)
	}
	return parsed.InServiceArea, nil
}
