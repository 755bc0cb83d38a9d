package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"quoteflow/internal/model"
)

// QuoteClient submits collected answers to the pricing service
type QuoteClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewQuoteClient creates a new quote client
func NewQuoteClient(baseURL string) *QuoteClient {
	return &QuoteClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type quoteSubmission struct {
	ToolID    string            `json:"toolId"`
	ContactID string            `json:"contactId,omitempty"`
	Answers   map[string]string `json:"answers"`
	UTM       map[string]string `json:"utm,omitempty"`
}

// Submit sends the answers for pricing. The response is either a hosted
// quoteId or the legacy inline ranges; both come back as a QuoteResult.
func (c *QuoteClient) Submit(ctx context.Context, answers map[string]string, contactID, toolID string, utm map[string]string) (*model.QuoteResult, error) {
	body, err := json.Marshal(quoteSubmission{
		ToolID:    toolID,
		ContactID: contactID,
		Answers:   answers,
		UTM:       utm,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/quotes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("quote service error %d: %s", resp.StatusCode, string(respBody))
	}

	var result model.QuoteResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}
	return &result, nil
}
