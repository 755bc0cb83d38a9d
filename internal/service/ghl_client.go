package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"quoteflow/internal/model"
)

// GHLClient wraps GoHighLevel contact API calls
type GHLClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

// NewGHLClient creates a new GoHighLevel API client
func NewGHLClient(baseURL, token string) *GHLClient {
	if token == "" {
		log.Println("Warning: GHL_API_KEY not set")
	}
	if baseURL == "" {
		baseURL = "https://rest.gohighlevel.com/v1"
	}

	return &GHLClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		maxRetries: 3,
	}
}

type ghlContactPayload struct {
	FirstName    string            `json:"firstName,omitempty"`
	LastName     string            `json:"lastName,omitempty"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Address1     string            `json:"address1,omitempty"`
	CustomFields map[string]string `json:"customField,omitempty"`
}

type ghlContactResponse struct {
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
	ID string `json:"id"`
}

// doRequest performs an HTTP request with retry and backoff on rate limits
func (c *GHLClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[GHL Client] Retry attempt %d/%d for %s %s", attempt, c.maxRetries, method, path)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			log.Printf("[GHL Client] Rate limited, retry %d/%d in %v", attempt+1, c.maxRetries, backoff)
			time.Sleep(backoff)
			lastErr = fmt.Errorf("rate limited")
			continue
		}

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("GHL API error %d: %s", resp.StatusCode, string(respBody))
		}

		return respBody, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// CreateOrUpdate upserts a contact. An empty contactID creates a new one;
// otherwise the existing contact is updated and its id returned unchanged.
func (c *GHLClient) CreateOrUpdate(ctx context.Context, fields model.ContactFields, contactID string) (string, error) {
	payload := ghlContactPayload{
		FirstName: fields.FirstName,
		LastName:  fields.LastName,
		Email:     fields.Email,
		Phone:     fields.Phone,
		Address1:  fields.Address,
	}
	if len(fields.UTM) > 0 {
		payload.CustomFields = fields.UTM
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	method, path := "POST", "/contacts/"
	if contactID != "" {
		method, path = "PUT", "/contacts/"+contactID
	}

	respBody, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return "", err
	}

	if contactID != "" {
		return contactID, nil
	}

	var parsed ghlContactResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse contact response: %w", err)
	}
	if parsed.Contact.ID != "" {
		return parsed.Contact.ID, nil
	}
	return parsed.ID, nil
}

// Get fetches a contact's fields for session pre-fill
func (c *GHLClient) Get(ctx context.Context, contactID string) (*model.ContactFields, error) {
	respBody, err := c.doRequest(ctx, "GET", "/contacts/"+contactID, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Contact struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Email     string `json:"email"`
			Phone     string `json:"phone"`
			Address1  string `json:"address1"`
		} `json:"contact"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse contact response: %w", err)
	}

	return &model.ContactFields{
		FirstName: parsed.Contact.FirstName,
		LastName:  parsed.Contact.LastName,
		Email:     parsed.Contact.Email,
		Phone:     parsed.Contact.Phone,
		Address:   parsed.Contact.Address1,
	}, nil
}
