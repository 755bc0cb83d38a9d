package service

import (
	"context"

	"quoteflow/internal/model"
)

// The wizard consumes these as black boxes; the HTTP implementations live in
// the *_client.go files and the interfaces keep services testable.

// Geocoder resolves free-typed address text to coordinates. A nil result with
// a nil error means the text could not be resolved to a place.
type Geocoder interface {
	Geocode(ctx context.Context, addressText string) (*GeocodeResult, error)
}

// GeocodeResult is a resolved place
type GeocodeResult struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress"`
}

// ServiceAreaChecker answers whether a point falls inside a tool's service
// area (the KML polygon engine behind it is not our concern)
type ServiceAreaChecker interface {
	Check(ctx context.Context, lat, lng float64, toolID string) (bool, error)
}

// ContactAPI is the CRM (GoHighLevel) contact surface
type ContactAPI interface {
	// CreateOrUpdate upserts a contact; contactID empty means create
	CreateOrUpdate(ctx context.Context, fields model.ContactFields, contactID string) (string, error)
	Get(ctx context.Context, contactID string) (*model.ContactFields, error)
}

// QuoteAPI computes the final quote from the collected answers
type QuoteAPI interface {
	Submit(ctx context.Context, answers map[string]string, contactID, toolID string, utm map[string]string) (*model.QuoteResult, error)
}
