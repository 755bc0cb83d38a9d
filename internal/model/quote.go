package model

// QuoteRange is one priced service band in an inline quote response
type QuoteRange struct {
	ServiceLabel string  `json:"serviceLabel" bson:"serviceLabel"`
	Min          float64 `json:"min" bson:"min"`
	Max          float64 `json:"max" bson:"max"`
}

// QuoteResult is the pricing service's response. Either QuoteID is set (the
// widget redirects to the hosted result page) or the legacy inline fields are.
type QuoteResult struct {
	QuoteID          string       `json:"quoteId,omitempty" bson:"quoteId,omitempty"`
	OutOfLimits      bool         `json:"outOfLimits,omitempty" bson:"outOfLimits,omitempty"`
	Ranges           []QuoteRange `json:"ranges,omitempty" bson:"ranges,omitempty"`
	ServiceTypeLabel string       `json:"serviceTypeLabel,omitempty" bson:"serviceTypeLabel,omitempty"`
}
