package model

import "time"

// ToolSettings configures widget behavior and branding
type ToolSettings struct {
	Title        string `json:"title" bson:"title"`
	PrimaryColor string `json:"primaryColor" bson:"primaryColor"`
	// OpenInNewTab hands the session off to a new tab once the address is
	// confirmed in-service (only when the widget is embedded)
	OpenInNewTab bool `json:"openInNewTab" bson:"openInNewTab"`
	// Embedded marks the widget as served inside an iframe; terminal
	// navigations are then signaled to the parent frame instead of performed
	Embedded        bool   `json:"embedded" bson:"embedded"`
	SurveyURL       string `json:"surveyUrl,omitempty" bson:"surveyUrl,omitempty"`
	OutOfServiceURL string `json:"outOfServiceUrl,omitempty" bson:"outOfServiceUrl,omitempty"`
	QuoteResultURL  string `json:"quoteResultUrl,omitempty" bson:"quoteResultUrl,omitempty"`
	TrackingCode    string `json:"trackingCode,omitempty" bson:"trackingCode,omitempty"`
}

// GHLConfig holds the tool's GoHighLevel integration settings
type GHLConfig struct {
	LocationID string `json:"locationId,omitempty" bson:"locationId,omitempty"`
	PipelineID string `json:"pipelineId,omitempty" bson:"pipelineId,omitempty"`
	StageID    string `json:"stageId,omitempty" bson:"stageId,omitempty"`
	CalendarID string `json:"calendarId,omitempty" bson:"calendarId,omitempty"`
	APIKey     string `json:"apiKey,omitempty" bson:"apiKey,omitempty"`
}

// Tool is a configured quote-calculator widget owned by a dashboard user
type Tool struct {
	ID        string               `json:"id" bson:"_id,omitempty"`
	OwnerID   string               `json:"ownerId" bson:"ownerId"`
	Settings  ToolSettings         `json:"settings" bson:"settings"`
	GHL       GHLConfig            `json:"ghl" bson:"ghl"`
	Questions []QuestionDefinition `json:"questions" bson:"questions"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// SortedQuestions returns the tool's questions in traversal order
func (t *Tool) SortedQuestions() []QuestionDefinition {
	return SortQuestions(t.Questions)
}

// AddressIndex returns the index of the first address question in traversal
// order, or -1 when the survey has none
func (t *Tool) AddressIndex() int {
	for i, q := range t.SortedQuestions() {
		if q.Type == QuestionTypeAddress {
			return i
		}
	}
	return -1
}

// WidgetView strips dashboard-only fields before the config is served to the
// public widget endpoint
func (t *Tool) WidgetView() *Tool {
	view := *t
	view.GHL = GHLConfig{}
	view.OwnerID = ""
	return &view
}
