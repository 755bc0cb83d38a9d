package model

import "time"

type SessionStatus string

const (
	SessionActive       SessionStatus = "active"
	SessionSubmitting   SessionStatus = "submitting"
	SessionResult       SessionStatus = "result"
	SessionOutOfService SessionStatus = "out_of_service"
)

// Coordinates is a geocoded point. The zero value (0,0) is meaningful: it is
// what the autocomplete provider returns for unresolvable places, and the
// verification gate treats it as "cannot verify, let through".
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// IsZero reports whether both coordinates are exactly zero
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// AutofillState tracks input observations on the current step so browser
// autofill can be told apart from user typing. Reset on every step change.
type AutofillState struct {
	KeystrokeSeen bool      `json:"keystrokeSeen" bson:"keystrokeSeen"`
	LastValue     string    `json:"lastValue" bson:"lastValue"`
	PendingValue  string    `json:"pendingValue,omitempty" bson:"pendingValue,omitempty"`
	PendingSince  time.Time `json:"pendingSince,omitempty" bson:"pendingSince,omitempty"`
}

// WizardSession is the full state of one survey session. It is owned by the
// wizard service and mutated only through it; the cache holds the live copy.
type WizardSession struct {
	ID       string        `json:"id" bson:"_id,omitempty"`
	ToolID   string        `json:"toolId" bson:"toolId"`
	Status   SessionStatus `json:"status" bson:"status"`
	Answers  map[string]string `json:"answers" bson:"answers"`
	Autofill AutofillState     `json:"autofill" bson:"autofill"`

	CurrentIndex int `json:"currentIndex" bson:"currentIndex"`
	Direction    int `json:"direction" bson:"direction"` // +1 or -1, animation only

	AddressCoordinates *Coordinates `json:"addressCoordinates,omitempty" bson:"addressCoordinates,omitempty"`
	ServiceAreaChecked bool         `json:"serviceAreaChecked" bson:"serviceAreaChecked"`
	TabOpened          bool         `json:"tabOpened" bson:"tabOpened"`
	// VerificationGen increments whenever the address coordinates change, so
	// a service-area check that resolves after the address moved on is dropped.
	VerificationGen int64 `json:"verificationGen" bson:"verificationGen"`

	ContactID string            `json:"contactId,omitempty" bson:"contactId,omitempty"`
	UTM       map[string]string `json:"utm,omitempty" bson:"utm,omitempty"`

	Quote     *QuoteResult `json:"quote,omitempty" bson:"quote,omitempty"`
	LastError string       `json:"lastError,omitempty" bson:"lastError,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SetCoordinates records a new geocoded point and resets everything that a
// changed address invalidates: a changed address always requires re-verification.
func (s *WizardSession) SetCoordinates(c Coordinates) {
	s.AddressCoordinates = &c
	s.ServiceAreaChecked = false
	s.TabOpened = false
	s.VerificationGen++
}

// ClearCoordinates drops the geocoded point (address text changed without a
// new autocomplete selection)
func (s *WizardSession) ClearCoordinates() {
	s.AddressCoordinates = nil
	s.ServiceAreaChecked = false
	s.TabOpened = false
	s.VerificationGen++
}

// StartParams are the URL parameters consumed when a session begins
type StartParams struct {
	ContactID      string            `json:"contactId,omitempty"`
	StartAtAddress bool              `json:"startAtAddress,omitempty"`
	UTM            map[string]string `json:"utm,omitempty"`
}

// NavigationType selects how the widget should leave (or fork) the page
type NavigationType string

const (
	// NavigateRedirect changes the current window location
	NavigateRedirect NavigationType = "redirect"
	// NavigateParentFrame signals the parent frame before changing location
	// (widget embedded in an iframe)
	NavigateParentFrame NavigationType = "parent_frame"
	// NavigateOpenTab opens the survey in a new tab and halts this session
	NavigateOpenTab NavigationType = "open_tab"
)

// Navigation is a directive for the widget to perform a navigation
type Navigation struct {
	Type NavigationType `json:"type"`
	URL  string         `json:"url"`
}

// StepResult is what the widget renders after any wizard event
type StepResult struct {
	Status       SessionStatus       `json:"status"`
	Index        int                 `json:"index"`
	Direction    int                 `json:"direction"`
	Question     *QuestionDefinition `json:"question,omitempty"`
	FieldErrors  map[string]string   `json:"fieldErrors,omitempty"`
	Navigation   *Navigation         `json:"navigation,omitempty"`
	Quote        *QuoteResult        `json:"quote,omitempty"`
	AutoAdvanced bool                `json:"autoAdvanced,omitempty"`
	Error        string              `json:"error,omitempty"`
}
