package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"quoteflow/internal/cache"
	"quoteflow/internal/flow"
	"quoteflow/internal/model"
	"quoteflow/internal/repository"
)

var (
	ErrToolNotFound    = errors.New("tool not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInactive = errors.New("session is not active")
	ErrNotAddressStep  = errors.New("current question is not an address")
)

const quoteFailureMessage = "We couldn't generate your quote. Please try again."

// WizardService is the wizard controller: it owns session state transitions,
// runs validation and skip routing on every event, triggers the address gate
// and contact checkpoints, and hands off to the quote service at the end.
type WizardService struct {
	toolSvc     *ToolService
	sessions    cache.SessionCache
	sessionRepo repository.SessionRepo
	contactSvc  *ContactService
	verifier    *VerificationService
	quotes      QuoteAPI
	broadcaster Broadcaster
	now         func() time.Time
}

// NewWizardService creates a new wizard service
func NewWizardService(
	toolSvc *ToolService,
	sessions cache.SessionCache,
	sessionRepo repository.SessionRepo,
	contactSvc *ContactService,
	verifier *VerificationService,
	quotes QuoteAPI,
) *WizardService {
	return &WizardService{
		toolSvc:     toolSvc,
		sessions:    sessions,
		sessionRepo: sessionRepo,
		contactSvc:  contactSvc,
		verifier:    verifier,
		quotes:      quotes,
		now:         time.Now,
	}
}

// SetBroadcaster sets the broadcaster for dashboard events
func (s *WizardService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartSession creates a fresh wizard session for a tool, honoring resume
// parameters: a contact id pre-fills known fields and both a contact id and
// the explicit start-at-address flag jump the session to the address step.
func (s *WizardService) StartSession(ctx context.Context, toolID string, params model.StartParams) (*model.WizardSession, *model.StepResult, error) {
	tool, err := s.toolSvc.GetByID(ctx, toolID)
	if err != nil {
		return nil, nil, err
	}
	if tool == nil {
		return nil, nil, ErrToolNotFound
	}
	questions := tool.SortedQuestions()
	if _, err := flow.BuildSchema(questions); err != nil {
		return nil, nil, err
	}

	sess := &model.WizardSession{
		ID:        uuid.NewString(),
		ToolID:    toolID,
		Status:    model.SessionActive,
		Answers:   make(map[string]string),
		Direction: 1,
		UTM:       params.UTM,
		CreatedAt: s.now(),
	}

	if params.ContactID != "" {
		sess.ContactID = params.ContactID
		fields, err := s.contactSvc.Prefill(ctx, params.ContactID)
		if err != nil {
			log.Printf("[Wizard] Prefill failed for contact %s: %v", params.ContactID, err)
		} else if fields != nil {
			applyPrefill(sess, questions, *fields)
		}
	}

	if params.StartAtAddress || params.ContactID != "" {
		if idx := tool.AddressIndex(); idx >= 0 {
			sess.CurrentIndex = idx
		}
	}

	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, nil, err
	}
	s.archive(ctx, sess)
	s.broadcast(toolID, "session_started", map[string]interface{}{
		"sessionId": sess.ID,
		"resumed":   params.ContactID != "",
	})

	return sess, s.stepResult(sess, questions), nil
}

// CurrentStep returns what the widget should render right now
func (s *WizardService) CurrentStep(ctx context.Context, sessionID string) (*model.StepResult, error) {
	sess, _, questions, _, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.stepResult(sess, questions), nil
}

// Next records the current step's value and advances if it validates. The
// address step additionally runs the verification gate, which may block with
// a field error, absorb the trigger, hand off to a new tab, or exit the
// session out-of-service.
func (s *WizardService) Next(ctx context.Context, sessionID, value string) (*model.StepResult, error) {
	sess, tool, questions, schema, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionActive {
		return nil, ErrSessionInactive
	}
	if sess.CurrentIndex >= len(questions) {
		return s.submitQuote(ctx, sess, tool, questions)
	}

	q := questions[sess.CurrentIndex]
	key := q.FieldID()

	if q.Type == model.QuestionTypeAddress && sess.Answers[key] != value {
		// Text changed since the last autocomplete selection; whatever we
		// geocoded before no longer describes this address
		sess.ClearCoordinates()
	}
	sess.Answers[key] = value

	if err := schema.Validate(key, value); err != nil {
		if saveErr := s.sessions.Set(ctx, sess); saveErr != nil {
			return nil, saveErr
		}
		res := s.stepResult(sess, questions)
		res.FieldErrors = map[string]string{key: err.Error()}
		return res, nil
	}

	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}

	if q.Type == model.QuestionTypeEmail {
		// Fire and forget; the wizard never waits on contact creation
		s.contactSvc.SyncAfterEmail(sess, questions)
	}

	if q.Type == model.QuestionTypeAddress {
		outcome := s.verifier.Verify(ctx, sess, tool, questions)
		if done, res, err := s.applyVerify(ctx, sess, tool, questions, outcome); done {
			return res, err
		}
	}

	return s.advance(ctx, sess, tool, questions)
}

// Previous steps back one question. Plain decrement: skip routing is not
// replayed in reverse.
func (s *WizardService) Previous(ctx context.Context, sessionID string) (*model.StepResult, error) {
	sess, _, questions, _, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionActive {
		return nil, ErrSessionInactive
	}

	sess.CurrentIndex = flow.PrevIndex(sess.CurrentIndex)
	sess.Direction = -1
	sess.Autofill = model.AutofillState{}
	sess.LastError = ""
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}
	return s.stepResult(sess, questions), nil
}

// SelectAddress records an autocomplete selection (text plus coordinates),
// re-arms verification, and auto-advances when the address verifies in
// service. Coordinates of exactly (0,0) mean the provider could not resolve
// the place and the gate waves the session through unchecked.
func (s *WizardService) SelectAddress(ctx context.Context, sessionID, value string, lat, lng float64) (*model.StepResult, error) {
	sess, tool, questions, schema, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionActive {
		return nil, ErrSessionInactive
	}
	if sess.CurrentIndex >= len(questions) || questions[sess.CurrentIndex].Type != model.QuestionTypeAddress {
		return nil, ErrNotAddressStep
	}

	key := questions[sess.CurrentIndex].FieldID()
	sess.Answers[key] = value
	sess.SetCoordinates(model.Coordinates{Lat: lat, Lng: lng})
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}

	if err := schema.Validate(key, value); err != nil {
		res := s.stepResult(sess, questions)
		res.FieldErrors = map[string]string{key: err.Error()}
		return res, nil
	}

	outcome := s.verifier.Verify(ctx, sess, tool, questions)
	if done, res, err := s.applyVerify(ctx, sess, tool, questions, outcome); done {
		return res, err
	}

	res, err := s.advance(ctx, sess, tool, questions)
	if err == nil {
		res.AutoAdvanced = true
	}
	return res, err
}

// ObserveInput feeds one input observation (change event or poll tick) into
// autofill detection for the current step. Once an autofilled value survives
// the debounce window and validates, the wizard auto-advances.
func (s *WizardService) ObserveInput(ctx context.Context, sessionID, value string, keystroke bool) (*model.StepResult, error) {
	sess, tool, questions, schema, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionActive {
		return nil, ErrSessionInactive
	}
	if sess.CurrentIndex >= len(questions) {
		return s.stepResult(sess, questions), nil
	}

	q := questions[sess.CurrentIndex]
	if !flow.AutofillSupported(q.Type) {
		return s.stepResult(sess, questions), nil
	}

	now := s.now()
	sess.Autofill = flow.ObserveInput(sess.Autofill, q.Type, flow.InputEvent{
		Value:     value,
		Keystroke: keystroke,
		At:        now,
	})

	filled, ready := flow.AutofillReady(sess.Autofill, now)
	if !ready {
		if err := s.sessions.Set(ctx, sess); err != nil {
			return nil, err
		}
		return s.stepResult(sess, questions), nil
	}

	key := q.FieldID()
	sess.Answers[key] = filled
	sess.Autofill = model.AutofillState{}
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}

	// An autofilled value that does not validate just sits there; the user
	// will see the inline error when they press Next themselves
	if err := schema.Validate(key, filled); err != nil {
		return s.stepResult(sess, questions), nil
	}

	if q.Type == model.QuestionTypeEmail {
		s.contactSvc.SyncAfterEmail(sess, questions)
	}

	res, err := s.advance(ctx, sess, tool, questions)
	if err == nil {
		res.AutoAdvanced = true
	}
	return res, err
}

// AnotherQuote loops a finished session back to the address step: a new
// logical session over the same question list and answers.
func (s *WizardService) AnotherQuote(ctx context.Context, sessionID string) (*model.StepResult, error) {
	sess, tool, questions, _, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionResult {
		return nil, ErrSessionInactive
	}

	sess.Status = model.SessionActive
	sess.Quote = nil
	sess.LastError = ""
	sess.Direction = 1
	sess.Autofill = model.AutofillState{}
	if idx := tool.AddressIndex(); idx >= 0 {
		sess.CurrentIndex = idx
	} else {
		sess.CurrentIndex = 0
	}

	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}
	return s.stepResult(sess, questions), nil
}

func (s *WizardService) load(ctx context.Context, sessionID string) (*model.WizardSession, *model.Tool, []model.QuestionDefinition, *flow.Schema, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if sess == nil {
		return nil, nil, nil, nil, ErrSessionNotFound
	}

	tool, err := s.toolSvc.GetByID(ctx, sess.ToolID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if tool == nil {
		return nil, nil, nil, nil, ErrToolNotFound
	}

	questions := tool.SortedQuestions()
	schema, err := flow.BuildSchema(questions)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("tool %s has invalid questions: %w", tool.ID, err)
	}
	return sess, tool, questions, schema, nil
}

// applyVerify translates a gate outcome into a response. done=false means
// the wizard should advance normally.
func (s *WizardService) applyVerify(ctx context.Context, sess *model.WizardSession, tool *model.Tool, questions []model.QuestionDefinition, outcome VerifyOutcome) (bool, *model.StepResult, error) {
	switch {
	case outcome.FieldError != "":
		if err := s.sessions.Set(ctx, sess); err != nil {
			return true, nil, err
		}
		res := s.stepResult(sess, questions)
		key := addressFieldID(questions)
		res.FieldErrors = map[string]string{key: outcome.FieldError}
		return true, res, nil

	case outcome.OutOfService:
		if err := s.sessions.Set(ctx, sess); err != nil {
			return true, nil, err
		}
		s.archive(ctx, sess)
		s.broadcast(tool.ID, "out_of_service", map[string]interface{}{
			"sessionId": sess.ID,
			"address":   sess.Answers[addressFieldID(questions)],
		})
		res := s.stepResult(sess, questions)
		res.Navigation = outcome.Navigation
		return true, res, nil

	case outcome.Halted:
		if err := s.sessions.Set(ctx, sess); err != nil {
			return true, nil, err
		}
		res := s.stepResult(sess, questions)
		res.Navigation = outcome.Navigation
		return true, res, nil
	}

	// Advance: the gate is satisfied; persist serviceAreaChecked before moving on
	if err := s.sessions.Set(ctx, sess); err != nil {
		return true, nil, err
	}
	return false, nil, nil
}

func (s *WizardService) advance(ctx context.Context, sess *model.WizardSession, tool *model.Tool, questions []model.QuestionDefinition) (*model.StepResult, error) {
	next := flow.NextIndex(questions, sess.CurrentIndex, sess.Answers)
	if next >= len(questions) {
		return s.submitQuote(ctx, sess, tool, questions)
	}

	sess.CurrentIndex = next
	sess.Direction = 1
	sess.Autofill = model.AutofillState{}
	sess.LastError = ""
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}

	s.broadcast(tool.ID, "step_advanced", map[string]interface{}{
		"sessionId": sess.ID,
		"index":     sess.CurrentIndex,
	})
	return s.stepResult(sess, questions), nil
}

func (s *WizardService) submitQuote(ctx context.Context, sess *model.WizardSession, tool *model.Tool, questions []model.QuestionDefinition) (*model.StepResult, error) {
	sess.Status = model.SessionSubmitting

	// The background contact upsert may have landed since this request
	// started; prefer the freshest id, falling back to the one the session
	// was opened with
	if sess.ContactID == "" {
		if live, err := s.sessions.Get(ctx, sess.ID); err == nil && live != nil && live.ContactID != "" {
			sess.ContactID = live.ContactID
		}
	}

	result, err := s.quotes.Submit(ctx, sess.Answers, sess.ContactID, tool.ID, sess.UTM)
	if err != nil {
		log.Printf("[Wizard] Quote submission failed for session %s: %v", sess.ID, err)
		sess.Status = model.SessionActive
		sess.LastError = quoteFailureMessage
		if saveErr := s.sessions.Set(ctx, sess); saveErr != nil {
			return nil, saveErr
		}
		return s.stepResult(sess, questions), nil
	}

	sess.Status = model.SessionResult
	sess.Quote = result
	sess.LastError = ""
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}
	s.archive(ctx, sess)
	s.broadcast(tool.ID, "quote_submitted", map[string]interface{}{
		"sessionId": sess.ID,
		"quoteId":   result.QuoteID,
	})

	res := s.stepResult(sess, questions)
	if result.QuoteID != "" {
		res.Navigation = s.quoteNavigation(sess, tool, result.QuoteID)
	}
	return res, nil
}

func (s *WizardService) quoteNavigation(sess *model.WizardSession, tool *model.Tool, quoteID string) *model.Navigation {
	base := tool.Settings.QuoteResultURL
	if base == "" {
		base = "/quote"
	}
	q := url.Values{}
	q.Set("quoteId", quoteID)
	if sess.ContactID != "" {
		q.Set("contactId", sess.ContactID)
	}

	navType := model.NavigateRedirect
	if tool.Settings.Embedded {
		navType = model.NavigateParentFrame
	}
	return &model.Navigation{Type: navType, URL: base + "?" + q.Encode()}
}

func (s *WizardService) stepResult(sess *model.WizardSession, questions []model.QuestionDefinition) *model.StepResult {
	res := &model.StepResult{
		Status:    sess.Status,
		Index:     sess.CurrentIndex,
		Direction: sess.Direction,
		Quote:     sess.Quote,
		Error:     sess.LastError,
	}
	if sess.Status == model.SessionActive && sess.CurrentIndex < len(questions) {
		q := questions[sess.CurrentIndex]
		res.Question = &q
	}
	return res
}

func (s *WizardService) archive(ctx context.Context, sess *model.WizardSession) {
	if s.sessionRepo == nil {
		return
	}
	if err := s.sessionRepo.Upsert(ctx, sess); err != nil {
		log.Printf("[Wizard] Session archive failed for %s: %v", sess.ID, err)
	}
}

func (s *WizardService) broadcast(toolID, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToDashboard(toolID, msgType, payload)
	}
}

func applyPrefill(sess *model.WizardSession, questions []model.QuestionDefinition, fields model.ContactFields) {
	for _, q := range questions {
		key := q.FieldID()
		lower := strings.ToLower(q.ID)
		switch {
		case q.Type == model.QuestionTypeEmail && fields.Email != "":
			sess.Answers[key] = fields.Email
		case q.Type == model.QuestionTypeTel && fields.Phone != "":
			sess.Answers[key] = fields.Phone
		case q.Type == model.QuestionTypeText && strings.Contains(lower, "first") && fields.FirstName != "":
			sess.Answers[key] = fields.FirstName
		case q.Type == model.QuestionTypeText && strings.Contains(lower, "last") && fields.LastName != "":
			sess.Answers[key] = fields.LastName
		}
	}
}
