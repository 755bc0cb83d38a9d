package service

import (
	"context"
	"log"
	"net/url"

	"quoteflow/internal/cache"
	"quoteflow/internal/model"
	"quoteflow/internal/repository"
)

// DefaultOutOfServiceURL is used when a tool has no custom out-of-service page
const DefaultOutOfServiceURL = "/out-of-service"

// VerifyOutcome is the result of running the address gate
type VerifyOutcome struct {
	// Advance means the wizard may move past the address question
	Advance bool
	// Halted means this trigger was absorbed: the guard was busy, the result
	// went stale, or the session was handed off to a new tab
	Halted bool
	// OutOfService marks the terminal exit; Navigation carries the redirect
	OutOfService bool
	FieldError   string
	Navigation   *model.Navigation
}

// VerificationService orchestrates geocoding, the service-area check, and the
// in-service / out-of-service branching for the address step.
type VerificationService struct {
	geocoder   Geocoder
	areas      ServiceAreaChecker
	contactSvc *ContactService
	leads      repository.LeadRepo
	sessions   cache.SessionCache
}

// NewVerificationService creates a new verification service
func NewVerificationService(geocoder Geocoder, areas ServiceAreaChecker, contactSvc *ContactService, leads repository.LeadRepo, sessions cache.SessionCache) *VerificationService {
	return &VerificationService{
		geocoder:   geocoder,
		areas:      areas,
		contactSvc: contactSvc,
		leads:      leads,
		sessions:   sessions,
	}
}

// VerifyTyped handles a manually typed address: the user never picked an
// autocomplete suggestion, so the text is geocoded just in time. Failure to
// resolve blocks advancement with a field error; success normalizes the
// stored answer and falls through to the coordinate path.
func (s *VerificationService) VerifyTyped(ctx context.Context, sess *model.WizardSession, tool *model.Tool, questions []model.QuestionDefinition) VerifyOutcome {
	key := addressFieldID(questions)
	if key == "" {
		return VerifyOutcome{Advance: true}
	}

	place, err := s.geocoder.Geocode(ctx, sess.Answers[key])
	if err != nil {
		log.Printf("[Verify] Geocode failed for session %s: %v", sess.ID, err)
		return VerifyOutcome{FieldError: "We could not verify that address. Please check it and try again."}
	}
	if place == nil {
		return VerifyOutcome{FieldError: "We could not verify that address. Please check it and try again."}
	}

	sess.SetCoordinates(model.Coordinates{Lat: place.Lat, Lng: place.Lng})
	if place.FormattedAddress != "" {
		sess.Answers[key] = place.FormattedAddress
	}
	// Persist before the check so the live copy carries this generation
	if err := s.sessions.Set(ctx, sess); err != nil {
		log.Printf("[Verify] Session save failed for %s: %v", sess.ID, err)
	}
	return s.Verify(ctx, sess, tool, questions)
}

// Verify runs the service-area gate for a session whose coordinates are
// already known (autocomplete selection or a just-finished geocode).
func (s *VerificationService) Verify(ctx context.Context, sess *model.WizardSession, tool *model.Tool, questions []model.QuestionDefinition) VerifyOutcome {
	if sess.AddressCoordinates == nil {
		return s.VerifyTyped(ctx, sess, tool, questions)
	}
	coords := *sess.AddressCoordinates

	// An unresolvable autocomplete place comes back as exactly (0,0).
	// Deliberate fallback: cannot verify, let the user through rather than
	// strand them on a provider glitch. The predicate is never called.
	if coords.IsZero() {
		return VerifyOutcome{Advance: true}
	}

	// One in-flight check per session. An auto-advance timer racing an
	// explicit Next must not fire a second check; the loser no-ops.
	acquired, err := s.sessions.AcquireVerification(ctx, sess.ID)
	if err != nil {
		log.Printf("[Verify] Guard acquire failed for session %s: %v", sess.ID, err)
		return VerifyOutcome{Halted: true}
	}
	if !acquired {
		return VerifyOutcome{Halted: true}
	}
	defer func() {
		if err := s.sessions.ReleaseVerification(context.WithoutCancel(ctx), sess.ID); err != nil {
			log.Printf("[Verify] Guard release failed for session %s: %v", sess.ID, err)
		}
	}()

	gen := sess.VerificationGen

	inService, err := s.areas.Check(ctx, coords.Lat, coords.Lng, tool.ID)
	if err != nil {
		// Best-effort call: log and let the user keep going
		log.Printf("[Verify] Service area check failed for session %s: %v", sess.ID, err)
		sess.ServiceAreaChecked = true
		return VerifyOutcome{Advance: true}
	}

	// The address may have changed while the check was in flight; a result
	// for an older generation than the live copy must not act. The background
	// contact upsert may also have landed an id on the live copy in the
	// meantime.
	if live, err := s.sessions.Get(ctx, sess.ID); err == nil && live != nil {
		if live.VerificationGen > gen {
			return VerifyOutcome{Halted: true}
		}
		if sess.ContactID == "" {
			sess.ContactID = live.ContactID
		}
	}

	if inService {
		return s.inService(sess, tool)
	}
	return s.outOfService(ctx, sess, tool, questions)
}

func (s *VerificationService) inService(sess *model.WizardSession, tool *model.Tool) VerifyOutcome {
	sess.ServiceAreaChecked = true

	if tool.Settings.OpenInNewTab && tool.Settings.Embedded && sess.ContactID != "" && !sess.TabOpened {
		sess.TabOpened = true
		surveyURL := tool.Settings.SurveyURL
		if surveyURL == "" {
			surveyURL = "/"
		}
		q := url.Values{}
		q.Set("contact_id", sess.ContactID)
		return VerifyOutcome{
			Halted: true,
			Navigation: &model.Navigation{
				Type: model.NavigateOpenTab,
				URL:  surveyURL + "?" + q.Encode(),
			},
		}
	}

	return VerifyOutcome{Advance: true}
}

func (s *VerificationService) outOfService(ctx context.Context, sess *model.WizardSession, tool *model.Tool, questions []model.QuestionDefinition) VerifyOutcome {
	key := addressFieldID(questions)
	address := sess.Answers[key]

	if sess.ContactID != "" {
		s.contactSvc.UpdateWithAddress(ctx, sess, questions, address)
	} else {
		fields := CollectFields(questions, sess)
		lead := &model.OutOfServiceLead{
			ToolID:    tool.ID,
			FirstName: fields.FirstName,
			LastName:  fields.LastName,
			Email:     fields.Email,
			Phone:     fields.Phone,
			Address:   address,
		}
		if err := s.leads.Create(ctx, lead); err != nil {
			log.Printf("[Verify] Lead record failed for session %s: %v", sess.ID, err)
		}
	}

	base := tool.Settings.OutOfServiceURL
	if base == "" {
		base = DefaultOutOfServiceURL
	}
	q := url.Values{}
	q.Set("address", address)
	if sess.ContactID != "" {
		q.Set("contactId", sess.ContactID)
	}

	navType := model.NavigateRedirect
	if tool.Settings.Embedded {
		navType = model.NavigateParentFrame
	}

	sess.Status = model.SessionOutOfService
	return VerifyOutcome{
		OutOfService: true,
		Navigation: &model.Navigation{
			Type: navType,
			URL:  base + "?" + q.Encode(),
		},
	}
}

func addressFieldID(questions []model.QuestionDefinition) string {
	for _, q := range questions {
		if q.Type == model.QuestionTypeAddress {
			return q.FieldID()
		}
	}
	return ""
}
