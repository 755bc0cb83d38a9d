package service

import (
	"context"
	"log"
	"strings"
	"time"

	"quoteflow/internal/cache"
	"quoteflow/internal/model"
)

// ContactService coordinates the CRM contact lifecycle: create after the
// email step, update when the address lands or the session exits
// out-of-service, and thread the id through the rest of the session.
type ContactService struct {
	contacts ContactAPI
	sessions cache.SessionCache
}

// NewContactService creates a new contact service
func NewContactService(contacts ContactAPI, sessions cache.SessionCache) *ContactService {
	return &ContactService{
		contacts: contacts,
		sessions: sessions,
	}
}

// CollectFields maps the session's answers onto CRM contact fields using the
// question types (email/tel) and id conventions (first*/last* name fields).
func CollectFields(questions []model.QuestionDefinition, sess *model.WizardSession) model.ContactFields {
	fields := model.ContactFields{UTM: sess.UTM}
	for _, q := range questions {
		value := strings.TrimSpace(sess.Answers[q.FieldID()])
		if value == "" {
			continue
		}
		lower := strings.ToLower(q.ID)
		switch {
		case q.Type == model.QuestionTypeEmail:
			fields.Email = value
		case q.Type == model.QuestionTypeTel:
			fields.Phone = value
		case q.Type == model.QuestionTypeAddress:
			fields.Address = value
		case q.Type == model.QuestionTypeText && strings.Contains(lower, "first"):
			fields.FirstName = value
		case q.Type == model.QuestionTypeText && strings.Contains(lower, "last"):
			fields.LastName = value
		}
	}
	return fields
}

// SyncAfterEmail upserts the contact in the background once the email step
// validates. The wizard never waits on it: if the address step arrives before
// this resolves, the session simply still has no contact id and later calls
// take the no-contact branch.
func (s *ContactService) SyncAfterEmail(sess *model.WizardSession, questions []model.QuestionDefinition) {
	sessionID := sess.ID
	contactID := sess.ContactID
	fields := CollectFields(questions, sess)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		id, err := s.contacts.CreateOrUpdate(ctx, fields, contactID)
		if err != nil {
			log.Printf("[Contact] Upsert after email failed for session %s: %v", sessionID, err)
			return
		}
		if contactID != "" || id == "" {
			return
		}

		// Re-read the live session: it may have ended, or a contact id may
		// have been set by the pre-fill flow while this call was in flight.
		// The id is set exactly once per session.
		current, err := s.sessions.Get(ctx, sessionID)
		if err != nil || current == nil {
			return
		}
		if current.ContactID != "" {
			return
		}
		current.ContactID = id
		if err := s.sessions.Set(ctx, current); err != nil {
			log.Printf("[Contact] Failed to store contact id for session %s: %v", sessionID, err)
		}
	}()
}

// UpdateWithAddress synchronously updates the existing contact with the
// confirmed address. Best effort: failures are logged, never surfaced.
func (s *ContactService) UpdateWithAddress(ctx context.Context, sess *model.WizardSession, questions []model.QuestionDefinition, address string) {
	if sess.ContactID == "" {
		return
	}
	fields := CollectFields(questions, sess)
	fields.Address = address
	if _, err := s.contacts.CreateOrUpdate(ctx, fields, sess.ContactID); err != nil {
		log.Printf("[Contact] Address update failed for contact %s: %v", sess.ContactID, err)
	}
}

// Prefill fetches an existing contact's fields for a resumed session
func (s *ContactService) Prefill(ctx context.Context, contactID string) (*model.ContactFields, error) {
	return s.contacts.Get(ctx, contactID)
}
