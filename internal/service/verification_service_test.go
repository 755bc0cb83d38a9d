package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoteflow/internal/model"
)

func surveyQuestions() []model.QuestionDefinition {
	return model.SortQuestions([]model.QuestionDefinition{
		{ID: "firstName", Label: "First name", Type: model.QuestionTypeText, Required: true, Order: 1},
		{ID: "email", Label: "Email", Type: model.QuestionTypeEmail, Required: true, Order: 2},
		{ID: "address", Label: "Address", Type: model.QuestionTypeAddress, Required: true, Order: 3},
		{ID: "serviceType", Label: "Service", Type: model.QuestionTypeSelect, Required: true, Order: 4, Options: []model.QuestionOption{
			{Value: "deep", SkipToQuestionID: model.SkipToEnd},
			{Value: "standard"},
		}},
		{ID: "people", Label: "People", Type: model.QuestionTypeNumber, Required: true, Order: 5},
	})
}

func surveyTool() *model.Tool {
	return &model.Tool{
		ID:        "tool-1",
		OwnerID:   "admin",
		Questions: surveyQuestions(),
	}
}

type verifyFixture struct {
	geocoder *fakeGeocoder
	areas    *fakeAreaChecker
	contacts *fakeContactAPI
	leads    *fakeLeadRepo
	sessions *fakeSessionCache
	svc      *VerificationService
}

func newVerifyFixture() *verifyFixture {
	f := &verifyFixture{
		geocoder: &fakeGeocoder{},
		areas:    &fakeAreaChecker{inService: true},
		contacts: &fakeContactAPI{},
		leads:    &fakeLeadRepo{},
		sessions: newFakeSessionCache(),
	}
	contactSvc := NewContactService(f.contacts, f.sessions)
	f.svc = NewVerificationService(f.geocoder, f.areas, contactSvc, f.leads, f.sessions)
	return f
}

func verifySession(t *testing.T, f *verifyFixture) *model.WizardSession {
	t.Helper()
	sess := &model.WizardSession{
		ID:      "sess-1",
		ToolID:  "tool-1",
		Status:  model.SessionActive,
		Answers: map[string]string{"address": "12 Main St"},
	}
	require.NoError(t, f.sessions.Set(context.Background(), sess))
	return sess
}

func TestZeroCoordinatesSkipPredicate(t *testing.T) {
	f := newVerifyFixture()
	sess := verifySession(t, f)
	sess.SetCoordinates(model.Coordinates{Lat: 0, Lng: 0})

	outcome := f.svc.Verify(context.Background(), sess, surveyTool(), surveyQuestions())

	assert.True(t, outcome.Advance)
	assert.Equal(t, 0, f.areas.callCount(), "the predicate must never see (0,0)")
}

func TestInServiceMarksChecked(t *testing.T) {
	f := newVerifyFixture()
	sess := verifySession(t, f)
	sess.SetCoordinates(model.Coordinates{Lat: 40.7, Lng: -73.9})

	outcome := f.svc.Verify(context.Background(), sess, surveyTool(), surveyQuestions())

	assert.True(t, outcome.Advance)
	assert.True(t, sess.ServiceAreaChecked)
	assert.Equal(t, 1, f.areas.callCount())
}

func TestCoordinateChangeResetsVerificationState(t *testing.T) {
	sess := &model.WizardSession{
		ServiceAreaChecked: true,
		TabOpened:          true,
	}
	gen := sess.VerificationGen

	sess.SetCoordinates(model.Coordinates{Lat: 1, Lng: 2})

	assert.False(t, sess.ServiceAreaChecked)
	assert.False(t, sess.TabOpened)
	assert.Equal(t, gen+1, sess.VerificationGen)

	sess.ServiceAreaChecked = true
	sess.TabOpened = true
	sess.ClearCoordinates()

	assert.Nil(t, sess.AddressCoordinates)
	assert.False(t, sess.ServiceAreaChecked)
	assert.False(t, sess.TabOpened)
}

func TestGuardAbsorbsSecondTrigger(t *testing.T) {
	f := newVerifyFixture()
	sess := verifySession(t, f)
	sess.SetCoordinates(model.Coordinates{Lat: 40.7, Lng: -73.9})

	acquired, err := f.sessions.AcquireVerification(context.Background(), sess.ID)
	require.NoError(t, err)
	require.True(t, acquired)

	outcome := f.svc.Verify(context.Background(), sess, surveyTool(), surveyQuestions())

	assert.True(t, outcome.Halted)
	assert.False(t, outcome.Advance)
	assert.Equal(t, 0, f.areas.callCount(), "second trigger must drop, not queue")
}

func TestStaleGenerationDropped(t *testing.T) {
	f := newVerifyFixture()
	sess := verifySession(t, f)
	sess.SetCoordinates(model.Coordinates{Lat: 40.7, Lng: -73.9})

	// The live copy has moved on to a newer address
	live := *sess
	live.SetCoordinates(model.Coordinates{Lat: 41.0, Lng: -74.0})
	require.NoError(t, f.sessions.Set(context.Background(), &live))

	outcome := f.svc.Verify(context.Background(), sess, surveyTool(), surveyQuestions())

	assert.True(t, outcome.Halted)
	assert.False(t, outcome.Advance)
	assert.False(t, outcome.OutOfService)
}

func TestOutOfServiceWithoutContactCreatesLead(t *testing.T) {
	f := newVerifyFixture()
	f.areas.inService = false
	sess := verifySession(t, f)
	sess.Answers["firstName"] = "Jane"
	sess.SetCoordinates(model.Coordinates{Lat: 40.7, Lng: -73.9})
	require.NoError(t, f.sessions.Set(context.Background(), sess))

	outcome := f.svc.Verify(context.Background(), sess, surveyTool(), surveyQuestions())

	assert.True(t, outcome.OutOfService)
	assert.Equal(t, model.SessionOutOfService, sess.Status)
	require.Equal(t, 1, f.leads.count())
	assert.Equal(t, "Jane", f.leads.leads[0].FirstName)
	assert.Equal(t, "12 Main St", f.leads.leads[0].Address)
	assert.Equal(t, 0, f.contacts.upsertCount(), "no contact to update")

	require.NotNil(t, outcome.Navigation)
	assert.Equal(t, model.NavigateRedirect, outcome.Navigation.Type)
	assert.Contains(t, outcome.Navigation.URL, "/out-of-service?")
	assert.Contains(t, outcome.Navigation.URL, "address=12+Main+St")
	assert.NotContains(t, outcome.Navigation.URL, "contactId")
}

func TestOutOfServiceWithContactUpdatesContact(t *testing.T) {
	f := newVerifyFixture()
	f.areas.inService = false
	sess := verifySession(t, f)
	sess.ContactID = "contact-9"
	sess.SetCoordinates(model.Coordinates{Lat: 40.7, Lng: -73.9})
	require.NoError(t, f.sessions.Set(context.Background(), sess))

	outcome := f.svc.Verify(context.Background(), sess, surveyTool(), surveyQuestions())

	assert.True(t, outcome.OutOfService)
	assert.Equal(t, 0, f.leads.count(), "existing contact must not become a second record")
	require.Equal(t, 1, f.contacts.upsertCount())
	assert.Equal(t, "contact-9", f.contacts.upsertIDs[0])
	assert.Equal(t, "12 Main St", f.contacts.upserts[0].Address)
	assert.Contains(t, outcome.Navigation.URL, "contactId=contact-9")
}

func TestOutOfServiceEmbeddedSignalsParentFrame(t *testing.T) {
	f := newVerifyFixture()
	f.areas.inService = false
	sess := verifySession(t, f)
	sess.SetCoordinates(model.Coordinates{Lat: 40.7, Lng: -73.9})

	tool := surveyTool()
	tool.Settings.Embedded = true
	outcome := f.svc.Verify(context.Background(), sess, tool, surveyQuestions())

	require.NotNil(t, outcome.Navigation)
	assert.Equal(t, model.NavigateParentFrame, outcome.Navigation.Type)
}

func TestNewTabHandoff(t *testing.T) {
	f := newVerifyFixture()
	sess := verifySession(t, f)
	sess.ContactID = "contact-9"
	sess.SetCoordinates(model.Coordinates{Lat: 40.7, Lng: -73.9})
	require.NoError(t, f.sessions.Set(context.Background(), sess))

	tool := surveyTool()
	tool.Settings.OpenInNewTab = true
	tool.Settings.Embedded = true
	tool.Settings.SurveyURL = "https://example.com/survey"

	outcome := f.svc.Verify(context.Background(), sess, tool, surveyQuestions())

	assert.True(t, outcome.Halted, "this session stops; the new tab continues")
	assert.True(t, sess.TabOpened)
	require.NotNil(t, outcome.Navigation)
	assert.Equal(t, model.NavigateOpenTab, outcome.Navigation.Type)
	assert.Contains(t, outcome.Navigation.URL, "contact_id=contact-9")

	// A re-trigger on the same address must not open a second tab
	require.NoError(t, f.sessions.Set(context.Background(), sess))
	outcome = f.svc.Verify(context.Background(), sess, tool, surveyQuestions())
	assert.True(t, outcome.Advance)
	assert.Nil(t, outcome.Navigation)
}

func TestNewTabRequiresContactAndIframe(t *testing.T) {
	f := newVerifyFixture()
	tool := surveyTool()
	tool.Settings.OpenInNewTab = true
	tool.Settings.Embedded = true

	// No contact id yet: proceed normally
	sess := verifySession(t, f)
	sess.SetCoordinates(model.Coordinates{Lat: 40.7, Lng: -73.9})
	outcome := f.svc.Verify(context.Background(), sess, tool, surveyQuestions())
	assert.True(t, outcome.Advance)
	assert.False(t, sess.TabOpened)

	// Not embedded: proceed normally
	tool.Settings.Embedded = false
	sess2 := verifySession(t, f)
	sess2.ID = "sess-2"
	sess2.ContactID = "contact-9"
	sess2.SetCoordinates(model.Coordinates{Lat: 40.7, Lng: -73.9})
	require.NoError(t, f.sessions.Set(context.Background(), sess2))
	outcome = f.svc.Verify(context.Background(), sess2, tool, surveyQuestions())
	assert.True(t, outcome.Advance)
	assert.False(t, sess2.TabOpened)
}

func TestTypedAddressGeocodeFailure(t *testing.T) {
	f := newVerifyFixture()
	sess := verifySession(t, f)

	outcome := f.svc.VerifyTyped(context.Background(), sess, surveyTool(), surveyQuestions())

	assert.NotEmpty(t, outcome.FieldError)
	assert.False(t, outcome.Advance)
	assert.False(t, sess.ServiceAreaChecked)
	assert.Equal(t, 0, f.areas.callCount())
}

func TestTypedAddressGeocodeSuccessNormalizes(t *testing.T) {
	f := newVerifyFixture()
	f.geocoder.result = &GeocodeResult{Lat: 40.7, Lng: -73.9, FormattedAddress: "12 Main St, Springfield, IL 62701"}
	sess := verifySession(t, f)

	outcome := f.svc.VerifyTyped(context.Background(), sess, surveyTool(), surveyQuestions())

	assert.True(t, outcome.Advance)
	assert.Equal(t, "12 Main St, Springfield, IL 62701", sess.Answers["address"])
	require.NotNil(t, sess.AddressCoordinates)
	assert.Equal(t, 40.7, sess.AddressCoordinates.Lat)
	assert.Equal(t, 1, f.areas.callCount())

	// The just-geocoded generation reached the live copy before the check,
	// so the staleness guard cannot mistake its own result for an old one
	stored, err := f.sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.VerificationGen, stored.VerificationGen)
	require.NotNil(t, stored.AddressCoordinates)
}

func TestAreaCheckFailureLetsUserThrough(t *testing.T) {
	f := newVerifyFixture()
	f.areas.err = assert.AnError
	sess := verifySession(t, f)
	sess.SetCoordinates(model.Coordinates{Lat: 40.7, Lng: -73.9})

	outcome := f.svc.Verify(context.Background(), sess, surveyTool(), surveyQuestions())

	assert.True(t, outcome.Advance, "best-effort check must not strand the user")
	assert.Equal(t, 0, f.leads.count())
}
