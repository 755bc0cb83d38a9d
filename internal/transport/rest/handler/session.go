package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"quoteflow/internal/model"
	"quoteflow/internal/service"
)

// SessionHandler handles the widget-facing wizard endpoints
type SessionHandler struct {
	wizardSvc *service.WizardService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(wizardSvc *service.WizardService) *SessionHandler {
	return &SessionHandler{wizardSvc: wizardSvc}
}

// StartSessionResponse pairs the new session id with its first step
type StartSessionResponse struct {
	SessionID string            `json:"sessionId"`
	Step      *model.StepResult `json:"step"`
}

// NextRequest carries the current step's value on an explicit Next
type NextRequest struct {
	Value string `json:"value"`
}

// SelectAddressRequest carries an autocomplete selection
type SelectAddressRequest struct {
	Value string  `json:"value"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// ObserveRequest is one input observation (change event or poll tick)
type ObserveRequest struct {
	Value     string `json:"value"`
	Keystroke bool   `json:"keystroke"`
}

// Start handles POST /v1/tools/{toolId}/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	toolID := mux.Vars(r)["toolId"]

	params := startParamsFromQuery(r)
	sess, step, err := h.wizardSvc.StartSession(r.Context(), toolID, params)
	if err != nil {
		writeWizardError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, StartSessionResponse{
		SessionID: sess.ID,
		Step:      step,
	})
}

// Current handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	step, err := h.wizardSvc.CurrentStep(r.Context(), sessionID)
	if err != nil {
		writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// Next handles POST /v1/sessions/{sessionId}/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req NextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	step, err := h.wizardSvc.Next(r.Context(), sessionID, req.Value)
	if err != nil {
		writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// Previous handles POST /v1/sessions/{sessionId}/previous
func (h *SessionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	step, err := h.wizardSvc.Previous(r.Context(), sessionID)
	if err != nil {
		writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// SelectAddress handles POST /v1/sessions/{sessionId}/address
func (h *SessionHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req SelectAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	step, err := h.wizardSvc.SelectAddress(r.Context(), sessionID, req.Value, req.Lat, req.Lng)
	if err != nil {
		writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// Observe handles POST /v1/sessions/{sessionId}/observe
func (h *SessionHandler) Observe(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req ObserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	step, err := h.wizardSvc.ObserveInput(r.Context(), sessionID, req.Value, req.Keystroke)
	if err != nil {
		writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// Another handles POST /v1/sessions/{sessionId}/another
func (h *SessionHandler) Another(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	step, err := h.wizardSvc.AnotherQuote(r.Context(), sessionID)
	if err != nil {
		writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// startParamsFromQuery reads the session-start URL parameters: the contact id
// under either accepted name, the start-at-address flag, and UTM attribution.
func startParamsFromQuery(r *http.Request) model.StartParams {
	q := r.URL.Query()

	contactID := q.Get("contact_id")
	if contactID == "" {
		contactID = q.Get("contactId")
	}

	fromOOS := q.Get("from_oos") == "true" || q.Get("start_at_address") == "true"

	var utm map[string]string
	for key, values := range q {
		if !strings.HasPrefix(key, "utm_") || len(values) == 0 {
			continue
		}
		if utm == nil {
			utm = make(map[string]string)
		}
		utm[key] = values[0]
	}

	return model.StartParams{
		ContactID:      contactID,
		StartAtAddress: fromOOS,
		UTM:            utm,
	}
}

func writeWizardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrToolNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionInactive), errors.Is(err, service.ErrNotAddressStep):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
