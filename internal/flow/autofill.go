package flow

import (
	"time"

	"quoteflow/internal/model"
)

// AutofillDebounce is how long a value that appeared without a keystroke must
// sit unchanged before the wizard auto-advances. Long enough for a
// password-manager burst to finish filling every field it is going to.
const AutofillDebounce = 600 * time.Millisecond

// InputEvent is one observation of the current step's input. The widget
// reports two channels into the same function: real change events
// (Keystroke true when a key event accompanied the change) and periodic
// polls (Keystroke always false), because some browsers never fire change
// events on autofill.
type InputEvent struct {
	Value     string
	Keystroke bool
	At        time.Time
}

// AutofillSupported reports whether autofill detection applies to a question
// type. Address has its own autocomplete flow; select and number use explicit
// tap targets.
func AutofillSupported(t model.QuestionType) bool {
	switch t {
	case model.QuestionTypeText, model.QuestionTypeEmail, model.QuestionTypeTel:
		return true
	}
	return false
}

// ObserveInput folds one observation into the autofill state. Pure: callers
// persist the returned state on the session.
func ObserveInput(st model.AutofillState, t model.QuestionType, ev InputEvent) model.AutofillState {
	if !AutofillSupported(t) {
		return st
	}
	if ev.Keystroke {
		// A real keystroke; anything after this is user typing, not autofill
		st.KeystrokeSeen = true
		st.LastValue = ev.Value
		st.PendingValue = ""
		st.PendingSince = time.Time{}
		return st
	}
	if st.KeystrokeSeen || ev.Value == st.LastValue {
		st.LastValue = ev.Value
		return st
	}
	st.LastValue = ev.Value
	if ev.Value == "" {
		st.PendingValue = ""
		st.PendingSince = time.Time{}
		return st
	}
	// Value changed with no keystroke: looks like autofill. Restart the
	// debounce window on every change so multi-field bursts settle first.
	st.PendingValue = ev.Value
	st.PendingSince = ev.At
	return st
}

// AutofillReady returns the autofilled value once the debounce window has
// elapsed. The caller validates it and auto-advances if it passes.
func AutofillReady(st model.AutofillState, now time.Time) (string, bool) {
	if st.PendingValue == "" || st.PendingSince.IsZero() {
		return "", false
	}
	if now.Sub(st.PendingSince) < AutofillDebounce {
		return "", false
	}
	return st.PendingValue, true
}
