// Package flow implements the survey wizard state machine: validation schema
// generation, skip routing, visibility resolution, and autofill detection.
// Everything here is pure; side effects live in the service layer.
package flow

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"quoteflow/internal/model"
)

// allowZeroSubstrings marks question ids whose required number answer may be
// zero (half the customer base has no pets; "number of people" may not be 0).
var allowZeroSubstrings = []string{"bath", "pets", "shedding"}

// FieldRule is the validation rule derived from one question definition
type FieldRule struct {
	Type      model.QuestionType
	Required  bool
	AllowZero bool
}

// Schema maps sanitized field ids to validation rules. It is rebuilt whenever
// the question list changes; a Schema never outlives its question snapshot.
type Schema struct {
	rules map[string]FieldRule
}

// BuildSchema derives the validation ruleset for a question list. Unknown
// question types fail here, at generation time, not at validation time.
func BuildSchema(questions []model.QuestionDefinition) (*Schema, error) {
	rules := make(map[string]FieldRule, len(questions))
	for _, q := range questions {
		switch q.Type {
		case model.QuestionTypeText, model.QuestionTypeEmail, model.QuestionTypeTel,
			model.QuestionTypeNumber, model.QuestionTypeSelect, model.QuestionTypeAddress:
		default:
			return nil, fmt.Errorf("question %q has unknown type %q", q.ID, q.Type)
		}
		rules[q.FieldID()] = FieldRule{
			Type:      q.Type,
			Required:  q.Required,
			AllowZero: allowsZero(q.ID),
		}
	}
	return &Schema{rules: rules}, nil
}

// Rule returns the rule for a sanitized field id
func (s *Schema) Rule(fieldID string) (FieldRule, bool) {
	r, ok := s.rules[fieldID]
	return r, ok
}

// Validate checks a single field value against its rule. A nil error means
// the value is acceptable for advancement.
func (s *Schema) Validate(fieldID, value string) error {
	rule, ok := s.rules[fieldID]
	if !ok {
		return fmt.Errorf("unknown field %q", fieldID)
	}
	return rule.validate(value)
}

// ValidateAll checks every field that is visible given the current answers.
// Skipped questions are excluded: an answer the user never saw cannot block.
func (s *Schema) ValidateAll(questions []model.QuestionDefinition, answers map[string]string) map[string]string {
	errs := make(map[string]string)
	for i, q := range questions {
		if !IsVisible(questions, i, answers) {
			continue
		}
		key := q.FieldID()
		if err := s.Validate(key, answers[key]); err != nil {
			errs[key] = err.Error()
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (r FieldRule) validate(value string) error {
	trimmed := strings.TrimSpace(value)

	switch r.Type {
	case model.QuestionTypeNumber:
		if trimmed == "" {
			if r.Required {
				return fmt.Errorf("this field is required")
			}
			return nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return fmt.Errorf("enter a whole number")
		}
		if n < 0 {
			return fmt.Errorf("enter a number of 0 or more")
		}
		if r.Required && !r.AllowZero && n == 0 {
			return fmt.Errorf("enter a number of 1 or more")
		}
		return nil

	case model.QuestionTypeEmail:
		if trimmed == "" {
			if r.Required {
				return fmt.Errorf("this field is required")
			}
			return nil
		}
		if !plausibleEmail(trimmed) {
			return fmt.Errorf("enter a valid email address")
		}
		return nil

	case model.QuestionTypeTel:
		if r.Required && len(trimmed) < 7 {
			return fmt.Errorf("enter a valid phone number")
		}
		return nil

	case model.QuestionTypeSelect:
		if r.Required && trimmed == "" {
			return fmt.Errorf("select an option")
		}
		return nil

	case model.QuestionTypeAddress, model.QuestionTypeText:
		if r.Required && trimmed == "" {
			return fmt.Errorf("this field is required")
		}
		return nil
	}
	return fmt.Errorf("unknown field type %q", r.Type)
}

func allowsZero(id string) bool {
	lower := strings.ToLower(id)
	for _, sub := range allowZeroSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

func plausibleEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return false
	}
	// mail.ParseAddress accepts local-only addresses; require a dotted domain
	at := strings.LastIndex(v, "@")
	return at > 0 && strings.Contains(v[at+1:], ".")
}
