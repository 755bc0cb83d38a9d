package model

import (
	"sort"
	"strings"
)

// QuestionType defines the input type of a survey question
type QuestionType string

const (
	QuestionTypeText    QuestionType = "text"
	QuestionTypeEmail   QuestionType = "email"
	QuestionTypeTel     QuestionType = "tel"
	QuestionTypeNumber  QuestionType = "number"
	QuestionTypeSelect  QuestionType = "select"
	QuestionTypeAddress QuestionType = "address"
)

// SkipToEnd is the sentinel skip target meaning "end of survey, submit"
const SkipToEnd = "end"

// QuestionOption is a selectable choice on a select question
type QuestionOption struct {
	Value            string `json:"value" bson:"value"`
	Label            string `json:"label" bson:"label"`
	SkipToQuestionID string `json:"skipToQuestionId,omitempty" bson:"skipToQuestionId,omitempty"`
}

// QuestionDefinition is a single question in a tool's survey
type QuestionDefinition struct {
	ID              string           `json:"id" bson:"id"`
	Label           string           `json:"label" bson:"label"`
	Type            QuestionType     `json:"type" bson:"type"`
	Required        bool             `json:"required" bson:"required"`
	Placeholder     string           `json:"placeholder,omitempty" bson:"placeholder,omitempty"`
	Order           int              `json:"order" bson:"order"`
	Options         []QuestionOption `json:"options,omitempty" bson:"options,omitempty"`
	IsCoreField     bool             `json:"isCoreField" bson:"isCoreField"`
	GHLFieldMapping string           `json:"ghlFieldMapping,omitempty" bson:"ghlFieldMapping,omitempty"`
}

// FieldID returns the question's id sanitized for use as a form-field key.
// Question ids can contain dots (GHL custom-field paths), which collide with
// nested-key notation on the widget side.
func (q QuestionDefinition) FieldID() string {
	return SanitizeFieldID(q.ID)
}

// SanitizeFieldID replaces characters that are unsafe in form-field keys
func SanitizeFieldID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// SortQuestions returns a copy of questions sorted ascending by Order.
// Order values need not be contiguous; sort order defines default traversal.
func SortQuestions(questions []QuestionDefinition) []QuestionDefinition {
	sorted := make([]QuestionDefinition, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}
