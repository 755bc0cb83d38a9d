package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoteflow/internal/model"
)

func TestBuildSchemaUnknownType(t *testing.T) {
	_, err := BuildSchema([]model.QuestionDefinition{
		{ID: "q1", Type: "checkbox", Order: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestBuildSchemaSanitizesFieldIDs(t *testing.T) {
	schema, err := BuildSchema([]model.QuestionDefinition{
		{ID: "contact.email", Type: model.QuestionTypeEmail, Required: true, Order: 1},
	})
	require.NoError(t, err)

	_, ok := schema.Rule("contact_email")
	assert.True(t, ok, "dotted id should be stored under its sanitized key")
	_, ok = schema.Rule("contact.email")
	assert.False(t, ok)
}

func TestValidateNumber(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		value   string
		wantErr bool
	}{
		{"required missing", "people", "", true},
		{"required zero rejected", "people", "0", true},
		{"required one ok", "people", "1", false},
		{"negative rejected", "people", "-2", true},
		{"non-integer rejected", "people", "2.5", true},
		{"baths zero allowed", "numBathrooms", "0", false},
		{"pets zero allowed", "pets", "0", false},
		{"shedding zero allowed", "sheddingPets", "0", false},
		{"baths positive ok", "numBathrooms", "3", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := BuildSchema([]model.QuestionDefinition{
				{ID: tt.id, Type: model.QuestionTypeNumber, Required: true, Order: 1},
			})
			require.NoError(t, err)
			err = schema.Validate(model.SanitizeFieldID(tt.id), tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOptionalNumber(t *testing.T) {
	schema, err := BuildSchema([]model.QuestionDefinition{
		{ID: "extras", Type: model.QuestionTypeNumber, Order: 1},
	})
	require.NoError(t, err)

	assert.NoError(t, schema.Validate("extras", ""))
	assert.NoError(t, schema.Validate("extras", "0"))
	assert.NoError(t, schema.Validate("extras", "4"))
	assert.Error(t, schema.Validate("extras", "-1"))
	assert.Error(t, schema.Validate("extras", "abc"))
}

func TestValidateByType(t *testing.T) {
	tests := []struct {
		name     string
		qType    model.QuestionType
		required bool
		value    string
		wantErr  bool
	}{
		{"email required valid", model.QuestionTypeEmail, true, "jane@example.com", false},
		{"email required missing", model.QuestionTypeEmail, true, "", true},
		{"email required implausible", model.QuestionTypeEmail, true, "not-an-email", true},
		{"email no domain dot", model.QuestionTypeEmail, true, "jane@localhost", true},
		{"email optional empty", model.QuestionTypeEmail, false, "", false},
		{"email optional implausible", model.QuestionTypeEmail, false, "nope", true},
		{"tel required short", model.QuestionTypeTel, true, "12345", true},
		{"tel required ok", model.QuestionTypeTel, true, "5551234567", false},
		{"tel optional anything", model.QuestionTypeTel, false, "x", false},
		{"select required blank", model.QuestionTypeSelect, true, "  ", true},
		{"select required chosen", model.QuestionTypeSelect, true, "weekly", false},
		{"select optional blank", model.QuestionTypeSelect, false, "", false},
		{"address required blank", model.QuestionTypeAddress, true, "", true},
		{"address required ok", model.QuestionTypeAddress, true, "12 Main St", false},
		{"text required blank", model.QuestionTypeText, true, " ", true},
		{"text optional blank", model.QuestionTypeText, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := BuildSchema([]model.QuestionDefinition{
				{ID: "q", Type: tt.qType, Required: tt.required, Order: 1},
			})
			require.NoError(t, err)
			err = schema.Validate("q", tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAllSkipsInvisibleQuestions(t *testing.T) {
	questions := model.SortQuestions([]model.QuestionDefinition{
		{ID: "serviceType", Type: model.QuestionTypeSelect, Required: true, Order: 1, Options: []model.QuestionOption{
			{Value: "deep", SkipToQuestionID: "email"},
			{Value: "standard"},
		}},
		{ID: "people", Type: model.QuestionTypeNumber, Required: true, Order: 2},
		{ID: "email", Type: model.QuestionTypeEmail, Required: true, Order: 3},
	})
	schema, err := BuildSchema(questions)
	require.NoError(t, err)

	answers := map[string]string{
		"serviceType": "deep",
		"email":       "jane@example.com",
	}
	errs := schema.ValidateAll(questions, answers)
	assert.Nil(t, errs, "skipped people question must not block completion")

	answers["serviceType"] = "standard"
	errs = schema.ValidateAll(questions, answers)
	require.NotNil(t, errs)
	assert.Contains(t, errs, "people")
}
