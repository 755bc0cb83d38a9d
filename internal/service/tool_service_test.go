package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRejectsBackwardSkip(t *testing.T) {
	svc := NewToolService(newFakeToolRepo(), newFakeToolCache())

	tool := surveyTool()
	// Point the select at the question before it
	tool.Questions[3].Options[0].SkipToQuestionID = "email"

	_, err := svc.Create(context.Background(), tool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid question list")
}

func TestCreateRejectsDuplicateIDs(t *testing.T) {
	svc := NewToolService(newFakeToolRepo(), newFakeToolCache())

	tool := surveyTool()
	tool.Questions[1].ID = "firstName"

	_, err := svc.Create(context.Background(), tool)
	assert.Error(t, err)
}

func TestCreateAcceptsSkipToEnd(t *testing.T) {
	svc := NewToolService(newFakeToolRepo(), newFakeToolCache())

	_, err := svc.Create(context.Background(), surveyTool())
	assert.NoError(t, err)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	repo := newFakeToolRepo()
	toolCache := newFakeToolCache()
	svc := NewToolService(repo, toolCache)

	id, err := svc.Create(context.Background(), surveyTool())
	require.NoError(t, err)

	// Prime the cache
	got, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)

	updated := surveyTool()
	updated.ID = id
	updated.Settings.Title = "New title"
	require.NoError(t, svc.Update(context.Background(), updated))

	got, err = svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Settings.Title, "running widgets must see the new config")
}

func TestGetByIDMissingTool(t *testing.T) {
	svc := NewToolService(newFakeToolRepo(), newFakeToolCache())

	got, err := svc.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}
