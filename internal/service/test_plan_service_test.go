package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lshigami/tutorlab/internal/apperror"
	"github.com/lshigami/tutorlab/internal/dto"
)

func intPtr(i int) *int { return &i }

func validPlan() dto.PlanCreateDTO {
	return dto.PlanCreateDTO{
		StudentID:        studentID,
		Title:            "Fractions warm-up",
		TimingMode:       "TIMED",
		TimeLimitMinutes: intPtr(30),
		TopicIDs:         []uint{1},
		SubtopicIDs:      []uint{10, 11},
		TotalQuestions:   12,
	}
}

func TestCreatePlan(t *testing.T) {
	svc := NewTestPlanService(newFakePlanRepo())

	plan, err := svc.CreatePlan(context.Background(), tutorID, validPlan())
	require.NoError(t, err)
	assert.Equal(t, tutorID, plan.CreatedByID)
	assert.Equal(t, "TIMED", plan.TimingMode)
	assert.Equal(t, 30, *plan.TimeLimitMinutes)
	assert.Equal(t, []uint{10, 11}, plan.Config.SubtopicIDs)
	assert.Equal(t, 12, plan.Config.TotalQuestions)
}

func TestCreatePlan_Validation(t *testing.T) {
	svc := NewTestPlanService(newFakePlanRepo())

	noLimit := validPlan()
	noLimit.TimeLimitMinutes = nil
	_, err := svc.CreatePlan(context.Background(), tutorID, noLimit)
	assertValidation(t, err, "time limit")

	noSubtopics := validPlan()
	noSubtopics.SubtopicIDs = nil
	_, err = svc.CreatePlan(context.Background(), tutorID, noSubtopics)
	assertValidation(t, err, "subtopic")

	untimed := validPlan()
	untimed.TimingMode = "UNTIMED"
	plan, err := svc.CreatePlan(context.Background(), tutorID, untimed)
	require.NoError(t, err)
	assert.Nil(t, plan.TimeLimitMinutes)
}

func TestGetAndListPlans(t *testing.T) {
	svc := NewTestPlanService(newFakePlanRepo())
	ctx := context.Background()

	first, err := svc.CreatePlan(ctx, tutorID, validPlan())
	require.NoError(t, err)
	other := validPlan()
	other.StudentID = 50
	_, err = svc.CreatePlan(ctx, 51, other)
	require.NoError(t, err)

	got, err := svc.GetPlan(ctx, first.ID, studentID)
	require.NoError(t, err)
	assert.Equal(t, first.Title, got.Title)

	_, err = svc.GetPlan(ctx, first.ID, outsider)
	var ua *apperror.UnauthorizedError
	assert.True(t, errors.As(err, &ua))

	plans, err := svc.ListPlans(ctx, tutorID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, first.ID, plans[0].ID)
}

func TestUpdatePlanMetadata(t *testing.T) {
	svc := NewTestPlanService(newFakePlanRepo())
	ctx := context.Background()
	plan, err := svc.CreatePlan(ctx, tutorID, validPlan())
	require.NoError(t, err)

	_, err = svc.UpdatePlanMetadata(ctx, plan.ID, studentID, dto.PlanUpdateDTO{Title: "mine now"})
	var ua *apperror.UnauthorizedError
	assert.True(t, errors.As(err, &ua))

	updated, err := svc.UpdatePlanMetadata(ctx, plan.ID, tutorID, dto.PlanUpdateDTO{Title: "Fractions II", Description: "harder"})
	require.NoError(t, err)
	assert.Equal(t, "Fractions II", updated.Title)
	assert.Equal(t, plan.Config, updated.Config)
}

func TestWarnDropped(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	warnDropped("plans", 3, 3)
	assert.Empty(t, buf.String())

	warnDropped("plans", 5, 3)
	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"list":"plans"`)
	assert.Contains(t, out, `"dropped":2`)
	assert.Contains(t, out, `"total":5`)
}
