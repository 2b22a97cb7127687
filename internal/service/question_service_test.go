package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lshigami/tutorlab/internal/apperror"
	"github.com/lshigami/tutorlab/internal/dto"
)

func TestCreateQuestion(t *testing.T) {
	svc := NewQuestionService(&fakeQuestionRepo{})

	q, err := svc.CreateQuestion(context.Background(), tutorID, dto.QuestionCreateDTO{
		TopicID: 1, SubtopicID: 10, Text: `Simplify \frac{2}{4}`, Difficulty: 2,
		Options:             []string{"1/2", "2/4"},
		CorrectAnswer:       strPtr(" "),
		CorrectAnswerMarkup: strPtr(`\frac{1}{2}`),
		IsMarkupFormat:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), q.ID)
	assert.Equal(t, []string{"1/2", "2/4"}, q.Options)
	assert.Nil(t, q.CorrectAnswer, "blank plain form is dropped")
	assert.Equal(t, `\frac{1}{2}`, *q.CorrectAnswerMarkup)
	assert.Equal(t, tutorID, q.CreatedByID)

	got, err := svc.GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Text, got.Text)
}

func TestCreateQuestion_RequiresAnAnswer(t *testing.T) {
	svc := NewQuestionService(&fakeQuestionRepo{})
	_, err := svc.CreateQuestion(context.Background(), tutorID, dto.QuestionCreateDTO{
		TopicID: 1, SubtopicID: 10, Text: "2+2", Difficulty: 1,
	})
	assertValidation(t, err, "correct answer")

	_, err = svc.GetQuestion(context.Background(), 9)
	var nf *apperror.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestListQuestionsBySubtopics(t *testing.T) {
	repo := &fakeQuestionRepo{}
	svc := NewQuestionService(repo)
	ctx := context.Background()
	for _, sub := range []uint{10, 11, 10, 12} {
		_, err := svc.CreateQuestion(ctx, tutorID, dto.QuestionCreateDTO{
			TopicID: 1, SubtopicID: sub, Text: "q", Difficulty: 1, CorrectAnswer: strPtr("a"),
		})
		require.NoError(t, err)
	}

	list, err := svc.ListQuestionsBySubtopics(ctx, []uint{10, 12}, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uint{1, 3, 4}, []uint{list[0].ID, list[1].ID, list[2].ID})

	list, err = svc.ListQuestionsBySubtopics(ctx, []uint{10, 12}, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListQuestionsBySubtopics(ctx, nil, 5)
	assertValidation(t, err, "subtopic")
}
