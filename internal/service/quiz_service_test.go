package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstQuizID(t *testing.T, f *fixture, courseID string) string {
	t.Helper()
	modules, err := f.store.Modules.FindByCourse(context.Background(), courseID)
	require.NoError(t, err)
	ids := modules[0].QuizIDs()
	require.NotEmpty(t, ids)
	return ids[0]
}

func TestGetQuizAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f)
	quizID := firstQuizID(t, f, course.ID)

	owner, err := f.quizzes.GetQuiz(ctx, instructor, quizID)
	require.NoError(t, err)
	assert.Equal(t, "B", owner.Questions[0].CorrectAnswer)

	_, err = f.quizzes.GetQuiz(ctx, student, quizID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = f.enrollment.Enroll(ctx, student, course.ID)
	require.NoError(t, err)
	view, err := f.quizzes.GetQuiz(ctx, student, quizID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.QuestionCount)
	assert.Empty(t, view.Questions[0].CorrectAnswer)

	_, err = f.quizzes.GetQuiz(ctx, student, "missing")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestSubmitAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f)
	quizID := firstQuizID(t, f, course.ID)
	_, err := f.enrollment.Enroll(ctx, student, course.ID)
	require.NoError(t, err)

	result, err := f.quizzes.SubmitAttempt(ctx, student, quizID, map[int]string{0: "b"})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Passed)

	result, err = f.quizzes.SubmitAttempt(ctx, student, quizID, map[int]string{0: "A"})
	require.NoError(t, err)
	assert.False(t, result.Passed)

	_, err = f.quizzes.SubmitAttempt(ctx, student, quizID, map[int]string{3: "A"})
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestUpdateQuiz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f)
	quizID := firstQuizID(t, f, course.ID)

	def := &model.QuizDefinition{Questions: []model.Question{
		{Prompt: "1+1?", Options: map[string]string{"A": "2", "B": "3", "C": "4"}, CorrectAnswer: "a"},
		{Prompt: "3*3?", Options: map[string]string{"A": "6", "B": "9"}, CorrectAnswer: "B"},
	}}

	_, err := f.quizzes.UpdateQuiz(ctx, intruder, quizID, def)
	assert.ErrorIs(t, err, util.ErrForbidden)

	view, err := f.quizzes.UpdateQuiz(ctx, instructor, quizID, def)
	require.NoError(t, err)
	assert.Equal(t, "Check", view.Title)
	assert.Equal(t, 2, view.QuestionCount)
	assert.Equal(t, "A", view.Questions[0].CorrectAnswer)

	stored, err := f.store.Quizzes.FindByID(ctx, quizID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, 2)

	_, err = f.quizzes.UpdateQuiz(ctx, instructor, quizID, &model.QuizDefinition{})
	var appErr *util.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "questions", appErr.Field)
}
