package service

import (
	"context"
	"learnhub_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeRemovesOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f)

	orphanQuiz := &model.Quiz{CourseID: course.ID, ModuleID: "gone", TopicID: "t"}
	require.NoError(t, f.store.Quizzes.Create(ctx, orphanQuiz))
	orphanSummary := &model.Summary{Title: "lost", CourseID: course.ID, ModuleID: "gone"}
	require.NoError(t, f.store.Summaries.Create(ctx, orphanSummary))

	report, err := f.integrity.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{orphanQuiz.ID}, report.OrphanQuizIDs)
	assert.Equal(t, []string{orphanSummary.ID}, report.OrphanSummaryIDs)
	assert.False(t, report.Purged)

	report, err = f.integrity.Purge(ctx)
	require.NoError(t, err)
	assert.True(t, report.Purged)

	report, err = f.integrity.Scan(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	// 课程自身的测验不受影响
	_, err = f.store.Quizzes.FindByID(ctx, firstQuizID(t, f, course.ID))
	assert.NoError(t, err)
}

func TestScanFlagsQuizPointingElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f)
	quiz, err := f.store.Quizzes.FindByID(ctx, firstQuizID(t, f, course.ID))
	require.NoError(t, err)

	quiz.TopicID = "other-topic"
	require.NoError(t, f.store.Quizzes.Save(ctx, quiz))

	report, err := f.integrity.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, report.DanglingTopics, 1)
	assert.Equal(t, "quiz does not point back to this topic", report.DanglingTopics[0].Reason)

	f.integrity.RunSweep(ctx, false)
}
