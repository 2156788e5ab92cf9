package service

import (
	"context"
	"encoding/json"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishedCourse(t *testing.T, f *fixture) *model.Course {
	t.Helper()
	course := f.draftWithMedia(t)
	published, err := f.courses.PublishCurriculum(context.Background(), instructor, course.ID, curriculum(t, twoModules))
	require.NoError(t, err)
	return published
}

func TestGetCourseHidesDraftsFromOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.draftWithMedia(t)

	_, err := f.reader.GetCourse(ctx, nil, course.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)
	_, err = f.reader.GetCourse(ctx, &student, course.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)

	detail, err := f.reader.GetCourse(ctx, &instructor, course.ID)
	require.NoError(t, err)
	assert.Equal(t, course.ID, detail.ID)
	assert.Empty(t, detail.Modules)

	_, err = f.reader.GetCourse(ctx, nil, "missing")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestGetCourseAssemblesCurriculum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f)
	_, err := f.enrollment.Enroll(ctx, student, course.ID)
	require.NoError(t, err)

	detail, err := f.reader.GetCourse(ctx, &instructor, course.ID)
	require.NoError(t, err)

	require.NotNil(t, detail.Instructor)
	assert.Equal(t, "Ada", detail.Instructor.FullName)
	assert.Equal(t, 1, detail.EnrollmentCount)
	assert.Equal(t, 1, detail.StudentsEnrolled)
	require.Len(t, detail.EnrolledStudents, 1)
	assert.Equal(t, "Linus", detail.EnrolledStudents[0].Student.FullName)

	require.Len(t, detail.Modules, 2)
	assert.Equal(t, "Basics", detail.Modules[0].Title)
	require.Len(t, detail.Modules[0].Summaries, 1)
	assert.Equal(t, "Recap", detail.Modules[0].Summaries[0].Title)
	require.Len(t, detail.Modules[0].Quizzes, 1)
	assert.Equal(t, "B", detail.Modules[0].Quizzes[0].Questions[0].CorrectAnswer)
	assert.Empty(t, detail.Modules[1].Quizzes)

	data, err := json.Marshal(detail)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.IsType(t, map[string]interface{}{}, decoded["instructor"])
	assert.IsType(t, []interface{}{}, decoded["modules"])
}

func TestGetCourseRedactsAnswersForStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f)

	for _, viewer := range []*model.Actor{nil, &student, &intruder} {
		detail, err := f.reader.GetCourse(ctx, viewer, course.ID)
		require.NoError(t, err)
		require.Len(t, detail.Modules[0].Quizzes, 1)
		data, err := json.Marshal(detail)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "correctAnswer")
	}
}

func TestGetCourseSkipsDeletedQuiz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f)

	modules, err := f.store.Modules.FindByCourse(ctx, course.ID)
	require.NoError(t, err)
	quizIDs := modules[0].QuizIDs()
	require.Len(t, quizIDs, 1)
	require.NoError(t, f.store.Quizzes.DeleteByIDs(ctx, quizIDs))

	detail, err := f.reader.GetCourse(ctx, &instructor, course.ID)
	require.NoError(t, err)
	require.Len(t, detail.Modules, 2)
	assert.Empty(t, detail.Modules[0].Quizzes)
	// 主题本身仍然保留
	assert.Len(t, detail.Modules[0].Topics, 2)

	report, err := f.integrity.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, report.DanglingTopics, 1)
	assert.Equal(t, quizIDs[0], report.DanglingTopics[0].QuizID)
	assert.Equal(t, "quizId does not resolve", report.DanglingTopics[0].Reason)
}

func TestGetCourseIgnoresStaleEnrolledCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f)
	require.NoError(t, f.store.Courses.UpdateColumns(ctx, course.ID, map[string]interface{}{"students_enrolled": 99}))

	detail, err := f.reader.GetCourse(ctx, nil, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.StudentsEnrolled)
	assert.Equal(t, 0, detail.EnrollmentCount)
}
