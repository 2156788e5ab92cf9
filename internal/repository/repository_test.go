package repository

import (
	"context"
	"errors"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/database"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:  "sqlite",
		Path:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogMode: "silent",
	}, true)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewStore(db)
}

func newCourse(t *testing.T, s *Store, instructor string) *model.Course {
	t.Helper()
	course := &model.Course{
		Title:          "Go",
		Category:       "Programming",
		Level:          model.LevelBeginner,
		InstructorID:   instructor,
		Status:         model.CourseDraft,
		StepsCompleted: []int{model.StepBasics},
	}
	require.NoError(t, s.Courses.Create(context.Background(), course))
	return course
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	course := newCourse(t, s, "ins-1")

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.Modules.Create(ctx, &model.Module{CourseID: course.ID, Title: "M1", Order: 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := s.Modules.CountByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestModuleOrderUniquePerCourse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	course := newCourse(t, s, "ins-1")
	other := newCourse(t, s, "ins-1")

	require.NoError(t, s.Modules.Create(ctx, &model.Module{CourseID: course.ID, Title: "M1", Order: 1}))
	require.NoError(t, s.Modules.Create(ctx, &model.Module{CourseID: other.ID, Title: "M1", Order: 1}))

	err := s.Modules.Create(ctx, &model.Module{CourseID: course.ID, Title: "dup", Order: 1})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestModulesRoundTripTopicVariants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	course := newCourse(t, s, "ins-1")

	module := &model.Module{
		CourseID: course.ID,
		Title:    "Intro",
		Order:    2,
		Topics: []model.Topic{
			{ID: "t1", Title: "Watch", Type: model.TopicVideo, Order: 1, Content: model.VideoContent{VideoURL: "https://cdn/v.mp4"}},
			{ID: "t2", Title: "Check", Type: model.TopicQuiz, Order: 2, Content: model.QuizContent{QuizID: "q1"}},
		},
	}
	require.NoError(t, s.Modules.Create(ctx, module))
	require.NoError(t, s.Modules.Create(ctx, &model.Module{CourseID: course.ID, Title: "First", Order: 1}))

	modules, err := s.Modules.FindByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "First", modules[0].Title)
	assert.Equal(t, model.VideoContent{VideoURL: "https://cdn/v.mp4"}, modules[1].Topics[0].Content)
	assert.Equal(t, []string{"q1"}, modules[1].QuizIDs())
}

func TestFindOrphanIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	course := newCourse(t, s, "ins-1")
	module := &model.Module{CourseID: course.ID, Title: "M1", Order: 1}
	require.NoError(t, s.Modules.Create(ctx, module))

	live := &model.Quiz{CourseID: course.ID, ModuleID: module.ID}
	orphan := &model.Quiz{CourseID: course.ID, ModuleID: "gone"}
	require.NoError(t, s.Quizzes.Create(ctx, live))
	require.NoError(t, s.Quizzes.Create(ctx, orphan))
	require.NoError(t, s.Summaries.Create(ctx, &model.Summary{Title: "s", CourseID: course.ID, ModuleID: "gone"}))

	quizIDs, err := s.Quizzes.FindOrphanIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.ID}, quizIDs)

	summaryIDs, err := s.Summaries.FindOrphanIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, summaryIDs, 1)

	found, err := s.Quizzes.FindByIDs(ctx, []string{live.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, live.ID)
}

func TestActiveEnrollmentIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	course := newCourse(t, s, "ins-1")

	first := &model.Enrollment{StudentID: "stu-1", CourseID: course.ID, EnrolledAt: time.Now()}
	first.Activate()
	require.NoError(t, s.Enrollments.Create(ctx, first))

	dup := &model.Enrollment{StudentID: "stu-1", CourseID: course.ID, EnrolledAt: time.Now()}
	dup.Activate()
	assert.ErrorIs(t, s.Enrollments.Create(ctx, dup), gorm.ErrDuplicatedKey)

	// 取消后可以重新选课
	first.Cancel()
	require.NoError(t, s.Enrollments.Save(ctx, first))
	again := &model.Enrollment{StudentID: "stu-1", CourseID: course.ID, EnrolledAt: time.Now()}
	again.Activate()
	require.NoError(t, s.Enrollments.Create(ctx, again))

	count, err := s.Enrollments.CountActiveByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	all, err := s.Enrollments.ListByCourse(ctx, course.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUserUpsertKeepsProfilePicture(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &model.User{FullName: "Ada", Email: "a@x.io", Role: model.Student, ProfilePicture: "pic.png"}
	user.ID = "u-1"
	require.NoError(t, s.Users.Upsert(ctx, user))

	update := &model.User{FullName: "Ada L", Email: "a@x.io", Role: model.Instructor}
	update.ID = "u-1"
	require.NoError(t, s.Users.Upsert(ctx, update))

	got, err := s.Users.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada L", got.FullName)
	assert.Equal(t, model.Instructor, got.Role)
	assert.Equal(t, "pic.png", got.ProfilePicture)
}

func TestListPublishedFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	draft := newCourse(t, s, "ins-1")
	published := newCourse(t, s, "ins-1")
	now := time.Now()
	require.NoError(t, s.Courses.UpdateColumns(ctx, published.ID, map[string]interface{}{
		"status":       model.CoursePublished,
		"published_at": now,
	}))

	courses, total, err := s.Courses.ListPublished(ctx, CourseFilter{Keyword: "Go"}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, courses, 1)
	assert.Equal(t, published.ID, courses[0].ID)

	mine, total, err := s.Courses.ListByInstructor(ctx, "ins-1", model.CourseDraft, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, draft.ID, mine[0].ID)
}

func TestUpdateFieldsWritesOnlySelectedColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	course := newCourse(t, s, "ins-1")

	stale, err := s.Courses.FindByID(ctx, course.ID)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, s.Courses.UpdateColumns(ctx, course.ID, map[string]interface{}{
		"status":       model.CoursePublished,
		"published_at": &now,
	}))

	stale.Title = "Go, revised"
	stale.Status = model.CourseDraft
	require.NoError(t, s.Courses.UpdateFields(ctx, stale, "title"))

	got, err := s.Courses.FindByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go, revised", got.Title)
	assert.Equal(t, model.CoursePublished, got.Status)
	assert.NotNil(t, got.PublishedAt)
}

func TestCancelByCourseKeepsRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	course := newCourse(t, s, "ins-1")

	for _, student := range []string{"stu-1", "stu-2"} {
		e := &model.Enrollment{StudentID: student, CourseID: course.ID, EnrolledAt: time.Now(), LastAccessed: time.Now()}
		e.Activate()
		require.NoError(t, s.Enrollments.Create(ctx, e))
	}

	n, err := s.Enrollments.CancelByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rows, err := s.Enrollments.ListByCourse(ctx, course.ID, true)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, e := range rows {
		assert.Equal(t, model.EnrollmentCancelled, e.Status)
		assert.Nil(t, e.ActiveKey)
	}
	active, err := s.Enrollments.CountActiveByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Zero(t, active)
}
