package service

import (
	"context"
	"encoding/json"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/database"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	instructor = model.Actor{UserID: "ins-1", Role: model.Instructor}
	intruder   = model.Actor{UserID: "ins-2", Role: model.Instructor}
	student    = model.Actor{UserID: "stu-1", Role: model.Student}
)

func newTestStore(t *testing.T) *repository.Store {
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
	return repository.NewStore(db)
}

type fakeMedia struct {
	mu       sync.Mutex
	removed  []string
	duration float64
}

func (m *fakeMedia) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, path)
	return nil
}

func (m *fakeMedia) ProbeDuration(context.Context, *model.Artifact) (float64, error) {
	return m.duration, nil
}

func (m *fakeMedia) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.removed...)
}

type recordingNotifier struct {
	events chan NotificationEvent
}

func (n *recordingNotifier) Notify(_ context.Context, e NotificationEvent) error {
	n.events <- e
	return nil
}

// interleavingLookup 在第一次读取课程之后、调用方写入之前执行 between，模拟另一个请求插入提交
type interleavingLookup struct {
	CourseLookup
	fired   atomic.Bool
	between func()
}

func (l *interleavingLookup) FindByID(ctx context.Context, id string) (*model.Course, error) {
	course, err := l.CourseLookup.FindByID(ctx, id)
	if err == nil && l.fired.CompareAndSwap(false, true) {
		l.between()
	}
	return course, err
}

type fixture struct {
	store      *repository.Store
	media      *fakeMedia
	notifier   *recordingNotifier
	courses    *CourseService
	reader     *CourseReader
	enrollment *EnrollmentService
	quizzes    *QuizService
	summaries  *SummaryService
	integrity  *IntegrityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newTestStore(t)
	guard := NewOwnershipGuard(store.Courses)
	cache := NewCourseCache(nil, 0)
	media := &fakeMedia{duration: 42.5}
	notifier := &recordingNotifier{events: make(chan NotificationEvent, 64)}
	enrollment := NewEnrollmentService(store, guard, cache, notifier)

	ctx := context.Background()
	for _, u := range []*model.User{
		{DocumentBase: model.DocumentBase{ID: instructor.UserID}, FullName: "Ada", Email: "ada@example.com", Role: model.Instructor},
		{DocumentBase: model.DocumentBase{ID: student.UserID}, FullName: "Linus", Email: "linus@example.com", Role: model.Student},
	} {
		require.NoError(t, store.Users.Upsert(ctx, u))
	}

	return &fixture{
		store:      store,
		media:      media,
		notifier:   notifier,
		courses:    NewCourseService(store, guard, NewCurriculumBuilder(), media, cache, notifier, 10<<20),
		reader:     NewCourseReader(store, cache),
		enrollment: enrollment,
		quizzes:    NewQuizService(store, guard, enrollment, cache),
		summaries:  NewSummaryService(store, guard, cache),
		integrity:  NewIntegrityService(store),
	}
}

// interleave 让下一次课程写操作在所有权校验读取之后先执行 fn
func (f *fixture) interleave(fn func()) {
	f.courses.Guard = NewOwnershipGuard(&interleavingLookup{CourseLookup: f.store.Courses, between: fn})
}

func basics(title string) *CourseBasicsRequest {
	return &CourseBasicsRequest{
		Title:        title,
		Category:     "Web",
		Level:        "Beginner",
		WhatYouLearn: json.RawMessage(`"a,b,c"`),
	}
}

func mediaInput(prefix string) *CourseMediaInput {
	return &CourseMediaInput{
		Thumbnail: &model.Artifact{
			Path: prefix + "/thumb.png", URL: "https://cdn/" + prefix + "/thumb.png",
			MimeType: "image/png", Size: 1024,
		},
		PromoVideo: &model.Artifact{
			Path: prefix + "/promo.mp4", URL: "https://cdn/" + prefix + "/promo.mp4",
			MimeType: "video/mp4", Size: 2048,
		},
	}
}

// draftWithMedia 完成步骤一和步骤二
func (f *fixture) draftWithMedia(t *testing.T) *model.Course {
	t.Helper()
	ctx := context.Background()
	course, err := f.courses.SaveBasics(ctx, instructor, "", basics("X"))
	require.NoError(t, err)
	course, err = f.courses.AttachMedia(ctx, instructor, course.ID, mediaInput("m1"))
	require.NoError(t, err)
	return course
}

func curriculum(t *testing.T, raw string) *CurriculumRequest {
	t.Helper()
	var req CurriculumRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	return &req
}

const twoModules = `{"modules":[
  {"title":"Basics","order":1,
   "topics":[
     {"title":"Welcome","type":"video","content":{"videoUrl":"https://cdn/welcome.mp4"}},
     {"title":"Check","type":"quiz","content":{"questions":[
        {"prompt":"2+2?","options":{"A":"3","B":"4"},"correctAnswer":"B"}]}}
   ],
   "summaries":[{"title":"Recap","content":"numbers"}]},
  {"title":"Advanced","order":2,
   "topics":[{"title":"Read","type":"text","content":{"textContent":"hello"}}]}
]}`

const oneModule = `{"modules":[
  {"title":"Only","topics":[
     {"title":"Final","type":"quiz","content":{"title":"Final quiz","passingScore":50,"questions":[
        {"prompt":"Go?","options":{"A":"yes","B":"no"},"correctAnswer":"A"}]}}
   ],
   "summaries":[{"title":"Done"}]}
]}`
