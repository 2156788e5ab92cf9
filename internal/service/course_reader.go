package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// CourseReader 组装课程聚合视图，只读，不依赖课程上冗余的引用列表
type CourseReader struct {
	Store *repository.Store
	Cache *CourseCache
}

func NewCourseReader(store *repository.Store, cache *CourseCache) *CourseReader {
	return &CourseReader{Store: store, Cache: cache}
}

// GetCourse viewer 为 nil 表示匿名访问。非讲师只能看到已发布课程，且测验不含答案
func (r *CourseReader) GetCourse(ctx context.Context, viewer *model.Actor, courseID string) (detail *model.CourseDetail, err error) {
	ctx, span := tracing.StartSpan(ctx, "CourseReader.GetCourse", attribute.String("course.id", courseID))
	defer func() { tracing.EndSpan(span, err) }()

	course, err := r.Store.Courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, translateError(err, "course")
	}
	isOwner := viewer != nil && viewer.Is(course.InstructorID)
	if !isOwner && !course.IsPublished() {
		return nil, util.NewNotFoundError("course")
	}

	audience := audiencePublic
	if isOwner {
		audience = audienceOwner
	}
	if cached, ok := r.Cache.Get(ctx, courseID, audience); ok {
		return cached, nil
	}

	detail, err = r.assemble(ctx, course, isOwner)
	if err != nil {
		return nil, translateError(err, "course")
	}
	r.Cache.Set(ctx, courseID, audience, detail)
	return detail, nil
}

func (r *CourseReader) assemble(ctx context.Context, course *model.Course, withAnswers bool) (*model.CourseDetail, error) {
	detail := &model.CourseDetail{
		Course:           *course,
		Instructor:       &model.UserPublic{ID: course.InstructorID},
		EnrolledStudents: []model.EnrolledStudent{},
		Modules:          []model.ModuleDetail{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		users, err := r.Store.Users.FindByIDs(gctx, []string{course.InstructorID})
		if err != nil {
			return err
		}
		if u, ok := users[course.InstructorID]; ok {
			detail.Instructor = u.Public()
		}
		return nil
	})

	g.Go(func() error {
		students, err := r.enrolledStudents(gctx, course.ID)
		if err != nil {
			return err
		}
		detail.EnrolledStudents = students
		detail.EnrollmentCount = len(students)
		return nil
	})

	g.Go(func() error {
		modules, err := r.modules(gctx, course.ID, withAnswers)
		if err != nil {
			return err
		}
		detail.Modules = modules
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// 以 Enrollment 集合为准
	detail.StudentsEnrolled = detail.EnrollmentCount
	return detail, nil
}

func (r *CourseReader) enrolledStudents(ctx context.Context, courseID string) ([]model.EnrolledStudent, error) {
	enrollments, err := r.Store.Enrollments.ListByCourse(ctx, courseID, false)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentID)
	}
	users, err := r.Store.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	students := make([]model.EnrolledStudent, 0, len(enrollments))
	for _, e := range enrollments {
		student := &model.UserPublic{ID: e.StudentID}
		if u, ok := users[e.StudentID]; ok {
			student = u.Public()
		}
		students = append(students, model.EnrolledStudent{
			EnrollmentID: e.ID,
			Status:       e.Status,
			Progress:     e.Progress,
			EnrolledAt:   e.EnrolledAt,
			LastAccessed: e.LastAccessed,
			Student:      student,
		})
	}
	return students, nil
}

func (r *CourseReader) modules(ctx context.Context, courseID string, withAnswers bool) ([]model.ModuleDetail, error) {
	modules, err := r.Store.Modules.FindByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	var summaryIDs, quizIDs []string
	for i := range modules {
		summaryIDs = append(summaryIDs, modules[i].SummaryIDs...)
		quizIDs = append(quizIDs, modules[i].QuizIDs()...)
	}

	var (
		summaries map[string]*model.Summary
		quizzes   map[string]*model.Quiz
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summaries, err = r.Store.Summaries.FindByIDs(gctx, summaryIDs)
		return err
	})
	g.Go(func() error {
		var err error
		quizzes, err = r.Store.Quizzes.FindByIDs(gctx, quizIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	details := make([]model.ModuleDetail, 0, len(modules))
	for i := range modules {
		m := modules[i]
		d := model.ModuleDetail{
			Module:    m,
			Summaries: []model.Summary{},
			Quizzes:   []model.QuizView{},
		}
		// 引用已失效的小结或测验直接跳过
		for _, id := range m.SummaryIDs {
			if s, ok := summaries[id]; ok {
				d.Summaries = append(d.Summaries, *s)
			}
		}
		for _, id := range m.QuizIDs() {
			if q, ok := quizzes[id]; ok {
				d.Quizzes = append(d.Quizzes, q.View(withAnswers))
			}
		}
		details = append(details, d)
	}
	return details, nil
}
