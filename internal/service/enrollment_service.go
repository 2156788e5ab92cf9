package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EnrollmentService struct {
	Store    *repository.Store
	Guard    *OwnershipGuard
	Cache    *CourseCache
	Notifier Notifier
}

func NewEnrollmentService(store *repository.Store, guard *OwnershipGuard, cache *CourseCache, notifier Notifier) *EnrollmentService {
	return &EnrollmentService{Store: store, Guard: guard, Cache: cache, Notifier: notifier}
}

// EnrollmentView 学生的选课记录及课程摘要
type EnrollmentView struct {
	model.Enrollment
	Course *model.CourseCard `json:"courseInfo,omitempty"`
}

// Enroll 学生自主选课，仅限已发布课程
func (s *EnrollmentService) Enroll(ctx context.Context, actor model.Actor, courseID string) (*model.Enrollment, error) {
	course, err := s.Store.Courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, translateError(err, "course")
	}
	if !course.IsPublished() {
		return nil, util.NewValidationError("course", "course is not open for enrollment")
	}
	if actor.Is(course.InstructorID) {
		return nil, util.NewValidationError("course", "instructors cannot enroll in their own course")
	}
	return s.create(ctx, course, actor.UserID)
}

// ManualEnroll 讲师手动为学生选课，草稿课程也允许
func (s *EnrollmentService) ManualEnroll(ctx context.Context, actor model.Actor, courseID, studentID string) (*model.Enrollment, error) {
	if studentID == "" {
		return nil, util.NewValidationError("studentId", "studentId is required")
	}
	course, err := s.Guard.Authorize(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID == studentID {
		return nil, util.NewValidationError("studentId", "instructors cannot enroll in their own course")
	}
	if _, err := s.Store.Users.FindByID(ctx, studentID); err != nil {
		return nil, translateError(err, "student")
	}
	return s.create(ctx, course, studentID)
}

func (s *EnrollmentService) create(ctx context.Context, course *model.Course, studentID string) (*model.Enrollment, error) {
	if _, err := s.Store.Enrollments.FindActive(ctx, studentID, course.ID); err == nil {
		return nil, util.NewConflictError("course", "student is already enrolled in this course")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translateError(err, "enrollment")
	}

	now := time.Now()
	enrollment := &model.Enrollment{
		StudentID:    studentID,
		CourseID:     course.ID,
		Status:       model.EnrollmentActive,
		EnrolledAt:   now,
		LastAccessed: now,
	}
	enrollment.Activate()

	if err := s.Store.Enrollments.Create(ctx, enrollment); err != nil {
		// 并发选课由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.NewConflictError("course", "student is already enrolled in this course")
		}
		return nil, translateError(err, "enrollment")
	}

	s.refreshCount(ctx, course.ID)
	notifyAsync(s.Notifier, NotificationEvent{
		Type:        EventStudentEnrolled,
		CourseID:    course.ID,
		CourseTitle: course.Title,
		UserID:      studentID,
		Recipient:   s.email(ctx, studentID),
	})
	return enrollment, nil
}

// Cancel 学生本人或课程讲师可以取消，只修改状态不删除记录
func (s *EnrollmentService) Cancel(ctx context.Context, actor model.Actor, enrollmentID string) (*model.Enrollment, error) {
	enrollment, err := s.Store.Enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		return nil, translateError(err, "enrollment")
	}
	course, err := s.Store.Courses.FindByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, translateError(err, "course")
	}
	if !actor.Is(enrollment.StudentID) && !actor.Is(course.InstructorID) {
		return nil, util.NewForbiddenError("only the student or the course instructor can cancel this enrollment")
	}
	if enrollment.IsCancelled() {
		return enrollment, nil
	}

	enrollment.Cancel()
	if err := s.Store.Enrollments.Save(ctx, enrollment); err != nil {
		return nil, translateError(err, "enrollment")
	}

	s.refreshCount(ctx, course.ID)
	notifyAsync(s.Notifier, NotificationEvent{
		Type:        EventEnrollmentEnded,
		CourseID:    course.ID,
		CourseTitle: course.Title,
		UserID:      enrollment.StudentID,
		Recipient:   s.email(ctx, enrollment.StudentID),
	})
	return enrollment, nil
}

// UpdateProgress 进度达到 100 时标记为完成
func (s *EnrollmentService) UpdateProgress(ctx context.Context, actor model.Actor, courseID string, progress int) (*model.Enrollment, error) {
	if progress < 0 || progress > 100 {
		return nil, util.NewValidationError("progress", "progress must be between 0 and 100")
	}
	enrollment, err := s.Store.Enrollments.FindActive(ctx, actor.UserID, courseID)
	if err != nil {
		return nil, translateError(err, "enrollment")
	}

	enrollment.Progress = progress
	enrollment.LastAccessed = time.Now()
	if progress == 100 {
		enrollment.Status = model.EnrollmentCompleted
	} else if enrollment.Status == model.EnrollmentCompleted {
		enrollment.Status = model.EnrollmentActive
	}
	if err := s.Store.Enrollments.Save(ctx, enrollment); err != nil {
		return nil, translateError(err, "enrollment")
	}
	s.Cache.Invalidate(ctx, courseID)
	return enrollment, nil
}

// ListMine 当前学生的选课，附带课程摘要
func (s *EnrollmentService) ListMine(ctx context.Context, actor model.Actor, page, limit int) (*util.PageResponse, error) {
	enrollments, total, err := s.Store.Enrollments.ListByStudent(ctx, actor.UserID, page, limit)
	if err != nil {
		return nil, translateError(err, "enrollment")
	}

	views := make([]EnrollmentView, 0, len(enrollments))
	for _, e := range enrollments {
		view := EnrollmentView{Enrollment: e}
		if course, err := s.Store.Courses.FindByID(ctx, e.CourseID); err == nil {
			card := course.Card()
			view.Course = &card
		}
		views = append(views, view)
	}
	return &util.PageResponse{List: views, Total: total, Page: page, Limit: limit}, nil
}

// IsEnrolled 是否有未取消的选课
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	_, err := s.Store.Enrollments.FindActive(ctx, studentID, courseID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// refreshCount 课程上的人数只是缓存，失败不影响选课结果
func (s *EnrollmentService) refreshCount(ctx context.Context, courseID string) {
	count, err := s.Store.Enrollments.CountActiveByCourse(ctx, courseID)
	if err == nil {
		err = s.Store.Courses.UpdateColumns(ctx, courseID, map[string]interface{}{"students_enrolled": count})
	}
	if err != nil {
		logger.Log.Warn("Failed to refresh enrolled count", zap.String("courseId", courseID), zap.Error(err))
	}
	s.Cache.Invalidate(ctx, courseID)
}

func (s *EnrollmentService) email(ctx context.Context, userID string) string {
	user, err := s.Store.Users.FindByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Email
}
