package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"

	"go.uber.org/zap"
)

type QuizService struct {
	Store       *repository.Store
	Guard       *OwnershipGuard
	Enrollments *EnrollmentService
	Cache       *CourseCache
}

func NewQuizService(store *repository.Store, guard *OwnershipGuard, enrollments *EnrollmentService, cache *CourseCache) *QuizService {
	return &QuizService{Store: store, Guard: guard, Enrollments: enrollments, Cache: cache}
}

// GetQuiz 讲师可见答案；其他人需已选课且课程已发布，返回的题目不含答案
func (s *QuizService) GetQuiz(ctx context.Context, viewer model.Actor, quizID string) (*model.QuizView, error) {
	quiz, course, err := s.load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if viewer.Is(course.InstructorID) {
		view := quiz.View(true)
		return &view, nil
	}
	if err := s.requireEnrollment(ctx, viewer, course); err != nil {
		return nil, err
	}
	view := quiz.View(false)
	return &view, nil
}

// UpdateQuiz 整体替换题目与设置，校验规则与步骤三相同
func (s *QuizService) UpdateQuiz(ctx context.Context, actor model.Actor, quizID string, def *model.QuizDefinition) (*model.QuizView, error) {
	quiz, err := s.Store.Quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, translateError(err, "quiz")
	}
	if _, err := s.Guard.Authorize(ctx, actor, quiz.CourseID); err != nil {
		return nil, err
	}
	if err := def.Normalize(); err != nil {
		return nil, translateError(err, "quiz")
	}
	if def.Title == "" {
		def.Title = quiz.Title
	}

	quiz.Apply(def)
	if err := s.Store.Quizzes.Save(ctx, quiz); err != nil {
		return nil, translateError(err, "quiz")
	}
	s.Cache.Invalidate(ctx, quiz.CourseID)
	view := quiz.View(true)
	return &view, nil
}

// SubmitAttempt 即时评分，结果不落库
func (s *QuizService) SubmitAttempt(ctx context.Context, actor model.Actor, quizID string, answers map[int]string) (*model.QuizResult, error) {
	quiz, course, err := s.load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !actor.Is(course.InstructorID) {
		if err := s.requireEnrollment(ctx, actor, course); err != nil {
			return nil, err
		}
	}
	for idx := range answers {
		if idx < 0 || idx >= len(quiz.Questions) {
			return nil, util.NewValidationError("answers", "answer index out of range")
		}
	}

	result := quiz.Grade(answers)
	logger.Log.Debug("Quiz attempt graded",
		zap.String("quizId", quizID),
		zap.String("userId", actor.UserID),
		zap.Int("score", result.Score),
	)
	return &result, nil
}

func (s *QuizService) load(ctx context.Context, quizID string) (*model.Quiz, *model.Course, error) {
	quiz, err := s.Store.Quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, nil, translateError(err, "quiz")
	}
	course, err := s.Store.Courses.FindByID(ctx, quiz.CourseID)
	if err != nil {
		return nil, nil, translateError(err, "quiz")
	}
	return quiz, course, nil
}

func (s *QuizService) requireEnrollment(ctx context.Context, actor model.Actor, course *model.Course) error {
	if !course.IsPublished() {
		return util.NewNotFoundError("quiz")
	}
	enrolled, err := s.Enrollments.IsEnrolled(ctx, actor.UserID, course.ID)
	if err != nil {
		return translateError(err, "enrollment")
	}
	if !enrolled {
		return util.NewForbiddenError("enroll in the course to access its quizzes")
	}
	return nil
}
