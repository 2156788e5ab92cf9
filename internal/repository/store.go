package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store 聚合五个文档集合的仓储，Transaction 内的 Store 绑定同一事务
type Store struct {
	DB          *gorm.DB
	Users       *UserRepository
	Courses     *CourseRepository
	Modules     *ModuleRepository
	Quizzes     *QuizRepository
	Summaries   *SummaryRepository
	Enrollments *EnrollmentRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		DB:          db,
		Users:       NewUserRepository(db),
		Courses:     NewCourseRepository(db),
		Modules:     NewModuleRepository(db),
		Quizzes:     NewQuizRepository(db),
		Summaries:   NewSummaryRepository(db),
		Enrollments: NewEnrollmentRepository(db),
	}
}

// Transaction fn 返回错误时整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
