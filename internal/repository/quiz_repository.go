package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	return r.DB.WithContext(ctx).Create(quiz).Error
}

func (r *QuizRepository) Save(ctx context.Context, quiz *model.Quiz) error {
	return r.DB.WithContext(ctx).Save(quiz).Error
}

func (r *QuizRepository) FindByID(ctx context.Context, id string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&quiz).Error
	return &quiz, err
}

// FindByIDs 缺失的 ID 直接忽略
func (r *QuizRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Quiz, error) {
	result := make(map[string]*model.Quiz, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var quizzes []model.Quiz
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&quizzes).Error; err != nil {
		return nil, err
	}
	for i := range quizzes {
		result[quizzes[i].ID] = &quizzes[i]
	}
	return result, nil
}

func (r *QuizRepository) DeleteByModuleIDs(ctx context.Context, moduleIDs []string) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Where("module_id IN ?", moduleIDs).Delete(&model.Quiz{}).Error
}

func (r *QuizRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Quiz{}).Error
}

func (r *QuizRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.DB.WithContext(ctx).Where("course_id = ?", courseID).Delete(&model.Quiz{}).Error
}

// FindOrphanIDs 返回 module_id 已无法解析的测验
func (r *QuizRepository) FindOrphanIDs(ctx context.Context) ([]string, error) {
	var ids []string
	modules := r.DB.Model(&model.Module{}).Select("id")
	err := r.DB.WithContext(ctx).Model(&model.Quiz{}).
		Where("module_id NOT IN (?)", modules).
		Pluck("id", &ids).Error
	return ids, err
}
