package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type SummaryRepository struct {
	DB *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) *SummaryRepository {
	return &SummaryRepository{DB: db}
}

func (r *SummaryRepository) Create(ctx context.Context, summary *model.Summary) error {
	return r.DB.WithContext(ctx).Create(summary).Error
}

func (r *SummaryRepository) Save(ctx context.Context, summary *model.Summary) error {
	return r.DB.WithContext(ctx).Save(summary).Error
}

func (r *SummaryRepository) FindByID(ctx context.Context, id string) (*model.Summary, error) {
	var summary model.Summary
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&summary).Error
	return &summary, err
}

func (r *SummaryRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Summary, error) {
	result := make(map[string]*model.Summary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var summaries []model.Summary
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&summaries).Error; err != nil {
		return nil, err
	}
	for i := range summaries {
		result[summaries[i].ID] = &summaries[i]
	}
	return result, nil
}

func (r *SummaryRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Summary{}).Error
}

func (r *SummaryRepository) DeleteByModuleIDs(ctx context.Context, moduleIDs []string) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Where("module_id IN ?", moduleIDs).Delete(&model.Summary{}).Error
}

func (r *SummaryRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Summary{}).Error
}

func (r *SummaryRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.DB.WithContext(ctx).Where("course_id = ?", courseID).Delete(&model.Summary{}).Error
}

// FindOrphanIDs 返回 module_id 已无法解析的小结
func (r *SummaryRepository) FindOrphanIDs(ctx context.Context) ([]string, error) {
	var ids []string
	modules := r.DB.Model(&model.Module{}).Select("id")
	err := r.DB.WithContext(ctx).Model(&model.Summary{}).
		Where("module_id NOT IN (?)", modules).
		Pluck("id", &ids).Error
	return ids, err
}
