package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

func (r *ModuleRepository) Create(ctx context.Context, module *model.Module) error {
	return r.DB.WithContext(ctx).Create(module).Error
}

func (r *ModuleRepository) Save(ctx context.Context, module *model.Module) error {
	return r.DB.WithContext(ctx).Save(module).Error
}

func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*model.Module, error) {
	var module model.Module
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&module).Error
	return &module, err
}

// FindByCourse 按 order 升序返回课程的全部章节
func (r *ModuleRepository) FindByCourse(ctx context.Context, courseID string) ([]model.Module, error) {
	var modules []model.Module
	err := r.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("sort_order asc").
		Find(&modules).Error
	return modules, err
}

func (r *ModuleRepository) IDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Module{}).
		Where("course_id = ?", courseID).
		Order("sort_order asc").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ModuleRepository) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Module{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

func (r *ModuleRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Module{}).Error
}

// FindAll 供完整性扫描使用
func (r *ModuleRepository) FindAll(ctx context.Context) ([]model.Module, error) {
	var modules []model.Module
	err := r.DB.WithContext(ctx).Order("course_id, sort_order").Find(&modules).Error
	return modules, err
}
