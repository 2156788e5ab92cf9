package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

// CourseFilter 公开课程目录的筛选条件
type CourseFilter struct {
	Category string
	Level    model.CourseLevel
	Keyword  string
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Create(course).Error
}

// UpdateFields 只写回指定列（另加 updated_at），其他步骤并发写入的列保持不变
func (r *CourseRepository) UpdateFields(ctx context.Context, course *model.Course, columns ...string) error {
	selected := append(append([]string{}, columns...), "updated_at")
	return r.DB.WithContext(ctx).Model(course).Select(selected).Updates(course).Error
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&course).Error
	return &course, err
}

func (r *CourseRepository) UpdateColumns(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&model.Course{}).Where("id = ?", id).Updates(updates).Error
}

func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID string, status model.CourseStatus, page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Course{}).Where("instructor_id = ?", instructorID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("updated_at desc").Offset(offset).Limit(limit).Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) ListPublished(ctx context.Context, filter CourseFilter, page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Course{}).Where("status = ?", model.CoursePublished)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("title LIKE ? OR short_description LIKE ?", like, like)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("published_at desc").Offset(offset).Limit(limit).Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Course{}).Error
}
