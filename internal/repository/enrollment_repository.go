package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.DB.WithContext(ctx).Create(enrollment).Error
}

func (r *EnrollmentRepository) Save(ctx context.Context, enrollment *model.Enrollment) error {
	return r.DB.WithContext(ctx).Save(enrollment).Error
}

func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&enrollment).Error
	return &enrollment, err
}

// FindActive 返回该学生在课程上未取消的记录
func (r *EnrollmentRepository) FindActive(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND status <> ?", studentID, courseID, model.EnrollmentCancelled).
		First(&enrollment).Error
	return &enrollment, err
}

// ListByCourse 课程的选课记录，includeCancelled 为 false 时排除已取消
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string, includeCancelled bool) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	query := r.DB.WithContext(ctx).Where("course_id = ?", courseID)
	if !includeCancelled {
		query = query.Where("status <> ?", model.EnrollmentCancelled)
	}
	err := query.Order("enrolled_at asc").Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string, page, limit int) ([]model.Enrollment, int64, error) {
	var enrollments []model.Enrollment
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Enrollment{}).Where("student_id = ?", studentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("last_accessed desc").Offset(offset).Limit(limit).Find(&enrollments).Error
	return enrollments, total, err
}

func (r *EnrollmentRepository) CountActiveByCourse(ctx context.Context, courseID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("course_id = ? AND status <> ?", courseID, model.EnrollmentCancelled).
		Count(&count).Error
	return count, err
}

// CancelByCourse 结束课程下所有未取消的选课，记录本身保留
func (r *EnrollmentRepository) CancelByCourse(ctx context.Context, courseID string) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("course_id = ? AND status <> ?", courseID, model.EnrollmentCancelled).
		Updates(map[string]interface{}{"status": model.EnrollmentCancelled, "active_key": nil})
	return result.RowsAffected, result.Error
}
