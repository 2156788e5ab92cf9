package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return &user, err
}

// FindByIDs 返回以 ID 为键的用户表，缺失的 ID 不报错
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	result := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []model.User
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		result[users[i].ID] = &users[i]
	}
	return result, nil
}

// Upsert 按 token 中的身份同步用户资料，头像等本地字段不被覆盖
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	if user.LastSeen.IsZero() {
		user.LastSeen = time.Now()
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "role", "last_seen", "updated_at"}),
	}).Create(user).Error
}
