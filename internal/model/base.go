package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentBase 所有文档共用的主键与时间戳，主键为 UUID 字符串
// swagger:model
type DocumentBase struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *DocumentBase) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return
}

func GenerateUUID() string {
	return uuid.New().String()
}

// Actor 当前操作者，由认证层提供
type Actor struct {
	UserID string
	Role   UserRole
}

func (a Actor) Is(userID string) bool {
	return a.UserID != "" && a.UserID == userID
}
