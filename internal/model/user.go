package model

import "time"

type UserRole string

const (
	Student    UserRole = "student"
	Instructor UserRole = "instructor"
	Admin      UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case Student, Instructor, Admin:
		return true
	}
	return false
}

// User 用户公开资料，由认证中间件根据 token 同步
// swagger:model
type User struct {
	DocumentBase
	FullName       string    `gorm:"size:100" json:"fullName"`
	Email          string    `gorm:"size:100;index" json:"email"`
	Role           UserRole  `gorm:"size:20" json:"role"`
	ProfilePicture string    `gorm:"size:500" json:"profilePicture"`
	LastSeen       time.Time `json:"lastSeen"`
}

// UserPublic 对外展示的用户字段
type UserPublic struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
}

func (u *User) Public() *UserPublic {
	return &UserPublic{
		ID:             u.ID,
		FullName:       u.FullName,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
	}
}
