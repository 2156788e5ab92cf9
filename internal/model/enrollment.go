package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Enrollment 学生选课记录
// ActiveKey 在未取消时为 student:course，取消后置空，借助唯一索引保证同一对只有一条有效记录
// swagger:model
type Enrollment struct {
	DocumentBase
	StudentID    string           `gorm:"type:varchar(36);not null;index" json:"student"`
	CourseID     string           `gorm:"type:varchar(36);not null;index" json:"course"`
	Status       EnrollmentStatus `gorm:"size:20;not null" json:"status"`
	Progress     int              `json:"progress"`
	EnrolledAt   time.Time        `json:"enrolledAt"`
	LastAccessed time.Time        `json:"lastAccessed"`
	ActiveKey    *string          `gorm:"size:80;uniqueIndex" json:"-"`
}

func EnrollmentKey(studentID, courseID string) string {
	return studentID + ":" + courseID
}

// Activate 标记为有效状态并写入唯一键
func (e *Enrollment) Activate() {
	key := EnrollmentKey(e.StudentID, e.CourseID)
	e.ActiveKey = &key
	if e.Status == "" || e.Status == EnrollmentCancelled {
		e.Status = EnrollmentActive
	}
}

func (e *Enrollment) Cancel() {
	e.Status = EnrollmentCancelled
	e.ActiveKey = nil
}

func (e *Enrollment) IsCancelled() bool {
	return e.Status == EnrollmentCancelled
}
