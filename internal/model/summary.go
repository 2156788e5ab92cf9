package model

// Summary 章节小结，随章节一起删除
// swagger:model
type Summary struct {
	DocumentBase
	Title    string `gorm:"size:200;not null" json:"title"`
	Content  string `gorm:"type:text" json:"content"`
	CourseID string `gorm:"type:varchar(36);index" json:"courseId"`
	ModuleID string `gorm:"type:varchar(36);index" json:"moduleId"`
}
