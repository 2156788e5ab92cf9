package model

import "gorm.io/datatypes"

// Module 课程下的章节，(course_id, sort_order) 唯一
// swagger:model
type Module struct {
	DocumentBase
	CourseID   string                      `gorm:"type:varchar(36);not null;uniqueIndex:idx_module_course_order" json:"courseId"`
	Title      string                      `gorm:"size:200;not null" json:"title"`
	Order      int                         `gorm:"column:sort_order;not null;uniqueIndex:idx_module_course_order" json:"order"`
	Topics     datatypes.JSONSlice[Topic]  `json:"topics"`
	SummaryIDs datatypes.JSONSlice[string] `json:"summaryIds"`
}

// QuizIDs 收集 quiz 类型主题引用的测验
func (m *Module) QuizIDs() []string {
	var ids []string
	for _, t := range m.Topics {
		if id := t.QuizID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
