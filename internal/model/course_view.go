package model

import "time"

// EnrolledStudent 聚合视图中的选课学生
type EnrolledStudent struct {
	EnrollmentID string           `json:"enrollmentId"`
	Status       EnrollmentStatus `json:"status"`
	Progress     int              `json:"progress"`
	EnrolledAt   time.Time        `json:"enrolledAt"`
	LastAccessed time.Time        `json:"lastAccessed"`
	Student      *UserPublic      `json:"student"`
}

// ModuleDetail 章节及其小结、测验
type ModuleDetail struct {
	Module
	Summaries []Summary  `json:"summaries"`
	Quizzes   []QuizView `json:"quizzes"`
}

// CourseDetail 课程聚合读模型，instructor 与 modules 覆盖 Course 上的同名引用字段
// swagger:model
type CourseDetail struct {
	Course
	Instructor       *UserPublic       `json:"instructor"`
	EnrollmentCount  int               `json:"enrollmentCount"`
	EnrolledStudents []EnrolledStudent `json:"enrolledStudents"`
	Modules          []ModuleDetail    `json:"modules"`
}

// CourseCard 列表用的课程摘要
type CourseCard struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Category         string       `json:"category"`
	Level            CourseLevel  `json:"level"`
	Language         string       `json:"language"`
	ShortDescription string       `json:"shortDescription"`
	Thumbnail        *string      `json:"thumbnail"`
	Status           CourseStatus `json:"status"`
	StepsCompleted   []int        `json:"stepsCompleted"`
	StudentsEnrolled int          `json:"studentsEnrolled"`
	PublishedAt      *time.Time   `json:"publishedAt,omitempty"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

func (c *Course) Card() CourseCard {
	return CourseCard{
		ID:               c.ID,
		Title:            c.Title,
		Category:         c.Category,
		Level:            c.Level,
		Language:         c.Language,
		ShortDescription: c.ShortDescription,
		Thumbnail:        c.Thumbnail,
		Status:           c.Status,
		StepsCompleted:   c.StepsCompleted,
		StudentsEnrolled: c.StudentsEnrolled,
		PublishedAt:      c.PublishedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
