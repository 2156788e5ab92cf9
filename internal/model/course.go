package model

import (
	"sort"
	"time"

	"gorm.io/datatypes"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "Beginner"
	LevelIntermediate CourseLevel = "Intermediate"
	LevelAdvanced     CourseLevel = "Advanced"
)

func (l CourseLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

// 课程创作的三个步骤
const (
	StepBasics     = 1
	StepMedia      = 2
	StepCurriculum = 3
)

const DefaultCourseLanguage = "English"

// Course 课程主文档
// swagger:model
type Course struct {
	DocumentBase
	Title              string                      `gorm:"size:200;not null" json:"title"`
	Category           string                      `gorm:"size:100;index" json:"category"`
	Level              CourseLevel                 `gorm:"size:20;not null" json:"level"`
	Language           string                      `gorm:"size:50" json:"language"`
	ShortDescription   string                      `gorm:"size:500" json:"shortDescription"`
	Description        string                      `gorm:"type:text" json:"description"`
	WhatYouLearn       datatypes.JSONSlice[string] `json:"whatYouLearn"`
	Requirements       datatypes.JSONSlice[string] `json:"requirements"`
	Thumbnail          *string                     `gorm:"size:500" json:"thumbnail"`
	ThumbnailPath      string                      `gorm:"size:500" json:"-"`
	PromoVideo         *string                     `gorm:"size:500" json:"promoVideo"`
	PromoVideoPath     string                      `gorm:"size:500" json:"-"`
	PromoVideoDuration float64                     `json:"promoVideoDuration,omitempty"`
	InstructorID       string                      `gorm:"type:varchar(36);not null;index" json:"instructor"`
	Status             CourseStatus                `gorm:"size:20;not null;index" json:"status"`
	StepsCompleted     datatypes.JSONSlice[int]    `json:"stepsCompleted"`
	ModuleIDs          datatypes.JSONSlice[string] `json:"modules"`
	StudentsEnrolled   int                         `json:"studentsEnrolled"`
	PublishedAt        *time.Time                  `json:"publishedAt,omitempty"`
}

func (c *Course) HasStep(step int) bool {
	for _, s := range c.StepsCompleted {
		if s == step {
			return true
		}
	}
	return false
}

// MarkStep 记录已完成的步骤，保持集合有序且不重复
func (c *Course) MarkStep(step int) {
	if c.HasStep(step) {
		return
	}
	steps := append([]int{}, c.StepsCompleted...)
	steps = append(steps, step)
	sort.Ints(steps)
	c.StepsCompleted = steps
}

func (c *Course) IsPublished() bool {
	return c.Status == CoursePublished
}

// MediaPaths 返回课程当前引用的存储对象 key
func (c *Course) MediaPaths() []string {
	var paths []string
	if c.ThumbnailPath != "" {
		paths = append(paths, c.ThumbnailPath)
	}
	if c.PromoVideoPath != "" {
		paths = append(paths, c.PromoVideoPath)
	}
	return paths
}
