package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
)

// CourseLookup 守卫只需要按 ID 读取课程
type CourseLookup interface {
	FindByID(ctx context.Context, id string) (*model.Course, error)
}

// OwnershipGuard 所有修改课程及其章节、测验、小结的操作在写入前都要经过这里
type OwnershipGuard struct {
	Courses CourseLookup
}

func NewOwnershipGuard(courses CourseLookup) *OwnershipGuard {
	return &OwnershipGuard{Courses: courses}
}

// Authorize 课程不存在返回 NotFound，讲师不匹配返回 Forbidden；成功时返回读取到的课程
func (g *OwnershipGuard) Authorize(ctx context.Context, actor model.Actor, courseID string) (*model.Course, error) {
	if courseID == "" {
		return nil, util.NewNotFoundError("course")
	}
	course, err := g.Courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, translateError(err, "course")
	}
	if !actor.Is(course.InstructorID) {
		return nil, util.NewForbiddenError("only the course instructor can modify this course")
	}
	return course, nil
}
