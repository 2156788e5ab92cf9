package service

import (
	"context"
	"encoding/json"
	"fmt"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// CourseBasicsRequest 步骤一输入，列表字段可以是数组、JSON 数组字符串或逗号分隔字符串
type CourseBasicsRequest struct {
	Title            string          `json:"title" form:"title"`
	Category         string          `json:"category" form:"category"`
	Level            string          `json:"level" form:"level"`
	Language         string          `json:"language" form:"language"`
	ShortDescription string          `json:"shortDescription" form:"shortDescription"`
	Description      string          `json:"description" form:"description"`
	WhatYouLearn     json.RawMessage `json:"whatYouLearn" form:"-" swaggertype:"array,string"`
	Requirements     json.RawMessage `json:"requirements" form:"-" swaggertype:"array,string"`
}

// CourseMediaInput 步骤二输入，由上传服务生成
type CourseMediaInput struct {
	Thumbnail  *model.Artifact
	PromoVideo *model.Artifact
}

// CurriculumRequest 步骤三输入；Modules 为 nil 表示沿用已有章节，空数组表示清空
type CurriculumRequest struct {
	Modules *[]ModuleInput `json:"modules"`
}

type CourseService struct {
	Store      *repository.Store
	Guard      *OwnershipGuard
	Curriculum *CurriculumBuilder
	Media      MediaStore
	Cache      *CourseCache
	Notifier   Notifier

	maxMediaBytes atomic.Int64
}

func NewCourseService(store *repository.Store, guard *OwnershipGuard, curriculum *CurriculumBuilder, media MediaStore, cache *CourseCache, notifier Notifier, maxMediaBytes int64) *CourseService {
	s := &CourseService{
		Store:      store,
		Guard:      guard,
		Curriculum: curriculum,
		Media:      media,
		Cache:      cache,
		Notifier:   notifier,
	}
	s.SetMaxMediaBytes(maxMediaBytes)
	return s
}

// SetMaxMediaBytes 配置热更新时调用
func (s *CourseService) SetMaxMediaBytes(n int64) {
	if n <= 0 {
		n = util.DefaultMaxUploadBytes
	}
	s.maxMediaBytes.Store(n)
}

func (s *CourseService) MaxMediaBytes() int64 {
	return s.maxMediaBytes.Load()
}

type courseBasics struct {
	title, category, language, shortDescription, description string
	level                                                    model.CourseLevel
	whatYouLearn, requirements                               []string
}

func validateBasics(req *CourseBasicsRequest) (*courseBasics, error) {
	b := &courseBasics{
		title:            strings.TrimSpace(req.Title),
		category:         strings.TrimSpace(req.Category),
		language:         strings.TrimSpace(req.Language),
		shortDescription: strings.TrimSpace(req.ShortDescription),
		description:      strings.TrimSpace(req.Description),
		level:            model.CourseLevel(strings.TrimSpace(req.Level)),
	}
	if b.title == "" {
		return nil, util.NewValidationError("title", "title is required")
	}
	if b.category == "" {
		return nil, util.NewValidationError("category", "category is required")
	}
	if b.level == "" {
		return nil, util.NewValidationError("level", "level is required")
	}
	if !b.level.Valid() {
		return nil, util.NewValidationError("level", "level must be one of Beginner, Intermediate, Advanced")
	}
	if b.language == "" {
		b.language = model.DefaultCourseLanguage
	}

	var err error
	if b.whatYouLearn, err = util.ParseListField("whatYouLearn", req.WhatYouLearn, util.WhatYouLearnMin, util.WhatYouLearnMax); err != nil {
		return nil, err
	}
	if b.requirements, err = util.ParseListField("requirements", req.Requirements, util.RequirementsMin, util.RequirementsMax); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *courseBasics) applyTo(course *model.Course) {
	course.Title = b.title
	course.Category = b.category
	course.Level = b.level
	course.Language = b.language
	course.ShortDescription = b.shortDescription
	course.Description = b.description
	course.WhatYouLearn = datatypes.JSONSlice[string](b.whatYouLearn)
	course.Requirements = datatypes.JSONSlice[string](b.requirements)
}

// 每个步骤只写自己负责的列；steps_completed 在事务内基于最新记录合并
var (
	basicsColumns  = []string{"title", "category", "level", "language", "short_description", "description", "what_you_learn", "requirements", "steps_completed"}
	mediaColumns   = []string{"thumbnail", "thumbnail_path", "promo_video", "promo_video_path", "promo_video_duration", "steps_completed"}
	publishColumns = []string{"status", "published_at", "module_ids", "steps_completed"}
	archiveColumns = []string{"status"}
)

// updateCourse 在事务内重新读取课程，修改后只写回 columns
func (s *CourseService) updateCourse(ctx context.Context, courseID string, columns []string, mutate func(*model.Course)) (*model.Course, error) {
	var course *model.Course
	err := s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Courses.FindByID(ctx, courseID)
		if err != nil {
			return err
		}
		mutate(current)
		if err := tx.Courses.UpdateFields(ctx, current, columns...); err != nil {
			return err
		}
		course = current
		return nil
	})
	if err != nil {
		return nil, translateError(err, "course")
	}
	s.Cache.Invalidate(ctx, courseID)
	return course, nil
}

// SaveBasics 步骤一。courseID 为空时创建草稿课程，否则经所有权校验后更新
func (s *CourseService) SaveBasics(ctx context.Context, actor model.Actor, courseID string, req *CourseBasicsRequest) (course *model.Course, err error) {
	ctx, span := tracing.StartSpan(ctx, "CourseService.SaveBasics", attribute.String("course.id", courseID))
	defer func() {
		monitoring.ObserveStep(model.StepBasics, err)
		tracing.EndSpan(span, err)
	}()

	basics, err := validateBasics(req)
	if err != nil {
		return nil, err
	}

	if courseID == "" {
		course = &model.Course{
			InstructorID:   actor.UserID,
			Status:         model.CourseDraft,
			StepsCompleted: datatypes.JSONSlice[int]{model.StepBasics},
			ModuleIDs:      datatypes.JSONSlice[string]{},
		}
		basics.applyTo(course)
		if err := s.Store.Courses.Create(ctx, course); err != nil {
			return nil, translateError(err, "course")
		}
		logger.Log.Info("Course created", zap.String("courseId", course.ID), zap.String("instructor", actor.UserID))
		return course, nil
	}

	if _, err = s.Guard.Authorize(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return s.updateCourse(ctx, courseID, basicsColumns, func(c *model.Course) {
		basics.applyTo(c)
		c.MarkStep(model.StepBasics)
	})
}

func (s *CourseService) validateArtifact(field string, a *model.Artifact, allowed []string) error {
	if a == nil {
		return util.NewValidationError(field, field+" is required")
	}
	if !util.MimeAllowed(a.MimeType, allowed) {
		return util.NewValidationError(field, fmt.Sprintf("unsupported file type %q, expected one of %s", a.MimeType, strings.Join(allowed, ", ")))
	}
	if max := s.MaxMediaBytes(); a.Size > max {
		return util.NewValidationError(field, fmt.Sprintf("file exceeds the %dMB limit", max>>20))
	}
	return nil
}

// discard 删除不再需要的存储对象，失败只记录日志
func (s *CourseService) discard(ctx context.Context, paths ...string) {
	if s.Media == nil {
		return
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.Media.Remove(ctx, p); err != nil {
			logger.Log.Warn("Failed to delete media artifact", zap.String("path", p), zap.Error(err))
		}
	}
}

func artifactPaths(in *CourseMediaInput) []string {
	var paths []string
	if in.Thumbnail != nil {
		paths = append(paths, in.Thumbnail.Path)
	}
	if in.PromoVideo != nil {
		paths = append(paths, in.PromoVideo.Path)
	}
	return paths
}

// AttachMedia 步骤二。任何失败都会删除本次已接收的文件后再返回错误
func (s *CourseService) AttachMedia(ctx context.Context, actor model.Actor, courseID string, in *CourseMediaInput) (course *model.Course, err error) {
	ctx, span := tracing.StartSpan(ctx, "CourseService.AttachMedia", attribute.String("course.id", courseID))
	defer func() {
		monitoring.ObserveStep(model.StepMedia, err)
		tracing.EndSpan(span, err)
	}()

	received := artifactPaths(in)
	defer func() {
		if err != nil {
			s.discard(context.WithoutCancel(ctx), received...)
		}
	}()

	if err := s.validateArtifact("thumbnail", in.Thumbnail, util.ThumbnailMimeTypes); err != nil {
		return nil, err
	}
	if err := s.validateArtifact("promoVideo", in.PromoVideo, util.PromoVideoMimeTypes); err != nil {
		return nil, err
	}

	if _, err = s.Guard.Authorize(ctx, actor, courseID); err != nil {
		return nil, err
	}

	var duration float64
	if s.Media != nil {
		if d, perr := s.Media.ProbeDuration(ctx, in.PromoVideo); perr == nil {
			duration = d
		} else {
			logger.Log.Debug("Promo video duration unavailable", zap.String("courseId", courseID), zap.Error(perr))
		}
	}

	var previous []string
	course, err = s.updateCourse(ctx, courseID, mediaColumns, func(c *model.Course) {
		previous = c.MediaPaths()
		thumb, promo := in.Thumbnail.URL, in.PromoVideo.URL
		c.Thumbnail = &thumb
		c.ThumbnailPath = in.Thumbnail.Path
		c.PromoVideo = &promo
		c.PromoVideoPath = in.PromoVideo.Path
		c.PromoVideoDuration = duration
		c.MarkStep(model.StepMedia)
	})
	if err != nil {
		return nil, err
	}

	// 替换成功后清理旧文件
	var stale []string
	for _, p := range previous {
		if p != course.ThumbnailPath && p != course.PromoVideoPath {
			stale = append(stale, p)
		}
	}
	s.discard(ctx, stale...)
	return course, nil
}

// PublishCurriculum 步骤三。替换大纲（如有）、检查章节数、发布，全部在同一事务内完成
func (s *CourseService) PublishCurriculum(ctx context.Context, actor model.Actor, courseID string, req *CurriculumRequest) (course *model.Course, err error) {
	ctx, span := tracing.StartSpan(ctx, "CourseService.PublishCurriculum", attribute.String("course.id", courseID))
	defer func() {
		monitoring.ObserveStep(model.StepCurriculum, err)
		tracing.EndSpan(span, err)
	}()

	course, err = s.Guard.Authorize(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	if !course.HasStep(model.StepMedia) {
		return nil, util.NewValidationError("stepsCompleted", "media upload (step 2) must be completed before publishing")
	}

	var plan *CurriculumPlan
	if req != nil && req.Modules != nil {
		if plan, err = s.Curriculum.Plan(*req.Modules); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Courses.FindByID(ctx, courseID)
		if err != nil {
			return err
		}
		if !actor.Is(current.InstructorID) {
			return util.NewForbiddenError("only the course instructor can modify this course")
		}

		if plan != nil {
			if _, err := s.Curriculum.Replace(ctx, tx, current, plan); err != nil {
				return err
			}
		}

		count, err := tx.Modules.CountByCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if count == 0 {
			return util.NewValidationError("modules", "Cannot publish course with no modules")
		}

		ids, err := tx.Modules.IDsByCourse(ctx, courseID)
		if err != nil {
			return err
		}

		now := time.Now()
		current.ModuleIDs = datatypes.JSONSlice[string](ids)
		current.Status = model.CoursePublished
		current.PublishedAt = &now
		current.MarkStep(model.StepCurriculum)
		if err := tx.Courses.UpdateFields(ctx, current, publishColumns...); err != nil {
			return err
		}
		course = current
		return nil
	})
	if plan != nil {
		monitoring.CurriculumReplaceDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		err = translateError(err, "course")
		if util.KindOf(err) == util.KindInternal {
			logger.Log.Error("Publish transaction failed", zap.String("courseId", courseID), zap.Error(err))
		}
		return nil, err
	}

	s.Cache.Invalidate(ctx, courseID)
	logger.Log.Info("Course published",
		zap.String("courseId", courseID),
		zap.Int("modules", len(course.ModuleIDs)),
		zap.Bool("replaced", plan != nil),
	)
	notifyAsync(s.Notifier, NotificationEvent{
		Type:        EventCoursePublished,
		CourseID:    course.ID,
		CourseTitle: course.Title,
		UserID:      actor.UserID,
		Recipient:   s.instructorEmail(ctx, course.InstructorID),
	})
	return course, nil
}

func (s *CourseService) instructorEmail(ctx context.Context, id string) string {
	user, err := s.Store.Users.FindByID(ctx, id)
	if err != nil {
		return ""
	}
	return user.Email
}

// ListMine 讲师自己的课程，status 为空时返回全部
func (s *CourseService) ListMine(ctx context.Context, actor model.Actor, status model.CourseStatus, page, limit int) (*util.PageResponse, error) {
	courses, total, err := s.Store.Courses.ListByInstructor(ctx, actor.UserID, status, page, limit)
	if err != nil {
		return nil, translateError(err, "course")
	}
	return coursePage(courses, total, page, limit), nil
}

// ListCatalog 公开目录，只包含已发布课程
func (s *CourseService) ListCatalog(ctx context.Context, filter repository.CourseFilter, page, limit int) (*util.PageResponse, error) {
	if filter.Level != "" && !filter.Level.Valid() {
		return nil, util.NewValidationError("level", "level must be one of Beginner, Intermediate, Advanced")
	}
	courses, total, err := s.Store.Courses.ListPublished(ctx, filter, page, limit)
	if err != nil {
		return nil, translateError(err, "course")
	}
	return coursePage(courses, total, page, limit), nil
}

func coursePage(courses []model.Course, total int64, page, limit int) *util.PageResponse {
	cards := make([]model.CourseCard, 0, len(courses))
	for i := range courses {
		cards = append(cards, courses[i].Card())
	}
	return &util.PageResponse{List: cards, Total: total, Page: page, Limit: limit}
}

// Archive 下架课程，已有选课不受影响
func (s *CourseService) Archive(ctx context.Context, actor model.Actor, courseID string) (*model.Course, error) {
	course, err := s.Guard.Authorize(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status == model.CourseArchived {
		return course, nil
	}
	return s.updateCourse(ctx, courseID, archiveColumns, func(c *model.Course) {
		c.Status = model.CourseArchived
	})
}

// Delete 级联删除课程的章节、测验与小结；选课记录只标记为取消。媒体文件在提交后尽力删除
func (s *CourseService) Delete(ctx context.Context, actor model.Actor, courseID string) error {
	course, err := s.Guard.Authorize(ctx, actor, courseID)
	if err != nil {
		return err
	}

	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		moduleIDs, err := tx.Modules.IDsByCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if err := tx.Quizzes.DeleteByCourse(ctx, courseID); err != nil {
			return err
		}
		if err := tx.Summaries.DeleteByCourse(ctx, courseID); err != nil {
			return err
		}
		if err := tx.Modules.DeleteByIDs(ctx, moduleIDs); err != nil {
			return err
		}
		if _, err := tx.Enrollments.CancelByCourse(ctx, courseID); err != nil {
			return err
		}
		return tx.Courses.Delete(ctx, courseID)
	})
	if err != nil {
		return translateError(err, "course")
	}

	s.discard(ctx, course.MediaPaths()...)
	s.Cache.Invalidate(ctx, courseID)
	logger.Log.Info("Course deleted", zap.String("courseId", courseID), zap.String("instructor", actor.UserID))
	return nil
}
