package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const courseMediaFolder = "courses"

// ArtifactSaver 接收上传文件，由 service.UploadService 实现
type ArtifactSaver interface {
	Save(ctx context.Context, folder string, file *multipart.FileHeader) (*model.Artifact, error)
	Remove(ctx context.Context, key string) error
}

type CourseController struct {
	CourseService *service.CourseService
	CourseReader  *service.CourseReader
	Uploads       ArtifactSaver
}

func NewCourseController(courseService *service.CourseService, reader *service.CourseReader, uploads ArtifactSaver) *CourseController {
	return &CourseController{CourseService: courseService, CourseReader: reader, Uploads: uploads}
}

// bindBasics 同时支持 JSON 与表单提交
func bindBasics(ctx *gin.Context) (*service.CourseBasicsRequest, error) {
	var req service.CourseBasicsRequest
	if strings.HasPrefix(ctx.ContentType(), "application/json") {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return nil, util.NewValidationError("", "malformed JSON body")
		}
		return &req, nil
	}

	if err := ctx.ShouldBind(&req); err != nil {
		return nil, util.NewValidationError("", err.Error())
	}
	req.WhatYouLearn = formList(ctx, "whatYouLearn")
	req.Requirements = formList(ctx, "requirements")
	return &req, nil
}

// formList 重复字段视为数组，单个值交给列表解析器处理
func formList(ctx *gin.Context, field string) json.RawMessage {
	values := ctx.PostFormArray(field)
	if len(values) == 0 {
		values = ctx.PostFormArray(field + "[]")
	}
	var raw []byte
	switch len(values) {
	case 0:
		return nil
	case 1:
		raw, _ = json.Marshal(values[0])
	default:
		raw, _ = json.Marshal(values)
	}
	return raw
}

// CreateCourse godoc
// @Summary Create a course (step 1)
// @Description Create a draft course from its basic information. whatYouLearn/requirements accept an array, a JSON array string or a comma separated string
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.CourseBasicsRequest true "Course basics"
// @Success 201 {object} util.Response{data=model.Course} "Created"
// @Failure 400 {object} util.Response "Validation error"
// @Failure 401 {object} util.Response "Unauthorized"
// @Failure 403 {object} util.Response "Forbidden"
// @Router /api/instructor/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	req, err := bindBasics(ctx)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	course, err := c.CourseService.SaveBasics(ctx.Request.Context(), claims.Actor(), "", req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourseBasics godoc
// @Summary Update course basics (step 1)
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Course ID"
// @Param request body service.CourseBasicsRequest true "Course basics"
// @Success 200 {object} util.Response{data=model.Course} "Success"
// @Failure 400 {object} util.Response "Validation error"
// @Failure 403 {object} util.Response "Not the course instructor"
// @Failure 404 {object} util.Response "Course not found"
// @Router /api/instructor/courses/{id}/basics [put]
func (c *CourseController) UpdateCourseBasics(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	req, err := bindBasics(ctx)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	course, err := c.CourseService.SaveBasics(ctx.Request.Context(), claims.Actor(), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// UploadCourseMedia godoc
// @Summary Upload course media (step 2)
// @Description Upload the thumbnail (jpeg/png/webp) and promo video (mp4/webm/quicktime)
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Course ID"
// @Param thumbnail formData file true "Thumbnail image"
// @Param promoVideo formData file true "Promo video"
// @Success 200 {object} util.Response{data=model.Course} "Success"
// @Failure 400 {object} util.Response "Validation error"
// @Failure 403 {object} util.Response "Not the course instructor"
// @Failure 404 {object} util.Response "Course not found"
// @Router /api/instructor/courses/{id}/media [post]
func (c *CourseController) UploadCourseMedia(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	in := &service.CourseMediaInput{}
	var received []*model.Artifact
	for _, field := range []string{"thumbnail", "promoVideo"} {
		file, err := ctx.FormFile(field)
		if err != nil {
			continue
		}
		if file.Size > c.CourseService.MaxMediaBytes() {
			c.discard(ctx, received)
			util.RespondError(ctx, util.NewValidationError(field, "file exceeds the upload size limit"))
			return
		}
		artifact, err := c.Uploads.Save(ctx.Request.Context(), courseMediaFolder, file)
		if err != nil {
			c.discard(ctx, received)
			util.LogInternalError(ctx, err)
			return
		}
		received = append(received, artifact)
		if field == "thumbnail" {
			in.Thumbnail = artifact
		} else {
			in.PromoVideo = artifact
		}
	}

	// 校验失败时由服务层删除已接收的文件
	course, err := c.CourseService.AttachMedia(ctx.Request.Context(), claims.Actor(), ctx.Param("id"), in)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

func (c *CourseController) discard(ctx *gin.Context, artifacts []*model.Artifact) {
	for _, a := range artifacts {
		if err := c.Uploads.Remove(ctx.Request.Context(), a.Path); err != nil {
			logger.Log.Warn("Failed to delete uploaded artifact", zap.String("path", a.Path), zap.Error(err))
		}
	}
}

// PublishCourse godoc
// @Summary Save curriculum and publish (step 3)
// @Description Replaces the whole curriculum when modules is present, then publishes. Omit modules to republish with the existing curriculum
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Course ID"
// @Param request body service.CurriculumRequest false "Curriculum"
// @Success 200 {object} util.Response{data=model.Course} "Published"
// @Failure 400 {object} util.Response "Validation error"
// @Failure 403 {object} util.Response "Not the course instructor"
// @Failure 404 {object} util.Response "Course not found"
// @Failure 409 {object} util.Response "Duplicate module order"
// @Router /api/instructor/courses/{id}/publish [post]
func (c *CourseController) PublishCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	// 空请求体等同于不提交 modules
	var req service.CurriculumRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.BadRequest(ctx, "malformed JSON body")
		return
	}

	course, err := c.CourseService.PublishCurriculum(ctx.Request.Context(), claims.Actor(), ctx.Param("id"), &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// GetCourse godoc
// @Summary Get course detail
// @Description Course with instructor, enrolled students, modules, summaries and quizzes. Quizzes carry answer keys only for the course instructor
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response{data=model.CourseDetail} "Success"
// @Failure 404 {object} util.Response "Course not found"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	detail, err := c.CourseReader.GetCourse(ctx.Request.Context(), util.GetViewer(ctx), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// ListCatalog godoc
// @Summary List published courses
// @Tags courses
// @Produce json
// @Param category query string false "Category"
// @Param level query string false "Level" Enums(Beginner, Intermediate, Advanced)
// @Param keyword query string false "Title keyword"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/courses [get]
func (c *CourseController) ListCatalog(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	filter := repository.CourseFilter{
		Category: strings.TrimSpace(ctx.Query("category")),
		Level:    model.CourseLevel(strings.TrimSpace(ctx.Query("level"))),
		Keyword:  strings.TrimSpace(ctx.Query("keyword")),
	}
	result, err := c.CourseService.ListCatalog(ctx.Request.Context(), filter, page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListMyCourses godoc
// @Summary List my courses
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Status" Enums(draft, published, archived)
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/instructor/courses [get]
func (c *CourseController) ListMyCourses(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	page, limit := util.ParsePage(ctx)
	result, err := c.CourseService.ListMine(ctx.Request.Context(), claims.Actor(), model.CourseStatus(ctx.Query("status")), page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ArchiveCourse godoc
// @Summary Archive a course
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response{data=model.Course} "Success"
// @Failure 403 {object} util.Response "Not the course instructor"
// @Failure 404 {object} util.Response "Course not found"
// @Router /api/instructor/courses/{id}/archive [post]
func (c *CourseController) ArchiveCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	course, err := c.CourseService.Archive(ctx.Request.Context(), claims.Actor(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary Delete a course with its curriculum and enrollments
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response "Deleted"
// @Failure 403 {object} util.Response "Not the course instructor"
// @Failure 404 {object} util.Response "Course not found"
// @Router /api/instructor/courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	if err := c.CourseService.Delete(ctx.Request.Context(), claims.Actor(), ctx.Param("id")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": ctx.Param("id")})
}
