package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

type ManualEnrollRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}

type ProgressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

// Enroll godoc
// @Summary Enroll in a published course
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Course ID"
// @Success 201 {object} util.Response{data=model.Enrollment} "Created"
// @Failure 400 {object} util.Response "Course not open for enrollment"
// @Failure 404 {object} util.Response "Course not found"
// @Failure 409 {object} util.Response "Already enrolled"
// @Router /api/courses/{id}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	enrollment, err := c.EnrollmentService.Enroll(ctx.Request.Context(), claims.Actor(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// ManualEnroll godoc
// @Summary Enroll a student on their behalf (instructor)
// @Tags enrollments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Course ID"
// @Param request body ManualEnrollRequest true "Student"
// @Success 201 {object} util.Response{data=model.Enrollment} "Created"
// @Failure 403 {object} util.Response "Not the course instructor"
// @Failure 404 {object} util.Response "Course or student not found"
// @Failure 409 {object} util.Response "Already enrolled"
// @Router /api/instructor/courses/{id}/enrollments [post]
func (c *EnrollmentController) ManualEnroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req ManualEnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "studentId is required")
		return
	}
	enrollment, err := c.EnrollmentService.ManualEnroll(ctx.Request.Context(), claims.Actor(), ctx.Param("id"), req.StudentID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// CancelEnrollment godoc
// @Summary Cancel an enrollment
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Enrollment not found"
// @Router /api/enrollments/{id}/cancel [post]
func (c *EnrollmentController) CancelEnrollment(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	enrollment, err := c.EnrollmentService.Cancel(ctx.Request.Context(), claims.Actor(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// UpdateProgress godoc
// @Summary Update my progress in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Course ID"
// @Param request body ProgressRequest true "Progress 0-100"
// @Success 200 {object} util.Response{data=model.Enrollment} "Success"
// @Failure 400 {object} util.Response "Validation error"
// @Failure 404 {object} util.Response "Not enrolled"
// @Router /api/courses/{id}/progress [put]
func (c *EnrollmentController) UpdateProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req ProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "progress is required")
		return
	}
	enrollment, err := c.EnrollmentService.UpdateProgress(ctx.Request.Context(), claims.Actor(), ctx.Param("id"), *req.Progress)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// ListMyEnrollments godoc
// @Summary List my enrollments
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/enrollments/my [get]
func (c *EnrollmentController) ListMyEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	page, limit := util.ParsePage(ctx)
	result, err := c.EnrollmentService.ListMine(ctx.Request.Context(), claims.Actor(), page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
