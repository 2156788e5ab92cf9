package controller

import (
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// CurriculumController 测验与小结的单独维护接口
type CurriculumController struct {
	QuizService    *service.QuizService
	SummaryService *service.SummaryService
}

func NewCurriculumController(quizService *service.QuizService, summaryService *service.SummaryService) *CurriculumController {
	return &CurriculumController{QuizService: quizService, SummaryService: summaryService}
}

// QuizAttemptRequest answers 的 key 为题目序号（从 0 开始）
type QuizAttemptRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

// GetQuiz godoc
// @Summary Get a quiz
// @Description Instructors receive answer keys, enrolled students receive questions only
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} util.Response{data=model.QuizView} "Success"
// @Failure 403 {object} util.Response "Not enrolled"
// @Failure 404 {object} util.Response "Quiz not found"
// @Router /api/quizzes/{id} [get]
func (c *CurriculumController) GetQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	quiz, err := c.QuizService.GetQuiz(ctx.Request.Context(), claims.Actor(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// UpdateQuiz godoc
// @Summary Replace a quiz's questions and settings
// @Tags quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Quiz ID"
// @Param request body model.QuizDefinition true "Quiz"
// @Success 200 {object} util.Response{data=model.QuizView} "Success"
// @Failure 400 {object} util.Response "Validation error"
// @Failure 403 {object} util.Response "Not the course instructor"
// @Failure 404 {object} util.Response "Quiz not found"
// @Router /api/instructor/quizzes/{id} [put]
func (c *CurriculumController) UpdateQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var def model.QuizDefinition
	if err := ctx.ShouldBindJSON(&def); err != nil {
		util.BadRequest(ctx, "malformed JSON body")
		return
	}
	quiz, err := c.QuizService.UpdateQuiz(ctx.Request.Context(), claims.Actor(), ctx.Param("id"), &def)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// SubmitQuizAttempt godoc
// @Summary Submit answers for grading
// @Tags quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Quiz ID"
// @Param request body QuizAttemptRequest true "Answers keyed by question index"
// @Success 200 {object} util.Response{data=model.QuizResult} "Graded"
// @Failure 400 {object} util.Response "Validation error"
// @Failure 403 {object} util.Response "Not enrolled"
// @Failure 404 {object} util.Response "Quiz not found"
// @Router /api/quizzes/{id}/attempts [post]
func (c *CurriculumController) SubmitQuizAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req QuizAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "answers are required")
		return
	}
	answers := make(map[int]string, len(req.Answers))
	for k, v := range req.Answers {
		idx, err := strconv.Atoi(k)
		if err != nil {
			util.BadRequest(ctx, "answer keys must be question indexes")
			return
		}
		answers[idx] = v
	}
	result, err := c.QuizService.SubmitAttempt(ctx.Request.Context(), claims.Actor(), ctx.Param("id"), answers)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// CreateSummary godoc
// @Summary Add a summary to a module
// @Tags summaries
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Module ID"
// @Param request body service.SummaryInput true "Summary"
// @Success 201 {object} util.Response{data=model.Summary} "Created"
// @Failure 400 {object} util.Response "Validation error"
// @Failure 403 {object} util.Response "Not the course instructor"
// @Failure 404 {object} util.Response "Module not found"
// @Router /api/instructor/modules/{id}/summaries [post]
func (c *CurriculumController) CreateSummary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var in service.SummaryInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, "malformed JSON body")
		return
	}
	summary, err := c.SummaryService.Create(ctx.Request.Context(), claims.Actor(), ctx.Param("id"), &in)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, summary)
}

// UpdateSummary godoc
// @Summary Update a summary
// @Tags summaries
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Summary ID"
// @Param request body service.SummaryInput true "Summary"
// @Success 200 {object} util.Response{data=model.Summary} "Success"
// @Failure 400 {object} util.Response "Validation error"
// @Failure 403 {object} util.Response "Not the course instructor"
// @Failure 404 {object} util.Response "Summary not found"
// @Router /api/instructor/summaries/{id} [put]
func (c *CurriculumController) UpdateSummary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var in service.SummaryInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, "malformed JSON body")
		return
	}
	summary, err := c.SummaryService.Update(ctx.Request.Context(), claims.Actor(), ctx.Param("id"), &in)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// DeleteSummary godoc
// @Summary Delete a summary
// @Tags summaries
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Summary ID"
// @Success 200 {object} util.Response "Deleted"
// @Failure 403 {object} util.Response "Not the course instructor"
// @Failure 404 {object} util.Response "Summary not found"
// @Router /api/instructor/summaries/{id} [delete]
func (c *CurriculumController) DeleteSummary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	if err := c.SummaryService.Delete(ctx.Request.Context(), claims.Actor(), ctx.Param("id")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": ctx.Param("id")})
}
