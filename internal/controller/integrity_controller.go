package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type IntegrityController struct {
	IntegrityService *service.IntegrityService
}

func NewIntegrityController(integrityService *service.IntegrityService) *IntegrityController {
	return &IntegrityController{IntegrityService: integrityService}
}

// ScanIntegrity godoc
// @Summary Scan for orphaned quizzes, summaries and broken quiz topics
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.IntegrityReport} "Report"
// @Router /api/admin/integrity [get]
func (c *IntegrityController) ScanIntegrity(ctx *gin.Context) {
	report, err := c.IntegrityService.Scan(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// PurgeOrphans godoc
// @Summary Delete orphaned quizzes and summaries
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.IntegrityReport} "Report"
// @Router /api/admin/integrity/purge [post]
func (c *IntegrityController) PurgeOrphans(ctx *gin.Context) {
	report, err := c.IntegrityService.Purge(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}
