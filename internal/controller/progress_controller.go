package controller

import (
	"net/http"

	"ib_quiz_backend/internal/service"
	"ib_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ProgressController 处理学习进度查询的API请求

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// @Summary 学习进度
// @Description 按学科/主题过滤的滚动统计
// @Tags 进度
// @Produce json
// @Param subject query string false "学科"
// @Param topic query string false "主题"
// @Success 200 {object} model.ProgressListResponse
// @Router /api/progress [get]
func (c *ProgressController) Get(ctx *gin.Context) {
	resp, err := c.ProgressService.GetProgress(ctx.Query("subject"), ctx.Query("topic"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// @Summary 主题进度
// @Description 按主题汇总的正确率与掌握度
// @Tags 进度
// @Produce json
// @Param subject query string false "学科"
// @Success 200 {array} model.TopicProgress
// @Router /api/progress/topics [get]
func (c *ProgressController) Topics(ctx *gin.Context) {
	rows, err := c.ProgressService.GetTopicProgress(ctx.Request.Context(), ctx.Query("subject"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, rows)
}
