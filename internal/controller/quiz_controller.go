package controller

import (
	"net/http"
	"strconv"

	"ib_quiz_backend/internal/model"
	"ib_quiz_backend/internal/service"
	"ib_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuizController 处理测验生命周期的API请求

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// @Summary 创建测验
// @Description 创建一次新测验并立即解析第一道题
// @Tags 测验
// @Accept json
// @Produce json
// @Param request body model.CreateQuizRequest true "测验配置"
// @Success 200 {object} model.QuizResponse
// @Failure 400 {object} util.ErrorResponse
// @Router /api/quiz [post]
func (c *QuizController) Create(ctx *gin.Context) {
	var req model.CreateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.QuizService.CreateQuiz(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// @Summary 获取测验
// @Description 获取完整测验视图，含全部已解析题目及作答
// @Tags 测验
// @Produce json
// @Param id path string true "测验ID"
// @Success 200 {object} model.QuizResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /api/quiz/{id} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	resp, err := c.QuizService.GetQuiz(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// @Summary 下一题
// @Description 解析当前游标处的题目，游标越过已出题目时现场出一道新题
// @Tags 测验
// @Produce json
// @Param quiz_id query string true "测验ID"
// @Success 200 {object} model.QuizNextResponse
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /api/quiz/next [get]
func (c *QuizController) Next(ctx *gin.Context) {
	quizID := ctx.Query("quiz_id")
	if quizID == "" {
		util.BadRequest(ctx, "quiz_id is required")
		return
	}

	resp, err := c.QuizService.NextQuestion(ctx.Request.Context(), quizID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// @Summary 提交作答
// @Description 判分、记录作答、推进游标并返回建议的下一题难度
// @Tags 测验
// @Accept json
// @Produce json
// @Param request body model.QuizSubmitRequest true "作答内容"
// @Success 200 {object} model.QuizSubmitResponse
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /api/quiz/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	var req model.QuizSubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.QuizService.SubmitAnswer(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// @Summary 测验历史
// @Description 近期测验及每次的答题统计
// @Tags 测验
// @Produce json
// @Param limit query int false "返回条数，默认20"
// @Success 200 {array} model.QuizHistoryItem
// @Router /api/quiz/history [get]
func (c *QuizController) History(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			util.BadRequest(ctx, "limit must be an integer")
			return
		}
		limit = parsed
	}

	items, err := c.QuizService.History(limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, items)
}
