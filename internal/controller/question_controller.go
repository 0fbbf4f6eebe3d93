package controller

import (
	"net/http"

	"ib_quiz_backend/internal/model"
	"ib_quiz_backend/internal/service"
	"ib_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuestionController 处理独立出题的API请求

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// @Summary 生成题目
// @Description 按学科、主题和难度生成一批题目，未配置生成凭证时返回模板题
// @Tags 题目
// @Accept json
// @Produce json
// @Param request body model.GenerateQuestionRequest true "出题请求"
// @Success 200 {object} model.GenerateQuestionResponse
// @Failure 400 {object} util.ErrorResponse
// @Router /api/generate-question [post]
func (c *QuestionController) Generate(ctx *gin.Context) {
	var req model.GenerateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.QuestionService.GenerateQuestions(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
