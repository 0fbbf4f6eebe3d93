package controller

import (
	"net/http"

	"ib_quiz_backend/internal/service"
	"ib_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// SolveController 处理符号求解的API请求

type SolveController struct {
	SolverService *service.SolverService
}

func NewSolveController(solverService *service.SolverService) *SolveController {
	return &SolveController{SolverService: solverService}
}

// @Summary 符号求解
// @Description 把LaTeX表达式交给求解边车，返回分步解答
// @Tags 求解
// @Accept json
// @Produce json
// @Param request body service.SolveRequest true "求解请求"
// @Success 200 {object} service.SolveResponse
// @Failure 400 {object} util.ErrorResponse
// @Failure 502 {object} util.ErrorResponse
// @Router /api/solve [post]
func (c *SolveController) Solve(ctx *gin.Context) {
	var req service.SolveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.SolverService.Solve(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
