package util

import (
	"net/http"

	"ib_quiz_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse 统一错误响应体
type ErrorResponse struct {
	Error string `json:"error"`
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// HandleError 按错误分类映射状态码
// Database/Internal 只记日志，不向客户端泄露内部细节
func HandleError(c *gin.Context, err error) {
	appErr := AsAppError(err)

	switch appErr.Kind {
	case KindNotFound:
		Error(c, http.StatusNotFound, appErr.Message)
	case KindBadRequest:
		Error(c, http.StatusBadRequest, appErr.Message)
	case KindExternalService:
		logger.Log.Error("external service error", zap.String("path", c.FullPath()), zap.Error(appErr))
		Error(c, http.StatusBadGateway, appErr.Message)
	case KindDatabase:
		logger.Log.Error("database error", zap.String("path", c.FullPath()), zap.Error(appErr.Err))
		Error(c, http.StatusInternalServerError, "database error")
	default:
		logger.Log.Error("internal error", zap.String("path", c.FullPath()), zap.Error(appErr))
		Error(c, http.StatusInternalServerError, appErr.Message)
	}
}
