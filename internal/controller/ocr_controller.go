package controller

import (
	"encoding/base64"
	"net/http"
	"strings"

	"ib_quiz_backend/internal/service"
	"ib_quiz_backend/internal/util"
	"ib_quiz_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OcrController 处理手写/印刷体转LaTeX的API请求

type OcrController struct {
	Generator *service.GeneratorService
	Storage   *service.StorageService
}

func NewOcrController(generator *service.GeneratorService, storage *service.StorageService) *OcrController {
	return &OcrController{Generator: generator, Storage: storage}
}

type OcrRequest struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
}

type OcrResponse struct {
	Success    bool    `json:"success"`
	Latex      string  `json:"latex,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      *string `json:"error,omitempty"`
}

// @Summary 图片识别
// @Description 识别题目图片中的数学内容并转为LaTeX，识别失败返回success=false而非HTTP错误
// @Tags 识别
// @Accept json
// @Produce json
// @Param request body OcrRequest true "base64图片"
// @Success 200 {object} OcrResponse
// @Failure 400 {object} util.ErrorResponse
// @Router /api/ocr [post]
func (c *OcrController) Recognize(ctx *gin.Context) {
	var req OcrRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if !c.Generator.Configured() {
		msg := "ocr service not configured"
		ctx.JSON(http.StatusOK, OcrResponse{Success: false, Error: &msg})
		return
	}

	// 原图尽力归档，失败只告警
	raw := req.ImageBase64
	if pos := strings.Index(raw, ","); pos >= 0 {
		raw = raw[pos+1:]
	}
	if data, err := base64.StdEncoding.DecodeString(raw); err == nil {
		c.Storage.ArchiveOCRImage(ctx.Request.Context(), data, http.DetectContentType(data))
	} else {
		logger.Log.Warn("ocr image is not valid base64, skipping archive", zap.Error(err))
	}

	latex, err := c.Generator.OCRImage(ctx.Request.Context(), req.ImageBase64)
	if err != nil {
		logger.Log.Warn("ocr recognition failed", zap.Error(err))
		msg := "failed to recognize image"
		ctx.JSON(http.StatusOK, OcrResponse{Success: false, Error: &msg})
		return
	}

	ctx.JSON(http.StatusOK, OcrResponse{Success: true, Latex: latex, Confidence: 0.95})
}
