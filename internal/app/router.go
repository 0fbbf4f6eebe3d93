package app

import (
	"ib_quiz_backend/docs"
	"ib_quiz_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		api.POST("/generate-question", c.question.Generate)

		quiz := api.Group("/quiz")
		{
			quiz.POST("", c.quiz.Create)
			quiz.GET("/next", c.quiz.Next)
			quiz.GET("/history", c.quiz.History)
			quiz.POST("/submit", c.quiz.Submit)
			quiz.GET("/:id", c.quiz.Get)
		}

		progress := api.Group("/progress")
		{
			progress.GET("", c.progress.Get)
			progress.GET("/topics", c.progress.Topics)
		}

		api.POST("/ocr", c.ocr.Recognize)
		api.POST("/solve", c.solve.Solve)
	}
}
