package routes

import (
	"html/template"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockout-app/controllers"
	"stockout-app/middlewares"
)

// NewRouter builds the engine with logging, recovery and the HTML pages.
func NewRouter(h *controllers.Controller, pages *template.Template, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middlewares.Recovery(log))
	router.Use(middlewares.Logger(log))
	router.SetHTMLTemplate(pages)

	RegisterRoutes(router, h)
	return router
}

func RegisterRoutes(router *gin.Engine, h *controllers.Controller) {
	router.GET("/health", h.Health)

	// Upload pages
	router.GET("/", h.Index)
	router.POST("/upload", h.Upload)
	router.GET("/results/:id", h.Results)
	router.GET("/results/:id/download", h.Download)

	api := router.Group("/api/v1")
	{
		api.POST("/score", h.ScoreAPI)
		api.POST("/score/csv", h.ScoreCSV)
		api.GET("/results/:id", h.ResultAPI)
		api.GET("/model", h.ModelInfo)
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:id", h.GetRun)
	}
}
