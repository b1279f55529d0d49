package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tetex-tech/exam-service/internal/services"
	"github.com/tetex-tech/exam-service/internal/utils"
)

type HandlerManager struct {
	examHandler   *ExamHandler
	viewerHandler *ViewerHandler
}

func NewHandlerManager(
	packagingService services.PackagingService,
	viewerService services.ViewerService,
	exportService services.ExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		examHandler:   NewExamHandler(packagingService, logger),
		viewerHandler: NewViewerHandler(viewerService, exportService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "exam-service",
		})
	})

	v1 := router.Group("/api/v1")
	{
		exams := v1.Group("/exams")
		{
			exams.POST("/:exam_id/finish", hm.examHandler.FinishExam)
		}

		viewer := v1.Group("/viewer")
		{
			viewer.POST("/decode", hm.viewerHandler.DecodeArchive)
			viewer.POST("/export", hm.viewerHandler.ExportArchive)
		}
	}
}
