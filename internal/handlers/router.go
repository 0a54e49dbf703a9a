package handlers

import (
	"time"

	"github.com/SAP-F-2025/marks-service/internal/observability"
	"github.com/SAP-F-2025/marks-service/internal/services"
	"github.com/SAP-F-2025/marks-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	serviceManager       services.ServiceManager
	assessmentHandler    *AssessmentHandler
	examTimetableHandler *ExamTimetableHandler
	marksSheetHandler    *MarksSheetHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		serviceManager:       serviceManager,
		assessmentHandler:    NewAssessmentHandler(serviceManager.Assessment(), logger),
		examTimetableHandler: NewExamTimetableHandler(serviceManager.ExamTimetable(), logger),
		marksSheetHandler:    NewMarksSheetHandler(serviceManager.MarksSheet(), logger),
	}
}

// NewRouter builds the engine with the standard middleware chain and all routes.
func NewRouter(hm *HandlerManager, logger utils.Logger, requestTimeout time.Duration) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestID(),
		utils.LoggerMiddleware(logger),
		utils.ContextLogger(logger),
		observability.Middleware(),
		RequestTimeout(requestTimeout),
	)
	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck(hm.serviceManager))
	router.GET("/metrics", observability.MetricsHandler())

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Assessment routes
		assessments := v1.Group("/assessments")
		{
			assessments.POST("", hm.assessmentHandler.CreateAssessment)
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.PUT("/:id", hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", hm.assessmentHandler.DeleteAssessment)

			// Exam timetable per class grade
			assessments.GET("/:id/exam-timetable", hm.examTimetableHandler.GetExamTimetable)
			assessments.PUT("/:id/exam-timetable", hm.examTimetableHandler.SaveExamTimetable)
		}

		// Report routes
		reports := v1.Group("/reports")
		{
			reports.GET("/marks-sheet", hm.marksSheetHandler.GetMarksSheet)
			reports.PUT("/marks-sheet", hm.marksSheetHandler.SaveMarksSheet)
			reports.GET("/marks-sheet/export", hm.marksSheetHandler.ExportMarksSheet)
			reports.POST("/marks-sheet/import", hm.marksSheetHandler.ImportMarksSheet)
		}
	}
}
