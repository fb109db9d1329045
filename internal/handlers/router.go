package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadex/examtrack-service/internal/middleware"
	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/services"
	"github.com/acadex/examtrack-service/internal/utils"
)

type HandlerManager struct {
	examHandler         *ExamHandler
	resultHandler       *ResultHandler
	performanceHandler  *PerformanceHandler
	importExportHandler *ImportExportHandler
	auth                *middleware.AuthMiddleware
}

func NewHandlerManager(
	examService services.ExamService,
	resultService services.ResultService,
	performanceService services.PerformanceService,
	importExportService services.ImportExportService,
	auth *middleware.AuthMiddleware,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		examHandler:         NewExamHandler(examService, logger),
		resultHandler:       NewResultHandler(resultService, logger),
		performanceHandler:  NewPerformanceHandler(performanceService, logger),
		importExportHandler: NewImportExportHandler(importExportService, logger),
		auth:                auth,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	staff := middleware.RequireRole(models.RoleAdmin, models.RoleTeacher)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(hm.auth.Authenticate())
	{
		// Exam routes
		exams := v1.Group("/exams")
		{
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/upcoming", hm.examHandler.GetUpcomingExams)
			exams.GET("/completed", hm.examHandler.GetCompletedExams)
			exams.GET("/:id", hm.examHandler.GetExam)

			exams.POST("", staff, hm.examHandler.CreateExam)
			exams.PUT("/:id", staff, hm.examHandler.UpdateExam)
			exams.DELETE("/:id", staff, hm.examHandler.DeleteExam)
			exams.GET("/:id/can-delete", staff, hm.examHandler.CanDeleteExam)
			exams.PATCH("/:id/status", staff, hm.examHandler.UpdateExamStatus)
			exams.POST("/:id/cancel", staff, hm.examHandler.CancelExam)
			exams.POST("/:id/publish-results", staff, hm.examHandler.PublishResults)

			// Bulk result file handling
			exams.POST("/:id/results/import", staff, hm.importExportHandler.ImportResults)
			exams.GET("/:id/results/export/csv", staff, hm.importExportHandler.ExportResultsCSV)
			exams.GET("/:id/results/export/excel", staff, hm.importExportHandler.ExportResultsExcel)
		}

		// Result routes
		results := v1.Group("/results")
		{
			results.GET("", hm.resultHandler.ListResults)
			results.GET("/:id", hm.resultHandler.GetResult)
			results.GET("/exam/:examId", staff, hm.resultHandler.GetResultsByExam)
			results.GET("/student/:studentId", hm.resultHandler.GetResultsByStudent)

			results.POST("", staff, hm.resultHandler.CreateResult)
			results.POST("/bulk", staff, hm.resultHandler.BulkCreateResults)
			results.PUT("/:id", staff, hm.resultHandler.UpdateResult)
			results.DELETE("/:id", staff, hm.resultHandler.DeleteResult)
			results.POST("/:id/review", staff, hm.resultHandler.MarkResultReviewed)

			// Appeal workflow
			results.POST("/:id/appeal", middleware.RequireRole(models.RoleStudent), hm.resultHandler.SubmitAppeal)
			results.POST("/:id/appeal/resolve", staff, hm.resultHandler.ResolveAppeal)
		}

		// Performance routes
		performance := v1.Group("/performance")
		{
			performance.GET("/me", hm.performanceHandler.GetMyPerformance)
			performance.GET("/student/:studentId", hm.performanceHandler.GetStudentPerformance)
			performance.GET("/exam/:examId", staff, hm.performanceHandler.GetExamPerformance)
			performance.GET("/teacher/:teacherId", staff, hm.performanceHandler.GetTeacherPerformance)
		}

		// Dashboard routes
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/stats", hm.performanceHandler.GetDashboardStats)
		}
	}
}

// HealthCheck reports service liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "examtrack-service",
	})
}
