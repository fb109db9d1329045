package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadex/examtrack-service/internal/middleware"
	"github.com/acadex/examtrack-service/internal/services"
	"github.com/acadex/examtrack-service/internal/utils"
)

// PerformanceHandler handles performance aggregation and dashboard endpoints
type PerformanceHandler struct {
	BaseHandler
	performanceService services.PerformanceService
}

// NewPerformanceHandler creates a new performance handler
func NewPerformanceHandler(performanceService services.PerformanceService, logger utils.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		BaseHandler:        NewBaseHandler(logger),
		performanceService: performanceService,
	}
}

// GetStudentPerformance handles GET /performance/student/:studentId
func (h *PerformanceHandler) GetStudentPerformance(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	studentID := ParseStringIDParam(c, "studentId")
	if studentID == "" {
		return
	}

	period := c.DefaultQuery("period", services.PeriodAll)
	performance, err := h.performanceService.StudentPerformance(c.Request.Context(), studentID, period, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Student performance retrieved successfully",
		Data:    performance,
	})
}

// GetMyPerformance handles GET /performance/me
func (h *PerformanceHandler) GetMyPerformance(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	period := c.DefaultQuery("period", services.PeriodAll)
	performance, err := h.performanceService.StudentPerformance(c.Request.Context(), caller.ID, period, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Student performance retrieved successfully",
		Data:    performance,
	})
}

// GetExamPerformance handles GET /performance/exam/:examId
func (h *PerformanceHandler) GetExamPerformance(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	examID := parseIDParam(c, "examId")
	if examID == 0 {
		return
	}

	performance, err := h.performanceService.ExamPerformance(c.Request.Context(), examID, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam performance retrieved successfully",
		Data:    performance,
	})
}

// GetTeacherPerformance handles GET /performance/teacher/:teacherId
func (h *PerformanceHandler) GetTeacherPerformance(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	teacherID := ParseStringIDParam(c, "teacherId")
	if teacherID == "" {
		return
	}

	period := c.DefaultQuery("period", services.PeriodAll)
	performance, err := h.performanceService.TeacherPerformance(c.Request.Context(), teacherID, period, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Teacher performance retrieved successfully",
		Data:    performance,
	})
}

// GetDashboardStats handles GET /dashboard/stats
func (h *PerformanceHandler) GetDashboardStats(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	stats, err := h.performanceService.DashboardStats(c.Request.Context(), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Dashboard stats retrieved successfully",
		Data:    stats,
	})
}
