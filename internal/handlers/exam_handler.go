package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acadex/examtrack-service/internal/middleware"
	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
	"github.com/acadex/examtrack-service/internal/services"
	"github.com/acadex/examtrack-service/internal/utils"
)

// ExamHandler handles exam management endpoints
type ExamHandler struct {
	BaseHandler
	examService services.ExamService
}

// NewExamHandler creates a new exam handler
func NewExamHandler(examService services.ExamService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
	}
}

// CreateExam handles POST /exams
func (h *ExamHandler) CreateExam(c *gin.Context) {
	h.LogRequest(c, "Creating exam")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	var req services.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.LogError(c, err, "Invalid exam creation request")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Exam created successfully",
		Data:    exam,
	})
}

// GetExam handles GET /exams/:id
func (h *ExamHandler) GetExam(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam retrieved successfully",
		Data:    exam,
	})
}

// ListExams handles GET /exams
func (h *ExamHandler) ListExams(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	filters := h.buildExamFilters(c)

	list, err := h.examService.List(c.Request.Context(), filters, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exams retrieved successfully",
		Data:    list,
	})
}

// buildExamFilters assembles repository filters from query parameters.
func (h *ExamHandler) buildExamFilters(c *gin.Context) repositories.ExamFilters {
	filters := repositories.ExamFilters{
		Subject:   c.Query("subject"),
		Grade:     c.Query("grade"),
		Search:    c.Query("search"),
		SortBy:    c.DefaultQuery("sort_by", "date"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
		Limit:     parseIntQuery(c, "limit", 20),
		Offset:    parseIntQuery(c, "offset", 0),
	}

	if raw := c.Query("exam_type"); raw != "" {
		examType := models.ExamType(raw)
		filters.ExamType = &examType
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ExamStatus(raw)
		filters.Status = &status
	}
	if raw := c.Query("teacher_id"); raw != "" {
		teacherID := raw
		filters.TeacherID = &teacherID
	}
	if raw := c.Query("date_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateFrom = &t
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateTo = &t
		}
	}

	return filters
}

// GetUpcomingExams handles GET /exams/upcoming
func (h *ExamHandler) GetUpcomingExams(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	exams, err := h.examService.Upcoming(c.Request.Context(), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Upcoming exams retrieved successfully",
		Data:    exams,
	})
}

// GetCompletedExams handles GET /exams/completed
func (h *ExamHandler) GetCompletedExams(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	exams, err := h.examService.Completed(c.Request.Context(), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Completed exams retrieved successfully",
		Data:    exams,
	})
}

// UpdateExam handles PUT /exams/:id
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	h.LogRequest(c, "Updating exam")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.LogError(c, err, "Invalid exam update request")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam updated successfully",
		Data:    exam,
	})
}

// UpdateExamStatus handles PATCH /exams/:id/status
func (h *ExamHandler) UpdateExamStatus(c *gin.Context) {
	h.LogRequest(c, "Updating exam status")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateExamStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.LogError(c, err, "Invalid exam status request")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := h.examService.UpdateStatus(c.Request.Context(), id, &req, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam status updated successfully",
	})
}

// CancelExam handles POST /exams/:id/cancel
func (h *ExamHandler) CancelExam(c *gin.Context) {
	h.LogRequest(c, "Cancelling exam")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.examService.Cancel(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam cancelled successfully",
	})
}

// PublishResults handles POST /exams/:id/publish-results
func (h *ExamHandler) PublishResults(c *gin.Context) {
	h.LogRequest(c, "Publishing exam results")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	exam, err := h.examService.PublishResults(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam results published successfully",
		Data:    exam,
	})
}

// DeleteExam handles DELETE /exams/:id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	h.LogRequest(c, "Deleting exam")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam deleted successfully",
	})
}

// CanDeleteExam handles GET /exams/:id/can-delete
func (h *ExamHandler) CanDeleteExam(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	canDelete, err := h.examService.CanDelete(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Delete permission checked",
		Data:    gin.H{"can_delete": canDelete},
	})
}
