package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadex/examtrack-service/internal/middleware"
	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
	"github.com/acadex/examtrack-service/internal/services"
	"github.com/acadex/examtrack-service/internal/utils"
)

// ResultHandler handles result entry and review endpoints
type ResultHandler struct {
	BaseHandler
	resultService services.ResultService
}

// NewResultHandler creates a new result handler
func NewResultHandler(resultService services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler:   NewBaseHandler(logger),
		resultService: resultService,
	}
}

// CreateResult handles POST /results
func (h *ResultHandler) CreateResult(c *gin.Context) {
	h.LogRequest(c, "Creating result")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	var req services.CreateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.LogError(c, err, "Invalid result creation request")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.resultService.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Result created successfully",
		Data:    result,
	})
}

// BulkCreateResults handles POST /results/bulk
func (h *ResultHandler) BulkCreateResults(c *gin.Context) {
	h.LogRequest(c, "Bulk creating results")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	var req services.BulkCreateResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.LogError(c, err, "Invalid bulk result request")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.resultService.BulkCreate(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Bulk result entry processed",
		Data:    resp,
	})
}

// GetResult handles GET /results/:id
func (h *ResultHandler) GetResult(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.resultService.GetByID(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Result retrieved successfully",
		Data:    result,
	})
}

// ListResults handles GET /results
func (h *ResultHandler) ListResults(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	filters := repositories.ResultFilters{
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("exam_id"); raw != "" {
		if id := parseIntQuery(c, "exam_id", 0); id > 0 {
			examID := uint(id)
			filters.ExamID = &examID
		}
	}
	if raw := c.Query("student_id"); raw != "" {
		studentID := raw
		filters.StudentID = &studentID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ResultStatus(raw)
		filters.Status = &status
	}
	if raw := c.Query("grade"); raw != "" {
		grade := models.Grade(raw)
		filters.Grade = &grade
	}

	list, err := h.resultService.List(c.Request.Context(), filters, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Results retrieved successfully",
		Data:    list,
	})
}

// GetResultsByExam handles GET /results/exam/:examId
func (h *ResultHandler) GetResultsByExam(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	examID := parseIDParam(c, "examId")
	if examID == 0 {
		return
	}

	results, err := h.resultService.GetByExam(c.Request.Context(), examID, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam results retrieved successfully",
		Data:    results,
	})
}

// GetResultsByStudent handles GET /results/student/:studentId
func (h *ResultHandler) GetResultsByStudent(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	studentID := ParseStringIDParam(c, "studentId")
	if studentID == "" {
		return
	}

	results, err := h.resultService.GetByStudent(c.Request.Context(), studentID, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Student results retrieved successfully",
		Data:    results,
	})
}

// UpdateResult handles PUT /results/:id
func (h *ResultHandler) UpdateResult(c *gin.Context) {
	h.LogRequest(c, "Updating result")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.LogError(c, err, "Invalid result update request")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.resultService.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Result updated successfully",
		Data:    result,
	})
}

// DeleteResult handles DELETE /results/:id
func (h *ResultHandler) DeleteResult(c *gin.Context) {
	h.LogRequest(c, "Deleting result")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.resultService.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Result deleted successfully",
	})
}

// MarkResultReviewed handles POST /results/:id/review
func (h *ResultHandler) MarkResultReviewed(c *gin.Context) {
	h.LogRequest(c, "Marking result as reviewed")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.resultService.MarkReviewed(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Result marked as reviewed",
		Data:    result,
	})
}

// SubmitAppeal handles POST /results/:id/appeal
func (h *ResultHandler) SubmitAppeal(c *gin.Context) {
	h.LogRequest(c, "Submitting result appeal")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.AppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.LogError(c, err, "Invalid appeal request")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.resultService.SubmitAppeal(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Appeal submitted successfully",
		Data:    result,
	})
}

// ResolveAppeal handles POST /results/:id/appeal/resolve
func (h *ResultHandler) ResolveAppeal(c *gin.Context) {
	h.LogRequest(c, "Resolving result appeal")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.ResolveAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.LogError(c, err, "Invalid appeal resolution request")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.resultService.ResolveAppeal(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Appeal resolved successfully",
		Data:    result,
	})
}
