package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadex/examtrack-service/internal/middleware"
	"github.com/acadex/examtrack-service/internal/services"
	"github.com/acadex/examtrack-service/internal/utils"
)

// ImportExportHandler handles bulk file import and export of exam results
type ImportExportHandler struct {
	BaseHandler
	importExportService services.ImportExportService
}

// NewImportExportHandler creates a new import/export handler
func NewImportExportHandler(importExportService services.ImportExportService, logger utils.Logger) *ImportExportHandler {
	return &ImportExportHandler{
		BaseHandler:         NewBaseHandler(logger),
		importExportService: importExportService,
	}
}

// ImportResults handles POST /exams/:id/results/import
func (h *ImportExportHandler) ImportResults(c *gin.Context) {
	h.LogRequest(c, "Importing results from file")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	examID := parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: "expected multipart form field 'file'",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded file")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	importResult, err := h.importExportService.ImportResultsFromFile(c.Request.Context(), examID, file, fileHeader.Filename, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if importResult.ErrorCount > 0 && importResult.SuccessCount == 0 {
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, SuccessResponse{
		Message: "Import processed",
		Data:    importResult,
	})
}

// ExportResultsCSV handles GET /exams/:id/results/export/csv
func (h *ImportExportHandler) ExportResultsCSV(c *gin.Context) {
	h.LogRequest(c, "Exporting results to CSV")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	examID := parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	data, err := h.importExportService.ExportExamResultsToCSV(c.Request.Context(), examID, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("exam_%d_results.csv", examID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportResultsExcel handles GET /exams/:id/results/export/excel
func (h *ImportExportHandler) ExportResultsExcel(c *gin.Context) {
	h.LogRequest(c, "Exporting results to Excel")

	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	examID := parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	data, err := h.importExportService.ExportExamResultsToExcel(c.Request.Context(), examID, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("exam_%d_results.xlsx", examID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
