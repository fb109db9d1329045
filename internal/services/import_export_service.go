package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
)

// ImportExportService moves marks sheets in and out of the system: bulk
// grading from an uploaded CSV/Excel file and result exports for teachers.
type ImportExportService interface {
	// Import operations
	ImportResultsFromFile(ctx context.Context, examID uint, file multipart.File, filename string, caller Principal) (*ImportResult, error)
	ImportResultsFromCSV(ctx context.Context, examID uint, reader io.Reader, caller Principal) (*ImportResult, error)
	ImportResultsFromExcel(ctx context.Context, examID uint, reader io.Reader, caller Principal) (*ImportResult, error)

	// Export operations
	ExportExamResultsToCSV(ctx context.Context, examID uint, caller Principal) ([]byte, error)
	ExportExamResultsToExcel(ctx context.Context, examID uint, caller Principal) ([]byte, error)
}

type importExportService struct {
	repo    repositories.Repository
	logger  *slog.Logger
	results ResultService
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, results ResultService) ImportExportService {
	return &importExportService{
		repo:    repo,
		logger:  logger,
		results: results,
	}
}

// ===== IMPORT OPERATIONS =====

type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

type ImportResult struct {
	TotalRows     int              `json:"total_rows"`
	ProcessedRows int              `json:"processed_rows"`
	SuccessCount  int              `json:"success_count"`
	ErrorCount    int              `json:"error_count"`
	Errors        []ImportRowError `json:"errors"`
	Created       []*models.Result `json:"created,omitempty"`
}

func (s *importExportService) ImportResultsFromFile(ctx context.Context, examID uint, file multipart.File, filename string, caller Principal) (*ImportResult, error) {
	s.logger.Info("Starting results import", "exam_id", examID, "filename", filename, "user_id", caller.ID)

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".csv":
		return s.ImportResultsFromCSV(ctx, examID, file, caller)
	case ".xlsx", ".xls":
		return s.ImportResultsFromExcel(ctx, examID, file, caller)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
}

func (s *importExportService) ImportResultsFromCSV(ctx context.Context, examID uint, reader io.Reader, caller Principal) (*ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, NewValidationError("file", "CSV must have header row and at least one data row", len(records))
	}

	return s.importRows(ctx, examID, records, caller)
}

func (s *importExportService) ImportResultsFromExcel(ctx context.Context, examID uint, reader io.Reader, caller Principal) (*ImportResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	if len(rows) < 2 {
		return nil, NewValidationError("file", "Excel must have header row and at least one data row", len(rows))
	}

	return s.importRows(ctx, examID, rows, caller)
}

// importRows is the shared pipeline for both file formats. Rows run through
// the same bulk-create path as the API, so duplicate and marks-range failures
// are reported per row without aborting the sheet.
func (s *importExportService) importRows(ctx context.Context, examID uint, rows [][]string, caller Principal) (*ImportResult, error) {
	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}

	requiredColumns := []string{"student_id", "marks_obtained"}
	for _, col := range requiredColumns {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &ImportResult{
		TotalRows: len(rows) - 1,
		Errors:    make([]ImportRowError, 0),
	}

	entries := make([]BulkResultEntry, 0, len(rows)-1)
	entryRows := make([]int, 0, len(rows)-1)

	for rowIndex, row := range rows[1:] {
		rowNum := rowIndex + 2
		entry, rowErrors := parseResultRow(row, headerMap, rowNum)
		result.ProcessedRows++
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
			continue
		}
		entries = append(entries, *entry)
		entryRows = append(entryRows, rowNum)
	}

	if len(entries) > 0 {
		bulkResp, err := s.results.BulkCreate(ctx, &BulkCreateResultsRequest{
			ExamID:  examID,
			Results: entries,
		}, caller)
		if err != nil {
			return nil, err
		}

		result.Created = bulkResp.Created
		result.SuccessCount = len(bulkResp.Created)
		for _, failure := range bulkResp.Failed {
			result.Errors = append(result.Errors, ImportRowError{
				Row:     entryRows[failure.Index],
				Column:  "student_id",
				Message: failure.Error,
				Value:   failure.StudentID,
			})
			result.ErrorCount++
		}
	}

	s.logger.Info("Results import completed",
		"exam_id", examID,
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)

	return result, nil
}

func parseResultRow(record []string, headerMap map[string]int, rowNum int) (*BulkResultEntry, []ImportRowError) {
	var errors []ImportRowError

	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	studentID := getColumn("student_id")
	if studentID == "" {
		errors = append(errors, ImportRowError{
			Row: rowNum, Column: "student_id", Message: "required field", Value: studentID,
		})
		return nil, errors
	}

	marksStr := getColumn("marks_obtained")
	marks, err := strconv.ParseFloat(marksStr, 64)
	if err != nil {
		errors = append(errors, ImportRowError{
			Row: rowNum, Column: "marks_obtained", Message: "must be a number", Value: marksStr,
		})
		return nil, errors
	}

	entry := &BulkResultEntry{
		StudentID:     studentID,
		MarksObtained: marks,
	}

	if participationStr := getColumn("participation"); participationStr != "" {
		participation, err := strconv.Atoi(participationStr)
		if err != nil || participation < 0 || participation > 10 {
			errors = append(errors, ImportRowError{
				Row: rowNum, Column: "participation", Message: "must be an integer between 0 and 10", Value: participationStr,
			})
			return nil, errors
		}
		entry.Participation = participation
	}

	if attendanceStr := strings.ToLower(getColumn("attendance")); attendanceStr != "" {
		switch attendanceStr {
		case "true", "yes", "present", "1":
			present := true
			entry.Attendance = &present
		case "false", "no", "absent", "0":
			absent := false
			entry.Attendance = &absent
		default:
			errors = append(errors, ImportRowError{
				Row: rowNum, Column: "attendance", Message: "must be present/absent", Value: attendanceStr,
			})
			return nil, errors
		}
	}

	return entry, nil
}

// ===== EXPORT OPERATIONS =====

var resultExportHeaders = []string{
	"Student ID", "Student Name", "Marks Obtained", "Total Marks",
	"Percentage", "Grade", "Status", "Attendance", "Participation",
	"Graded By", "Submitted At",
}

func (s *importExportService) ExportExamResultsToCSV(ctx context.Context, examID uint, caller Principal) ([]byte, error) {
	results, err := s.results.GetByExam(ctx, examID, caller)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(resultExportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write(resultToExportRow(result)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return []byte(buf.String()), nil
}

func (s *importExportService) ExportExamResultsToExcel(ctx context.Context, examID uint, caller Principal) ([]byte, error) {
	results, err := s.results.GetByExam(ctx, examID, caller)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range resultExportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, result := range results {
		for colIndex, value := range resultToExportRow(result) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), nil
}

func resultToExportRow(result *models.Result) []string {
	attendance := "Present"
	if !result.Attendance {
		attendance = "Absent"
	}

	return []string{
		result.StudentID,
		result.Student.FullName(),
		strconv.FormatFloat(result.MarksObtained, 'f', -1, 64),
		strconv.FormatFloat(result.TotalMarks, 'f', -1, 64),
		strconv.Itoa(result.Percentage),
		string(result.Grade),
		string(result.Status),
		attendance,
		strconv.Itoa(result.Participation),
		result.GradedBy,
		result.SubmittedAt.Format("2006-01-02 15:04:05"),
	}
}
