package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/acadex/examtrack-service/internal/models"
)

func newImportExportServiceForTest(repo *mockRepository) ImportExportService {
	results := newResultServiceForTest(repo)
	return NewImportExportService(repo, testLogger(), results)
}

func TestImportExportService_ImportCSV(t *testing.T) {
	ctx := context.Background()
	teacher := Principal{ID: "teacher-1", Role: models.RoleTeacher}

	t.Run("imports valid rows and reports bad ones", func(t *testing.T) {
		repo := newMockRepository()
		service := newImportExportServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
		repo.user.On("HasRole", ctx, "student-1", models.RoleStudent).Return(true, nil)
		repo.user.On("HasRole", ctx, "student-2", models.RoleStudent).Return(true, nil)
		repo.result.On("ExistsByStudentAndExam", ctx, "student-1", uint(1)).Return(false, nil)
		repo.result.On("ExistsByStudentAndExam", ctx, "student-2", uint(1)).Return(false, nil)
		repo.result.On("Create", ctx, mock.AnythingOfType("*models.Result")).Return(nil)

		csvData := strings.Join([]string{
			"student_id,marks_obtained,participation,attendance",
			"student-1,85,8,present",
			"student-2,62,,absent",
			",90,,",
			"student-3,not-a-number,,",
		}, "\n")

		result, err := service.ImportResultsFromCSV(ctx, 1, strings.NewReader(csvData), teacher)

		assert.NoError(t, err)
		assert.Equal(t, 4, result.TotalRows)
		assert.Equal(t, 2, result.SuccessCount)
		assert.Equal(t, 2, result.ErrorCount)
		assert.Len(t, result.Errors, 2)

		// Row numbers refer to the sheet, header included
		assert.Equal(t, 4, result.Errors[0].Row)
		assert.Equal(t, "student_id", result.Errors[0].Column)
		assert.Equal(t, 5, result.Errors[1].Row)
		assert.Equal(t, "marks_obtained", result.Errors[1].Column)
	})

	t.Run("duplicate failures map back to sheet rows", func(t *testing.T) {
		repo := newMockRepository()
		service := newImportExportServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
		repo.user.On("HasRole", ctx, "student-1", models.RoleStudent).Return(true, nil)
		repo.result.On("ExistsByStudentAndExam", ctx, "student-1", uint(1)).Return(true, nil)

		csvData := "student_id,marks_obtained\nstudent-1,85\n"

		result, err := service.ImportResultsFromCSV(ctx, 1, strings.NewReader(csvData), teacher)

		assert.NoError(t, err)
		assert.Equal(t, 0, result.SuccessCount)
		assert.Equal(t, 1, result.ErrorCount)
		assert.Equal(t, 2, result.Errors[0].Row)
		assert.Contains(t, result.Errors[0].Message, "already exists")
	})

	t.Run("rejects sheet without required columns", func(t *testing.T) {
		repo := newMockRepository()
		service := newImportExportServiceForTest(repo)

		csvData := "name,score\nAlice,85\n"

		_, err := service.ImportResultsFromCSV(ctx, 1, strings.NewReader(csvData), teacher)
		assert.True(t, IsValidation(err))
	})

	t.Run("rejects unsupported file extension", func(t *testing.T) {
		repo := newMockRepository()
		service := newImportExportServiceForTest(repo)

		_, err := service.ImportResultsFromFile(ctx, 1, nil, "marks.pdf", teacher)
		assert.True(t, IsValidation(err))
	})
}

func TestImportExportService_ExportCSV(t *testing.T) {
	ctx := context.Background()
	teacher := Principal{ID: "teacher-1", Role: models.RoleTeacher}

	repo := newMockRepository()
	service := newImportExportServiceForTest(repo)

	exam := testExam(1, "teacher-1")
	repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
	repo.result.On("GetByExam", ctx, uint(1)).Return([]*models.Result{
		{
			StudentID:     "student-1",
			MarksObtained: 85,
			TotalMarks:    100,
			Percentage:    85,
			Grade:         models.GradeB,
			Status:        models.ResultPass,
			Attendance:    true,
			Participation: 7,
			GradedBy:      "teacher-1",
			Student:       models.User{FirstName: "Asha", LastName: "Rao"},
		},
	}, nil)

	data, err := service.ExportExamResultsToCSV(ctx, 1, teacher)

	assert.NoError(t, err)
	output := string(data)
	lines := strings.Split(strings.TrimSpace(output), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Student ID")
	assert.Contains(t, lines[1], "student-1")
	assert.Contains(t, lines[1], "Asha Rao")
	assert.Contains(t, lines[1], "85")
	assert.Contains(t, lines[1], "B")
}
