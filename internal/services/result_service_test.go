package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testExam(id uint, teacherID string) *models.Exam {
	return &models.Exam{
		ID:           id,
		Title:        "Algebra Midterm",
		Subject:      "Mathematics",
		Date:         time.Now().Add(-24 * time.Hour),
		Duration:     90,
		TotalMarks:   100,
		PassingMarks: 40,
		TargetGrades: datatypes.NewJSONSlice([]string{"10"}),
		TeacherID:    teacherID,
		CreatedBy:    teacherID,
		Status:       models.ExamScheduled,
	}
}

func newResultServiceForTest(repo *mockRepository) ResultService {
	return NewResultService(repo, testLogger(), validator.New(), nil)
}

func TestResultService_Create(t *testing.T) {
	ctx := context.Background()
	teacher := Principal{ID: "teacher-1", Role: models.RoleTeacher}

	t.Run("creates result with computed grade", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
		repo.user.On("HasRole", ctx, "student-1", models.RoleStudent).Return(true, nil)
		repo.result.On("ExistsByStudentAndExam", ctx, "student-1", uint(1)).Return(false, nil)
		repo.result.On("Create", ctx, mock.AnythingOfType("*models.Result")).Return(nil)

		result, err := service.Create(ctx, &CreateResultRequest{
			StudentID:     "student-1",
			ExamID:        1,
			MarksObtained: 85,
		}, teacher)

		assert.NoError(t, err)
		assert.Equal(t, 85, result.Percentage)
		assert.Equal(t, models.GradeB, result.Grade)
		assert.Equal(t, models.ResultPass, result.Status)
		assert.Equal(t, float64(100), result.TotalMarks)
		assert.Equal(t, "teacher-1", result.GradedBy)
		assert.True(t, result.Attendance)
		repo.result.AssertExpectations(t)
	})

	t.Run("fails a result below sixty percent", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
		repo.user.On("HasRole", ctx, "student-1", models.RoleStudent).Return(true, nil)
		repo.result.On("ExistsByStudentAndExam", ctx, "student-1", uint(1)).Return(false, nil)
		repo.result.On("Create", ctx, mock.AnythingOfType("*models.Result")).Return(nil)

		result, err := service.Create(ctx, &CreateResultRequest{
			StudentID:     "student-1",
			ExamID:        1,
			MarksObtained: 59,
		}, teacher)

		assert.NoError(t, err)
		assert.Equal(t, models.GradeF, result.Grade)
		assert.Equal(t, models.ResultFail, result.Status)
	})

	t.Run("rejects duplicate result", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
		repo.user.On("HasRole", ctx, "student-1", models.RoleStudent).Return(true, nil)
		repo.result.On("ExistsByStudentAndExam", ctx, "student-1", uint(1)).Return(true, nil)

		_, err := service.Create(ctx, &CreateResultRequest{
			StudentID:     "student-1",
			ExamID:        1,
			MarksObtained: 85,
		}, teacher)

		assert.ErrorIs(t, err, ErrResultExists)
		repo.result.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects marks above exam total", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
		repo.user.On("HasRole", ctx, "student-1", models.RoleStudent).Return(true, nil)
		repo.result.On("ExistsByStudentAndExam", ctx, "student-1", uint(1)).Return(false, nil)

		_, err := service.Create(ctx, &CreateResultRequest{
			StudentID:     "student-1",
			ExamID:        1,
			MarksObtained: 120,
		}, teacher)

		assert.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("rejects unknown student", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
		repo.user.On("HasRole", ctx, "ghost", models.RoleStudent).Return(false, nil)

		_, err := service.Create(ctx, &CreateResultRequest{
			StudentID:     "ghost",
			ExamID:        1,
			MarksObtained: 50,
		}, teacher)

		assert.ErrorIs(t, err, ErrStudentNotFound)
	})

	t.Run("rejects teacher who does not own the exam", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-2")
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)

		_, err := service.Create(ctx, &CreateResultRequest{
			StudentID:     "student-1",
			ExamID:        1,
			MarksObtained: 85,
		}, teacher)

		assert.Error(t, err)
		assert.True(t, IsForbidden(err))
	})
}

func TestResultService_BulkCreate(t *testing.T) {
	ctx := context.Background()
	teacher := Principal{ID: "teacher-1", Role: models.RoleTeacher}

	t.Run("failed entries do not abort the batch", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)

		repo.user.On("HasRole", ctx, "student-1", models.RoleStudent).Return(true, nil)
		repo.user.On("HasRole", ctx, "student-2", models.RoleStudent).Return(true, nil)
		repo.user.On("HasRole", ctx, "ghost", models.RoleStudent).Return(false, nil)

		repo.result.On("ExistsByStudentAndExam", ctx, "student-1", uint(1)).Return(false, nil)
		repo.result.On("ExistsByStudentAndExam", ctx, "student-2", uint(1)).Return(true, nil)
		repo.result.On("Create", ctx, mock.AnythingOfType("*models.Result")).Return(nil)

		resp, err := service.BulkCreate(ctx, &BulkCreateResultsRequest{
			ExamID: 1,
			Results: []BulkResultEntry{
				{StudentID: "student-1", MarksObtained: 92},
				{StudentID: "student-2", MarksObtained: 75},
				{StudentID: "ghost", MarksObtained: 60},
			},
		}, teacher)

		assert.NoError(t, err)
		assert.Len(t, resp.Created, 1)
		assert.Len(t, resp.Failed, 2)
		assert.Equal(t, 1, resp.Failed[0].Index)
		assert.Equal(t, "student-2", resp.Failed[0].StudentID)
		assert.Equal(t, 2, resp.Failed[1].Index)
		assert.Equal(t, "ghost", resp.Failed[1].StudentID)
	})
}

func TestResultService_Update(t *testing.T) {
	ctx := context.Background()
	teacher := Principal{ID: "teacher-1", Role: models.RoleTeacher}

	t.Run("recomputes derived fields when marks change", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		existing := &models.Result{
			ID:            10,
			StudentID:     "student-1",
			ExamID:        1,
			MarksObtained: 85,
			TotalMarks:    100,
			Percentage:    85,
			Grade:         models.GradeB,
			Status:        models.ResultPass,
		}
		repo.result.On("GetByID", ctx, uint(10)).Return(existing, nil)
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
		repo.result.On("Update", ctx, existing).Return(nil)

		marks := 97.0
		updated, err := service.Update(ctx, 10, &UpdateResultRequest{MarksObtained: &marks}, teacher)

		assert.NoError(t, err)
		assert.Equal(t, 97, updated.Percentage)
		assert.Equal(t, models.GradeAPlus, updated.Grade)
		assert.Equal(t, models.ResultPass, updated.Status)
	})

	t.Run("leaves derived fields alone when only comments change", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		existing := &models.Result{
			ID:            10,
			StudentID:     "student-1",
			ExamID:        1,
			MarksObtained: 85,
			TotalMarks:    100,
			Percentage:    85,
			Grade:         models.GradeB,
			Status:        models.ResultPass,
		}
		repo.result.On("GetByID", ctx, uint(10)).Return(existing, nil)
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
		repo.result.On("Update", ctx, existing).Return(nil)

		comments := "Good improvement"
		updated, err := service.Update(ctx, 10, &UpdateResultRequest{TeacherComments: &comments}, teacher)

		assert.NoError(t, err)
		assert.Equal(t, 85, updated.Percentage)
		assert.Equal(t, models.GradeB, updated.Grade)
		assert.Equal(t, "Good improvement", updated.TeacherComments)
	})
}

func TestResultService_StudentVisibility(t *testing.T) {
	ctx := context.Background()
	student := Principal{ID: "student-1", Role: models.RoleStudent}

	t.Run("student cannot read result before publication", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		exam.ResultsPublished = false
		existing := &models.Result{ID: 10, StudentID: "student-1", ExamID: 1}

		repo.result.On("GetByID", ctx, uint(10)).Return(existing, nil)
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)

		_, err := service.GetByID(ctx, 10, student)
		assert.True(t, IsForbidden(err))
	})

	t.Run("student reads own result after publication", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		exam.ResultsPublished = true
		existing := &models.Result{ID: 10, StudentID: "student-1", ExamID: 1}

		repo.result.On("GetByID", ctx, uint(10)).Return(existing, nil)
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)

		result, err := service.GetByID(ctx, 10, student)
		assert.NoError(t, err)
		assert.Equal(t, uint(10), result.ID)
	})

	t.Run("student cannot read another student's result", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		existing := &models.Result{ID: 10, StudentID: "student-2", ExamID: 1}
		repo.result.On("GetByID", ctx, uint(10)).Return(existing, nil)

		_, err := service.GetByID(ctx, 10, student)
		assert.True(t, IsForbidden(err))
	})

	t.Run("unpublished rows are filtered from student listings", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		published := testExam(1, "teacher-1")
		published.ResultsPublished = true
		unpublished := testExam(2, "teacher-1")

		results := []*models.Result{
			{ID: 1, StudentID: "student-1", ExamID: 1, Exam: *published},
			{ID: 2, StudentID: "student-1", ExamID: 2, Exam: *unpublished},
		}
		repo.result.On("GetByStudent", ctx, "student-1", (*time.Time)(nil)).Return(results, nil)

		visible, err := service.GetByStudent(ctx, "student-1", student)
		assert.NoError(t, err)
		assert.Len(t, visible, 1)
		assert.Equal(t, uint(1), visible[0].ID)
	})
}

func TestResultService_AppealWorkflow(t *testing.T) {
	ctx := context.Background()
	student := Principal{ID: "student-1", Role: models.RoleStudent}
	teacher := Principal{ID: "teacher-1", Role: models.RoleTeacher}

	t.Run("student submits appeal on own result", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		existing := &models.Result{ID: 10, StudentID: "student-1", ExamID: 1}
		repo.result.On("GetByID", ctx, uint(10)).Return(existing, nil)
		repo.result.On("Update", ctx, existing).Return(nil)

		result, err := service.SubmitAppeal(ctx, 10, &AppealRequest{Reason: "Question 4 was mis-marked"}, student)

		assert.NoError(t, err)
		assert.True(t, result.Appealed)
		assert.Equal(t, models.AppealPending, result.AppealStatus)
	})

	t.Run("pending appeal cannot be resubmitted", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		existing := &models.Result{
			ID: 10, StudentID: "student-1", ExamID: 1,
			Appealed: true, AppealStatus: models.AppealPending,
		}
		repo.result.On("GetByID", ctx, uint(10)).Return(existing, nil)

		_, err := service.SubmitAppeal(ctx, 10, &AppealRequest{Reason: "Again"}, student)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("teacher resolves appeal", func(t *testing.T) {
		repo := newMockRepository()
		service := newResultServiceForTest(repo)

		exam := testExam(1, "teacher-1")
		existing := &models.Result{
			ID: 10, StudentID: "student-1", ExamID: 1,
			Appealed: true, AppealStatus: models.AppealPending,
		}
		repo.result.On("GetByID", ctx, uint(10)).Return(existing, nil)
		repo.exam.On("GetByID", ctx, uint(1)).Return(exam, nil)
		repo.result.On("Update", ctx, existing).Return(nil)

		result, err := service.ResolveAppeal(ctx, 10, &ResolveAppealRequest{Status: models.AppealApproved}, teacher)

		assert.NoError(t, err)
		assert.Equal(t, models.AppealApproved, result.AppealStatus)
	})
}
