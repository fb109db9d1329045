package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
)

func resultWith(examID uint, studentID string, obtained, total float64, pct int, grade models.Grade, status models.ResultStatus) *models.Result {
	return &models.Result{
		ExamID:        examID,
		StudentID:     studentID,
		MarksObtained: obtained,
		TotalMarks:    total,
		Percentage:    pct,
		Grade:         grade,
		Status:        status,
	}
}

func TestBuildStudentOverview(t *testing.T) {
	t.Run("empty results give zero overview", func(t *testing.T) {
		overview := buildStudentOverview(nil)
		assert.Equal(t, 0, overview.TotalExams)
		assert.Equal(t, 0, overview.AveragePercentage)
	})

	t.Run("average is marks-weighted, not a mean of percentages", func(t *testing.T) {
		results := []*models.Result{
			resultWith(1, "s1", 90, 100, 90, models.GradeAMinus, models.ResultPass),
			resultWith(2, "s1", 10, 50, 20, models.GradeF, models.ResultFail),
		}

		overview := buildStudentOverview(results)

		// (90+10)/(100+50) = 66.67 -> 67; a mean of percentages would give 55
		assert.Equal(t, 67, overview.AveragePercentage)
		assert.Equal(t, 2, overview.TotalExams)
		assert.Equal(t, 90, overview.HighestPercentage)
		assert.Equal(t, 20, overview.LowestPercentage)
		assert.Equal(t, 50, overview.PassRate)
	})
}

func TestBuildMonthlyTrend(t *testing.T) {
	jan := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	r1 := resultWith(1, "s1", 80, 100, 80, models.GradeBMinus, models.ResultPass)
	r1.Exam = models.Exam{Date: mar}
	r2 := resultWith(2, "s1", 60, 100, 60, models.GradeD, models.ResultPass)
	r2.Exam = models.Exam{Date: jan}
	r3 := resultWith(3, "s1", 70, 100, 70, models.GradeCMinus, models.ResultPass)
	r3.Exam = models.Exam{Date: jan}

	trend := buildMonthlyTrend([]*models.Result{r1, r2, r3})

	assert.Len(t, trend, 2)
	assert.Equal(t, "2026-01", trend[0].Month)
	assert.Equal(t, 2, trend[0].TotalExams)
	// Trend months use a plain mean of percentages
	assert.Equal(t, 65, trend[0].AveragePercentage)
	assert.Equal(t, "2026-03", trend[1].Month)
	assert.Equal(t, 80, trend[1].AveragePercentage)
}

func TestBuildGradeDistribution(t *testing.T) {
	results := []*models.Result{
		resultWith(1, "s1", 98, 100, 98, models.GradeAPlus, models.ResultPass),
		resultWith(1, "s2", 97, 100, 97, models.GradeAPlus, models.ResultPass),
		resultWith(1, "s3", 75, 100, 75, models.GradeC, models.ResultPass),
		resultWith(1, "s4", 30, 100, 30, models.GradeF, models.ResultFail),
	}

	buckets := buildGradeDistribution(results)

	// Best-first ordering, zero-count grades omitted
	assert.Len(t, buckets, 3)
	assert.Equal(t, models.GradeAPlus, buckets[0].Grade)
	assert.Equal(t, 2, buckets[0].Count)
	assert.Equal(t, 50, buckets[0].Percentage)
	assert.Equal(t, models.GradeC, buckets[1].Grade)
	assert.Equal(t, models.GradeF, buckets[2].Grade)
}

func TestBuildPerformers(t *testing.T) {
	t.Run("ties break on student id ascending", func(t *testing.T) {
		results := []*models.Result{
			resultWith(1, "s3", 85, 100, 85, models.GradeB, models.ResultPass),
			resultWith(1, "s1", 85, 100, 85, models.GradeB, models.ResultPass),
			resultWith(1, "s2", 90, 100, 90, models.GradeAMinus, models.ResultPass),
		}

		top, bottom := buildPerformers(results)

		assert.Equal(t, "s2", top[0].StudentID)
		assert.Equal(t, "s1", top[1].StudentID)
		assert.Equal(t, "s3", top[2].StudentID)

		// Bottom list is worst-first
		assert.Equal(t, "s3", bottom[0].StudentID)
		assert.Equal(t, "s1", bottom[1].StudentID)
		assert.Equal(t, "s2", bottom[2].StudentID)
	})

	t.Run("lists are capped at ten entries", func(t *testing.T) {
		results := make([]*models.Result, 0, 15)
		for i := 0; i < 15; i++ {
			pct := 50 + i
			results = append(results, resultWith(1, fmt.Sprintf("s%02d", i), float64(pct), 100, pct, models.GradeD, models.ResultPass))
		}

		top, bottom := buildPerformers(results)
		assert.Len(t, top, 10)
		assert.Len(t, bottom, 10)
		assert.Equal(t, "s14", top[0].StudentID)
		assert.Equal(t, "s00", bottom[0].StudentID)
	})
}

func TestBuildRecentResults(t *testing.T) {
	results := make([]*models.Result, 0, 7)
	for i := 0; i < 7; i++ {
		r := resultWith(uint(i+1), "s1", 70, 100, 70, models.GradeCMinus, models.ResultPass)
		r.Exam = models.Exam{Title: fmt.Sprintf("Exam %d", i+1), Date: time.Date(2026, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)}
		results = append(results, r)
	}

	recent := buildRecentResults(results)

	assert.Len(t, recent, 5)
	assert.Equal(t, "Exam 7", recent[0].ExamTitle)
	assert.Equal(t, "Exam 3", recent[4].ExamTitle)
}

func TestPerformanceService_StudentPerformance(t *testing.T) {
	ctx := context.Background()

	t.Run("student views own performance", func(t *testing.T) {
		repo := newMockRepository()
		service := NewPerformanceService(repo, testLogger(), nil)

		repo.user.On("ExistsByID", ctx, "student-1").Return(true, nil)
		repo.result.On("GetByStudent", ctx, "student-1", (*time.Time)(nil)).Return([]*models.Result{
			resultWith(1, "student-1", 80, 100, 80, models.GradeBMinus, models.ResultPass),
		}, nil)

		perf, err := service.StudentPerformance(ctx, "student-1", PeriodAll, Principal{ID: "student-1", Role: models.RoleStudent})

		assert.NoError(t, err)
		assert.Equal(t, 1, perf.Overview.TotalExams)
		assert.Equal(t, 80, perf.Overview.AveragePercentage)
	})

	t.Run("student cannot view another student", func(t *testing.T) {
		repo := newMockRepository()
		service := NewPerformanceService(repo, testLogger(), nil)

		_, err := service.StudentPerformance(ctx, "student-2", PeriodAll, Principal{ID: "student-1", Role: models.RoleStudent})
		assert.True(t, IsForbidden(err))
	})

	t.Run("unknown student surfaces not found", func(t *testing.T) {
		repo := newMockRepository()
		service := NewPerformanceService(repo, testLogger(), nil)

		repo.user.On("ExistsByID", ctx, "ghost").Return(false, nil)

		_, err := service.StudentPerformance(ctx, "ghost", PeriodAll, Principal{ID: "admin-1", Role: models.RoleAdmin})
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})

	t.Run("month period narrows the result window", func(t *testing.T) {
		repo := newMockRepository()
		service := NewPerformanceService(repo, testLogger(), nil)

		repo.user.On("ExistsByID", ctx, "student-1").Return(true, nil)
		repo.result.On("GetByStudent", ctx, "student-1", mock.MatchedBy(func(dateFrom *time.Time) bool {
			if dateFrom == nil {
				return false
			}
			// Roughly one month back from now
			expected := time.Now().AddDate(0, -1, 0)
			return dateFrom.Sub(expected).Abs() < time.Minute
		})).Return([]*models.Result{}, nil)

		perf, err := service.StudentPerformance(ctx, "student-1", PeriodMonth, Principal{ID: "student-1", Role: models.RoleStudent})

		assert.NoError(t, err)
		assert.Equal(t, 0, perf.Overview.TotalExams)
		repo.result.AssertExpectations(t)
	})
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   *time.Time
	}{
		{PeriodMonth, timePtr(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC))},
		{PeriodQuarter, timePtr(time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC))},
		{PeriodYear, timePtr(time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC))},
		{PeriodAll, nil},
		{"", nil},
		{"fortnight", nil},
	}

	for _, tt := range tests {
		t.Run("period "+tt.period, func(t *testing.T) {
			got := periodStart(tt.period, now)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestBuildTeacherPerformance(t *testing.T) {
	mathExam := testExam(1, "teacher-1")
	mathExam.Subject = "Mathematics"
	physicsExam := testExam(2, "teacher-1")
	physicsExam.Subject = "Physics"
	// No results recorded yet for the physics exam

	results := []*models.Result{
		resultWith(1, "s1", 80, 100, 80, models.GradeBMinus, models.ResultPass),
		resultWith(1, "s2", 40, 100, 40, models.GradeF, models.ResultFail),
	}

	perf := buildTeacherPerformance([]*models.Exam{mathExam, physicsExam}, results)

	assert.Equal(t, 2, perf.Overview.TotalExams)
	assert.Equal(t, 2, perf.Overview.TotalStudents)
	assert.Equal(t, 2, perf.Overview.TotalResults)
	assert.Equal(t, 60, perf.Overview.AverageClassPerformance)

	// Only the exam with results yields a per-exam row
	assert.Len(t, perf.ExamPerformance, 1)
	assert.Equal(t, 50, perf.ExamPerformance[0].PassRate)

	// Subject rollups count exams even without results
	assert.Len(t, perf.SubjectPerformance, 2)
	assert.Equal(t, "Physics", perf.SubjectPerformance[1].Subject)
	assert.Equal(t, 1, perf.SubjectPerformance[1].TotalExams)
	assert.Equal(t, 0, perf.SubjectPerformance[1].TotalStudents)
}

func TestPerformanceService_TeacherPerformancePeriod(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	service := NewPerformanceService(repo, testLogger(), nil)

	repo.exam.On("GetByTeacher", ctx, "teacher-1", mock.MatchedBy(func(filters repositories.ExamFilters) bool {
		if filters.DateFrom == nil {
			return false
		}
		expected := time.Now().AddDate(0, -3, 0)
		return filters.DateFrom.Sub(expected).Abs() < time.Minute
	})).Return([]*models.Exam{}, int64(0), nil)

	perf, err := service.TeacherPerformance(ctx, "teacher-1", PeriodQuarter, Principal{ID: "teacher-1", Role: models.RoleTeacher})

	assert.NoError(t, err)
	assert.Equal(t, 0, perf.Overview.TotalExams)
	repo.exam.AssertExpectations(t)
}

func TestPerformanceService_DashboardStats(t *testing.T) {
	ctx := context.Background()

	t.Run("student dashboard averages percentages", func(t *testing.T) {
		repo := newMockRepository()
		service := NewPerformanceService(repo, testLogger(), nil)

		student := &models.User{ID: "student-1", Role: models.RoleStudent, Grade: "10"}
		future := testExam(1, "teacher-1")
		future.Date = time.Now().Add(48 * time.Hour)

		repo.user.On("GetByID", ctx, "student-1").Return(student, nil)
		repo.exam.On("GetTargeted", ctx, student).Return([]*models.Exam{future}, nil)
		repo.result.On("GetByStudent", ctx, "student-1", (*time.Time)(nil)).Return([]*models.Result{
			resultWith(2, "student-1", 90, 100, 90, models.GradeAMinus, models.ResultPass),
			resultWith(3, "student-1", 10, 50, 20, models.GradeF, models.ResultFail),
		}, nil)

		stats, err := service.DashboardStats(ctx, Principal{ID: "student-1", Role: models.RoleStudent})

		assert.NoError(t, err)
		assert.Equal(t, 1, stats.UpcomingExams)
		assert.Equal(t, 2, stats.TotalResults)
		// Mean of 90 and 20, not the marks-weighted 67
		assert.Equal(t, 55, stats.AveragePerformance)
	})

	t.Run("teacher dashboard includes month-to-date counts", func(t *testing.T) {
		repo := newMockRepository()
		service := NewPerformanceService(repo, testLogger(), nil)

		teacherID := "teacher-1"
		exam := testExam(1, teacherID)
		ownScope := mock.MatchedBy(func(id *string) bool { return id != nil && *id == teacherID })

		repo.exam.On("Count", ctx, ownScope).Return(int64(1), nil)
		repo.exam.On("GetByTeacher", ctx, teacherID, repositories.ExamFilters{}).Return([]*models.Exam{exam}, int64(1), nil)
		repo.exam.On("CountCreatedSince", ctx, ownScope, mock.AnythingOfType("time.Time")).Return(int64(1), nil)
		repo.result.On("CountCreatedSince", ctx, []uint{1}, mock.AnythingOfType("time.Time")).Return(int64(1), nil)
		repo.result.On("GetByExamIDs", ctx, []uint{1}).Return([]*models.Result{
			resultWith(1, "s1", 70, 100, 70, models.GradeCMinus, models.ResultPass),
		}, nil)

		stats, err := service.DashboardStats(ctx, Principal{ID: teacherID, Role: models.RoleTeacher})

		assert.NoError(t, err)
		assert.Equal(t, 1, stats.TotalExams)
		assert.Equal(t, 1, stats.TotalResults)
		assert.Equal(t, 1, stats.MonthlyExams)
		assert.Equal(t, 1, stats.MonthlyResults)
		assert.Equal(t, 70, stats.AveragePerformance)
	})
}
