package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/acadex/examtrack-service/internal/cache"
	"github.com/acadex/examtrack-service/internal/grading"
	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
)

// PerformanceService computes the aggregate views: per-student overviews,
// per-exam reports, teacher rollups and the role-dependent dashboard counters.
// All aggregates are derived on demand from stored results; nothing here is
// persisted.
type PerformanceService interface {
	StudentPerformance(ctx context.Context, studentID, period string, caller Principal) (*models.StudentPerformance, error)
	ExamPerformance(ctx context.Context, examID uint, caller Principal) (*models.ExamPerformance, error)
	TeacherPerformance(ctx context.Context, teacherID, period string, caller Principal) (*models.TeacherPerformance, error)
	DashboardStats(ctx context.Context, caller Principal) (*models.DashboardStats, error)
}

// Period names accepted by the student and teacher performance views.
const (
	PeriodAll     = "all"
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
)

const (
	performanceCacheTTL = 5 * time.Minute
	dashboardCacheTTL   = 2 * time.Minute

	recentResultCount = 5
	performerCount    = 10
)

type performanceService struct {
	repo   repositories.Repository
	logger *slog.Logger
	cache  cache.CacheService
}

// NewPerformanceService builds the service. The cache may be nil, in which
// case every call recomputes from the database.
func NewPerformanceService(repo repositories.Repository, logger *slog.Logger, cacheService cache.CacheService) PerformanceService {
	return &performanceService{
		repo:   repo,
		logger: logger,
		cache:  cacheService,
	}
}

// ===== STUDENT PERFORMANCE =====

func (s *performanceService) StudentPerformance(ctx context.Context, studentID, period string, caller Principal) (*models.StudentPerformance, error) {
	if err := s.checkStudentAccess(caller, studentID); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("performance:student:%s:%s", studentID, normalizePeriod(period))
	var cached models.StudentPerformance
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	exists, err := s.repo.User().ExistsByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify student: %w", err)
	}
	if !exists {
		return nil, ErrStudentNotFound
	}

	// Results arrive ordered by exam date ascending
	results, err := s.repo.Result().GetByStudent(ctx, studentID, periodStart(period, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to get student results: %w", err)
	}

	perf := &models.StudentPerformance{
		Overview:           buildStudentOverview(results),
		SubjectPerformance: buildSubjectPerformance(results),
		RecentResults:      buildRecentResults(results),
		PerformanceTrend:   buildMonthlyTrend(results),
	}

	s.cacheSet(ctx, cacheKey, perf, performanceCacheTTL)
	return perf, nil
}

// buildStudentOverview aggregates the headline numbers. The average is
// marks-weighted (total obtained over total possible), so a 20-mark quiz moves
// it less than a 100-mark final. The monthly trend below intentionally uses a
// plain mean of percentages instead; the two answer different questions.
func buildStudentOverview(results []*models.Result) models.StudentPerformanceOverview {
	if len(results) == 0 {
		return models.StudentPerformanceOverview{}
	}

	var totalMarks, obtainedMarks float64
	highest, lowest := results[0].Percentage, results[0].Percentage
	passCount := 0

	for _, r := range results {
		totalMarks += r.TotalMarks
		obtainedMarks += r.MarksObtained
		if r.Percentage > highest {
			highest = r.Percentage
		}
		if r.Percentage < lowest {
			lowest = r.Percentage
		}
		if r.Status == models.ResultPass {
			passCount++
		}
	}

	return models.StudentPerformanceOverview{
		TotalExams:        len(results),
		AveragePercentage: grading.Round(obtainedMarks / totalMarks * 100),
		HighestPercentage: highest,
		LowestPercentage:  lowest,
		PassRate:          grading.Round(float64(passCount) / float64(len(results)) * 100),
		TotalMarks:        totalMarks,
		ObtainedMarks:     obtainedMarks,
	}
}

func buildSubjectPerformance(results []*models.Result) []models.SubjectPerformance {
	bySubject := make(map[string]*models.SubjectPerformance)
	order := make([]string, 0)

	for _, r := range results {
		subject := r.Exam.Subject
		sp, ok := bySubject[subject]
		if !ok {
			sp = &models.SubjectPerformance{Subject: subject}
			bySubject[subject] = sp
			order = append(order, subject)
		}
		sp.TotalExams++
		sp.TotalMarks += r.TotalMarks
		sp.ObtainedMarks += r.MarksObtained
	}

	performances := make([]models.SubjectPerformance, 0, len(order))
	for _, subject := range order {
		sp := bySubject[subject]
		if sp.TotalMarks > 0 {
			sp.AveragePercentage = grading.Round(sp.ObtainedMarks / sp.TotalMarks * 100)
		}
		performances = append(performances, *sp)
	}
	return performances
}

// buildRecentResults returns the newest results first, at most five.
func buildRecentResults(results []*models.Result) []models.RecentResult {
	n := len(results)
	count := min(recentResultCount, n)

	recent := make([]models.RecentResult, 0, count)
	for i := n - 1; i >= n-count; i-- {
		r := results[i]
		recent = append(recent, models.RecentResult{
			ExamTitle:  r.Exam.Title,
			Subject:    r.Exam.Subject,
			Date:       r.Exam.Date,
			Percentage: r.Percentage,
			Grade:      r.Grade,
			Status:     r.Status,
		})
	}
	return recent
}

func buildMonthlyTrend(results []*models.Result) []models.MonthlyPerformance {
	type bucket struct {
		count int
		sum   int
	}
	byMonth := make(map[string]*bucket)

	for _, r := range results {
		month := r.Exam.Date.Format("2006-01")
		b, ok := byMonth[month]
		if !ok {
			b = &bucket{}
			byMonth[month] = b
		}
		b.count++
		b.sum += r.Percentage
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	trend := make([]models.MonthlyPerformance, 0, len(months))
	for _, month := range months {
		b := byMonth[month]
		trend = append(trend, models.MonthlyPerformance{
			Month:             month,
			TotalExams:        b.count,
			AveragePercentage: grading.Round(float64(b.sum) / float64(b.count)),
		})
	}
	return trend
}

// ===== EXAM PERFORMANCE =====

func (s *performanceService) ExamPerformance(ctx context.Context, examID uint, caller Principal) (*models.ExamPerformance, error) {
	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if !caller.Allows(ActionPerformanceAll) {
		return nil, NewPermissionError(caller.ID, examIDString(examID), "performance", "view", "role not permitted")
	}
	if caller.IsTeacher() && exam.TeacherID != caller.ID && exam.CreatedBy != caller.ID {
		return nil, NewPermissionError(caller.ID, examIDString(examID), "performance", "view", "not the owning teacher")
	}

	cacheKey := fmt.Sprintf("performance:exam:%d", examID)
	var cached models.ExamPerformance
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	results, err := s.repo.Result().GetByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam results: %w", err)
	}

	perf := &models.ExamPerformance{
		ExamInfo: models.ExamInfo{
			Title:        exam.Title,
			Subject:      exam.Subject,
			TotalMarks:   exam.TotalMarks,
			PassingMarks: exam.PassingMarks,
		},
		Overview:          buildExamOverview(results),
		GradeDistribution: buildGradeDistribution(results),
	}
	perf.TopPerformers, perf.BottomPerformers = buildPerformers(results)

	s.cacheSet(ctx, cacheKey, perf, performanceCacheTTL)
	return perf, nil
}

// buildExamOverview uses a plain mean of percentages: every student counts
// equally regardless of marks.
func buildExamOverview(results []*models.Result) models.ExamPerformanceOverview {
	if len(results) == 0 {
		return models.ExamPerformanceOverview{}
	}

	sum := 0
	highest, lowest := results[0].Percentage, results[0].Percentage
	passCount := 0

	for _, r := range results {
		sum += r.Percentage
		if r.Percentage > highest {
			highest = r.Percentage
		}
		if r.Percentage < lowest {
			lowest = r.Percentage
		}
		if r.Status == models.ResultPass {
			passCount++
		}
	}

	return models.ExamPerformanceOverview{
		TotalStudents:     len(results),
		AveragePercentage: grading.Round(float64(sum) / float64(len(results))),
		HighestPercentage: highest,
		LowestPercentage:  lowest,
		PassRate:          grading.Round(float64(passCount) / float64(len(results)) * 100),
	}
}

// gradeOrder lists every letter grade best-first, for stable distribution
// output.
var gradeOrder = []models.Grade{
	models.GradeAPlus, models.GradeA, models.GradeAMinus,
	models.GradeBPlus, models.GradeB, models.GradeBMinus,
	models.GradeCPlus, models.GradeC, models.GradeCMinus,
	models.GradeDPlus, models.GradeD, models.GradeF,
}

func buildGradeDistribution(results []*models.Result) []models.GradeBucket {
	if len(results) == 0 {
		return []models.GradeBucket{}
	}

	counts := make(map[models.Grade]int)
	for _, r := range results {
		counts[r.Grade]++
	}

	buckets := make([]models.GradeBucket, 0, len(counts))
	for _, grade := range gradeOrder {
		count := counts[grade]
		if count == 0 {
			continue
		}
		buckets = append(buckets, models.GradeBucket{
			Grade:      grade,
			Count:      count,
			Percentage: grading.Round(float64(count) / float64(len(results)) * 100),
		})
	}
	return buckets
}

// buildPerformers ranks students by percentage, breaking ties on student id so
// the ordering is deterministic. Top performers are best-first, bottom
// performers worst-first.
func buildPerformers(results []*models.Result) (top, bottom []models.PerformerEntry) {
	ranked := make([]*models.Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Percentage != ranked[j].Percentage {
			return ranked[i].Percentage > ranked[j].Percentage
		}
		return ranked[i].StudentID < ranked[j].StudentID
	})

	count := min(performerCount, len(ranked))

	top = make([]models.PerformerEntry, 0, count)
	for _, r := range ranked[:count] {
		top = append(top, performerEntry(r))
	}

	bottom = make([]models.PerformerEntry, 0, count)
	for i := len(ranked) - 1; i >= len(ranked)-count; i-- {
		bottom = append(bottom, performerEntry(ranked[i]))
	}
	return top, bottom
}

func performerEntry(r *models.Result) models.PerformerEntry {
	return models.PerformerEntry{
		StudentName:   r.Student.FullName(),
		StudentID:     r.StudentID,
		Percentage:    r.Percentage,
		Grade:         r.Grade,
		MarksObtained: r.MarksObtained,
	}
}

// ===== TEACHER PERFORMANCE =====

func (s *performanceService) TeacherPerformance(ctx context.Context, teacherID, period string, caller Principal) (*models.TeacherPerformance, error) {
	// Teachers see their own rollup, admins anyone's
	if caller.IsTeacher() && caller.ID != teacherID {
		return nil, NewPermissionError(caller.ID, teacherID, "performance", "view", "teachers may only view their own rollup")
	}
	if caller.IsStudent() {
		return nil, NewPermissionError(caller.ID, teacherID, "performance", "view", "role not permitted")
	}

	cacheKey := fmt.Sprintf("performance:teacher:%s:%s", teacherID, normalizePeriod(period))
	var cached models.TeacherPerformance
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	exams, _, err := s.repo.Exam().GetByTeacher(ctx, teacherID, repositories.ExamFilters{
		DateFrom: periodStart(period, time.Now()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher exams: %w", err)
	}

	examIDs := make([]uint, len(exams))
	for i, exam := range exams {
		examIDs[i] = exam.ID
	}

	var results []*models.Result
	if len(examIDs) > 0 {
		results, err = s.repo.Result().GetByExamIDs(ctx, examIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to get results: %w", err)
		}
	}

	perf := buildTeacherPerformance(exams, results)
	s.cacheSet(ctx, cacheKey, perf, performanceCacheTTL)
	return perf, nil
}

func buildTeacherPerformance(exams []*models.Exam, results []*models.Result) *models.TeacherPerformance {
	byExam := make(map[uint][]*models.Result)
	students := make(map[string]struct{})
	percentageSum := 0

	for _, r := range results {
		byExam[r.ExamID] = append(byExam[r.ExamID], r)
		students[r.StudentID] = struct{}{}
		percentageSum += r.Percentage
	}

	overview := models.TeacherPerformanceOverview{
		TotalExams:    len(exams),
		TotalStudents: len(students),
		TotalResults:  len(results),
	}
	if len(results) > 0 {
		overview.AverageClassPerformance = grading.Round(float64(percentageSum) / float64(len(results)))
	}

	examPerf := make([]models.TeacherExamPerformance, 0, len(exams))
	type subjectBucket struct {
		exams    int
		students map[string]struct{}
		sum      int
		results  int
	}
	bySubject := make(map[string]*subjectBucket)
	subjectOrder := make([]string, 0)

	for _, exam := range exams {
		sb, ok := bySubject[exam.Subject]
		if !ok {
			sb = &subjectBucket{students: make(map[string]struct{})}
			bySubject[exam.Subject] = sb
			subjectOrder = append(subjectOrder, exam.Subject)
		}
		// Subject exam counts include exams that have no results yet
		sb.exams++

		examResults := byExam[exam.ID]
		if len(examResults) == 0 {
			continue
		}

		sum := 0
		passCount := 0
		for _, r := range examResults {
			sum += r.Percentage
			if r.Status == models.ResultPass {
				passCount++
			}
			sb.students[r.StudentID] = struct{}{}
			sb.sum += r.Percentage
			sb.results++
		}

		examPerf = append(examPerf, models.TeacherExamPerformance{
			ExamTitle:         exam.Title,
			Subject:           exam.Subject,
			Date:              exam.Date,
			TotalStudents:     len(examResults),
			AveragePercentage: grading.Round(float64(sum) / float64(len(examResults))),
			PassRate:          grading.Round(float64(passCount) / float64(len(examResults)) * 100),
		})
	}

	subjectPerf := make([]models.TeacherSubjectPerformance, 0, len(subjectOrder))
	for _, subject := range subjectOrder {
		sb := bySubject[subject]
		sp := models.TeacherSubjectPerformance{
			Subject:       subject,
			TotalExams:    sb.exams,
			TotalStudents: len(sb.students),
		}
		if sb.results > 0 {
			sp.AveragePercentage = grading.Round(float64(sb.sum) / float64(sb.results))
		}
		subjectPerf = append(subjectPerf, sp)
	}

	return &models.TeacherPerformance{
		Overview:           overview,
		ExamPerformance:    examPerf,
		SubjectPerformance: subjectPerf,
	}
}

// ===== DASHBOARD =====

func (s *performanceService) DashboardStats(ctx context.Context, caller Principal) (*models.DashboardStats, error) {
	cacheKey := fmt.Sprintf("dashboard:%s:%s", caller.Role, caller.ID)
	var cached models.DashboardStats
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var stats *models.DashboardStats
	var err error

	switch caller.Role {
	case models.RoleAdmin:
		stats, err = s.adminDashboard(ctx)
	case models.RoleTeacher:
		stats, err = s.teacherDashboard(ctx, caller.ID)
	case models.RoleStudent:
		stats, err = s.studentDashboard(ctx, caller.ID)
	default:
		return nil, ErrInvalidRole
	}
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, stats, dashboardCacheTTL)
	return stats, nil
}

func (s *performanceService) adminDashboard(ctx context.Context) (*models.DashboardStats, error) {
	totalStudents, err := s.repo.User().CountActiveByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	totalTeachers, err := s.repo.User().CountActiveByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, fmt.Errorf("failed to count teachers: %w", err)
	}
	totalExams, err := s.repo.Exam().Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count exams: %w", err)
	}
	totalResults, err := s.repo.Result().Count(ctx, repositories.ResultFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}

	monthStart := startOfMonth(time.Now())
	monthlyExams, err := s.repo.Exam().CountCreatedSince(ctx, nil, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count monthly exams: %w", err)
	}
	monthlyResults, err := s.repo.Result().CountCreatedSince(ctx, nil, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count monthly results: %w", err)
	}

	return &models.DashboardStats{
		TotalStudents:  int(totalStudents),
		TotalTeachers:  int(totalTeachers),
		TotalExams:     int(totalExams),
		TotalResults:   int(totalResults),
		MonthlyExams:   int(monthlyExams),
		MonthlyResults: int(monthlyResults),
	}, nil
}

func (s *performanceService) teacherDashboard(ctx context.Context, teacherID string) (*models.DashboardStats, error) {
	totalExams, err := s.repo.Exam().Count(ctx, &teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to count exams: %w", err)
	}

	exams, _, err := s.repo.Exam().GetByTeacher(ctx, teacherID, repositories.ExamFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher exams: %w", err)
	}
	examIDs := make([]uint, len(exams))
	for i, exam := range exams {
		examIDs[i] = exam.ID
	}

	stats := &models.DashboardStats{TotalExams: int(totalExams)}

	monthStart := startOfMonth(time.Now())
	monthlyExams, err := s.repo.Exam().CountCreatedSince(ctx, &teacherID, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count monthly exams: %w", err)
	}
	stats.MonthlyExams = int(monthlyExams)

	if len(examIDs) > 0 {
		monthlyResults, err := s.repo.Result().CountCreatedSince(ctx, examIDs, monthStart)
		if err != nil {
			return nil, fmt.Errorf("failed to count monthly results: %w", err)
		}
		stats.MonthlyResults = int(monthlyResults)

		results, err := s.repo.Result().GetByExamIDs(ctx, examIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to get results: %w", err)
		}
		stats.TotalResults = len(results)

		if len(results) > 0 {
			sum := 0
			for _, r := range results {
				sum += r.Percentage
			}
			stats.AveragePerformance = grading.Round(float64(sum) / float64(len(results)))
		}
	}

	return stats, nil
}

func (s *performanceService) studentDashboard(ctx context.Context, studentID string) (*models.DashboardStats, error) {
	student, err := s.repo.User().GetByID(ctx, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	exams, err := s.repo.Exam().GetTargeted(ctx, student)
	if err != nil {
		return nil, fmt.Errorf("failed to get targeted exams: %w", err)
	}

	now := time.Now()
	upcoming := 0
	for _, exam := range exams {
		if exam.DerivedStatus(now) == models.DerivedUpcoming {
			upcoming++
		}
	}

	results, err := s.repo.Result().GetByStudent(ctx, studentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get student results: %w", err)
	}

	stats := &models.DashboardStats{
		TotalExams:    len(exams),
		TotalResults:  len(results),
		UpcomingExams: upcoming,
	}

	// Plain mean of percentages, unlike the marks-weighted student overview:
	// the dashboard counter treats every exam equally.
	if len(results) > 0 {
		sum := 0
		for _, r := range results {
			sum += r.Percentage
		}
		stats.AveragePerformance = grading.Round(float64(sum) / float64(len(results)))
	}

	return stats, nil
}

// ===== HELPERS =====

func (s *performanceService) checkStudentAccess(caller Principal, studentID string) error {
	if caller.ID == studentID {
		return nil
	}
	if caller.IsTeacher() || caller.IsAdmin() {
		return nil
	}
	return NewPermissionError(caller.ID, studentID, "performance", "view", "students may only view their own performance")
}

func (s *performanceService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.Get(ctx, key, dest); err != nil {
		return false
	}
	return true
}

func (s *performanceService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("Failed to cache performance data", "key", key, "error", err)
	}
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// periodStart converts a period name into a rolling cutoff date. Empty and
// unrecognized values behave like "all" and apply no cutoff.
func periodStart(period string, now time.Time) *time.Time {
	var start time.Time
	switch period {
	case PeriodMonth:
		start = now.AddDate(0, -1, 0)
	case PeriodQuarter:
		start = now.AddDate(0, -3, 0)
	case PeriodYear:
		start = now.AddDate(-1, 0, 0)
	default:
		return nil
	}
	return &start
}

func normalizePeriod(period string) string {
	switch period {
	case PeriodMonth, PeriodQuarter, PeriodYear:
		return period
	default:
		return PeriodAll
	}
}
