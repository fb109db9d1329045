package models

import "time"

// Aggregate views are computed on demand by the performance service and are
// never persisted.

type StudentPerformanceOverview struct {
	TotalExams        int     `json:"total_exams"`
	AveragePercentage int     `json:"average_percentage"`
	HighestPercentage int     `json:"highest_percentage"`
	LowestPercentage  int     `json:"lowest_percentage"`
	PassRate          int     `json:"pass_rate"`
	TotalMarks        float64 `json:"total_marks"`
	ObtainedMarks     float64 `json:"obtained_marks"`
}

type SubjectPerformance struct {
	Subject           string  `json:"subject"`
	TotalExams        int     `json:"total_exams"`
	TotalMarks        float64 `json:"total_marks"`
	ObtainedMarks     float64 `json:"obtained_marks"`
	AveragePercentage int     `json:"average_percentage"`
}

type RecentResult struct {
	ExamTitle  string       `json:"exam_title"`
	Subject    string       `json:"subject"`
	Date       time.Time    `json:"date"`
	Percentage int          `json:"percentage"`
	Grade      Grade        `json:"grade"`
	Status     ResultStatus `json:"status"`
}

type MonthlyPerformance struct {
	Month             string `json:"month"` // YYYY-MM
	TotalExams        int    `json:"total_exams"`
	AveragePercentage int    `json:"average_percentage"`
}

type StudentPerformance struct {
	Overview           StudentPerformanceOverview `json:"overview"`
	SubjectPerformance []SubjectPerformance       `json:"subject_performance"`
	RecentResults      []RecentResult             `json:"recent_results"`
	PerformanceTrend   []MonthlyPerformance       `json:"performance_trend"`
}

type ExamInfo struct {
	Title        string `json:"title"`
	Subject      string `json:"subject"`
	TotalMarks   int    `json:"total_marks"`
	PassingMarks int    `json:"passing_marks"`
}

type ExamPerformanceOverview struct {
	TotalStudents     int `json:"total_students"`
	AveragePercentage int `json:"average_percentage"`
	HighestPercentage int `json:"highest_percentage"`
	LowestPercentage  int `json:"lowest_percentage"`
	PassRate          int `json:"pass_rate"`
}

type GradeBucket struct {
	Grade      Grade `json:"grade"`
	Count      int   `json:"count"`
	Percentage int   `json:"percentage"`
}

type PerformerEntry struct {
	StudentName   string  `json:"student_name"`
	StudentID     string  `json:"student_id"`
	Percentage    int     `json:"percentage"`
	Grade         Grade   `json:"grade"`
	MarksObtained float64 `json:"marks_obtained"`
}

type ExamPerformance struct {
	ExamInfo          ExamInfo                `json:"exam_info"`
	Overview          ExamPerformanceOverview `json:"overview"`
	GradeDistribution []GradeBucket           `json:"grade_distribution"`
	TopPerformers     []PerformerEntry        `json:"top_performers"`
	BottomPerformers  []PerformerEntry        `json:"bottom_performers"`
}

type TeacherPerformanceOverview struct {
	TotalExams              int `json:"total_exams"`
	TotalStudents           int `json:"total_students"`
	AverageClassPerformance int `json:"average_class_performance"`
	TotalResults            int `json:"total_results"`
}

type TeacherExamPerformance struct {
	ExamTitle         string    `json:"exam_title"`
	Subject           string    `json:"subject"`
	Date              time.Time `json:"date"`
	TotalStudents     int       `json:"total_students"`
	AveragePercentage int       `json:"average_percentage"`
	PassRate          int       `json:"pass_rate"`
}

type TeacherSubjectPerformance struct {
	Subject           string `json:"subject"`
	TotalExams        int    `json:"total_exams"`
	TotalStudents     int    `json:"total_students"`
	AveragePercentage int    `json:"average_percentage"`
}

type TeacherPerformance struct {
	Overview           TeacherPerformanceOverview  `json:"overview"`
	ExamPerformance    []TeacherExamPerformance    `json:"exam_performance"`
	SubjectPerformance []TeacherSubjectPerformance `json:"subject_performance"`
}

// DashboardStats carries role-dependent counters. Only the fields relevant to
// the caller's role are populated.
type DashboardStats struct {
	// Admin
	TotalStudents  int `json:"total_students,omitempty"`
	TotalTeachers  int `json:"total_teachers,omitempty"`
	MonthlyExams   int `json:"monthly_exams,omitempty"`
	MonthlyResults int `json:"monthly_results,omitempty"`

	// Shared
	TotalExams   int `json:"total_exams"`
	TotalResults int `json:"total_results"`

	// Teacher and student
	AveragePerformance int `json:"average_performance,omitempty"`

	// Student
	UpcomingExams int `json:"upcoming_exams,omitempty"`
}
