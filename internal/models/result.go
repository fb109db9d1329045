package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Grade is the letter label derived from the percentage via the fixed
// threshold table in internal/grading.
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeDPlus  Grade = "D+"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
)

type ResultStatus string

const (
	ResultPass ResultStatus = "pass"
	ResultFail ResultStatus = "fail"
)

type AppealStatus string

const (
	AppealPending  AppealStatus = "pending"
	AppealApproved AppealStatus = "approved"
	AppealRejected AppealStatus = "rejected"
)

// MarksBreakdown is an optional, informational split of the obtained marks.
// It is stored verbatim and never re-validated against MarksObtained.
type MarksBreakdown struct {
	Theory     BreakdownEntry `json:"theory"`
	Practical  BreakdownEntry `json:"practical"`
	Assignment BreakdownEntry `json:"assignment"`
}

type BreakdownEntry struct {
	Marks float64 `json:"marks"`
	Total float64 `json:"total"`
}

// Result is one student's graded outcome for one exam. Percentage, Grade and
// Status are always recomputed server-side before persistence; client-supplied
// values for them are discarded.
type Result struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"not null;size:255;index;uniqueIndex:idx_results_student_exam"`
	ExamID    uint   `json:"exam_id" gorm:"not null;index;uniqueIndex:idx_results_student_exam"`

	MarksObtained float64 `json:"marks_obtained" gorm:"not null" validate:"min=0"`
	// TotalMarks is a snapshot of the exam's total at grading time.
	TotalMarks float64 `json:"total_marks" gorm:"not null" validate:"min=1"`

	// Derived fields, recomputed on every create and update
	Percentage int          `json:"percentage" gorm:"not null"`
	Grade      Grade        `json:"grade" gorm:"not null;size:2;index"`
	Status     ResultStatus `json:"status" gorm:"not null;size:4;index"`

	Breakdown       datatypes.JSONType[MarksBreakdown] `json:"breakdown" gorm:"type:jsonb"`
	TeacherComments string                             `json:"teacher_comments" gorm:"size:500" validate:"omitempty,max=500"`
	StudentRemarks  string                             `json:"student_remarks" gorm:"size:500" validate:"omitempty,max=500"`

	Attendance    bool `json:"attendance" gorm:"default:true"`
	Participation int  `json:"participation" gorm:"default:0" validate:"min=0,max=10"`

	GradedBy    string    `json:"graded_by" gorm:"not null;size:255"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"index:,sort:desc"`

	// Review workflow
	Reviewed   bool       `json:"reviewed" gorm:"default:false"`
	ReviewedAt *time.Time `json:"reviewed_at"`
	ReviewedBy *string    `json:"reviewed_by" gorm:"size:255"`

	// Appeal workflow
	Appealed     bool         `json:"appealed" gorm:"default:false"`
	AppealReason string       `json:"appeal_reason" gorm:"size:500" validate:"omitempty,max=500"`
	AppealStatus AppealStatus `json:"appeal_status" gorm:"default:pending;size:10"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Student User `json:"student" gorm:"foreignKey:StudentID"`
	Exam    Exam `json:"exam" gorm:"foreignKey:ExamID"`
	Grader  User `json:"grader" gorm:"foreignKey:GradedBy"`
}

func (Result) TableName() string {
	return "results"
}
