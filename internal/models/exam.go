package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExamType string

const (
	ExamMidterm    ExamType = "midterm"
	ExamFinal      ExamType = "final"
	ExamQuiz       ExamType = "quiz"
	ExamAssignment ExamType = "assignment"
	ExamProject    ExamType = "project"
)

// ExamStatus is the persisted administrative state. It changes only through
// explicit actions (creation, manual transition, cancellation) and is distinct
// from the time-derived DerivedExamStatus.
type ExamStatus string

const (
	ExamScheduled ExamStatus = "scheduled"
	ExamOngoing   ExamStatus = "ongoing"
	ExamCompleted ExamStatus = "completed"
	ExamCancelled ExamStatus = "cancelled"
)

// DerivedExamStatus is the display state computed from the exam date and
// duration. It is never stored.
type DerivedExamStatus string

const (
	DerivedCancelled DerivedExamStatus = "cancelled"
	DerivedUpcoming  DerivedExamStatus = "upcoming"
	DerivedOngoing   DerivedExamStatus = "ongoing"
	DerivedCompleted DerivedExamStatus = "completed"
)

type ExamDifficulty string

const (
	DifficultyEasy   ExamDifficulty = "easy"
	DifficultyMedium ExamDifficulty = "medium"
	DifficultyHard   ExamDifficulty = "hard"
)

type Exam struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	Title       string   `json:"title" gorm:"not null;size:100;index" validate:"required,min=3,max=100"`
	Description string   `json:"description" gorm:"size:500" validate:"omitempty,max=500"`
	Subject     string   `json:"subject" gorm:"not null;size:100;index" validate:"required"`
	ExamType    ExamType `json:"exam_type" gorm:"default:midterm;size:20" validate:"omitempty,exam_type"`

	Date         time.Time `json:"date" gorm:"not null;index" validate:"required"`
	Duration     int       `json:"duration" gorm:"not null" validate:"required,min=15,max=480"`
	TotalMarks   int       `json:"total_marks" gorm:"not null" validate:"required,min=1"`
	PassingMarks int       `json:"passing_marks" gorm:"not null" validate:"required,min=1"`

	Venue        string `json:"venue" gorm:"size:200" validate:"omitempty,max=200"`
	Instructions string `json:"instructions" gorm:"size:1000" validate:"omitempty,max=1000"`

	// Target population. Explicit TargetStudents override grade/section
	// targeting when present.
	TargetGrades   datatypes.JSONSlice[string] `json:"target_grades" gorm:"type:jsonb"`
	TargetSections datatypes.JSONSlice[string] `json:"target_sections" gorm:"type:jsonb"`
	TargetStudents datatypes.JSONSlice[string] `json:"target_students" gorm:"type:jsonb"`

	TeacherID string `json:"teacher_id" gorm:"not null;index;size:255"`
	CreatedBy string `json:"created_by" gorm:"not null;size:255"`

	Status           ExamStatus     `json:"status" gorm:"default:scheduled;index;size:20" validate:"omitempty,exam_status"`
	ResultsPublished bool           `json:"results_published" gorm:"default:false"`
	Difficulty       ExamDifficulty `json:"difficulty" gorm:"default:medium;size:10"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Teacher User `json:"teacher" gorm:"foreignKey:TeacherID"`
}

func (Exam) TableName() string {
	return "exams"
}

// EndTime is the instant the exam window closes.
func (e *Exam) EndTime() time.Time {
	return e.Date.Add(time.Duration(e.Duration) * time.Minute)
}

// DerivedStatus computes the display status at the given instant. The stored
// Status field wins only for cancellation; everything else follows the clock.
func (e *Exam) DerivedStatus(now time.Time) DerivedExamStatus {
	if e.Status == ExamCancelled {
		return DerivedCancelled
	}
	if now.Before(e.Date) {
		return DerivedUpcoming
	}
	if !now.After(e.EndTime()) {
		return DerivedOngoing
	}
	return DerivedCompleted
}

// Targets reports whether the exam is scheduled for the given student,
// either by grade membership or by explicit targeting.
func (e *Exam) Targets(student *User) bool {
	for _, id := range e.TargetStudents {
		if id == student.ID {
			return true
		}
	}
	for _, g := range e.TargetGrades {
		if g == student.Grade {
			return true
		}
	}
	return false
}
