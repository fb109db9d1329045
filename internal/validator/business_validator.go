package validator

import (
	"time"

	"github.com/acadex/examtrack-service/internal/models"
)

// BusinessValidator enforces the cross-field rules that struct tags cannot
// express. It is deliberately free of repository dependencies: rules that need
// a database lookup belong in the services.
type BusinessValidator struct{}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{}
}

// ValidateExamCreate checks the cross-field rules for a new exam.
func (bv *BusinessValidator) ValidateExamCreate(exam *models.Exam, now time.Time) ValidationErrors {
	var errs ValidationErrors

	if exam.PassingMarks > exam.TotalMarks {
		errs = append(errs, ValidationError{
			Field:   "passing_marks",
			Message: "cannot exceed total marks",
			Value:   exam.PassingMarks,
			Rule:    "passing_marks",
		})
	}

	if !exam.Date.After(now) {
		errs = append(errs, ValidationError{
			Field:   "date",
			Message: "must be in the future",
			Value:   exam.Date,
			Rule:    "future_date",
		})
	}

	if len(exam.TargetGrades) == 0 && len(exam.TargetStudents) == 0 {
		errs = append(errs, ValidationError{
			Field:   "target_grades",
			Message: "at least one target grade or target student is required",
			Value:   exam.TargetGrades,
			Rule:    "required",
		})
	}

	return errs
}

// ValidateExamUpdate checks the cross-field rules for an exam after updates
// have been applied. Unlike creation, the exam date may be in the past: editing
// metadata of a finished exam is legitimate.
func (bv *BusinessValidator) ValidateExamUpdate(exam *models.Exam) ValidationErrors {
	var errs ValidationErrors

	if exam.PassingMarks > exam.TotalMarks {
		errs = append(errs, ValidationError{
			Field:   "passing_marks",
			Message: "cannot exceed total marks",
			Value:   exam.PassingMarks,
			Rule:    "passing_marks",
		})
	}

	if len(exam.TargetGrades) == 0 && len(exam.TargetStudents) == 0 {
		errs = append(errs, ValidationError{
			Field:   "target_grades",
			Message: "at least one target grade or target student is required",
			Value:   exam.TargetGrades,
			Rule:    "required",
		})
	}

	return errs
}

// ValidateMarks checks obtained marks against the exam's total.
func (bv *BusinessValidator) ValidateMarks(marksObtained float64, totalMarks float64) ValidationErrors {
	var errs ValidationErrors

	if marksObtained < 0 {
		errs = append(errs, ValidationError{
			Field:   "marks_obtained",
			Message: "cannot be negative",
			Value:   marksObtained,
			Rule:    "min",
		})
	}

	if marksObtained > totalMarks {
		errs = append(errs, ValidationError{
			Field:   "marks_obtained",
			Message: "cannot exceed total marks",
			Value:   marksObtained,
			Rule:    "marks_obtained",
		})
	}

	return errs
}

// ValidateStatusTransition checks whether an exam may move between the two
// administrative states. Cancellation is reachable from any non-completed
// state and is terminal once applied.
func (bv *BusinessValidator) ValidateStatusTransition(from, to models.ExamStatus) ValidationErrors {
	if from == models.ExamCancelled && to != models.ExamCancelled {
		return ValidationErrors{{
			Field:   "status",
			Message: "cancelled exams cannot be reactivated",
			Value:   to,
			Rule:    "exam_status",
		}}
	}
	if from == models.ExamCompleted && to == models.ExamCancelled {
		return ValidationErrors{{
			Field:   "status",
			Message: "completed exams cannot be cancelled",
			Value:   to,
			Rule:    "exam_status",
		}}
	}
	return nil
}
