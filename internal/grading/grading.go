// Package grading converts raw marks into percentages, letter grades and
// pass/fail status. Everything here is a pure function; callers own bounds
// checking (marks within [0, total], total >= 1).
package grading

import (
	"math"

	"github.com/acadex/examtrack-service/internal/models"
)

// gradeThresholds is the authoritative percentage-to-grade table, inclusive
// lower bounds, first match wins. Grade distribution buckets and performance
// color coding both depend on it staying exactly as published to schools.
var gradeThresholds = []struct {
	min   int
	grade models.Grade
}{
	{97, models.GradeAPlus},
	{93, models.GradeA},
	{90, models.GradeAMinus},
	{87, models.GradeBPlus},
	{83, models.GradeB},
	{80, models.GradeBMinus},
	{77, models.GradeCPlus},
	{73, models.GradeC},
	{70, models.GradeCMinus},
	{67, models.GradeDPlus},
	{60, models.GradeD},
}

// passThreshold is the fixed percentage above which a result counts as a
// pass. Note this is deliberately independent of an exam's own passingMarks
// field, which plays no part in pass/fail status.
const passThreshold = 60

var gradePoints = map[models.Grade]float64{
	models.GradeAPlus:  4.0,
	models.GradeA:      4.0,
	models.GradeAMinus: 3.7,
	models.GradeBPlus:  3.3,
	models.GradeB:      3.0,
	models.GradeBMinus: 2.7,
	models.GradeCPlus:  2.3,
	models.GradeC:      2.0,
	models.GradeCMinus: 1.7,
	models.GradeDPlus:  1.3,
	models.GradeD:      1.0,
	models.GradeF:      0.0,
}

// Graded is the full derived outcome for a single mark.
type Graded struct {
	Percentage int                 `json:"percentage"`
	Grade      models.Grade        `json:"grade"`
	Status     models.ResultStatus `json:"status"`
}

// Round rounds half-up to the nearest integer.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Percentage computes the rounded percentage for obtained marks.
func Percentage(marksObtained, totalMarks float64) int {
	return Round(marksObtained / totalMarks * 100)
}

// ComputeGrade converts marks into a percentage and letter grade.
func ComputeGrade(marksObtained, totalMarks float64) (int, models.Grade) {
	pct := Percentage(marksObtained, totalMarks)
	return pct, GradeForPercentage(pct)
}

// GradeForPercentage resolves the letter grade for an integer percentage.
func GradeForPercentage(percentage int) models.Grade {
	for _, t := range gradeThresholds {
		if percentage >= t.min {
			return t.grade
		}
	}
	return models.GradeF
}

// ComputeStatus resolves pass/fail from the percentage alone.
func ComputeStatus(percentage int) models.ResultStatus {
	if percentage >= passThreshold {
		return models.ResultPass
	}
	return models.ResultFail
}

// Grade produces the complete derived outcome for a mark. Invoked on every
// result create and update; identical inputs always yield identical output.
func Grade(marksObtained, totalMarks float64) Graded {
	pct, letter := ComputeGrade(marksObtained, totalMarks)
	return Graded{
		Percentage: pct,
		Grade:      letter,
		Status:     ComputeStatus(pct),
	}
}

// GradePoint returns the GPA contribution of a letter grade. Unknown grades
// contribute zero rather than failing.
func GradePoint(grade models.Grade) float64 {
	return gradePoints[grade]
}

// PerformanceLevel is the informational label shown next to a percentage in
// dashboards and reports.
func PerformanceLevel(percentage int) string {
	switch {
	case percentage >= 90:
		return "Excellent"
	case percentage >= 80:
		return "Very Good"
	case percentage >= 70:
		return "Good"
	case percentage >= 60:
		return "Satisfactory"
	case percentage >= 50:
		return "Average"
	default:
		return "Needs Improvement"
	}
}

// PerformanceColor maps a percentage to the UI color band.
func PerformanceColor(percentage int) string {
	switch {
	case percentage >= 90:
		return "green"
	case percentage >= 80:
		return "blue"
	case percentage >= 70:
		return "yellow"
	case percentage >= 60:
		return "orange"
	default:
		return "red"
	}
}
