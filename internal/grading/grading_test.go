package grading

import (
	"testing"

	"github.com/acadex/examtrack-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGradeForPercentage_ThresholdTable(t *testing.T) {
	cases := []struct {
		percentage int
		want       models.Grade
	}{
		{100, models.GradeAPlus},
		{97, models.GradeAPlus},
		{96, models.GradeA},
		{93, models.GradeA},
		{92, models.GradeAMinus},
		{90, models.GradeAMinus},
		{89, models.GradeBPlus},
		{87, models.GradeBPlus},
		{86, models.GradeB},
		{83, models.GradeB},
		{82, models.GradeBMinus},
		{80, models.GradeBMinus},
		{79, models.GradeCPlus},
		{77, models.GradeCPlus},
		{76, models.GradeC},
		{73, models.GradeC},
		{72, models.GradeCMinus},
		{70, models.GradeCMinus},
		{69, models.GradeDPlus},
		{67, models.GradeDPlus},
		{66, models.GradeD},
		{60, models.GradeD},
		{59, models.GradeF},
		{0, models.GradeF},
	}

	for _, tc := range cases {
		got := GradeForPercentage(tc.percentage)
		assert.Equal(t, tc.want, got, "percentage %d", tc.percentage)
	}
}

func TestComputeStatus_Boundary(t *testing.T) {
	assert.Equal(t, models.ResultPass, ComputeStatus(60))
	assert.Equal(t, models.ResultFail, ComputeStatus(59))
	assert.Equal(t, models.ResultPass, ComputeStatus(100))
	assert.Equal(t, models.ResultFail, ComputeStatus(0))
}

func TestPercentage_RoundHalfUp(t *testing.T) {
	// 12.5/25 = 50 exactly
	assert.Equal(t, 50, Percentage(12.5, 25))
	// 1/3 -> 33.33 rounds down
	assert.Equal(t, 33, Percentage(1, 3))
	// 2/3 -> 66.67 rounds up
	assert.Equal(t, 67, Percentage(2, 3))
	// exact .5 rounds up
	assert.Equal(t, 13, Percentage(1, 8)) // 12.5
	assert.Equal(t, 0, Percentage(0, 100))
	assert.Equal(t, 100, Percentage(100, 100))
}

func TestGrade_EndToEnd(t *testing.T) {
	// 65/100 on an exam with passingMarks 40: percentage drives everything,
	// the exam's own passing marks play no role.
	got := Grade(65, 100)
	assert.Equal(t, 65, got.Percentage)
	assert.Equal(t, models.GradeD, got.Grade)
	assert.Equal(t, models.ResultPass, got.Status)

	// 55/100 fails despite clearing a 40-mark passing bar: the fixed 60%
	// threshold is the observed behavior of the system and is kept as is.
	got = Grade(55, 100)
	assert.Equal(t, 55, got.Percentage)
	assert.Equal(t, models.GradeF, got.Grade)
	assert.Equal(t, models.ResultFail, got.Status)
}

func TestGrade_Idempotent(t *testing.T) {
	first := Grade(73, 80)
	second := Grade(73, 80)
	assert.Equal(t, first, second)
}

func TestGradePoint(t *testing.T) {
	assert.Equal(t, 4.0, GradePoint(models.GradeAPlus))
	assert.Equal(t, 4.0, GradePoint(models.GradeA))
	assert.Equal(t, 3.7, GradePoint(models.GradeAMinus))
	assert.Equal(t, 3.3, GradePoint(models.GradeBPlus))
	assert.Equal(t, 3.0, GradePoint(models.GradeB))
	assert.Equal(t, 2.7, GradePoint(models.GradeBMinus))
	assert.Equal(t, 2.3, GradePoint(models.GradeCPlus))
	assert.Equal(t, 2.0, GradePoint(models.GradeC))
	assert.Equal(t, 1.7, GradePoint(models.GradeCMinus))
	assert.Equal(t, 1.3, GradePoint(models.GradeDPlus))
	assert.Equal(t, 1.0, GradePoint(models.GradeD))
	assert.Equal(t, 0.0, GradePoint(models.GradeF))
	// Unknown labels must not fail, they contribute zero.
	assert.Equal(t, 0.0, GradePoint(models.Grade("E")))
}

func TestPerformanceLevel(t *testing.T) {
	assert.Equal(t, "Excellent", PerformanceLevel(95))
	assert.Equal(t, "Excellent", PerformanceLevel(90))
	assert.Equal(t, "Very Good", PerformanceLevel(89))
	assert.Equal(t, "Good", PerformanceLevel(75))
	assert.Equal(t, "Satisfactory", PerformanceLevel(60))
	assert.Equal(t, "Average", PerformanceLevel(50))
	assert.Equal(t, "Needs Improvement", PerformanceLevel(49))
}

func TestPerformanceColor(t *testing.T) {
	assert.Equal(t, "green", PerformanceColor(92))
	assert.Equal(t, "blue", PerformanceColor(85))
	assert.Equal(t, "yellow", PerformanceColor(74))
	assert.Equal(t, "orange", PerformanceColor(61))
	assert.Equal(t, "red", PerformanceColor(59))
}
