package utils

import (
	"reflect"
	"strings"

	"github.com/acadex/examtrack-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Custom validation functions

func ValidateExamType(fl validator.FieldLevel) bool {
	validTypes := []models.ExamType{
		models.ExamMidterm,
		models.ExamFinal,
		models.ExamQuiz,
		models.ExamAssignment,
		models.ExamProject,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateExamStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.ExamStatus{
		models.ExamScheduled,
		models.ExamOngoing,
		models.ExamCompleted,
		models.ExamCancelled,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

func ValidateExamDifficulty(fl validator.FieldLevel) bool {
	validLevels := []models.ExamDifficulty{
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

func ValidateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleStudent,
		models.RoleTeacher,
		models.RoleAdmin,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("exam_type", ValidateExamType)
	validate.RegisterValidation("exam_status", ValidateExamStatus)
	validate.RegisterValidation("exam_difficulty", ValidateExamDifficulty)
	validate.RegisterValidation("user_role", ValidateUserRole)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
