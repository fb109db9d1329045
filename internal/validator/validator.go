package validator

import (
	"github.com/acadex/examtrack-service/internal/utils"
	"github.com/go-playground/validator/v10"
)

// Validator is the main validator instance that combines struct-tag validation
// with domain business rules.
type Validator struct {
	structValidator   *validator.Validate
	businessValidator *BusinessValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	utils.RegisterCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		businessValidator: NewBusinessValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs struct-tag validation and converts failures to the shared
// error type.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Business returns the business validator
func (v *Validator) Business() *BusinessValidator {
	return v.businessValidator
}

// GetBusinessValidator returns the business validator (compatibility method)
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.businessValidator
}
