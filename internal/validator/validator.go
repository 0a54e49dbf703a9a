package validator

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"github.com/go-playground/validator/v10"
)

var academicYearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator *validator.Validate
	marksValidator  *MarksValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		marksValidator:  NewMarksValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Marks returns the marks decomposition validator
func (v *Validator) Marks() *MarksValidator {
	return v.marksValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("assessment_type", validateAssessmentType)
	validate.RegisterValidation("academic_year", validateAcademicYear)
	validate.RegisterValidation("calendar_date", validateCalendarDate)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateAssessmentType(fl validator.FieldLevel) bool {
	return models.AssessmentType(fl.Field().String()).IsValid()
}

func validateAcademicYear(fl validator.FieldLevel) bool {
	return IsAcademicYear(fl.Field().String())
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.Parse(models.DateLayout, value)
	return err == nil
}

// IsAcademicYear reports whether s looks like "2024-2025".
func IsAcademicYear(s string) bool {
	m := academicYearPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}
