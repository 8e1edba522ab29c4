package validator

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
)

// ValidationError describes a single failed field rule.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground struct validation plus the business rules
// that cut across fields.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Struct runs tag-based validation and converts the result.
func (v *Validator) Struct(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return ToValidationErrors(err)
}

// ToValidationErrors converts go-playground errors into the local shape.
func ToValidationErrors(err error) ValidationErrors {
	var out ValidationErrors
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Message: messageFor(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return out
	}
	return ValidationErrors{{Field: "", Message: err.Error(), Rule: "invalid"}}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ValidateAttemptStart checks the conditions under which a student may
// begin an attempt. Returns nil when the attempt is allowed.
func (v *Validator) ValidateAttemptStart(test *models.Test, attemptCount int, now time.Time) ValidationErrors {
	var errors ValidationErrors

	if test.Status != models.StatusActive {
		errors = append(errors, ValidationError{
			Field:   "test_status",
			Message: "test is not active",
			Value:   test.Status,
			Rule:    "business_logic",
		})
	}

	if !test.AvailableAt(now) {
		errors = append(errors, ValidationError{
			Field:   "availability",
			Message: "test is outside its availability window",
			Rule:    "business_logic",
		})
	}

	if attemptCount >= test.MaxAttempts {
		errors = append(errors, ValidationError{
			Field:   "attempts",
			Message: "maximum attempts exceeded",
			Value:   attemptCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateStatusTransition checks test lifecycle transitions.
func (v *Validator) ValidateStatusTransition(current, next models.TestStatus) ValidationErrors {
	allowed := map[models.TestStatus][]models.TestStatus{
		models.StatusDraft:    {models.StatusActive},
		models.StatusActive:   {models.StatusArchived},
		models.StatusArchived: {},
	}

	for _, s := range allowed[current] {
		if s == next {
			return nil
		}
	}

	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// ValidateManualGrade checks a manual score against the question's range.
// Out-of-range scores are rejected, never clamped.
func (v *Validator) ValidateManualGrade(points, maxPoints float64) ValidationErrors {
	if points < 0 || points > maxPoints {
		return ValidationErrors{{
			Field:   "points",
			Message: fmt.Sprintf("points must be between 0 and %g", maxPoints),
			Value:   points,
			Rule:    "points_range",
		}}
	}
	return nil
}

// ValidateQuestionOptions enforces the option shape per question type:
// choice questions carry exactly one correct option, written questions
// carry none.
func (v *Validator) ValidateQuestionOptions(qType models.QuestionType, options []models.Option) ValidationErrors {
	var errors ValidationErrors

	switch qType {
	case models.MultipleChoice:
		if len(options) < 2 {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "multiple choice questions need at least 2 options",
				Value:   len(options),
				Rule:    "business_logic",
			})
		}
	case models.TrueFalse:
		if len(options) != 2 {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "true/false questions need exactly 2 options",
				Value:   len(options),
				Rule:    "business_logic",
			})
		}
	case models.Written:
		if len(options) > 0 {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "written questions cannot have options",
				Value:   len(options),
				Rule:    "business_logic",
			})
		}
		return errors
	}

	correct := 0
	for _, o := range options {
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		errors = append(errors, ValidationError{
			Field:   "options",
			Message: "exactly one option must be marked correct",
			Value:   correct,
			Rule:    "business_logic",
		})
	}

	return errors
}
