package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/validator"
)

// Not-found errors
var (
	ErrTestNotFound     = errors.New("test not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrOptionNotFound   = errors.New("option not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAnswerNotFound   = errors.New("answer not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrOwnerNotFound    = errors.New("test owner not found")
)

// Policy and state errors
var (
	ErrTestNotActive    = errors.New("test is not active")
	ErrTestNotAvailable = errors.New("test is outside its availability window")
	ErrTestHasAttempts  = errors.New("test already has attempts")
	ErrTestNoQuestions  = errors.New("test has no questions")

	ErrAttemptLimitExceeded = errors.New("maximum attempts exceeded")
	ErrAttemptNotActive     = errors.New("attempt is not in progress")
	ErrAttemptNotSubmitted  = errors.New("attempt is not in submitted state")
	ErrAttemptAlreadyGraded = errors.New("attempt is already graded")
	ErrDuplicateAttempt     = errors.New("attempt already exists")

	ErrGradingIncomplete   = errors.New("attempt has ungraded answers")
	ErrGradingNotAllowed   = errors.New("answer cannot be graded automatically")
	ErrQuestionNotInTest   = errors.New("question does not belong to this test")
	ErrOptionNotInQuestion = errors.New("option does not belong to this question")
)

// Validation errors come from the validator package so handlers can match
// them with errors.As regardless of which layer produced them.
type (
	ValidationError  = validator.ValidationError
	ValidationErrors = validator.ValidationErrors
)

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, message string, value interface{}) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message, Value: value}}
}

// BusinessRuleError signals a domain rule violation that is not a simple
// field problem.
type BusinessRuleError struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

// PermissionError signals that the acting user may not perform an action.
type PermissionError struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s is not allowed to %s", e.UserID, e.Action)
}

func NewPermissionError(userID, action string) *PermissionError {
	return &PermissionError{UserID: userID, Action: action}
}

// notFound maps gorm's record-not-found onto a domain sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
