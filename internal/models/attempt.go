package models

import (
	"time"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
)

type TestAttempt struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	TestID uint   `json:"test_id" gorm:"not null;uniqueIndex:idx_attempts_test_user_number;index"`
	UserID string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_attempts_test_user_number;index"`

	// AttemptNumber is 1-based per (test, user). The unique index turns a
	// concurrent double-start into a constraint violation instead of a
	// duplicate row.
	AttemptNumber int `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempts_test_user_number"`

	Status AttemptStatus `json:"status" gorm:"not null;size:20;default:'in_progress';index"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at"`

	Score       float64 `json:"score" gorm:"not null;default:0"`
	TotalPoints float64 `json:"total_points" gorm:"not null;default:0"`
	Percentage  float64 `json:"percentage" gorm:"not null;default:0"`
	Passed      bool    `json:"passed" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Test    *Test    `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

func (a *TestAttempt) IsActive() bool {
	return a.Status == AttemptInProgress
}

type Answer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answers_attempt_question;index"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_answers_attempt_question"`

	// Exactly one of the two is set once the student responds.
	SelectedOptionID *uint   `json:"selected_option_id"`
	WrittenAnswer    *string `json:"written_answer" gorm:"type:text"`

	// Grading result. PointsEarned stays nil until the answer is graded.
	PointsEarned *float64 `json:"points_earned"`
	IsCorrect    *bool    `json:"is_correct"`
	Feedback     *string  `json:"feedback,omitempty" gorm:"type:text"`
	GradedBy     *string  `json:"graded_by,omitempty" gorm:"size:255"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Answer) TableName() string {
	return "answers"
}

// Answered reports whether the student has responded to the question.
func (a *Answer) Answered() bool {
	return a.SelectedOptionID != nil || (a.WrittenAnswer != nil && *a.WrittenAnswer != "")
}

func (a *Answer) Graded() bool {
	return a.PointsEarned != nil
}
