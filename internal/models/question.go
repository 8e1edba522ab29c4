package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	Written        QuestionType = "written"
)

func (q QuestionType) Valid() bool {
	switch q {
	case MultipleChoice, TrueFalse, Written:
		return true
	}
	return false
}

// AutoGradable reports whether answers of this type are machine-graded.
func (q QuestionType) AutoGradable() bool {
	return q == MultipleChoice || q == TrueFalse
}

type Question struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	TestID uint         `json:"test_id" gorm:"not null;index"`
	Type   QuestionType `json:"type" gorm:"not null;size:20" validate:"required"`
	Text   string       `json:"text" gorm:"type:text;not null" validate:"required,min=1,max=2000"`

	Points   float64 `json:"points" gorm:"not null" validate:"required,gt=0,max=1000"`
	Position int     `json:"position" gorm:"not null;default:0"`

	Explanation *string `json:"explanation,omitempty" gorm:"type:text" validate:"omitempty,max=1000"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Options []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectOption returns the option marked correct, or nil for written
// questions and malformed data.
func (q *Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

type Option struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"type:text;not null" validate:"required,min=1,max=1000"`
	IsCorrect  bool   `json:"is_correct,omitempty" gorm:"not null;default:false"`
	Position   int    `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Option) TableName() string {
	return "options"
}
