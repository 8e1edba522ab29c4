package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TestStatus string

const (
	StatusDraft    TestStatus = "draft"
	StatusActive   TestStatus = "active"
	StatusArchived TestStatus = "archived"
)

// OwnerType identifies which kind of learning unit a test belongs to.
// A test always has exactly one owner (OwnerType + OwnerID).
type OwnerType string

const (
	OwnerCourse   OwnerType = "course"
	OwnerBootcamp OwnerType = "bootcamp"
	OwnerWorkshop OwnerType = "workshop"
	OwnerProgram  OwnerType = "program"
)

func (o OwnerType) Valid() bool {
	switch o {
	case OwnerCourse, OwnerBootcamp, OwnerWorkshop, OwnerProgram:
		return true
	}
	return false
}

type Test struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:255" validate:"required,min=3,max=255"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`

	OwnerType OwnerType `json:"owner_type" gorm:"not null;size:20;index:idx_tests_owner" validate:"required"`
	OwnerID   uint      `json:"owner_id" gorm:"not null;index:idx_tests_owner" validate:"required"`

	Status TestStatus `json:"status" gorm:"not null;size:20;default:'draft';index"`

	// PassingScore is a percentage threshold, 0..100, compared inclusively.
	PassingScore    float64 `json:"passing_score" gorm:"not null;default:60" validate:"min=0,max=100"`
	MaxAttempts     int     `json:"max_attempts" gorm:"not null;default:1" validate:"min=1,max=50"`
	DurationMinutes int     `json:"duration_minutes" gorm:"not null;default:60" validate:"min=1,max=600"`

	// Availability window. Nil bound means unbounded on that side.
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`

	Settings datatypes.JSON `json:"settings,omitempty" gorm:"type:jsonb"`

	CreatedBy string `json:"created_by" gorm:"not null;size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:TestID"`

	// Computed fields, not stored
	QuestionCount int     `json:"question_count,omitempty" gorm:"-"`
	TotalPoints   float64 `json:"total_points,omitempty" gorm:"-"`
}

func (Test) TableName() string {
	return "tests"
}

// TestSettings is the shape stored in Test.Settings.
type TestSettings struct {
	ShuffleQuestions  bool `json:"shuffle_questions"`
	ShuffleOptions    bool `json:"shuffle_options"`
	ShowResults       bool `json:"show_results"`
	ShowCorrectAnswer bool `json:"show_correct_answer"`
}

// AvailableAt reports whether the test window is open at the given time.
func (t *Test) AvailableAt(now time.Time) bool {
	if t.StartsAt != nil && now.Before(*t.StartsAt) {
		return false
	}
	if t.EndsAt != nil && now.After(*t.EndsAt) {
		return false
	}
	return true
}
