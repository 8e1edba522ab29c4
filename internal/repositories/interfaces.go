package repositories

import (
	"time"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type TestFilters struct {
	Status    *models.TestStatus `json:"status"`
	OwnerType *models.OwnerType  `json:"owner_type"`
	OwnerID   *uint              `json:"owner_id"`
	CreatedBy *string            `json:"created_by"`
	DateFrom  *time.Time         `json:"date_from"`
	DateTo    *time.Time         `json:"date_to"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "title"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	UserID    *string               `json:"user_id"`
	TestID    *uint                 `json:"test_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type AnswerFilters struct {
	Graded   *bool   `json:"graded"`
	GradedBy *string `json:"graded_by"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
}

// ===== SHARED HELPER STRUCTS =====

// AnswerGrade carries one grading decision into the repository layer.
type AnswerGrade struct {
	ID       uint    `json:"answer_id"`
	Points   float64 `json:"points"`
	Feedback *string `json:"feedback"`
	GraderID string  `json:"grader_id"`
}

// ===== SHARED STATISTICS STRUCTS =====

type TestStats struct {
	TotalAttempts  int     `json:"total_attempts"`
	GradedAttempts int     `json:"graded_attempts"`
	AverageScore   float64 `json:"average_score"`
	PassRate       float64 `json:"pass_rate"`
	QuestionCount  int     `json:"question_count"`
	TotalPoints    float64 `json:"total_points"`
}

type GradingStats struct {
	TotalAnswers   int     `json:"total_answers"`
	GradedAnswers  int     `json:"graded_answers"`
	PendingAnswers int     `json:"pending_answers"`
	AutoGraded     int     `json:"auto_graded"`
	ManualGraded   int     `json:"manual_graded"`
	AverageScore   float64 `json:"average_score"`
}
