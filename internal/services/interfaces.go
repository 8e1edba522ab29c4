package services

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/repositories"
)

// ===== REQUEST DTOS =====

type CreateTestRequest struct {
	Title           string           `json:"title" validate:"required,min=3,max=255"`
	Description     *string          `json:"description" validate:"omitempty,max=2000"`
	OwnerType       models.OwnerType `json:"owner_type" validate:"required,oneof=course bootcamp workshop program"`
	OwnerID         uint             `json:"owner_id" validate:"required"`
	PassingScore    float64          `json:"passing_score" validate:"min=0,max=100"`
	MaxAttempts     int              `json:"max_attempts" validate:"required,min=1,max=50"`
	DurationMinutes int              `json:"duration_minutes" validate:"required,min=1,max=600"`
	StartsAt        *time.Time       `json:"starts_at"`
	EndsAt          *time.Time       `json:"ends_at"`
	Settings        datatypes.JSON   `json:"settings"`
}

type UpdateTestRequest struct {
	Title           *string        `json:"title" validate:"omitempty,min=3,max=255"`
	Description     *string        `json:"description" validate:"omitempty,max=2000"`
	PassingScore    *float64       `json:"passing_score" validate:"omitempty,min=0,max=100"`
	MaxAttempts     *int           `json:"max_attempts" validate:"omitempty,min=1,max=50"`
	DurationMinutes *int           `json:"duration_minutes" validate:"omitempty,min=1,max=600"`
	StartsAt        *time.Time     `json:"starts_at"`
	EndsAt          *time.Time     `json:"ends_at"`
	Settings        datatypes.JSON `json:"settings"`
}

type OptionRequest struct {
	Text      string `json:"text" validate:"required,min=1,max=1000"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position"`
}

type CreateQuestionRequest struct {
	Type        models.QuestionType `json:"type" validate:"required,oneof=multiple_choice true_false written"`
	Text        string              `json:"text" validate:"required,min=1,max=2000"`
	Points      float64             `json:"points" validate:"required,gt=0,max=1000"`
	Position    int                 `json:"position"`
	Explanation *string             `json:"explanation" validate:"omitempty,max=1000"`
	Options     []OptionRequest     `json:"options" validate:"dive"`
}

type UpdateQuestionRequest struct {
	Text        *string         `json:"text" validate:"omitempty,min=1,max=2000"`
	Points      *float64        `json:"points" validate:"omitempty,gt=0,max=1000"`
	Position    *int            `json:"position"`
	Explanation *string         `json:"explanation" validate:"omitempty,max=1000"`
	Options     []OptionRequest `json:"options" validate:"omitempty,dive"`
}

type SubmitAnswerRequest struct {
	QuestionID       uint    `json:"question_id" validate:"required"`
	SelectedOptionID *uint   `json:"selected_option_id"`
	WrittenAnswer    *string `json:"written_answer" validate:"omitempty,max=10000"`
}

type ManualGradeRequest struct {
	Points   float64 `json:"points"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

// ===== RESPONSE DTOS =====

// AttemptResponse wraps an attempt with what the student may do next.
type AttemptResponse struct {
	Attempt          *models.TestAttempt `json:"attempt"`
	CanSubmit        bool                `json:"can_submit"`
	RemainingSeconds *int                `json:"remaining_seconds,omitempty"`
}

// Eligibility is the answer to "can this user start an attempt now".
type Eligibility struct {
	CanAttempt   bool   `json:"can_attempt"`
	Reason       string `json:"reason,omitempty"`
	AttemptsUsed int    `json:"attempts_used"`
	MaxAttempts  int    `json:"max_attempts"`
}

// GradingResult is the outcome for a single answer.
type GradingResult struct {
	AnswerID     uint    `json:"answer_id"`
	QuestionID   uint    `json:"question_id"`
	PointsEarned float64 `json:"points_earned"`
	MaxPoints    float64 `json:"max_points"`
	IsCorrect    *bool   `json:"is_correct,omitempty"`
}

// AttemptGradingResult is the outcome for a whole attempt.
type AttemptGradingResult struct {
	AttemptID             uint            `json:"attempt_id"`
	Score                 float64         `json:"score"`
	TotalPoints           float64         `json:"total_points"`
	Percentage            float64         `json:"percentage"`
	Passed                bool            `json:"passed"`
	RequiresManualGrading bool            `json:"requires_manual_grading"`
	Results               []GradingResult `json:"results,omitempty"`
}

// TestResult is one row in a test's result listing.
type TestResult struct {
	AttemptID     uint       `json:"attempt_id"`
	UserID        string     `json:"user_id"`
	UserName      string     `json:"user_name"`
	AttemptNumber int        `json:"attempt_number"`
	Score         float64    `json:"score"`
	TotalPoints   float64    `json:"total_points"`
	Percentage    float64    `json:"percentage"`
	Passed        bool       `json:"passed"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	GradedAt      *time.Time `json:"graded_at"`
}

// ===== SERVICE INTERFACES =====

type TestService interface {
	Create(ctx context.Context, req *CreateTestRequest, actingUserID string) (*models.Test, error)
	GetByID(ctx context.Context, id uint, actingUserID string) (*models.Test, error)
	GetByIDWithQuestions(ctx context.Context, id uint, actingUserID string) (*models.Test, error)
	Update(ctx context.Context, id uint, req *UpdateTestRequest, actingUserID string) (*models.Test, error)
	Delete(ctx context.Context, id uint, actingUserID string) error

	List(ctx context.Context, filters repositories.TestFilters, actingUserID string) ([]*models.Test, int64, error)
	GetByOwner(ctx context.Context, ownerType models.OwnerType, ownerID uint, filters repositories.TestFilters) ([]*models.Test, int64, error)

	Publish(ctx context.Context, id uint, actingUserID string) (*models.Test, error)
	Archive(ctx context.Context, id uint, actingUserID string) (*models.Test, error)

	GetStats(ctx context.Context, id uint, actingUserID string) (*repositories.TestStats, error)
}

type QuestionService interface {
	Create(ctx context.Context, testID uint, req *CreateQuestionRequest, actingUserID string) (*models.Question, error)
	GetByID(ctx context.Context, id uint, actingUserID string) (*models.Question, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, actingUserID string) (*models.Question, error)
	Delete(ctx context.Context, id uint, actingUserID string) error
	ListByTest(ctx context.Context, testID uint, actingUserID string) ([]*models.Question, error)
}

type AttemptService interface {
	CanUserAttempt(ctx context.Context, testID uint, userID string) (*Eligibility, error)
	Start(ctx context.Context, testID uint, actingUserID string) (*AttemptResponse, error)
	SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, actingUserID string) error
	Submit(ctx context.Context, attemptID uint, actingUserID string) (*AttemptGradingResult, error)

	GetByID(ctx context.Context, attemptID uint, actingUserID string) (*AttemptResponse, error)
	GetByIDWithAnswers(ctx context.Context, attemptID uint, actingUserID string) (*models.TestAttempt, error)
	ListByUser(ctx context.Context, userID string, filters repositories.AttemptFilters, actingUserID string) ([]*models.TestAttempt, int64, error)
	ListByTest(ctx context.Context, testID uint, filters repositories.AttemptFilters, actingUserID string) ([]*models.TestAttempt, int64, error)
}

type GradingService interface {
	AutoGradeAttempt(ctx context.Context, attemptID uint) (*AttemptGradingResult, error)
	ManualGrade(ctx context.Context, answerID uint, req *ManualGradeRequest, actingUserID string) (*GradingResult, error)
	FinalizeGrading(ctx context.Context, attemptID uint, actingUserID string) (*AttemptGradingResult, error)
	RegradeAttempt(ctx context.Context, attemptID uint, actingUserID string) (*AttemptGradingResult, error)
	GetGradingStats(ctx context.Context, testID uint, actingUserID string) (*repositories.GradingStats, error)
	ListResults(ctx context.Context, testID uint, actingUserID string) ([]*TestResult, error)
}

type ExportService interface {
	ExportResults(ctx context.Context, testID uint, actingUserID string) (*excelize.File, error)
}

// ServiceManager wires services together and manages their lifecycle.
type ServiceManager interface {
	Test() TestService
	Question() QuestionService
	Attempt() AttemptService
	Grading() GradingService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) (map[string]error, error)
	Shutdown(ctx context.Context) error
}
