package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
)

// AttemptRepository interface for attempt-specific operations
type AttemptRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error)
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error)
	Update(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.TestAttempt, int64, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters AttemptFilters) ([]*models.TestAttempt, int64, error)
	GetByTest(ctx context.Context, tx *gorm.DB, testID uint, filters AttemptFilters) ([]*models.TestAttempt, int64, error)

	// Lifecycle queries
	GetActiveAttempt(ctx context.Context, tx *gorm.DB, userID string, testID uint) (*models.TestAttempt, error)
	CountByUserAndTest(ctx context.Context, tx *gorm.DB, userID string, testID uint) (int, error)

	// Statistics
	GetGradingStats(ctx context.Context, tx *gorm.DB, testID uint) (*GradingStats, error)
}

// AnswerRepository interface for answer-specific operations
type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Answer, error)
	GetByIDWithQuestion(ctx context.Context, tx *gorm.DB, id uint) (*models.Answer, error)
	Update(ctx context.Context, tx *gorm.DB, answer *models.Answer) error

	// Attempt-scoped queries
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.Answer, error)
	GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.Answer, error)
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error

	// Grading
	ApplyGrade(ctx context.Context, tx *gorm.DB, grade AnswerGrade) error
	AreAllGraded(ctx context.Context, tx *gorm.DB, attemptID uint) (bool, error)
}
