package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
)

// QuestionRepository interface for question-specific operations.
// Options are managed through their question, never on their own.
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByIDWithOptions(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)

	// Test-scoped queries
	GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error)
	CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error)
	TotalPointsByTest(ctx context.Context, tx *gorm.DB, testID uint) (float64, error)

	// Options
	ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []models.Option) error
	GetOption(ctx context.Context, tx *gorm.DB, optionID uint) (*models.Option, error)
}
