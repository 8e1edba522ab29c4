package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
)

// TestRepository interface for test-specific operations
type TestRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	Update(ctx context.Context, tx *gorm.DB, test *models.Test) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters TestFilters) ([]*models.Test, int64, error)
	GetByOwner(ctx context.Context, tx *gorm.DB, ownerType models.OwnerType, ownerID uint, filters TestFilters) ([]*models.Test, int64, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters TestFilters) ([]*models.Test, int64, error)

	// Lifecycle
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.TestStatus) error

	// Validation and checks
	HasAttempts(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*TestStats, error)
}

// OwnerRepository resolves the learning units tests attach to.
type OwnerRepository interface {
	Exists(ctx context.Context, tx *gorm.DB, ownerType models.OwnerType, ownerID uint) (bool, error)
	Title(ctx context.Context, tx *gorm.DB, ownerType models.OwnerType, ownerID uint) (string, error)
}
