package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/cache"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/repositories"
)

type TestPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewTestPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TestRepository {
	return &TestPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (t *TestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Create(test).Error; err != nil {
		return err
	}
	cache.InvalidateTestCache(ctx, t.cacheManager, test.ID, test.CreatedBy)
	return nil
}

func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	db := t.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var test models.Test

	err := t.cacheManager.Test.CacheOrExecute(ctx, cacheKey, &test, cache.TestCacheConfig.TTL, func() (interface{}, error) {
		var dbTest models.Test
		if err := db.WithContext(ctx).First(&dbTest, id).Error; err != nil {
			return nil, err
		}
		return &dbTest, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	return &test, nil
}

func (t *TestPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	db := t.getDB(tx)
	var test models.Test
	if err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.position ASC")
		}).
		First(&test, id).Error; err != nil {
		return nil, err
	}

	test.QuestionCount = len(test.Questions)
	for _, q := range test.Questions {
		test.TotalPoints += q.Points
	}

	return &test, nil
}

func (t *TestPostgreSQL) Update(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Save(test).Error; err != nil {
		return err
	}
	cache.InvalidateTestCache(ctx, t.cacheManager, test.ID, test.CreatedBy)
	return nil
}

func (t *TestPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Test{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateTestCache(ctx, t.cacheManager, id, "")
	return nil
}

func (t *TestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	db := t.getDB(tx)
	var tests []*models.Test
	var total int64

	query := db.WithContext(ctx).Model(&models.Test{})
	query = t.helpers.ApplyTestFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = t.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&tests).Error; err != nil {
		return nil, 0, err
	}

	return tests, total, nil
}

func (t *TestPostgreSQL) GetByOwner(ctx context.Context, tx *gorm.DB, ownerType models.OwnerType, ownerID uint, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	filters.OwnerType = &ownerType
	filters.OwnerID = &ownerID
	return t.List(ctx, tx, filters)
}

func (t *TestPostgreSQL) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	filters.CreatedBy = &creatorID
	return t.List(ctx, tx, filters)
}

func (t *TestPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.TestStatus) error {
	db := t.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Test{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateTestCache(ctx, t.cacheManager, id, "")
	return nil
}

func (t *TestPostgreSQL) HasAttempts(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := t.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Where("test_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (t *TestPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.TestStats, error) {
	db := t.getDB(tx)
	stats := &repositories.TestStats{}

	row := db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = ?) AS graded,
			COALESCE(AVG(score) FILTER (WHERE status = ?), 0) AS avg_score,
			COALESCE(AVG(CASE WHEN passed THEN 1.0 ELSE 0.0 END) FILTER (WHERE status = ?), 0) AS pass_rate`,
			models.AttemptGraded, models.AttemptGraded, models.AttemptGraded).
		Where("test_id = ?", id).
		Row()

	if err := row.Scan(&stats.TotalAttempts, &stats.GradedAttempts, &stats.AverageScore, &stats.PassRate); err != nil {
		return nil, err
	}
	stats.PassRate *= 100

	var qCount int64
	if err := db.WithContext(ctx).Model(&models.Question{}).Where("test_id = ?", id).Count(&qCount).Error; err != nil {
		return nil, err
	}
	stats.QuestionCount = int(qCount)

	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("test_id = ?", id).
		Select("COALESCE(SUM(points), 0)").
		Scan(&stats.TotalPoints).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// OwnerPostgreSQL resolves test owners against their tables.
type OwnerPostgreSQL struct {
	db *gorm.DB
}

func NewOwnerPostgreSQL(db *gorm.DB) repositories.OwnerRepository {
	return &OwnerPostgreSQL{db: db}
}

func (o *OwnerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return o.db
}

func ownerModel(ownerType models.OwnerType) (interface{}, error) {
	switch ownerType {
	case models.OwnerCourse:
		return &models.Course{}, nil
	case models.OwnerBootcamp:
		return &models.Bootcamp{}, nil
	case models.OwnerWorkshop:
		return &models.Workshop{}, nil
	case models.OwnerProgram:
		return &models.Program{}, nil
	default:
		return nil, fmt.Errorf("unknown owner type: %s", ownerType)
	}
}

func (o *OwnerPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, ownerType models.OwnerType, ownerID uint) (bool, error) {
	model, err := ownerModel(ownerType)
	if err != nil {
		return false, err
	}

	var count int64
	err = o.getDB(tx).WithContext(ctx).
		Model(model).
		Where("id = ?", ownerID).
		Count(&count).Error
	return count > 0, err
}

func (o *OwnerPostgreSQL) Title(ctx context.Context, tx *gorm.DB, ownerType models.OwnerType, ownerID uint) (string, error) {
	model, err := ownerModel(ownerType)
	if err != nil {
		return "", err
	}

	var title string
	err = o.getDB(tx).WithContext(ctx).
		Model(model).
		Where("id = ?", ownerID).
		Select("title").
		Scan(&title).Error
	if err != nil {
		return "", err
	}
	if title == "" {
		return "", gorm.ErrRecordNotFound
	}
	return title, nil
}
