package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/cache"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) invalidate(ctx context.Context, question *models.Question) {
	cache.SafeDelete(ctx, q.cacheManager.Question, fmt.Sprintf("id:%d", question.ID))
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, fmt.Sprintf("test:%d:*", question.TestID))
	cache.SafeDelete(ctx, q.cacheManager.Test, fmt.Sprintf("details:%d", question.TestID))
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return err
	}
	q.invalidate(ctx, question)
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDWithOptions(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.position ASC")
		}).
		First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Omit("Options").Save(question).Error; err != nil {
		return err
	}
	q.invalidate(ctx, question)
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)

	question, err := q.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Where("question_id = ?", id).Delete(&models.Option{}).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(&models.Question{}, id).Error; err != nil {
		return err
	}

	q.invalidate(ctx, question)
	return nil
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return err
	}
	for _, question := range questions {
		q.invalidate(ctx, question)
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Preload("Options").
		Where("id IN ?", ids).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.position ASC")
		}).
		Where("test_id = ?", testID).
		Order("position ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("test_id = ?", testID).
		Count(&count).Error
	return count, err
}

func (q *QuestionPostgreSQL) TotalPointsByTest(ctx context.Context, tx *gorm.DB, testID uint) (float64, error) {
	db := q.getDB(tx)
	var total float64
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("test_id = ?", testID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return total, err
}

func (q *QuestionPostgreSQL) ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []models.Option) error {
	db := q.getDB(tx)

	if err := db.WithContext(ctx).Where("question_id = ?", questionID).Delete(&models.Option{}).Error; err != nil {
		return err
	}

	for i := range options {
		options[i].ID = 0
		options[i].QuestionID = questionID
	}
	if len(options) > 0 {
		if err := db.WithContext(ctx).Create(&options).Error; err != nil {
			return err
		}
	}

	cache.SafeDelete(ctx, q.cacheManager.Question, fmt.Sprintf("id:%d", questionID))
	return nil
}

func (q *QuestionPostgreSQL) GetOption(ctx context.Context, tx *gorm.DB, optionID uint) (*models.Option, error) {
	db := q.getDB(tx)
	var option models.Option
	if err := db.WithContext(ctx).First(&option, optionID).Error; err != nil {
		return nil, err
	}
	return &option, nil
}
