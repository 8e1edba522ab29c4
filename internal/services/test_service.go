package services

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/events"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/repositories"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/validator"
)

type testService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewTestService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) TestService {
	return &testService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

func (s *testService) Create(ctx context.Context, req *CreateTestRequest, actingUserID string) (*models.Test, error) {
	s.logger.Info("Creating test", "title", req.Title, "user_id", actingUserID)

	if err := s.requireManager(ctx, actingUserID, "create tests"); err != nil {
		return nil, err
	}
	if verrs := s.validator.Struct(req); len(verrs) > 0 {
		return nil, verrs
	}
	if !req.OwnerType.Valid() {
		return nil, NewValidationError("owner_type", "unknown owner type", req.OwnerType)
	}
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		return nil, NewValidationError("ends_at", "must be after starts_at", req.EndsAt)
	}

	exists, err := s.repo.Owner().Exists(ctx, nil, req.OwnerType, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrOwnerNotFound
	}

	test := &models.Test{
		Title:           req.Title,
		Description:     req.Description,
		OwnerType:       req.OwnerType,
		OwnerID:         req.OwnerID,
		Status:          models.StatusDraft,
		PassingScore:    req.PassingScore,
		MaxAttempts:     req.MaxAttempts,
		DurationMinutes: req.DurationMinutes,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		Settings:        req.Settings,
		CreatedBy:       actingUserID,
	}

	if err := s.repo.Test().Create(ctx, nil, test); err != nil {
		return nil, err
	}

	s.logger.Info("Test created", "test_id", test.ID, "owner_type", test.OwnerType, "owner_id", test.OwnerID)
	return test, nil
}

func (s *testService) GetByID(ctx context.Context, id uint, actingUserID string) (*models.Test, error) {
	test, err := s.repo.Test().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	// Students only see published tests
	if test.Status == models.StatusDraft && test.CreatedBy != actingUserID {
		if err := s.requireManager(ctx, actingUserID, "view draft tests"); err != nil {
			return nil, ErrTestNotFound
		}
	}

	return test, nil
}

func (s *testService) GetByIDWithQuestions(ctx context.Context, id uint, actingUserID string) (*models.Test, error) {
	if _, err := s.GetByID(ctx, id, actingUserID); err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	// Correct answers stay server-side for non-managers
	if err := s.requireManager(ctx, actingUserID, ""); err != nil {
		for i := range test.Questions {
			for j := range test.Questions[i].Options {
				test.Questions[i].Options[j].IsCorrect = false
			}
			test.Questions[i].Explanation = nil
		}
	}

	return test, nil
}

func (s *testService) Update(ctx context.Context, id uint, req *UpdateTestRequest, actingUserID string) (*models.Test, error) {
	if verrs := s.validator.Struct(req); len(verrs) > 0 {
		return nil, verrs
	}

	test, err := s.repo.Test().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}
	if err := s.requireCreatorOrAdmin(ctx, test, actingUserID, "update this test"); err != nil {
		return nil, err
	}

	hasAttempts, err := s.repo.Test().HasAttempts(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if hasAttempts && (req.PassingScore != nil || req.DurationMinutes != nil) {
		return nil, NewBusinessRuleError("test_locked", "scoring and duration cannot change once the test has attempts")
	}

	if req.Title != nil {
		test.Title = *req.Title
	}
	if req.Description != nil {
		test.Description = req.Description
	}
	if req.PassingScore != nil {
		test.PassingScore = *req.PassingScore
	}
	if req.MaxAttempts != nil {
		test.MaxAttempts = *req.MaxAttempts
	}
	if req.DurationMinutes != nil {
		test.DurationMinutes = *req.DurationMinutes
	}
	if req.StartsAt != nil {
		test.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		test.EndsAt = req.EndsAt
	}
	if req.Settings != nil {
		test.Settings = req.Settings
	}

	if test.StartsAt != nil && test.EndsAt != nil && test.EndsAt.Before(*test.StartsAt) {
		return nil, NewValidationError("ends_at", "must be after starts_at", test.EndsAt)
	}

	if err := s.repo.Test().Update(ctx, nil, test); err != nil {
		return nil, err
	}

	return test, nil
}

// Delete removes a draft test with its questions. Published tests are
// archived instead so existing results stay resolvable.
func (s *testService) Delete(ctx context.Context, id uint, actingUserID string) error {
	test, err := s.repo.Test().GetByID(ctx, nil, id)
	if err != nil {
		return notFound(err, ErrTestNotFound)
	}
	if err := s.requireCreatorOrAdmin(ctx, test, actingUserID, "delete this test"); err != nil {
		return err
	}

	if test.Status != models.StatusDraft {
		return NewBusinessRuleError("test_published", "only draft tests can be deleted")
	}

	hasAttempts, err := s.repo.Test().HasAttempts(ctx, nil, id)
	if err != nil {
		return err
	}
	if hasAttempts {
		return ErrTestHasAttempts
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions, err := s.repo.Question().GetByTest(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, q := range questions {
			if err := s.repo.Question().Delete(ctx, tx, q.ID); err != nil {
				return err
			}
		}
		return s.repo.Test().Delete(ctx, tx, id)
	})
}

func (s *testService) List(ctx context.Context, filters repositories.TestFilters, actingUserID string) ([]*models.Test, int64, error) {
	// Non-managers only list active tests
	if err := s.requireManager(ctx, actingUserID, ""); err != nil {
		active := models.StatusActive
		filters.Status = &active
	}
	return s.repo.Test().List(ctx, nil, filters)
}

func (s *testService) GetByOwner(ctx context.Context, ownerType models.OwnerType, ownerID uint, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	if !ownerType.Valid() {
		return nil, 0, NewValidationError("owner_type", "unknown owner type", ownerType)
	}
	return s.repo.Test().GetByOwner(ctx, nil, ownerType, ownerID, filters)
}

// Publish moves a draft test to active. The test must have questions and
// every choice question must carry exactly one correct option.
func (s *testService) Publish(ctx context.Context, id uint, actingUserID string) (*models.Test, error) {
	s.logger.Info("Publishing test", "test_id", id, "user_id", actingUserID)

	test, err := s.repo.Test().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}
	if err := s.requireCreatorOrAdmin(ctx, test, actingUserID, "publish this test"); err != nil {
		return nil, err
	}

	if verrs := s.validator.ValidateStatusTransition(test.Status, models.StatusActive); len(verrs) > 0 {
		return nil, verrs
	}

	questions, err := s.repo.Question().GetByTest(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrTestNoQuestions
	}
	for _, q := range questions {
		if verrs := s.validator.ValidateQuestionOptions(q.Type, q.Options); len(verrs) > 0 {
			return nil, NewBusinessRuleError("invalid_question", verrs.Error())
		}
	}

	if err := s.repo.Test().UpdateStatus(ctx, nil, id, models.StatusActive); err != nil {
		return nil, err
	}
	test.Status = models.StatusActive

	if err := s.publisher.Publish(ctx, events.TopicTestPublished, events.TestPublishedEvent{
		TestID:      test.ID,
		OwnerType:   string(test.OwnerType),
		OwnerID:     test.OwnerID,
		PublishedBy: actingUserID,
		PublishedAt: time.Now(),
	}); err != nil {
		s.logger.Warn("Failed to publish test event", "test_id", test.ID, "error", err)
	}

	return test, nil
}

func (s *testService) Archive(ctx context.Context, id uint, actingUserID string) (*models.Test, error) {
	test, err := s.repo.Test().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}
	if err := s.requireCreatorOrAdmin(ctx, test, actingUserID, "archive this test"); err != nil {
		return nil, err
	}

	if verrs := s.validator.ValidateStatusTransition(test.Status, models.StatusArchived); len(verrs) > 0 {
		return nil, verrs
	}

	if err := s.repo.Test().UpdateStatus(ctx, nil, id, models.StatusArchived); err != nil {
		return nil, err
	}
	test.Status = models.StatusArchived

	return test, nil
}

func (s *testService) GetStats(ctx context.Context, id uint, actingUserID string) (*repositories.TestStats, error) {
	if err := s.requireManager(ctx, actingUserID, "view test statistics"); err != nil {
		return nil, err
	}

	if _, err := s.repo.Test().GetByID(ctx, nil, id); err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	return s.repo.Test().GetStats(ctx, nil, id)
}

// ===== INTERNAL =====

func (s *testService) requireManager(ctx context.Context, userID, action string) error {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if !user.Role.CanGrade() {
		return NewPermissionError(userID, action)
	}
	return nil
}

func (s *testService) requireCreatorOrAdmin(ctx context.Context, test *models.Test, userID, action string) error {
	if test.CreatedBy == userID {
		return nil
	}
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if user.Role != models.RoleAdmin {
		return NewPermissionError(userID, action)
	}
	return nil
}
