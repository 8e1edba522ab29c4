package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/repositories"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
	}
}

func (s *questionService) Create(ctx context.Context, testID uint, req *CreateQuestionRequest, actingUserID string) (*models.Question, error) {
	s.logger.Info("Creating question", "test_id", testID, "type", req.Type, "user_id", actingUserID)

	if verrs := s.validator.Struct(req); len(verrs) > 0 {
		return nil, verrs
	}

	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}
	if err := s.requireTestEditor(ctx, test, actingUserID); err != nil {
		return nil, err
	}
	if err := s.requireNoAttempts(ctx, testID); err != nil {
		return nil, err
	}

	options := make([]models.Option, len(req.Options))
	for i, o := range req.Options {
		options[i] = models.Option{
			Text:      o.Text,
			IsCorrect: o.IsCorrect,
			Position:  o.Position,
		}
	}

	if verrs := s.validator.ValidateQuestionOptions(req.Type, options); len(verrs) > 0 {
		return nil, verrs
	}

	question := &models.Question{
		TestID:      testID,
		Type:        req.Type,
		Text:        req.Text,
		Points:      req.Points,
		Position:    req.Position,
		Explanation: req.Explanation,
		Options:     options,
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, err
	}

	s.logger.Info("Question created", "question_id", question.ID, "test_id", testID)
	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint, actingUserID string) (*models.Question, error) {
	question, err := s.repo.Question().GetByIDWithOptions(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrQuestionNotFound)
	}

	test, err := s.repo.Test().GetByID(ctx, nil, question.TestID)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	if err := s.requireTestEditor(ctx, test, actingUserID); err != nil {
		// Students see the question without the answer key
		for i := range question.Options {
			question.Options[i].IsCorrect = false
		}
		question.Explanation = nil
	}

	return question, nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, actingUserID string) (*models.Question, error) {
	if verrs := s.validator.Struct(req); len(verrs) > 0 {
		return nil, verrs
	}

	question, err := s.repo.Question().GetByIDWithOptions(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrQuestionNotFound)
	}

	test, err := s.repo.Test().GetByID(ctx, nil, question.TestID)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}
	if err := s.requireTestEditor(ctx, test, actingUserID); err != nil {
		return nil, err
	}
	if err := s.requireNoAttempts(ctx, question.TestID); err != nil {
		return nil, err
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.Position != nil {
		question.Position = *req.Position
	}
	if req.Explanation != nil {
		question.Explanation = req.Explanation
	}

	var newOptions []models.Option
	if req.Options != nil {
		newOptions = make([]models.Option, len(req.Options))
		for i, o := range req.Options {
			newOptions[i] = models.Option{
				Text:      o.Text,
				IsCorrect: o.IsCorrect,
				Position:  o.Position,
			}
		}
		if verrs := s.validator.ValidateQuestionOptions(question.Type, newOptions); len(verrs) > 0 {
			return nil, verrs
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Question().Update(ctx, tx, question); err != nil {
			return err
		}
		if req.Options != nil {
			if err := s.repo.Question().ReplaceOptions(ctx, tx, question.ID, newOptions); err != nil {
				return err
			}
			question.Options = newOptions
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, actingUserID string) error {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		return notFound(err, ErrQuestionNotFound)
	}

	test, err := s.repo.Test().GetByID(ctx, nil, question.TestID)
	if err != nil {
		return notFound(err, ErrTestNotFound)
	}
	if err := s.requireTestEditor(ctx, test, actingUserID); err != nil {
		return err
	}
	if err := s.requireNoAttempts(ctx, question.TestID); err != nil {
		return err
	}

	return s.repo.Question().Delete(ctx, nil, id)
}

func (s *questionService) ListByTest(ctx context.Context, testID uint, actingUserID string) ([]*models.Question, error) {
	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	questions, err := s.repo.Question().GetByTest(ctx, nil, testID)
	if err != nil {
		return nil, err
	}

	if err := s.requireTestEditor(ctx, test, actingUserID); err != nil {
		for _, q := range questions {
			for i := range q.Options {
				q.Options[i].IsCorrect = false
			}
			q.Explanation = nil
		}
	}

	return questions, nil
}

// ===== INTERNAL =====

func (s *questionService) requireTestEditor(ctx context.Context, test *models.Test, userID string) error {
	if test.CreatedBy == userID {
		return nil
	}
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if user.Role != models.RoleAdmin {
		return NewPermissionError(userID, "edit questions of this test")
	}
	return nil
}

// requireNoAttempts keeps questions immutable once students took the test,
// so stored attempt totals stay consistent.
func (s *questionService) requireNoAttempts(ctx context.Context, testID uint) error {
	hasAttempts, err := s.repo.Test().HasAttempts(ctx, nil, testID)
	if err != nil {
		return err
	}
	if hasAttempts {
		return ErrTestHasAttempts
	}
	return nil
}
