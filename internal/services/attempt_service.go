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

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	grading   GradingService
	publisher events.EventPublisher
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, grading GradingService, publisher events.EventPublisher) AttemptService {
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		grading:   grading,
		publisher: publisher,
	}
}

// CanUserAttempt answers whether the user could start an attempt right now.
// It never mutates state, so handlers can poll it freely.
func (s *attemptService) CanUserAttempt(ctx context.Context, testID uint, userID string) (*Eligibility, error) {
	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	count, err := s.repo.Attempt().CountByUserAndTest(ctx, nil, userID, testID)
	if err != nil {
		return nil, err
	}

	eligibility := &Eligibility{
		CanAttempt:   true,
		AttemptsUsed: count,
		MaxAttempts:  test.MaxAttempts,
	}

	if verrs := s.validator.ValidateAttemptStart(test, count, time.Now()); len(verrs) > 0 {
		eligibility.CanAttempt = false
		eligibility.Reason = verrs[0].Message
	}

	return eligibility, nil
}

// Start begins a new attempt, or resumes the user's attempt that is still
// in progress. Creation and answer-row initialization happen in one
// transaction; a concurrent duplicate start loses on the unique index.
func (s *attemptService) Start(ctx context.Context, testID uint, actingUserID string) (*AttemptResponse, error) {
	s.logger.Info("Starting attempt", "test_id", testID, "user_id", actingUserID)

	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	// Resume before eligibility: an in-progress attempt belongs to the
	// user even when the window closed meanwhile.
	if active, err := s.repo.Attempt().GetActiveAttempt(ctx, nil, actingUserID, testID); err != nil {
		return nil, err
	} else if active != nil {
		if s.attemptExpired(active, test) {
			if _, err := s.finishExpired(ctx, active); err != nil {
				return nil, err
			}
		} else {
			s.logger.Info("Resuming attempt", "attempt_id", active.ID, "user_id", actingUserID)
			return s.buildAttemptResponse(active, test), nil
		}
	}

	count, err := s.repo.Attempt().CountByUserAndTest(ctx, nil, actingUserID, testID)
	if err != nil {
		return nil, err
	}

	if err := s.eligibilityError(test, count); err != nil {
		return nil, err
	}

	attempt := &models.TestAttempt{
		TestID:        testID,
		UserID:        actingUserID,
		AttemptNumber: count + 1,
		Status:        models.AttemptInProgress,
		StartedAt:     time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Attempt().Create(ctx, tx, attempt); err != nil {
			return err
		}
		return s.initializeAttemptAnswers(ctx, tx, attempt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateAttempt
		}
		return nil, err
	}

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID,
		"attempt_number", attempt.AttemptNumber,
		"user_id", actingUserID)

	return s.buildAttemptResponse(attempt, test), nil
}

// SubmitAnswer upserts the student's response to one question of their
// own in-progress attempt.
func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, actingUserID string) error {
	if verrs := s.validator.Struct(req); len(verrs) > 0 {
		return verrs
	}
	if (req.SelectedOptionID == nil) == (req.WrittenAnswer == nil) {
		return NewValidationError("answer", "exactly one of selected_option_id or written_answer must be set", nil)
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		return notFound(err, ErrAttemptNotFound)
	}
	if attempt.UserID != actingUserID {
		return NewPermissionError(actingUserID, "answer this attempt")
	}
	if attempt.Status != models.AttemptInProgress {
		return ErrAttemptNotActive
	}

	test, err := s.repo.Test().GetByID(ctx, nil, attempt.TestID)
	if err != nil {
		return notFound(err, ErrTestNotFound)
	}
	if s.attemptExpired(attempt, test) {
		if _, err := s.finishExpired(ctx, attempt); err != nil {
			return err
		}
		return ErrAttemptNotActive
	}

	question, err := s.repo.Question().GetByID(ctx, nil, req.QuestionID)
	if err != nil {
		return notFound(err, ErrQuestionNotFound)
	}
	if question.TestID != attempt.TestID {
		return ErrQuestionNotInTest
	}

	if req.SelectedOptionID != nil {
		if question.Type == models.Written {
			return NewValidationError("selected_option_id", "written questions take a written answer", *req.SelectedOptionID)
		}
		option, err := s.repo.Question().GetOption(ctx, nil, *req.SelectedOptionID)
		if err != nil {
			return notFound(err, ErrOptionNotFound)
		}
		if option.QuestionID != question.ID {
			return ErrOptionNotInQuestion
		}
	} else if question.Type != models.Written {
		return NewValidationError("written_answer", "choice questions take a selected option", nil)
	}

	answer := &models.Answer{
		AttemptID:        attemptID,
		QuestionID:       req.QuestionID,
		SelectedOptionID: req.SelectedOptionID,
		WrittenAnswer:    req.WrittenAnswer,
	}

	return s.repo.Answer().Upsert(ctx, nil, answer)
}

// Submit closes the attempt and triggers auto grading.
func (s *attemptService) Submit(ctx context.Context, attemptID uint, actingUserID string) (*AttemptGradingResult, error) {
	s.logger.Info("Submitting attempt", "attempt_id", attemptID, "user_id", actingUserID)

	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		return nil, notFound(err, ErrAttemptNotFound)
	}
	if attempt.UserID != actingUserID {
		return nil, NewPermissionError(actingUserID, "submit this attempt")
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptNotActive
	}

	now := time.Now()
	attempt.Status = models.AttemptSubmitted
	attempt.SubmittedAt = &now

	if err := s.repo.Attempt().Update(ctx, nil, attempt); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.TopicAttemptSubmitted, events.AttemptSubmittedEvent{
		AttemptID:   attempt.ID,
		TestID:      attempt.TestID,
		UserID:      attempt.UserID,
		SubmittedAt: now,
	}); err != nil {
		s.logger.Warn("Failed to publish submitted event", "attempt_id", attempt.ID, "error", err)
	}

	return s.grading.AutoGradeAttempt(ctx, attemptID)
}

// ===== READS =====

func (s *attemptService) GetByID(ctx context.Context, attemptID uint, actingUserID string) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		return nil, notFound(err, ErrAttemptNotFound)
	}

	if err := s.canAccessAttempt(ctx, attempt, actingUserID); err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByID(ctx, nil, attempt.TestID)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	return s.buildAttemptResponse(attempt, test), nil
}

func (s *attemptService) GetByIDWithAnswers(ctx context.Context, attemptID uint, actingUserID string) (*models.TestAttempt, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, nil, attemptID)
	if err != nil {
		return nil, notFound(err, ErrAttemptNotFound)
	}

	if err := s.canAccessAttempt(ctx, attempt, actingUserID); err != nil {
		return nil, err
	}

	if attempt.UserID == actingUserID && attempt.Status == models.AttemptInProgress {
		sanitizeAttempt(attempt)
	}

	return attempt, nil
}

func (s *attemptService) ListByUser(ctx context.Context, userID string, filters repositories.AttemptFilters, actingUserID string) ([]*models.TestAttempt, int64, error) {
	if userID != actingUserID {
		if err := s.requireGrader(ctx, actingUserID, "list attempts of other users"); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.Attempt().GetByUser(ctx, nil, userID, filters)
}

func (s *attemptService) ListByTest(ctx context.Context, testID uint, filters repositories.AttemptFilters, actingUserID string) ([]*models.TestAttempt, int64, error) {
	if err := s.requireGrader(ctx, actingUserID, "list attempts of a test"); err != nil {
		return nil, 0, err
	}

	if _, err := s.repo.Test().GetByID(ctx, nil, testID); err != nil {
		return nil, 0, notFound(err, ErrTestNotFound)
	}

	return s.repo.Attempt().GetByTest(ctx, nil, testID, filters)
}
