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

type gradingService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewGradingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) GradingService {
	return &gradingService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// ===== AUTO GRADING =====

// AutoGradeAttempt grades every choice answer of a submitted attempt and
// recomputes its totals. The attempt moves to graded only when nothing is
// left for manual grading.
func (s *gradingService) AutoGradeAttempt(ctx context.Context, attemptID uint) (*AttemptGradingResult, error) {
	s.logger.Info("Auto-grading attempt", "attempt_id", attemptID)

	var result *AttemptGradingResult

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			s.logger.Error("Panic during grading, rolled back", "attempt_id", attemptID, "panic", r)
		}
	}()

	attempt, err := s.repo.Attempt().GetByID(ctx, tx, attemptID)
	if err != nil {
		tx.Rollback()
		return nil, notFound(err, ErrAttemptNotFound)
	}

	if attempt.Status == models.AttemptInProgress {
		tx.Rollback()
		return nil, ErrAttemptNotSubmitted
	}

	test, err := s.repo.Test().GetByID(ctx, tx, attempt.TestID)
	if err != nil {
		tx.Rollback()
		return nil, notFound(err, ErrTestNotFound)
	}

	result, err = s.gradeAttemptInTx(ctx, tx, attempt, test)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if attempt.Status == models.AttemptGraded {
		s.publishGraded(ctx, attempt)
	}

	s.logger.Info("Attempt auto-graded",
		"attempt_id", attemptID,
		"score", result.Score,
		"percentage", result.Percentage,
		"manual_pending", result.RequiresManualGrading)

	return result, nil
}

// gradeAttemptInTx does the per-answer scoring and the aggregate update.
// The attempt struct is mutated to reflect the stored state.
func (s *gradingService) gradeAttemptInTx(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt, test *models.Test) (*AttemptGradingResult, error) {
	questions, err := s.repo.Question().GetByTest(ctx, tx, attempt.TestID)
	if err != nil {
		return nil, err
	}

	answers, err := s.repo.Answer().GetByAttempt(ctx, tx, attempt.ID)
	if err != nil {
		return nil, err
	}

	qIndex := questionsByID(questions)
	now := time.Now()

	var results []GradingResult
	for _, answer := range answers {
		question, ok := qIndex[answer.QuestionID]
		if !ok {
			// Question was removed after the attempt started. It no
			// longer counts toward the total, so skip its answer.
			continue
		}

		if !question.Type.AutoGradable() {
			continue
		}

		points, correct := scoreChoiceAnswer(question, answer)
		answer.PointsEarned = &points
		answer.IsCorrect = &correct
		answer.GradedAt = &now
		answer.GradedBy = nil

		if err := s.repo.Answer().Update(ctx, tx, answer); err != nil {
			return nil, err
		}

		results = append(results, GradingResult{
			AnswerID:     answer.ID,
			QuestionID:   question.ID,
			PointsEarned: points,
			MaxPoints:    question.Points,
			IsCorrect:    answer.IsCorrect,
		})
	}

	totals := computeTotals(questions, answers, test.PassingScore)
	manualPending := hasUngradedAnswers(answers)

	attempt.Score = totals.Score
	attempt.TotalPoints = totals.TotalPoints
	attempt.Percentage = totals.Percentage
	attempt.Passed = totals.Passed

	if !manualPending && attempt.Status != models.AttemptGraded {
		attempt.Status = models.AttemptGraded
		attempt.GradedAt = &now
	}

	if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
		return nil, err
	}

	return &AttemptGradingResult{
		AttemptID:             attempt.ID,
		Score:                 totals.Score,
		TotalPoints:           totals.TotalPoints,
		Percentage:            totals.Percentage,
		Passed:                totals.Passed,
		RequiresManualGrading: manualPending,
		Results:               results,
	}, nil
}

// ===== MANUAL GRADING =====

// ManualGrade records an instructor's score for one answer. Points outside
// [0, question.points] are rejected. The attempt's totals are recomputed
// but its status is not advanced; FinalizeGrading does that explicitly.
func (s *gradingService) ManualGrade(ctx context.Context, answerID uint, req *ManualGradeRequest, actingUserID string) (*GradingResult, error) {
	s.logger.Info("Manually grading answer", "answer_id", answerID, "grader_id", actingUserID)

	if err := s.checkGradingPermission(ctx, actingUserID); err != nil {
		return nil, err
	}
	if verrs := s.validator.Struct(req); len(verrs) > 0 {
		return nil, verrs
	}

	answer, err := s.repo.Answer().GetByIDWithQuestion(ctx, nil, answerID)
	if err != nil {
		return nil, notFound(err, ErrAnswerNotFound)
	}
	if answer.Question == nil {
		return nil, ErrQuestionNotFound
	}

	if verrs := s.validator.ValidateManualGrade(req.Points, answer.Question.Points); len(verrs) > 0 {
		return nil, verrs
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, nil, answer.AttemptID)
	if err != nil {
		return nil, notFound(err, ErrAttemptNotFound)
	}
	if attempt.Status == models.AttemptInProgress {
		return nil, ErrAttemptNotSubmitted
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		grade := repositories.AnswerGrade{
			ID:       answerID,
			Points:   req.Points,
			Feedback: req.Feedback,
			GraderID: actingUserID,
		}
		if err := s.repo.Answer().ApplyGrade(ctx, tx, grade); err != nil {
			return err
		}
		return s.recomputeAttemptInTx(ctx, tx, attempt.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Answer graded",
		"answer_id", answerID,
		"points", req.Points,
		"grader_id", actingUserID)

	return &GradingResult{
		AnswerID:     answerID,
		QuestionID:   answer.QuestionID,
		PointsEarned: req.Points,
		MaxPoints:    answer.Question.Points,
	}, nil
}

// FinalizeGrading moves a fully graded attempt from submitted to graded.
// It fails when the attempt is in any other state or when answers are
// still waiting for a manual grade.
func (s *gradingService) FinalizeGrading(ctx context.Context, attemptID uint, actingUserID string) (*AttemptGradingResult, error) {
	s.logger.Info("Finalizing grading", "attempt_id", attemptID, "grader_id", actingUserID)

	if err := s.checkGradingPermission(ctx, actingUserID); err != nil {
		return nil, err
	}

	var result *AttemptGradingResult
	var attempt *models.TestAttempt

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attempt, err = s.repo.Attempt().GetByID(ctx, tx, attemptID)
		if err != nil {
			return notFound(err, ErrAttemptNotFound)
		}

		switch attempt.Status {
		case models.AttemptGraded:
			return ErrAttemptAlreadyGraded
		case models.AttemptInProgress:
			return ErrAttemptNotSubmitted
		}

		answers, err := s.repo.Answer().GetByAttempt(ctx, tx, attempt.ID)
		if err != nil {
			return err
		}
		if hasUngradedAnswers(answers) {
			return ErrGradingIncomplete
		}

		test, err := s.repo.Test().GetByID(ctx, tx, attempt.TestID)
		if err != nil {
			return notFound(err, ErrTestNotFound)
		}
		questions, err := s.repo.Question().GetByTest(ctx, tx, attempt.TestID)
		if err != nil {
			return err
		}

		totals := computeTotals(questions, answers, test.PassingScore)
		now := time.Now()

		attempt.Score = totals.Score
		attempt.TotalPoints = totals.TotalPoints
		attempt.Percentage = totals.Percentage
		attempt.Passed = totals.Passed
		attempt.Status = models.AttemptGraded
		attempt.GradedAt = &now

		if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
			return err
		}

		result = &AttemptGradingResult{
			AttemptID:   attempt.ID,
			Score:       totals.Score,
			TotalPoints: totals.TotalPoints,
			Percentage:  totals.Percentage,
			Passed:      totals.Passed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishGraded(ctx, attempt)

	return result, nil
}

// RegradeAttempt re-runs auto grading against the current correct options
// and recomputes totals. Manual grades are kept. Useful after an option
// was fixed.
func (s *gradingService) RegradeAttempt(ctx context.Context, attemptID uint, actingUserID string) (*AttemptGradingResult, error) {
	s.logger.Info("Regrading attempt", "attempt_id", attemptID, "grader_id", actingUserID)

	if err := s.checkGradingPermission(ctx, actingUserID); err != nil {
		return nil, err
	}

	var result *AttemptGradingResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := s.repo.Attempt().GetByID(ctx, tx, attemptID)
		if err != nil {
			return notFound(err, ErrAttemptNotFound)
		}
		if attempt.Status == models.AttemptInProgress {
			return ErrAttemptNotSubmitted
		}

		test, err := s.repo.Test().GetByID(ctx, tx, attempt.TestID)
		if err != nil {
			return notFound(err, ErrTestNotFound)
		}

		result, err = s.gradeAttemptInTx(ctx, tx, attempt, test)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ===== REPORTING =====

func (s *gradingService) GetGradingStats(ctx context.Context, testID uint, actingUserID string) (*repositories.GradingStats, error) {
	if err := s.checkGradingPermission(ctx, actingUserID); err != nil {
		return nil, err
	}

	if _, err := s.repo.Test().GetByID(ctx, nil, testID); err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	return s.repo.Attempt().GetGradingStats(ctx, nil, testID)
}

// ListResults returns the graded attempts of a test with user names resolved.
func (s *gradingService) ListResults(ctx context.Context, testID uint, actingUserID string) ([]*TestResult, error) {
	if err := s.checkGradingPermission(ctx, actingUserID); err != nil {
		return nil, err
	}

	if _, err := s.repo.Test().GetByID(ctx, nil, testID); err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	graded := models.AttemptGraded
	attempts, _, err := s.repo.Attempt().GetByTest(ctx, nil, testID, repositories.AttemptFilters{
		Status:    &graded,
		SortBy:    "percentage",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(attempts))
	seen := make(map[string]bool)
	for _, a := range attempts {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			userIDs = append(userIDs, a.UserID)
		}
	}

	users, err := s.repo.User().GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}

	results := make([]*TestResult, 0, len(attempts))
	for _, a := range attempts {
		results = append(results, &TestResult{
			AttemptID:     a.ID,
			UserID:        a.UserID,
			UserName:      names[a.UserID],
			AttemptNumber: a.AttemptNumber,
			Score:         a.Score,
			TotalPoints:   a.TotalPoints,
			Percentage:    a.Percentage,
			Passed:        a.Passed,
			SubmittedAt:   a.SubmittedAt,
			GradedAt:      a.GradedAt,
		})
	}

	return results, nil
}

// ===== INTERNAL =====

func (s *gradingService) checkGradingPermission(ctx context.Context, userID string) error {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if !user.Role.CanGrade() {
		return NewPermissionError(userID, "grade answers")
	}
	return nil
}

// recomputeAttemptInTx refreshes an attempt's aggregate after a grade
// changed. Status is left alone.
func (s *gradingService) recomputeAttemptInTx(ctx context.Context, tx *gorm.DB, attemptID uint) error {
	attempt, err := s.repo.Attempt().GetByID(ctx, tx, attemptID)
	if err != nil {
		return err
	}

	test, err := s.repo.Test().GetByID(ctx, tx, attempt.TestID)
	if err != nil {
		return err
	}
	questions, err := s.repo.Question().GetByTest(ctx, tx, attempt.TestID)
	if err != nil {
		return err
	}
	answers, err := s.repo.Answer().GetByAttempt(ctx, tx, attempt.ID)
	if err != nil {
		return err
	}

	totals := computeTotals(questions, answers, test.PassingScore)
	attempt.Score = totals.Score
	attempt.TotalPoints = totals.TotalPoints
	attempt.Percentage = totals.Percentage
	attempt.Passed = totals.Passed

	return s.repo.Attempt().Update(ctx, tx, attempt)
}

func (s *gradingService) publishGraded(ctx context.Context, attempt *models.TestAttempt) {
	gradedAt := time.Now()
	if attempt.GradedAt != nil {
		gradedAt = *attempt.GradedAt
	}

	err := s.publisher.Publish(ctx, events.TopicAttemptGraded, events.AttemptGradedEvent{
		AttemptID:  attempt.ID,
		TestID:     attempt.TestID,
		UserID:     attempt.UserID,
		Score:      attempt.Score,
		Percentage: attempt.Percentage,
		Passed:     attempt.Passed,
		GradedAt:   gradedAt,
	})
	if err != nil {
		s.logger.Warn("Failed to publish graded event", "attempt_id", attempt.ID, "error", err)
	}
}
