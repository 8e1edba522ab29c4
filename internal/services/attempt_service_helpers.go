package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
)

// eligibilityError maps a failed start condition onto its typed error.
func (s *attemptService) eligibilityError(test *models.Test, attemptCount int) error {
	if test.Status != models.StatusActive {
		return ErrTestNotActive
	}
	if !test.AvailableAt(time.Now()) {
		return ErrTestNotAvailable
	}
	if attemptCount >= test.MaxAttempts {
		return ErrAttemptLimitExceeded
	}
	return nil
}

// attemptExpired reports whether the attempt ran past the test duration.
func (s *attemptService) attemptExpired(attempt *models.TestAttempt, test *models.Test) bool {
	if attempt.Status != models.AttemptInProgress {
		return false
	}
	deadline := attempt.StartedAt.Add(time.Duration(test.DurationMinutes) * time.Minute)
	return time.Now().After(deadline)
}

// finishExpired submits an attempt whose time ran out and auto-grades
// whatever was answered.
func (s *attemptService) finishExpired(ctx context.Context, attempt *models.TestAttempt) (*AttemptGradingResult, error) {
	s.logger.Info("Attempt time expired, submitting", "attempt_id", attempt.ID)

	now := time.Now()
	attempt.Status = models.AttemptSubmitted
	attempt.SubmittedAt = &now

	if err := s.repo.Attempt().Update(ctx, nil, attempt); err != nil {
		return nil, err
	}

	return s.grading.AutoGradeAttempt(ctx, attempt.ID)
}

// initializeAttemptAnswers creates one empty answer row per question so
// grading and progress queries never deal with missing rows.
func (s *attemptService) initializeAttemptAnswers(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error {
	questions, err := s.repo.Question().GetByTest(ctx, tx, attempt.TestID)
	if err != nil {
		return err
	}

	answers := make([]*models.Answer, 0, len(questions))
	for _, q := range questions {
		answers = append(answers, &models.Answer{
			AttemptID:  attempt.ID,
			QuestionID: q.ID,
		})
	}

	return s.repo.Answer().CreateBatch(ctx, tx, answers)
}

// canAccessAttempt allows the attempt owner and graders.
func (s *attemptService) canAccessAttempt(ctx context.Context, attempt *models.TestAttempt, userID string) error {
	if attempt.UserID == userID {
		return nil
	}
	return s.requireGrader(ctx, userID, "view this attempt")
}

func (s *attemptService) requireGrader(ctx context.Context, userID, action string) error {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if !user.Role.CanGrade() {
		return NewPermissionError(userID, action)
	}
	return nil
}

func (s *attemptService) buildAttemptResponse(attempt *models.TestAttempt, test *models.Test) *AttemptResponse {
	resp := &AttemptResponse{
		Attempt:   attempt,
		CanSubmit: attempt.Status == models.AttemptInProgress,
	}

	if attempt.Status == models.AttemptInProgress {
		deadline := attempt.StartedAt.Add(time.Duration(test.DurationMinutes) * time.Minute)
		remaining := int(time.Until(deadline).Seconds())
		if remaining < 0 {
			remaining = 0
			resp.CanSubmit = false
		}
		resp.RemainingSeconds = &remaining
	}

	return resp
}

// sanitizeAttempt strips grading data a student must not see while the
// attempt is still in progress.
func sanitizeAttempt(attempt *models.TestAttempt) {
	for i := range attempt.Answers {
		answer := &attempt.Answers[i]
		answer.IsCorrect = nil
		answer.PointsEarned = nil
		if answer.Question == nil {
			continue
		}
		for j := range answer.Question.Options {
			answer.Question.Options[j].IsCorrect = false
		}
		answer.Question.Explanation = nil
	}
}
