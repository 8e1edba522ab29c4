package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/events"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/repositories"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/validator"
)

// Stub repositories for exercising the pre-transaction checks. Embedding the
// interface keeps the stubs small; any call outside the overridden methods
// panics and fails the test.

type stubRepository struct {
	repositories.Repository
	user    repositories.UserRepository
	answer  repositories.AnswerRepository
	attempt repositories.AttemptRepository
}

func (s *stubRepository) User() repositories.UserRepository       { return s.user }
func (s *stubRepository) Answer() repositories.AnswerRepository   { return s.answer }
func (s *stubRepository) Attempt() repositories.AttemptRepository { return s.attempt }

type stubUserRepo struct {
	repositories.UserRepository
	user *models.User
}

func (s *stubUserRepo) GetByID(_ context.Context, _ string) (*models.User, error) {
	return s.user, nil
}

type stubAnswerRepo struct {
	repositories.AnswerRepository
	answer *models.Answer
}

func (s *stubAnswerRepo) GetByIDWithQuestion(_ context.Context, _ *gorm.DB, _ uint) (*models.Answer, error) {
	return s.answer, nil
}

type stubAttemptRepo struct {
	repositories.AttemptRepository
	attempt *models.TestAttempt
}

func (s *stubAttemptRepo) GetByID(_ context.Context, _ *gorm.DB, _ uint) (*models.TestAttempt, error) {
	return s.attempt, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newGradingServiceForTest(repo repositories.Repository) GradingService {
	logger := testLogger()
	return NewGradingService(repo, nil, logger, validator.New(), events.NewMockEventPublisher(logger))
}

func writtenAnswer(answerID, questionID uint, maxPoints float64) *models.Answer {
	question := &models.Question{
		Type:   models.Written,
		Points: maxPoints,
	}
	question.ID = questionID

	answer := &models.Answer{
		AttemptID:  1,
		QuestionID: questionID,
		Question:   question,
	}
	answer.ID = answerID
	return answer
}

func TestNewGradingService(t *testing.T) {
	type args struct {
		repo      repositories.Repository
		db        *gorm.DB
		logger    *slog.Logger
		validator *validator.Validator
	}
	tests := []struct {
		name string
		args args
	}{
		{name: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewGradingService(tt.args.repo, tt.args.db, testLogger(), tt.args.validator, nil)
			assert.NotNil(t, svc)
		})
	}
}

func TestManualGrade_StudentForbidden(t *testing.T) {
	repo := &stubRepository{
		user: &stubUserRepo{user: &models.User{ID: "student-1", Role: models.RoleStudent}},
	}
	svc := newGradingServiceForTest(repo)

	_, err := svc.ManualGrade(context.Background(), 1, &ManualGradeRequest{Points: 5}, "student-1")

	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
}

func TestManualGrade_RejectsOutOfRangePoints(t *testing.T) {
	tests := []struct {
		name   string
		points float64
	}{
		{name: "negative points", points: -1},
		{name: "points above question maximum", points: 10.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepository{
				user:   &stubUserRepo{user: &models.User{ID: "grader-1", Role: models.RoleInstructor}},
				answer: &stubAnswerRepo{answer: writtenAnswer(1, 2, 10)},
			}
			svc := newGradingServiceForTest(repo)

			_, err := svc.ManualGrade(context.Background(), 1, &ManualGradeRequest{Points: tt.points}, "grader-1")

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, "points", verrs[0].Field)
		})
	}
}

func TestManualGrade_AttemptStillInProgress(t *testing.T) {
	repo := &stubRepository{
		user:    &stubUserRepo{user: &models.User{ID: "grader-1", Role: models.RoleInstructor}},
		answer:  &stubAnswerRepo{answer: writtenAnswer(1, 2, 10)},
		attempt: &stubAttemptRepo{attempt: &models.TestAttempt{Status: models.AttemptInProgress}},
	}
	svc := newGradingServiceForTest(repo)

	_, err := svc.ManualGrade(context.Background(), 1, &ManualGradeRequest{Points: 5}, "grader-1")
	assert.ErrorIs(t, err, ErrAttemptNotSubmitted)
}

func TestFinalizeGrading_StudentForbidden(t *testing.T) {
	repo := &stubRepository{
		user: &stubUserRepo{user: &models.User{ID: "student-1", Role: models.RoleStudent}},
	}
	svc := newGradingServiceForTest(repo)

	_, err := svc.FinalizeGrading(context.Background(), 1, "student-1")

	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
}
