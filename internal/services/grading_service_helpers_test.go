package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
)

func optID(id uint) *uint { return &id }

func points(p float64) *float64 { return &p }

func choiceQuestion(id uint, qPoints float64, correctOptionID uint, optionIDs ...uint) *models.Question {
	q := &models.Question{
		Type:   models.MultipleChoice,
		Points: qPoints,
	}
	q.ID = id
	for _, oid := range optionIDs {
		opt := models.Option{IsCorrect: oid == correctOptionID}
		opt.ID = oid
		q.Options = append(q.Options, opt)
	}
	return q
}

func TestScoreChoiceAnswer(t *testing.T) {
	question := choiceQuestion(1, 5, 10, 10, 11, 12)

	tests := []struct {
		name        string
		answer      *models.Answer
		wantPoints  float64
		wantCorrect bool
	}{
		{
			name:        "correct option earns full points",
			answer:      &models.Answer{SelectedOptionID: optID(10)},
			wantPoints:  5,
			wantCorrect: true,
		},
		{
			name:        "wrong option earns zero",
			answer:      &models.Answer{SelectedOptionID: optID(11)},
			wantPoints:  0,
			wantCorrect: false,
		},
		{
			name:        "unanswered earns zero",
			answer:      &models.Answer{},
			wantPoints:  0,
			wantCorrect: false,
		},
		{
			name:        "option from another question earns zero",
			answer:      &models.Answer{SelectedOptionID: optID(99)},
			wantPoints:  0,
			wantCorrect: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPoints, gotCorrect := scoreChoiceAnswer(question, tt.answer)
			assert.Equal(t, tt.wantPoints, gotPoints)
			assert.Equal(t, tt.wantCorrect, gotCorrect)
		})
	}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name         string
		questions    []*models.Question
		answers      []*models.Answer
		passingScore float64
		want         attemptTotals
	}{
		{
			name: "half correct on two equal questions",
			questions: []*models.Question{
				choiceQuestion(1, 5, 10, 10, 11),
				choiceQuestion(2, 5, 20, 20, 21),
			},
			answers: []*models.Answer{
				{PointsEarned: points(5)},
				{PointsEarned: points(0)},
			},
			passingScore: 50,
			want:         attemptTotals{Score: 5, TotalPoints: 10, Percentage: 50, Passed: true},
		},
		{
			name: "boundary percentage passes",
			questions: []*models.Question{
				choiceQuestion(1, 10, 10, 10, 11),
			},
			answers: []*models.Answer{
				{PointsEarned: points(7)},
			},
			passingScore: 70,
			want:         attemptTotals{Score: 7, TotalPoints: 10, Percentage: 70, Passed: true},
		},
		{
			name: "just below boundary fails",
			questions: []*models.Question{
				choiceQuestion(1, 10, 10, 10, 11),
			},
			answers: []*models.Answer{
				{PointsEarned: points(6.9)},
			},
			passingScore: 70,
			want:         attemptTotals{Score: 6.9, TotalPoints: 10, Percentage: 69, Passed: false},
		},
		{
			name:         "zero point test yields zero percentage",
			questions:    nil,
			answers:      nil,
			passingScore: 50,
			want:         attemptTotals{Score: 0, TotalPoints: 0, Percentage: 0, Passed: false},
		},
		{
			name: "unanswered questions still count toward the denominator",
			questions: []*models.Question{
				choiceQuestion(1, 5, 10, 10, 11),
				choiceQuestion(2, 5, 20, 20, 21),
			},
			answers: []*models.Answer{
				{PointsEarned: points(5)},
				{PointsEarned: nil},
			},
			passingScore: 60,
			want:         attemptTotals{Score: 5, TotalPoints: 10, Percentage: 50, Passed: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeTotals(tt.questions, tt.answers, tt.passingScore)
			assert.InDelta(t, tt.want.Score, got.Score, 1e-9)
			assert.InDelta(t, tt.want.TotalPoints, got.TotalPoints, 1e-9)
			assert.InDelta(t, tt.want.Percentage, got.Percentage, 1e-9)
			assert.Equal(t, tt.want.Passed, got.Passed)
		})
	}
}

func TestComputeTotalsIdempotent(t *testing.T) {
	questions := []*models.Question{
		choiceQuestion(1, 3, 10, 10, 11),
		choiceQuestion(2, 7, 20, 20, 21),
	}
	answers := []*models.Answer{
		{PointsEarned: points(3)},
		{PointsEarned: points(7)},
	}

	first := computeTotals(questions, answers, 80)
	second := computeTotals(questions, answers, 80)
	assert.Equal(t, first, second)
	assert.True(t, first.Passed)
	assert.InDelta(t, 100, first.Percentage, 1e-9)
}

func TestHasUngradedAnswers(t *testing.T) {
	assert.False(t, hasUngradedAnswers(nil))
	assert.False(t, hasUngradedAnswers([]*models.Answer{{PointsEarned: points(0)}}))
	assert.True(t, hasUngradedAnswers([]*models.Answer{
		{PointsEarned: points(5)},
		{PointsEarned: nil},
	}))
}

func TestQuestionsByID(t *testing.T) {
	q1 := choiceQuestion(1, 5, 10, 10)
	q2 := choiceQuestion(2, 5, 20, 20)

	index := questionsByID([]*models.Question{q1, q2})
	assert.Len(t, index, 2)
	assert.Same(t, q1, index[1])
	assert.Same(t, q2, index[2])
	assert.Nil(t, index[3])
}
