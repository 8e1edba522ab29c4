package services

import (
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
)

// The scoring core is kept free of database access so it can be verified
// in isolation.

// scoreChoiceAnswer grades a multiple choice or true/false answer. Full
// points when the selected option is marked correct, zero otherwise. An
// unanswered question scores zero and incorrect.
func scoreChoiceAnswer(question *models.Question, answer *models.Answer) (float64, bool) {
	if answer.SelectedOptionID == nil {
		return 0, false
	}
	for _, opt := range question.Options {
		if opt.ID == *answer.SelectedOptionID {
			if opt.IsCorrect {
				return question.Points, true
			}
			return 0, false
		}
	}
	// Selected option not among the question's options. Treat as wrong
	// rather than failing the whole grading pass.
	return 0, false
}

// attemptTotals holds the recomputed aggregate of one attempt.
type attemptTotals struct {
	Score       float64
	TotalPoints float64
	Percentage  float64
	Passed      bool
}

// computeTotals recomputes an attempt's aggregate from its answers and the
// test's current questions. TotalPoints sums over questions, not answers,
// so unanswered questions still count toward the denominator. A zero-point
// test yields percentage 0. Running it twice gives the same result.
func computeTotals(questions []*models.Question, answers []*models.Answer, passingScore float64) attemptTotals {
	var totals attemptTotals

	for _, q := range questions {
		totals.TotalPoints += q.Points
	}

	for _, a := range answers {
		if a.PointsEarned != nil {
			totals.Score += *a.PointsEarned
		}
	}

	if totals.TotalPoints > 0 {
		totals.Percentage = totals.Score / totals.TotalPoints * 100
	}
	totals.Passed = totals.Percentage >= passingScore

	return totals
}

// hasUngradedAnswers reports whether any answer still lacks a grade.
func hasUngradedAnswers(answers []*models.Answer) bool {
	for _, a := range answers {
		if a.PointsEarned == nil {
			return true
		}
	}
	return false
}

// questionsByID indexes a test's questions for grading lookups.
func questionsByID(questions []*models.Question) map[uint]*models.Question {
	m := make(map[uint]*models.Question, len(questions))
	for _, q := range questions {
		m[q.ID] = q
	}
	return m
}
