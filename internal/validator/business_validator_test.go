package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/models"
)

func activeTest(maxAttempts int) *models.Test {
	return &models.Test{
		Status:      models.StatusActive,
		MaxAttempts: maxAttempts,
	}
}

func TestValidateAttemptStart(t *testing.T) {
	v := New()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name         string
		test         *models.Test
		attemptCount int
		wantFields   []string
	}{
		{
			name:         "active test within limits",
			test:         activeTest(3),
			attemptCount: 2,
			wantFields:   nil,
		},
		{
			name: "draft test is not startable",
			test: &models.Test{
				Status:      models.StatusDraft,
				MaxAttempts: 3,
			},
			attemptCount: 0,
			wantFields:   []string{"test_status"},
		},
		{
			name: "test window not yet open",
			test: &models.Test{
				Status:      models.StatusActive,
				MaxAttempts: 3,
				StartsAt:    &future,
			},
			attemptCount: 0,
			wantFields:   []string{"availability"},
		},
		{
			name: "test window already closed",
			test: &models.Test{
				Status:      models.StatusActive,
				MaxAttempts: 3,
				EndsAt:      &past,
			},
			attemptCount: 0,
			wantFields:   []string{"availability"},
		},
		{
			name:         "attempt limit reached",
			test:         activeTest(3),
			attemptCount: 3,
			wantFields:   []string{"attempts"},
		},
		{
			name: "archived and exhausted reports both",
			test: &models.Test{
				Status:      models.StatusArchived,
				MaxAttempts: 1,
			},
			attemptCount: 1,
			wantFields:   []string{"test_status", "attempts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateAttemptStart(tt.test, tt.attemptCount, now)

			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidateStatusTransition(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		current models.TestStatus
		next    models.TestStatus
		wantOK  bool
	}{
		{name: "draft to active", current: models.StatusDraft, next: models.StatusActive, wantOK: true},
		{name: "active to archived", current: models.StatusActive, next: models.StatusArchived, wantOK: true},
		{name: "draft to archived", current: models.StatusDraft, next: models.StatusArchived, wantOK: false},
		{name: "active to draft", current: models.StatusActive, next: models.StatusDraft, wantOK: false},
		{name: "archived is terminal", current: models.StatusArchived, next: models.StatusActive, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateStatusTransition(tt.current, tt.next)
			if tt.wantOK {
				assert.Empty(t, errs)
			} else {
				assert.NotEmpty(t, errs)
			}
		})
	}
}

func TestValidateManualGrade(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		points    float64
		maxPoints float64
		wantOK    bool
	}{
		{name: "zero is allowed", points: 0, maxPoints: 10, wantOK: true},
		{name: "maximum is allowed", points: 10, maxPoints: 10, wantOK: true},
		{name: "partial credit", points: 7.5, maxPoints: 10, wantOK: true},
		{name: "negative rejected", points: -0.5, maxPoints: 10, wantOK: false},
		{name: "above maximum rejected", points: 10.1, maxPoints: 10, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateManualGrade(tt.points, tt.maxPoints)
			if tt.wantOK {
				assert.Empty(t, errs)
			} else {
				assert.NotEmpty(t, errs)
				assert.Equal(t, "points", errs[0].Field)
			}
		})
	}
}

func options(correct ...bool) []models.Option {
	out := make([]models.Option, len(correct))
	for i, c := range correct {
		out[i] = models.Option{Text: "option", IsCorrect: c}
	}
	return out
}

func TestValidateQuestionOptions(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		qType   models.QuestionType
		options []models.Option
		wantOK  bool
	}{
		{name: "valid multiple choice", qType: models.MultipleChoice, options: options(true, false, false), wantOK: true},
		{name: "multiple choice needs two options", qType: models.MultipleChoice, options: options(true), wantOK: false},
		{name: "multiple choice needs a correct option", qType: models.MultipleChoice, options: options(false, false), wantOK: false},
		{name: "multiple choice allows only one correct option", qType: models.MultipleChoice, options: options(true, true), wantOK: false},
		{name: "valid true false", qType: models.TrueFalse, options: options(true, false), wantOK: true},
		{name: "true false needs exactly two options", qType: models.TrueFalse, options: options(true, false, false), wantOK: false},
		{name: "written has no options", qType: models.Written, options: nil, wantOK: true},
		{name: "written rejects options", qType: models.Written, options: options(true), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateQuestionOptions(tt.qType, tt.options)
			if tt.wantOK {
				assert.Empty(t, errs)
			} else {
				assert.NotEmpty(t, errs)
			}
		})
	}
}

func TestStructValidation(t *testing.T) {
	v := New()

	type payload struct {
		Title string `validate:"required,min=3"`
		Score float64 `validate:"min=0,max=100"`
	}

	t.Run("valid struct", func(t *testing.T) {
		errs := v.Struct(&payload{Title: "Final Exam", Score: 70})
		assert.Empty(t, errs)
	})

	t.Run("collects field errors", func(t *testing.T) {
		errs := v.Struct(&payload{Title: "ab", Score: 120})
		assert.Len(t, errs, 2)
		assert.Equal(t, "Title", errs[0].Field)
		assert.Equal(t, "min", errs[0].Rule)
		assert.Equal(t, "Score", errs[1].Field)
		assert.Equal(t, "max", errs[1].Rule)
	})
}
