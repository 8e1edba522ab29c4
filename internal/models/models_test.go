package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOwnerTypeValid(t *testing.T) {
	for _, ot := range []OwnerType{OwnerCourse, OwnerBootcamp, OwnerWorkshop, OwnerProgram} {
		assert.True(t, ot.Valid(), string(ot))
	}
	assert.False(t, OwnerType("module").Valid())
	assert.False(t, OwnerType("").Valid())
}

func TestQuestionTypeAutoGradable(t *testing.T) {
	assert.True(t, MultipleChoice.AutoGradable())
	assert.True(t, TrueFalse.AutoGradable())
	assert.False(t, Written.AutoGradable())
}

func TestUserRoleCanGrade(t *testing.T) {
	assert.False(t, RoleStudent.CanGrade())
	assert.True(t, RoleInstructor.CanGrade())
	assert.True(t, RoleAdmin.CanGrade())
}

func TestTestAvailableAt(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name     string
		startsAt *time.Time
		endsAt   *time.Time
		want     bool
	}{
		{name: "no window", want: true},
		{name: "inside window", startsAt: &before, endsAt: &after, want: true},
		{name: "before start", startsAt: &after, want: false},
		{name: "after end", endsAt: &before, want: false},
		{name: "open ended after start", startsAt: &before, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test := &Test{StartsAt: tt.startsAt, EndsAt: tt.endsAt}
			assert.Equal(t, tt.want, test.AvailableAt(now))
		})
	}
}

func TestQuestionCorrectOption(t *testing.T) {
	q := &Question{
		Options: []Option{
			{Text: "a"},
			{Text: "b", IsCorrect: true},
			{Text: "c"},
		},
	}
	got := q.CorrectOption()
	assert.NotNil(t, got)
	assert.Equal(t, "b", got.Text)

	written := &Question{Type: Written}
	assert.Nil(t, written.CorrectOption())
}

func TestAnswerAnswered(t *testing.T) {
	optionID := uint(3)
	text := "an essay"
	empty := ""

	assert.False(t, (&Answer{}).Answered())
	assert.True(t, (&Answer{SelectedOptionID: &optionID}).Answered())
	assert.True(t, (&Answer{WrittenAnswer: &text}).Answered())
	assert.False(t, (&Answer{WrittenAnswer: &empty}).Answered())
}

func TestAnswerGraded(t *testing.T) {
	zero := 0.0
	assert.False(t, (&Answer{}).Graded())
	assert.True(t, (&Answer{PointsEarned: &zero}).Graded())
}

func TestAttemptIsActive(t *testing.T) {
	assert.True(t, (&TestAttempt{Status: AttemptInProgress}).IsActive())
	assert.False(t, (&TestAttempt{Status: AttemptSubmitted}).IsActive())
	assert.False(t, (&TestAttempt{Status: AttemptGraded}).IsActive())
}
