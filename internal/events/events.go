package events

import "time"

// Topics published by this service. The configured prefix is prepended
// by the publisher.
const (
	TopicAttemptSubmitted = "attempt.submitted"
	TopicAttemptGraded    = "attempt.graded"
	TopicTestPublished    = "test.published"
)

type AttemptSubmittedEvent struct {
	AttemptID   uint      `json:"attempt_id"`
	TestID      uint      `json:"test_id"`
	UserID      string    `json:"user_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type AttemptGradedEvent struct {
	AttemptID  uint      `json:"attempt_id"`
	TestID     uint      `json:"test_id"`
	UserID     string    `json:"user_id"`
	Score      float64   `json:"score"`
	Percentage float64   `json:"percentage"`
	Passed     bool      `json:"passed"`
	GradedAt   time.Time `json:"graded_at"`
}

type TestPublishedEvent struct {
	TestID      uint      `json:"test_id"`
	OwnerType   string    `json:"owner_type"`
	OwnerID     uint      `json:"owner_id"`
	PublishedBy string    `json:"published_by"`
	PublishedAt time.Time `json:"published_at"`
}
