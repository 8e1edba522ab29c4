package events

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventPublisherRecordsEvents(t *testing.T) {
	pub := NewMockEventPublisher(nil)
	ctx := context.Background()

	payload := AttemptGradedEvent{AttemptID: 1, TestID: 2, UserID: "u-1", Passed: true}
	require.NoError(t, pub.Publish(ctx, TopicAttemptGraded, payload))
	require.NoError(t, pub.Publish(ctx, TopicAttemptSubmitted, AttemptSubmittedEvent{AttemptID: 1}))

	events := pub.Events()
	require.Len(t, events, 2)
	assert.Equal(t, TopicAttemptGraded, events[0].Topic)
	assert.Equal(t, payload, events[0].Payload)
	assert.Equal(t, TopicAttemptSubmitted, events[1].Topic)
}

func TestMockEventPublisherEventsReturnsCopy(t *testing.T) {
	pub := NewMockEventPublisher(nil)
	require.NoError(t, pub.Publish(context.Background(), TopicTestPublished, TestPublishedEvent{TestID: 9}))

	events := pub.Events()
	events[0].Topic = "tampered"

	assert.Equal(t, TopicTestPublished, pub.Events()[0].Topic)
}

func TestMockEventPublisherConcurrentPublish(t *testing.T) {
	pub := NewMockEventPublisher(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n uint) {
			defer wg.Done()
			_ = pub.Publish(context.Background(), TopicAttemptSubmitted, AttemptSubmittedEvent{AttemptID: n})
		}(uint(i))
	}
	wg.Wait()

	assert.Len(t, pub.Events(), 50)
}
