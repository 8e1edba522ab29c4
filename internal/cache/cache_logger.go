package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateTestCache invalidates a test and its derived listings.
func InvalidateTestCache(ctx context.Context, cm *CacheManager, testID uint, creatorID string) {
	SafeDelete(ctx, cm.Test,
		fmt.Sprintf("id:%d", testID),
		fmt.Sprintf("details:%d", testID))

	SafeInvalidatePattern(ctx, cm.Test, fmt.Sprintf("creator:%s:*", creatorID))
	SafeInvalidatePattern(ctx, cm.Test, "list:*")
	SafeInvalidatePattern(ctx, cm.Results, fmt.Sprintf("test:%d:*", testID))
}

// InvalidateAttemptCache invalidates an attempt and its test's result listings.
func InvalidateAttemptCache(ctx context.Context, cm *CacheManager, attemptID, testID uint) {
	SafeDelete(ctx, cm.Attempt,
		fmt.Sprintf("id:%d", attemptID),
		fmt.Sprintf("details:%d", attemptID))

	SafeInvalidatePattern(ctx, cm.Results, fmt.Sprintf("test:%d:*", testID))
}
