package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging instead of
// propagating failures; stale entries expire on their own TTL.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys, logging instead of propagating failures.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateCourseCache drops every cached view of one course: its detail,
// the catalog pages it appears on, and its aggregate stats.
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID string) {
	SafeDelete(ctx, cm.Course,
		fmt.Sprintf("id:%s", courseID),
		fmt.Sprintf("details:%s", courseID))
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("course:%s:*", courseID))
}

// InvalidateQuizCache drops the cached quiz detail and its question list.
func InvalidateQuizCache(ctx context.Context, cm *CacheManager, quizID string) {
	SafeDelete(ctx, cm.Quiz,
		fmt.Sprintf("id:%s", quizID),
		fmt.Sprintf("questions:%s", quizID))
	SafeInvalidatePattern(ctx, cm.Quiz, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("quiz:%s:*", quizID))
}

// InvalidateAttemptCache drops cached attempt reads after answers or grades
// change.
func InvalidateAttemptCache(ctx context.Context, cm *CacheManager, attemptID string) {
	SafeDelete(ctx, cm.Fast, fmt.Sprintf("attempt:id:%s", attemptID))
	SafeInvalidatePattern(ctx, cm.Fast, fmt.Sprintf("attempt:%s:*", attemptID))
}
