package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/soley-bot/acadex-sub012/internal/cache"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
)

type AttemptPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAttemptPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	if err := a.getDB(tx).WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, a.cacheManager.Fast, fmt.Sprintf("attempt:%s:*", attempt.StudentID))

	return nil
}

// GetByID retrieves an attempt by ID. In-progress attempts are cached in the
// fast tier since students poll them while answering.
func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error) {
	cacheKey := fmt.Sprintf("attempt:id:%s", id)
	var attempt models.QuizAttempt

	err := a.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &attempt, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbAttempt models.QuizAttempt
		err := a.getDB(tx).WithContext(ctx).
			Where("id = ?", id).
			First(&dbAttempt).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get attempt: %w", err)
		}
		return &dbAttempt, nil
	})

	if err != nil {
		return nil, err
	}

	return &attempt, nil
}

// GetByIDWithQuiz retrieves an attempt with the quiz and its questions loaded.
// Grading needs the answer key columns, so this always hits the database.
func (a *AttemptPostgreSQL) GetByIDWithQuiz(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := a.getDB(tx).WithContext(ctx).
		Preload("Quiz").
		Preload("Quiz.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_index ASC")
		}).
		Where("id = ?", id).
		First(&attempt).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt with quiz: %w", err)
	}
	return &attempt, nil
}

// Update persists attempt state transitions (submit, grade, time spent)
func (a *AttemptPostgreSQL) Update(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	if err := a.getDB(tx).WithContext(ctx).Model(&models.QuizAttempt{}).Where("id = ?", attempt.ID).Updates(map[string]interface{}{
		"status":       attempt.Status,
		"answers":      attempt.Answers,
		"results":      attempt.Results,
		"score":        attempt.Score,
		"total_points": attempt.TotalPoints,
		"percentage":   attempt.Percentage,
		"passed":       attempt.Passed,
		"submitted_at": attempt.SubmittedAt,
		"graded_at":    attempt.GradedAt,
		"time_spent":   attempt.TimeSpent,
	}).Error; err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}

	cache.InvalidateAttemptCache(ctx, a.cacheManager, attempt.ID)
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Fast, fmt.Sprintf("attempt:%s:*", attempt.StudentID))
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Stats, fmt.Sprintf("quiz:%s:*", attempt.QuizID))

	return nil
}

func (a *AttemptPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	if err := a.getDB(tx).WithContext(ctx).Where("id = ?", id).Delete(&models.QuizAttempt{}).Error; err != nil {
		return fmt.Errorf("failed to delete attempt: %w", err)
	}

	cache.InvalidateAttemptCache(ctx, a.cacheManager, id)

	return nil
}

func (a *AttemptPostgreSQL) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	filters.QuizID = &quizID
	return a.list(ctx, tx, filters, "Student")
}

func (a *AttemptPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	filters.StudentID = &studentID
	return a.list(ctx, tx, filters, "Quiz")
}

func (a *AttemptPostgreSQL) list(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters, preloads ...string) ([]*models.QuizAttempt, int64, error) {
	query := a.getDB(tx).WithContext(ctx).Model(&models.QuizAttempt{})

	query = a.helpers.ApplyAttemptFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	for _, preload := range preloads {
		query = query.Preload(preload)
	}

	var attempts []*models.QuizAttempt
	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

// GetActiveAttempt returns the student's in-progress attempt for a quiz, nil when none
func (a *AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, tx *gorm.DB, quizID, studentID string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := a.getDB(tx).WithContext(ctx).
		Where("quiz_id = ? AND student_id = ? AND status = ?", quizID, studentID, models.AttemptInProgress).
		Order("started_at DESC").
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active attempt: %w", err)
	}
	return &attempt, nil
}

// ListPendingGrading returns submitted attempts that still need manual grading
func (a *AttemptPostgreSQL) ListPendingGrading(ctx context.Context, tx *gorm.DB, quizID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	status := models.AttemptSubmitted
	filters.QuizID = &quizID
	filters.Status = &status
	return a.list(ctx, tx, filters, "Student")
}

// SaveAnswers overwrites the answer document for an in-progress attempt
func (a *AttemptPostgreSQL) SaveAnswers(ctx context.Context, tx *gorm.DB, attemptID string, answers datatypes.JSON) error {
	result := a.getDB(tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ? AND status = ?", attemptID, models.AttemptInProgress).
		Update("answers", answers)
	if result.Error != nil {
		return fmt.Errorf("failed to save answers: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.SafeDelete(ctx, a.cacheManager.Fast, fmt.Sprintf("attempt:id:%s", attemptID))

	return nil
}

func (a *AttemptPostgreSQL) CountByStudent(ctx context.Context, tx *gorm.DB, quizID, studentID string) (int64, error) {
	var count int64
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Count(&count).Error
	return count, err
}

// GetStudentSummaries aggregates a student's best results per quiz, optionally
// restricted to one course
func (a *AttemptPostgreSQL) GetStudentSummaries(ctx context.Context, tx *gorm.DB, studentID string, courseID *string) ([]*repositories.StudentQuizSummary, error) {
	query := a.getDB(tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Select(`quiz_attempts.quiz_id,
			quizzes.title AS quiz_title,
			COUNT(quiz_attempts.id) AS attempt_count,
			COALESCE(MAX(quiz_attempts.percentage), 0) AS best_score,
			BOOL_OR(quiz_attempts.passed) AS best_passed,
			MAX(quiz_attempts.submitted_at) AS last_attempt`).
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quiz_attempts.student_id = ?", studentID).
		Group("quiz_attempts.quiz_id, quizzes.title")

	if courseID != nil {
		query = query.Where("quizzes.course_id = ?", *courseID)
	}

	var summaries []*repositories.StudentQuizSummary
	if err := query.Scan(&summaries).Error; err != nil {
		return nil, fmt.Errorf("failed to get student summaries: %w", err)
	}

	return summaries, nil
}
