package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/soley-bot/acadex-sub012/internal/cache"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
)

type QuizPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// Create creates a new quiz and invalidates list caches
func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.getDB(tx).WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Quiz, "list:*")
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Quiz, fmt.Sprintf("course:%s:*", quiz.CourseID))

	return nil
}

// GetByID retrieves a quiz by ID with caching, questions not loaded
func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var quiz models.Quiz

	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		err := q.getDB(tx).WithContext(ctx).
			Where("id = ?", id).
			First(&dbQuiz).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get quiz: %w", err)
		}
		return &dbQuiz, nil
	})

	if err != nil {
		return nil, err
	}

	return &quiz, nil
}

// GetByIDWithQuestions retrieves a quiz with its questions in display order
func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) {
	cacheKey := fmt.Sprintf("questions:%s", id)
	var quiz models.Quiz

	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		err := q.getDB(tx).WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("questions.order_index ASC")
			}).
			Where("id = ?", id).
			First(&dbQuiz).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get quiz with questions: %w", err)
		}

		q.calculateComputedFields(&dbQuiz)
		return &dbQuiz, nil
	})

	return &quiz, err
}

// Update updates quiz settings and invalidates cache
func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.getDB(tx).WithContext(ctx).Model(&models.Quiz{}).Where("id = ?", quiz.ID).Updates(map[string]interface{}{
		"title":            quiz.Title,
		"description":      quiz.Description,
		"difficulty":       quiz.Difficulty,
		"duration_minutes": quiz.DurationMinutes,
		"passing_score":    quiz.PassingScore,
		"max_attempts":     quiz.MaxAttempts,
		"updated_at":       quiz.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, quiz.ID)

	return nil
}

// Delete hard deletes a quiz and its questions. Quizzes with attempts cannot be deleted.
func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := q.getDB(tx)

	hasAttempts, err := q.HasAttempts(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to check attempts: %w", err)
	}
	if hasAttempts {
		return fmt.Errorf("cannot delete quiz with existing attempts")
	}

	if err := db.WithContext(ctx).Where("quiz_id = ?", id).Delete(&models.Question{}).Error; err != nil {
		return fmt.Errorf("failed to delete quiz questions: %w", err)
	}
	if err := db.WithContext(ctx).Where("id = ?", id).Delete(&models.Quiz{}).Error; err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, id)

	return nil
}

// List retrieves quizzes with filters and pagination
func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	query := q.getDB(tx).WithContext(ctx).Model(&models.Quiz{})

	query = q.helpers.ApplyQuizFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var quizzes []*models.Quiz
	err := query.Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

// GetByCourse retrieves quizzes that belong to a course
func (q *QuizPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.CourseID = &courseID
	return q.List(ctx, tx, filters)
}

// GetByCreator retrieves quizzes created by an instructor
func (q *QuizPostgreSQL) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.CreatedBy = &creatorID
	return q.List(ctx, tx, filters)
}

// UpdatePublishStatus publishes or unpublishes a quiz
func (q *QuizPostgreSQL) UpdatePublishStatus(ctx context.Context, tx *gorm.DB, id string, published bool) error {
	result := q.getDB(tx).WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", id).
		Update("is_published", published)
	if result.Error != nil {
		return fmt.Errorf("failed to update publish status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, id)

	return nil
}

// ExistsByID checks quiz existence with short-lived caching
func (q *QuizPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	cacheKey := fmt.Sprintf("quiz:%s", id)
	cached, err := q.cacheManager.Exists.GetString(ctx, cacheKey)
	if err == nil {
		return cached == "1", nil
	}

	var count int64
	if err := q.getDB(tx).WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check quiz existence: %w", err)
	}

	value := "0"
	if count > 0 {
		value = "1"
	}
	_ = q.cacheManager.Exists.SetString(ctx, cacheKey, value, cache.ExistsCacheConfig.TTL)

	return count > 0, nil
}

// HasAttempts reports whether any attempt references the quiz
func (q *QuizPostgreSQL) HasAttempts(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	var count int64
	err := q.getDB(tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count > 0, nil
}

// GetStats returns attempt statistics for a quiz
func (q *QuizPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id string) (*repositories.QuizStats, error) {
	cacheKey := fmt.Sprintf("quiz:%s:stats", id)
	var stats repositories.QuizStats

	err := q.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		db := q.getDB(tx).WithContext(ctx)
		var result repositories.QuizStats

		var questionCount int64
		if err := db.Model(&models.Question{}).Where("quiz_id = ?", id).Count(&questionCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count questions: %w", err)
		}
		result.QuestionCount = int(questionCount)

		var totalPoints *int
		if err := db.Model(&models.Question{}).
			Where("quiz_id = ?", id).
			Select("SUM(points)").
			Scan(&totalPoints).Error; err != nil {
			return nil, fmt.Errorf("failed to sum points: %w", err)
		}
		if totalPoints != nil {
			result.TotalPoints = *totalPoints
		}

		var totalAttempts, completedAttempts int64
		if err := db.Model(&models.QuizAttempt{}).Where("quiz_id = ?", id).Count(&totalAttempts).Error; err != nil {
			return nil, fmt.Errorf("failed to count attempts: %w", err)
		}
		if err := db.Model(&models.QuizAttempt{}).
			Where("quiz_id = ? AND status = ?", id, models.AttemptGraded).
			Count(&completedAttempts).Error; err != nil {
			return nil, fmt.Errorf("failed to count completed attempts: %w", err)
		}
		result.TotalAttempts = int(totalAttempts)
		result.CompletedAttempts = int(completedAttempts)

		if completedAttempts > 0 {
			var averageScore, averageTime float64
			if err := db.Model(&models.QuizAttempt{}).
				Where("quiz_id = ? AND status = ?", id, models.AttemptGraded).
				Select("COALESCE(AVG(percentage), 0)").
				Scan(&averageScore).Error; err != nil {
				return nil, fmt.Errorf("failed to compute average score: %w", err)
			}
			if err := db.Model(&models.QuizAttempt{}).
				Where("quiz_id = ? AND status = ?", id, models.AttemptGraded).
				Select("COALESCE(AVG(time_spent), 0)").
				Scan(&averageTime).Error; err != nil {
				return nil, fmt.Errorf("failed to compute average time: %w", err)
			}
			result.AverageScore = averageScore
			result.AverageTimeSpent = int(averageTime)

			var passedCount int64
			if err := db.Model(&models.QuizAttempt{}).
				Where("quiz_id = ? AND status = ? AND passed = ?", id, models.AttemptGraded, true).
				Count(&passedCount).Error; err != nil {
				return nil, fmt.Errorf("failed to count passed attempts: %w", err)
			}
			result.PassRate = float64(passedCount) / float64(completedAttempts) * 100
		}

		return &result, nil
	})

	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (q *QuizPostgreSQL) calculateComputedFields(quiz *models.Quiz) {
	quiz.QuestionCount = len(quiz.Questions)
	total := 0
	for i := range quiz.Questions {
		total += quiz.Questions[i].Points
	}
	quiz.TotalPoints = total
}
