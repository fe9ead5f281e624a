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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// Create creates a new question and invalidates the quiz question cache
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, question.QuizID)

	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error) {
	var question models.Question
	err := q.getDB(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&question).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

// Update rewrites the question content and answer key columns
func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.getDB(tx).WithContext(ctx).Model(&models.Question{}).Where("id = ?", question.ID).Updates(map[string]interface{}{
		"type":                question.Type,
		"prompt":              question.Prompt,
		"options":             question.Options,
		"correct_answer":      question.CorrectAnswer,
		"correct_answer_text": question.CorrectAnswerText,
		"correct_answer_json": question.CorrectAnswerJSON,
		"explanation":         question.Explanation,
		"points":              question.Points,
		"randomize":           question.Randomize,
		"updated_at":          question.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, question.QuizID)

	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := q.getDB(tx)

	var question models.Question
	if err := db.WithContext(ctx).Select("id, quiz_id").Where("id = ?", id).First(&question).Error; err != nil {
		return fmt.Errorf("failed to get question before delete: %w", err)
	}

	if err := db.WithContext(ctx).Where("id = ?", id).Delete(&models.Question{}).Error; err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, question.QuizID)

	return nil
}

// CreateBatch inserts questions in one statement, used by spreadsheet import
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	if err := q.getDB(tx).WithContext(ctx).Create(&questions).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, questions[0].QuizID)

	return nil
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var questions []*models.Question
	err := q.getDB(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

// ListByQuiz returns the questions of a quiz in display order
func (q *QuestionPostgreSQL) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID string) ([]*models.Question, error) {
	var questions []*models.Question
	err := q.getDB(tx).WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("order_index ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// Reorder rewrites order_index to match the given question ID sequence
func (q *QuestionPostgreSQL) Reorder(ctx context.Context, tx *gorm.DB, quizID string, questionIDs []string) error {
	db := q.getDB(tx)

	for index, questionID := range questionIDs {
		result := db.WithContext(ctx).
			Model(&models.Question{}).
			Where("id = ? AND quiz_id = ?", questionID, quizID).
			Update("order_index", index)
		if result.Error != nil {
			return fmt.Errorf("failed to reorder question %s: %w", questionID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("question %s does not belong to quiz %s", questionID, quizID)
		}
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, quizID)

	return nil
}

func (q *QuestionPostgreSQL) CountByQuiz(ctx context.Context, tx *gorm.DB, quizID string) (int64, error) {
	var count int64
	err := q.getDB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

// MaxOrderIndex returns the highest order_index in the quiz, -1 when empty
func (q *QuestionPostgreSQL) MaxOrderIndex(ctx context.Context, tx *gorm.DB, quizID string) (int, error) {
	var max *int
	err := q.getDB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Select("MAX(order_index)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get max order index: %w", err)
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}
