package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/soley-bot/acadex-sub012/internal/models"
)

type QuizRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) // Questions ordered by order_index
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters QuizFilters) ([]*models.Quiz, int64, error)

	// Publishing
	UpdatePublishStatus(ctx context.Context, tx *gorm.DB, id string, published bool) error

	// Validation and statistics
	ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	HasAttempts(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	GetStats(ctx context.Context, tx *gorm.DB, id string) (*QuizStats, error)
}

type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Question, error)

	// Quiz-scoped queries
	ListByQuiz(ctx context.Context, tx *gorm.DB, quizID string) ([]*models.Question, error)
	Reorder(ctx context.Context, tx *gorm.DB, quizID string, questionIDs []string) error
	CountByQuiz(ctx context.Context, tx *gorm.DB, quizID string) (int64, error)
	MaxOrderIndex(ctx context.Context, tx *gorm.DB, quizID string) (int, error)
}
