package repositories

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/soley-bot/acadex-sub012/internal/models"
)

type AttemptRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error)
	GetByIDWithQuiz(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error) // Include quiz and its questions
	Update(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	// Query operations
	ListByQuiz(ctx context.Context, tx *gorm.DB, quizID string, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetActiveAttempt(ctx context.Context, tx *gorm.DB, quizID, studentID string) (*models.QuizAttempt, error)
	ListPendingGrading(ctx context.Context, tx *gorm.DB, quizID string, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)

	// Answer storage (display-space answers keyed by question ID)
	SaveAnswers(ctx context.Context, tx *gorm.DB, attemptID string, answers datatypes.JSON) error

	// Counts and statistics
	CountByStudent(ctx context.Context, tx *gorm.DB, quizID, studentID string) (int64, error)
	GetStudentSummaries(ctx context.Context, tx *gorm.DB, studentID string, courseID *string) ([]*StudentQuizSummary, error)
}
