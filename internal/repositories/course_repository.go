package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/soley-bot/acadex-sub012/internal/models"
)

// CourseRepository handles course persistence. The tx parameter carries an
// open transaction; pass nil to run against the repository's own connection.
type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) // Include instructor, lessons, quizzes
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters CourseFilters) ([]*models.Course, int64, error)
	GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID string, filters CourseFilters) ([]*models.Course, int64, error)
	Categories(ctx context.Context, tx *gorm.DB) ([]string, error)

	// Publishing
	UpdatePublishStatus(ctx context.Context, tx *gorm.DB, id string, published bool) error

	// Validation and statistics
	ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	GetStats(ctx context.Context, tx *gorm.DB, id string) (*CourseStats, error)
}

type LessonRepository interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Lesson, error)
	Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	ListByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Lesson, error)
	Reorder(ctx context.Context, tx *gorm.DB, courseID string, lessonIDs []string) error
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error)
	MaxOrderIndex(ctx context.Context, tx *gorm.DB, courseID string) (int, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID string) (*models.Enrollment, error)

	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)

	UpdateProgress(ctx context.Context, tx *gorm.DB, id string, progress float64) error
	Exists(ctx context.Context, tx *gorm.DB, studentID, courseID string) (bool, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error)
}
