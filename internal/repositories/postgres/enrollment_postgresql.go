package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/soley-bot/acadex-sub012/internal/cache"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// Create enrolls a student and bumps the course student counter
func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	db := e.getDB(tx)

	if err := db.WithContext(ctx).Create(enrollment).Error; err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	if err := db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", enrollment.CourseID).
		UpdateColumn("student_count", gorm.Expr("student_count + 1")).Error; err != nil {
		return fmt.Errorf("failed to update student count: %w", err)
	}

	cache.InvalidateCourseCache(ctx, e.cacheManager, enrollment.CourseID)

	return nil
}

func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Preload("Course").
		Where("id = ?", id).
		First(&enrollment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	filters.StudentID = &studentID
	return e.list(ctx, tx, filters, "Course", "Course.Instructor")
}

func (e *EnrollmentPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	filters.CourseID = &courseID
	return e.list(ctx, tx, filters, "Student")
}

func (e *EnrollmentPostgreSQL) list(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentFilters, preloads ...string) ([]*models.Enrollment, int64, error) {
	query := e.getDB(tx).WithContext(ctx).Model(&models.Enrollment{})

	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.Completed != nil {
		if *filters.Completed {
			query = query.Where("completed_at IS NOT NULL")
		} else {
			query = query.Where("completed_at IS NULL")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	for _, preload := range preloads {
		query = query.Preload(preload)
	}

	var enrollments []*models.Enrollment
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

// UpdateProgress sets course progress, stamping completed_at when it reaches 100
func (e *EnrollmentPostgreSQL) UpdateProgress(ctx context.Context, tx *gorm.DB, id string, progress float64) error {
	updates := map[string]interface{}{
		"progress": progress,
	}
	if progress >= 100 {
		updates["completed_at"] = time.Now()
	}

	result := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (e *EnrollmentPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, studentID, courseID string) (bool, error) {
	var count int64
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}

func (e *EnrollmentPostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error) {
	var count int64
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}
