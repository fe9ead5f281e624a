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

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// Create creates a new course and invalidates list caches
func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, fmt.Sprintf("instructor:%s:*", course.InstructorID))

	return nil
}

// GetByID retrieves a course by ID with caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := c.getDB(tx).WithContext(ctx).
			Preload("Instructor").
			Where("id = ?", id).
			First(&dbCourse).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &dbCourse, nil
	})

	if err != nil {
		return nil, err
	}

	return &course, nil
}

// GetByIDWithDetails retrieves a course with instructor, lessons and published quizzes
func (c *CoursePostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	cacheKey := fmt.Sprintf("details:%s", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := c.getDB(tx).WithContext(ctx).
			Preload("Instructor").
			Preload("Lessons", func(db *gorm.DB) *gorm.DB {
				return db.Order("lessons.order_index ASC")
			}).
			Preload("Quizzes", "is_published = ?", true).
			Where("id = ?", id).
			First(&dbCourse).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get course details: %w", err)
		}

		c.calculateComputedFields(&dbCourse)
		return &dbCourse, nil
	})

	return &course, err
}

// Update updates a course and invalidates cache
func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Model(&models.Course{}).Where("id = ?", course.ID).Updates(map[string]interface{}{
		"title":       course.Title,
		"description": course.Description,
		"category":    course.Category,
		"level":       course.Level,
		"image_url":   course.ImageURL,
		"updated_at":  course.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID)

	return nil
}

// Delete soft deletes a course. Courses with enrollments cannot be deleted.
func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := c.getDB(tx)

	var enrollmentCount int64
	if err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", id).
		Count(&enrollmentCount).Error; err != nil {
		return fmt.Errorf("failed to check enrollments: %w", err)
	}
	if enrollmentCount > 0 {
		return fmt.Errorf("cannot delete course with existing enrollments")
	}

	if err := db.WithContext(ctx).Where("id = ?", id).Delete(&models.Course{}).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, id)

	return nil
}

// List retrieves courses with filters and pagination
func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.getDB(tx).WithContext(ctx).Model(&models.Course{})

	query = c.helpers.ApplyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	err := query.Preload("Instructor").Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}

	for _, course := range courses {
		c.calculateComputedFields(course)
	}

	return courses, total, nil
}

// Search retrieves courses matching a text query on title and description
func (c *CoursePostgreSQL) Search(ctx context.Context, tx *gorm.DB, searchQuery string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.getDB(tx).WithContext(ctx).Model(&models.Course{})

	query = c.helpers.ApplyCourseFilters(query, filters)
	if searchQuery != "" {
		pattern := "%" + searchQuery + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	err := query.Preload("Instructor").Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

// GetByInstructor retrieves courses created by an instructor
func (c *CoursePostgreSQL) GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.InstructorID = &instructorID
	return c.List(ctx, tx, filters)
}

// Categories returns the distinct categories of published courses
func (c *CoursePostgreSQL) Categories(ctx context.Context, tx *gorm.DB) ([]string, error) {
	var categories []string
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("is_published = ?", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// UpdatePublishStatus publishes or unpublishes a course
func (c *CoursePostgreSQL) UpdatePublishStatus(ctx context.Context, tx *gorm.DB, id string, published bool) error {
	result := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Update("is_published", published)
	if result.Error != nil {
		return fmt.Errorf("failed to update publish status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, id)

	return nil
}

// ExistsByID checks course existence with short-lived caching
func (c *CoursePostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	cacheKey := fmt.Sprintf("course:%s", id)
	cached, err := c.cacheManager.Exists.GetString(ctx, cacheKey)
	if err == nil {
		return cached == "1", nil
	}

	var count int64
	if err := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check course existence: %w", err)
	}

	// Best effort, existence checks work without cache
	value := "0"
	if count > 0 {
		value = "1"
	}
	_ = c.cacheManager.Exists.SetString(ctx, cacheKey, value, cache.ExistsCacheConfig.TTL)

	return count > 0, nil
}

// GetStats returns enrollment and content statistics for a course
func (c *CoursePostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id string) (*repositories.CourseStats, error) {
	cacheKey := fmt.Sprintf("course:%s:stats", id)
	var stats repositories.CourseStats

	err := c.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		db := c.getDB(tx).WithContext(ctx)
		var result repositories.CourseStats

		var enrollmentCount, lessonCount, quizCount int64
		if err := db.Model(&models.Enrollment{}).Where("course_id = ?", id).Count(&enrollmentCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count enrollments: %w", err)
		}
		if err := db.Model(&models.Lesson{}).Where("course_id = ?", id).Count(&lessonCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count lessons: %w", err)
		}
		if err := db.Model(&models.Quiz{}).Where("course_id = ?", id).Count(&quizCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count quizzes: %w", err)
		}

		result.EnrollmentCount = int(enrollmentCount)
		result.LessonCount = int(lessonCount)
		result.QuizCount = int(quizCount)

		if enrollmentCount > 0 {
			var averageProgress float64
			if err := db.Model(&models.Enrollment{}).
				Where("course_id = ?", id).
				Select("COALESCE(AVG(progress), 0)").
				Scan(&averageProgress).Error; err != nil {
				return nil, fmt.Errorf("failed to compute average progress: %w", err)
			}
			result.AverageProgress = averageProgress

			var completedCount int64
			if err := db.Model(&models.Enrollment{}).
				Where("course_id = ? AND completed_at IS NOT NULL", id).
				Count(&completedCount).Error; err != nil {
				return nil, fmt.Errorf("failed to count completions: %w", err)
			}
			result.CompletionRate = float64(completedCount) / float64(enrollmentCount) * 100
		}

		return &result, nil
	})

	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (c *CoursePostgreSQL) calculateComputedFields(course *models.Course) {
	course.LessonCount = len(course.Lessons)
	course.QuizCount = len(course.Quizzes)
}
