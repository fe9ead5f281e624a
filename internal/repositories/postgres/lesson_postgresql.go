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

type LessonPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewLessonPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.LessonRepository {
	return &LessonPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (l *LessonPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}

func (l *LessonPostgreSQL) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if err := l.getDB(tx).WithContext(ctx).Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	cache.InvalidateCourseCache(ctx, l.cacheManager, lesson.CourseID)

	return nil
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Lesson, error) {
	var lesson models.Lesson
	err := l.getDB(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&lesson).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if err := l.getDB(tx).WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", lesson.ID).Updates(map[string]interface{}{
		"title":           lesson.Title,
		"content":         lesson.Content,
		"video_url":       lesson.VideoURL,
		"is_free_preview": lesson.IsFreePreview,
		"updated_at":      lesson.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	cache.InvalidateCourseCache(ctx, l.cacheManager, lesson.CourseID)

	return nil
}

func (l *LessonPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := l.getDB(tx)

	var lesson models.Lesson
	if err := db.WithContext(ctx).Select("id, course_id").Where("id = ?", id).First(&lesson).Error; err != nil {
		return fmt.Errorf("failed to get lesson before delete: %w", err)
	}

	if err := db.WithContext(ctx).Where("id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	cache.InvalidateCourseCache(ctx, l.cacheManager, lesson.CourseID)

	return nil
}

// ListByCourse returns the lessons of a course in display order
func (l *LessonPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := l.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// Reorder rewrites order_index to match the given lesson ID sequence
func (l *LessonPostgreSQL) Reorder(ctx context.Context, tx *gorm.DB, courseID string, lessonIDs []string) error {
	db := l.getDB(tx)

	for index, lessonID := range lessonIDs {
		result := db.WithContext(ctx).
			Model(&models.Lesson{}).
			Where("id = ? AND course_id = ?", lessonID, courseID).
			Update("order_index", index)
		if result.Error != nil {
			return fmt.Errorf("failed to reorder lesson %s: %w", lessonID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("lesson %s does not belong to course %s", lessonID, courseID)
		}
	}

	cache.InvalidateCourseCache(ctx, l.cacheManager, courseID)

	return nil
}

func (l *LessonPostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error) {
	var count int64
	err := l.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// MaxOrderIndex returns the highest order_index in the course, -1 when empty
func (l *LessonPostgreSQL) MaxOrderIndex(ctx context.Context, tx *gorm.DB, courseID string) (int, error) {
	var max *int
	err := l.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
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
