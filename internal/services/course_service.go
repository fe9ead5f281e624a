package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soley-bot/acadex-sub012/internal/events"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
	"github.com/soley-bot/acadex-sub012/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewCourseService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) CourseService {
	return &courseService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, instructorID string) (*models.Course, error) {
	s.logger.Info("Creating course", "instructor_id", instructorID, "title", req.Title)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	course := &models.Course{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Level:        req.Level,
		ImageURL:     req.ImageURL,
		InstructorID: instructorID,
	}
	if course.Level == "" {
		course.Level = models.LevelBeginner
	}

	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID, "instructor_id", instructorID)
	return course, nil
}

// GetByID returns the course with the caller's enrollment state attached.
// Unpublished courses are invisible to everyone but their managers.
func (s *courseService) GetByID(ctx context.Context, id string, userID string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	canEdit, err := s.canManageCourse(ctx, course, userID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished && !canEdit {
		return nil, ErrCourseNotFound
	}

	return s.buildCourseResponse(ctx, course, userID, canEdit)
}

// GetByIDWithDetails returns the course with instructor, lessons and published
// quizzes. Lesson content beyond free previews is locked until the viewer
// enrolls; managers always see everything.
func (s *courseService) GetByIDWithDetails(ctx context.Context, id string, userID string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course details: %w", err)
	}

	canEdit, err := s.canManageCourse(ctx, course, userID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished && !canEdit {
		return nil, ErrCourseNotFound
	}

	response, err := s.buildCourseResponse(ctx, course, userID, canEdit)
	if err != nil {
		return nil, err
	}

	if !canEdit && !response.IsEnrolled {
		lockLessonContent(course.Lessons)
	}
	return response, nil
}

func (s *courseService) Update(ctx context.Context, id string, req *UpdateCourseRequest, userID string) (*models.Course, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	course, err := s.getManagedCourse(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	applyCourseUpdate(course, req)

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated", "course_id", id)
	return course, nil
}

// Delete removes a course with its lessons and quizzes. Courses with enrolled
// students are kept; deleting them would strand student progress.
func (s *courseService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.getManagedCourse(ctx, id, userID); err != nil {
		return err
	}

	enrolled, err := s.repo.Enrollment().CountByCourse(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}
	if enrolled > 0 {
		return ErrCourseNotDeletable
	}

	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id)
	return nil
}

// ===== CATALOG OPERATIONS =====

// List serves the course catalog. Drafts only show up for admins.
func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters, userID string) (*models.CourseListResponse, error) {
	if filters.IsPublished == nil {
		isAdmin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			published := true
			filters.IsPublished = &published
		}
	}

	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return &models.CourseListResponse{
		Courses: courses,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

// Search is the public catalog search; it never surfaces drafts.
func (s *courseService) Search(ctx context.Context, query string, filters repositories.CourseFilters) (*models.CourseListResponse, error) {
	published := true
	filters.IsPublished = &published

	courses, total, err := s.repo.Course().Search(ctx, nil, query, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search courses: %w", err)
	}

	return &models.CourseListResponse{
		Courses: courses,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

func (s *courseService) GetByInstructor(ctx context.Context, instructorID string, filters repositories.CourseFilters) (*models.CourseListResponse, error) {
	courses, total, err := s.repo.Course().GetByInstructor(ctx, nil, instructorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructor courses: %w", err)
	}

	return &models.CourseListResponse{
		Courses: courses,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

func (s *courseService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Course().Categories(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ===== PUBLISHING =====

// Publish makes a course visible in the catalog. A course with no lessons has
// nothing to deliver and stays a draft.
func (s *courseService) Publish(ctx context.Context, id string, userID string) error {
	course, err := s.getManagedCourse(ctx, id, userID)
	if err != nil {
		return err
	}

	lessons, err := s.repo.Lesson().CountByCourse(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count lessons: %w", err)
	}
	if lessons == 0 {
		return NewBusinessRuleError("course_has_no_lessons",
			"course needs at least one lesson before publishing",
			map[string]interface{}{"course_id": id})
	}

	if err := s.repo.Course().UpdatePublishStatus(ctx, nil, id, true); err != nil {
		return fmt.Errorf("failed to publish course: %w", err)
	}

	if s.publisher != nil {
		event := events.NewCoursePublishedEvent(course.ID, course.Title, course.InstructorID, course.Category, string(course.Level))
		if pubErr := s.publisher.PublishQuizEvent(ctx, event); pubErr != nil {
			s.logger.Warn("Failed to publish course published event", "course_id", id, "error", pubErr)
		}
	}

	s.logger.Info("Course published", "course_id", id, "lesson_count", lessons)
	return nil
}
