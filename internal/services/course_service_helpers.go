package services

import (
	"context"
	"fmt"
	"time"

	"github.com/soley-bot/acadex-sub012/internal/events"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
)

// ===== LESSON MANAGEMENT =====

func (s *courseService) AddLesson(ctx context.Context, courseID string, req *CreateLessonRequest, userID string) (*models.Lesson, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if _, err := s.getManagedCourse(ctx, courseID, userID); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		CourseID:      courseID,
		Title:         req.Title,
		Content:       req.Content,
		VideoURL:      req.VideoURL,
		OrderIndex:    req.OrderIndex,
		IsFreePreview: req.IsFreePreview,
	}

	if req.OrderIndex == 0 {
		max, err := s.repo.Lesson().MaxOrderIndex(ctx, nil, courseID)
		if err != nil {
			return nil, fmt.Errorf("failed to get lesson order: %w", err)
		}
		lesson.OrderIndex = max + 1
	}

	if err := s.repo.Lesson().Create(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("Lesson added", "course_id", courseID, "lesson_id", lesson.ID)
	return lesson, nil
}

func (s *courseService) UpdateLesson(ctx context.Context, courseID, lessonID string, req *UpdateLessonRequest, userID string) (*models.Lesson, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if _, err := s.getManagedCourse(ctx, courseID, userID); err != nil {
		return nil, err
	}

	lesson, err := s.getCourseLesson(ctx, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	applyLessonUpdate(lesson, req)

	if err := s.repo.Lesson().Update(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	s.logger.Info("Lesson updated", "course_id", courseID, "lesson_id", lessonID)
	return lesson, nil
}

func (s *courseService) DeleteLesson(ctx context.Context, courseID, lessonID string, userID string) error {
	if _, err := s.getManagedCourse(ctx, courseID, userID); err != nil {
		return err
	}

	if _, err := s.getCourseLesson(ctx, courseID, lessonID); err != nil {
		return err
	}

	if err := s.repo.Lesson().Delete(ctx, nil, lessonID); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	s.logger.Info("Lesson deleted", "course_id", courseID, "lesson_id", lessonID)
	return nil
}

// ReorderLessons rewrites order indexes from the given complete ID list. The
// list must name every lesson of the course exactly once.
func (s *courseService) ReorderLessons(ctx context.Context, courseID string, lessonIDs []string, userID string) error {
	if _, err := s.getManagedCourse(ctx, courseID, userID); err != nil {
		return err
	}

	seen := make(map[string]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		if seen[id] {
			return NewValidationError("lesson_ids", "contains duplicate lesson IDs", id)
		}
		seen[id] = true
	}

	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		count, err := txRepo.Lesson().CountByCourse(ctx, nil, courseID)
		if err != nil {
			return fmt.Errorf("failed to count lessons: %w", err)
		}
		if int(count) != len(lessonIDs) {
			return NewValidationError("lesson_ids",
				fmt.Sprintf("must list all %d lessons of the course", count), len(lessonIDs))
		}
		return txRepo.Lesson().Reorder(ctx, nil, courseID, lessonIDs)
	})
}

// ===== ENROLLMENT =====

// Enroll signs a student up for a published course.
func (s *courseService) Enroll(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if !course.IsPublished {
		return nil, ErrCourseNotPublished
	}

	exists, err := s.repo.Enrollment().Exists(ctx, nil, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if exists {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := &models.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
	}
	if err := s.repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	if s.publisher != nil {
		event := events.NewEnrollmentCreatedEvent(enrollment.ID, courseID, studentID)
		if pubErr := s.publisher.PublishQuizEvent(ctx, event); pubErr != nil {
			s.logger.Warn("Failed to publish enrollment event", "enrollment_id", enrollment.ID, "error", pubErr)
		}
	}

	s.logger.Info("Student enrolled", "course_id", courseID, "student_id", studentID)
	return enrollment, nil
}

func (s *courseService) GetEnrollment(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.Enrollment().GetByStudentAndCourse(ctx, nil, studentID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return enrollment, nil
}

func (s *courseService) ListEnrollments(ctx context.Context, studentID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	enrollments, total, err := s.repo.Enrollment().ListByStudent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, total, nil
}

// UpdateProgress records how far a student has worked through the course.
// Reaching 100 marks the course completed.
func (s *courseService) UpdateProgress(ctx context.Context, courseID, studentID string, progress float64) (*models.Enrollment, error) {
	if progress < 0 || progress > 100 {
		return nil, NewValidationError("progress", "must be between 0 and 100", progress)
	}

	enrollment, err := s.GetEnrollment(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Enrollment().UpdateProgress(ctx, nil, enrollment.ID, progress); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	enrollment.Progress = progress
	if progress >= 100 && enrollment.CompletedAt == nil {
		now := time.Now()
		enrollment.CompletedAt = &now
	}

	s.logger.Info("Progress updated", "course_id", courseID, "student_id", studentID, "progress", progress)
	return enrollment, nil
}

// ===== STATISTICS AND PERMISSIONS =====

func (s *courseService) GetStats(ctx context.Context, id string, userID string) (*repositories.CourseStats, error) {
	if _, err := s.getManagedCourse(ctx, id, userID); err != nil {
		return nil, err
	}

	stats, err := s.repo.Course().GetStats(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course stats: %w", err)
	}
	return stats, nil
}

func (s *courseService) CanEdit(ctx context.Context, courseID, userID string) (bool, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, ErrCourseNotFound
		}
		return false, fmt.Errorf("failed to get course: %w", err)
	}
	return s.canManageCourse(ctx, course, userID)
}

// ===== INTERNAL HELPERS =====

// getManagedCourse loads a course and verifies the caller may manage it.
func (s *courseService) getManagedCourse(ctx context.Context, courseID, userID string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	allowed, err := s.canManageCourse(ctx, course, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrCourseAccessDenied
	}
	return course, nil
}

// getCourseLesson loads a lesson and verifies it belongs to the course.
func (s *courseService) getCourseLesson(ctx context.Context, courseID, lessonID string) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, nil, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson.CourseID != courseID {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}

func (s *courseService) canManageCourse(ctx context.Context, course *models.Course, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if course.InstructorID == userID {
		return true, nil
	}
	return s.isAdmin(ctx, userID)
}

func (s *courseService) isAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to check user role: %w", err)
	}
	return isAdmin, nil
}

// buildCourseResponse attaches the caller's enrollment state to the course.
func (s *courseService) buildCourseResponse(ctx context.Context, course *models.Course, userID string, canEdit bool) (*CourseResponse, error) {
	response := &CourseResponse{
		Course:  course,
		CanEdit: canEdit,
	}
	if userID == "" {
		return response, nil
	}

	enrollment, err := s.repo.Enrollment().GetByStudentAndCourse(ctx, nil, userID, course.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return response, nil
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	response.IsEnrolled = true
	response.Progress = &enrollment.Progress
	return response, nil
}

// lockLessonContent blanks the body of every lesson that is not a free
// preview. Titles stay visible so the syllabus still reads.
func lockLessonContent(lessons []models.Lesson) {
	for i := range lessons {
		if lessons[i].IsFreePreview {
			continue
		}
		lessons[i].Content = ""
		lessons[i].VideoURL = nil
	}
}

// ===== FIELD APPLICATION =====

func applyCourseUpdate(course *models.Course, req *UpdateCourseRequest) {
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.ImageURL != nil {
		course.ImageURL = req.ImageURL
	}
}

func applyLessonUpdate(lesson *models.Lesson, req *UpdateLessonRequest) {
	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = req.VideoURL
	}
	if req.OrderIndex != nil {
		lesson.OrderIndex = *req.OrderIndex
	}
	if req.IsFreePreview != nil {
		lesson.IsFreePreview = *req.IsFreePreview
	}
}
