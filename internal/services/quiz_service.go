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

type quizService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*models.Quiz, error) {
	s.logger.Info("Creating quiz", "course_id", req.CourseID, "creator_id", creatorID, "title", req.Title)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	course, err := s.repo.Course().GetByID(ctx, nil, req.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	allowed, err := s.canManageCourse(ctx, course, creatorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(creatorID, course.ID, "course", "add_quiz",
			"only the course instructor or an admin can add quizzes")
	}

	if req.LessonID != nil {
		lesson, lessonErr := s.repo.Lesson().GetByID(ctx, nil, *req.LessonID)
		if lessonErr != nil {
			if repositories.IsNotFoundError(lessonErr) {
				return nil, ErrLessonNotFound
			}
			return nil, fmt.Errorf("failed to get lesson: %w", lessonErr)
		}
		if lesson.CourseID != req.CourseID {
			return nil, ErrLessonNotFound
		}
	}

	quiz := &models.Quiz{
		CourseID:        req.CourseID,
		LessonID:        req.LessonID,
		Title:           req.Title,
		Description:     req.Description,
		Difficulty:      req.Difficulty,
		DurationMinutes: req.DurationMinutes,
		PassingScore:    req.PassingScore,
		MaxAttempts:     req.MaxAttempts,
		CreatedBy:       creatorID,
	}
	if quiz.Difficulty == "" {
		quiz.Difficulty = models.DifficultyMedium
	}

	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "course_id", quiz.CourseID)
	return quiz, nil
}

// GetByID returns the quiz with the caller's attempt standing attached.
// Unpublished quizzes are invisible to everyone but their managers.
func (s *quizService) GetByID(ctx context.Context, id string, userID string) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	canEdit, err := s.canManageQuiz(ctx, quiz, userID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsPublished && !canEdit {
		return nil, ErrQuizNotFound
	}

	return s.buildQuizResponse(ctx, quiz, userID, canEdit)
}

// GetByIDWithQuestions is the authoring view: questions come back with their
// answer keys, so only managers get it.
func (s *quizService) GetByIDWithQuestions(ctx context.Context, id string, userID string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	allowed, err := s.canManageQuiz(ctx, quiz, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrQuizAccessDenied
	}

	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, id string, req *UpdateQuizRequest, userID string) (*models.Quiz, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	quiz, err := s.getManagedQuiz(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	applyQuizUpdate(quiz, req)

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Quiz updated", "quiz_id", id)
	return quiz, nil
}

// Delete removes a quiz and its questions. Quizzes with recorded attempts are
// kept; deleting them would orphan student history.
func (s *quizService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.getManagedQuiz(ctx, id, userID); err != nil {
		return err
	}

	hasAttempts, err := s.repo.Quiz().HasAttempts(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to check attempts: %w", err)
	}
	if hasAttempts {
		return ErrQuizNotDeletable
	}

	if err := s.repo.Quiz().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted", "quiz_id", id)
	return nil
}

// ===== LIST OPERATIONS =====

// List serves the quiz catalog. Drafts only show up for admins.
func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters, userID string) (*models.QuizListResponse, error) {
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

	quizzes, total, err := s.repo.Quiz().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	return &models.QuizListResponse{
		Quizzes: quizzes,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

// GetByCourse lists a course's quizzes: published ones for everyone, drafts
// included for the course's managers.
func (s *quizService) GetByCourse(ctx context.Context, courseID string, filters repositories.QuizFilters, userID string) (*models.QuizListResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	manages, err := s.canManageCourse(ctx, course, userID)
	if err != nil {
		return nil, err
	}
	if !manages && filters.IsPublished == nil {
		published := true
		filters.IsPublished = &published
	}

	quizzes, total, err := s.repo.Quiz().GetByCourse(ctx, nil, courseID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list course quizzes: %w", err)
	}

	return &models.QuizListResponse{
		Quizzes: quizzes,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

func (s *quizService) GetByCreator(ctx context.Context, creatorID string, filters repositories.QuizFilters) (*models.QuizListResponse, error) {
	quizzes, total, err := s.repo.Quiz().GetByCreator(ctx, nil, creatorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list creator quizzes: %w", err)
	}

	return &models.QuizListResponse{
		Quizzes: quizzes,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

// ===== PUBLISHING =====

// Publish makes a quiz available to students. A quiz with no questions has
// nothing to serve and stays a draft.
func (s *quizService) Publish(ctx context.Context, id string, userID string) error {
	quiz, err := s.getManagedQuiz(ctx, id, userID)
	if err != nil {
		return err
	}

	count, err := s.repo.Question().CountByQuiz(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if errs := s.validator.ValidateQuizPublish(int(count)); len(errs) > 0 {
		return errs
	}

	if err := s.repo.Quiz().UpdatePublishStatus(ctx, nil, id, true); err != nil {
		return fmt.Errorf("failed to publish quiz: %w", err)
	}

	if s.publisher != nil {
		event := events.NewQuizPublishedEvent(quiz.ID, quiz.CourseID, quiz.Title, int(count), quiz.CreatedBy)
		if pubErr := s.publisher.PublishQuizEvent(ctx, event); pubErr != nil {
			s.logger.Warn("Failed to publish quiz published event", "quiz_id", id, "error", pubErr)
		}
	}

	s.logger.Info("Quiz published", "quiz_id", id, "question_count", count)
	return nil
}

func (s *quizService) Unpublish(ctx context.Context, id string, userID string) error {
	if _, err := s.getManagedQuiz(ctx, id, userID); err != nil {
		return err
	}

	if err := s.repo.Quiz().UpdatePublishStatus(ctx, nil, id, false); err != nil {
		return fmt.Errorf("failed to unpublish quiz: %w", err)
	}

	s.logger.Info("Quiz unpublished", "quiz_id", id)
	return nil
}

// ===== STATISTICS AND PERMISSIONS =====

func (s *quizService) GetStats(ctx context.Context, id string, userID string) (*repositories.QuizStats, error) {
	if _, err := s.getManagedQuiz(ctx, id, userID); err != nil {
		return nil, err
	}

	stats, err := s.repo.Quiz().GetStats(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz stats: %w", err)
	}
	return stats, nil
}

func (s *quizService) CanEdit(ctx context.Context, quizID, userID string) (bool, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, ErrQuizNotFound
		}
		return false, fmt.Errorf("failed to get quiz: %w", err)
	}
	return s.canManageQuiz(ctx, quiz, userID)
}
