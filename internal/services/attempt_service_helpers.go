package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soley-bot/acadex-sub012/internal/events"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
)

// ===== LIST OPERATIONS =====

func (s *attemptService) ListByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) (*models.AttemptListResponse, error) {
	attempts, total, err := s.repo.Attempt().ListByStudent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return &models.AttemptListResponse{
		Attempts: attempts,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}, nil
}

// ListByQuiz is an instructor view over every student's attempts on a quiz.
func (s *attemptService) ListByQuiz(ctx context.Context, quizID string, filters repositories.AttemptFilters, userID string) (*models.AttemptListResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
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

	attempts, total, err := s.repo.Attempt().ListByQuiz(ctx, nil, quizID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return &models.AttemptListResponse{
		Attempts: attempts,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}, nil
}

// GetStudentSummaries aggregates a student's per-quiz history (attempt count,
// best score, last activity), optionally scoped to one course.
func (s *attemptService) GetStudentSummaries(ctx context.Context, studentID string, courseID *string) ([]*repositories.StudentQuizSummary, error) {
	summaries, err := s.repo.Attempt().GetStudentSummaries(ctx, nil, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student summaries: %w", err)
	}
	return summaries, nil
}

// ===== VALIDATION =====

// CanStart mirrors the gates Start enforces, without side effects. An active
// attempt does not block: Start would resume it.
func (s *attemptService) CanStart(ctx context.Context, quizID, studentID string) (bool, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, ErrQuizNotFound
		}
		return false, fmt.Errorf("failed to get quiz: %w", err)
	}

	enrolled, err := s.repo.Enrollment().Exists(ctx, nil, studentID, quiz.CourseID)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return false, nil
	}

	count, err := s.repo.Attempt().CountByStudent(ctx, nil, quizID, studentID)
	if err != nil {
		return false, fmt.Errorf("failed to count attempts: %w", err)
	}

	errs := s.validator.ValidateAttemptStart(quiz, int(count))
	return len(errs) == 0, nil
}

func (s *attemptService) GetAttemptCount(ctx context.Context, quizID, studentID string) (int, error) {
	count, err := s.repo.Attempt().CountByStudent(ctx, nil, quizID, studentID)
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return int(count), nil
}

// ===== RESPONSE BUILDING =====

// buildAttemptResponse assembles the serving shape of an attempt: question
// views in display order with answer keys stripped and randomized arrangements
// attached. The raw question list is removed from the embedded quiz because it
// carries the keys.
func (s *attemptService) buildAttemptResponse(attempt *models.QuizAttempt, quiz *models.Quiz) (*AttemptResponse, error) {
	views, err := s.buildQuestionViews(quiz.Questions, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to build question views: %w", err)
	}

	attempt.Quiz = *quiz
	attempt.Quiz.Questions = nil
	attempt.Results = nil

	return &AttemptResponse{
		Attempt:   attempt,
		Questions: views,
		CanSubmit: attempt.IsActive(),
	}, nil
}

// buildQuestionViews produces one view per question. Matching and ordering
// questions are served through their per-attempt arrangement; the arrangement
// is recomputed from the seed, so reloads see the same order. The 1-based
// correct position of ordering items is zeroed before serving.
func (s *attemptService) buildQuestionViews(questions []models.Question, attemptID string) ([]models.AttemptQuestionView, error) {
	views := make([]models.AttemptQuestionView, 0, len(questions))

	for i := range questions {
		question := &questions[i]
		view := models.AttemptQuestionView{
			ID:         question.ID,
			Type:       question.Type,
			Prompt:     question.Prompt,
			Points:     question.Points,
			OrderIndex: question.OrderIndex,
		}

		switch question.Type {
		case models.Matching:
			arrangement, err := RandomizeMatchingQuestion(question, attemptID)
			if err != nil {
				return nil, err
			}
			view.Matching = arrangement

		case models.Ordering:
			arrangement, err := RandomizeOrderingQuestion(question, attemptID)
			if err != nil {
				return nil, err
			}
			for j := range arrangement.Items {
				arrangement.Items[j].CorrectPosition = 0
			}
			view.Ordering = arrangement

		case models.Essay:
			// Prompt only.

		default:
			if len(question.Options) > 0 {
				view.Options = json.RawMessage(question.Options)
			}
		}

		views = append(views, view)
	}

	return views, nil
}

// ===== PERMISSIONS =====

// canViewAttempt allows the attempt's student, the quiz creator, and admins.
func (s *attemptService) canViewAttempt(ctx context.Context, attempt *models.QuizAttempt, userID string) (bool, error) {
	if attempt.StudentID == userID || attempt.Quiz.CreatedBy == userID {
		return true, nil
	}
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to check user role: %w", err)
	}
	return isAdmin, nil
}

// canManageQuiz allows the quiz creator and admins.
func (s *attemptService) canManageQuiz(ctx context.Context, quiz *models.Quiz, userID string) (bool, error) {
	if quiz.CreatedBy == userID {
		return true, nil
	}
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to check user role: %w", err)
	}
	return isAdmin, nil
}

// ===== MISC =====

// publishEvent fires and forgets; event delivery never fails a student flow.
func (s *attemptService) publishEvent(ctx context.Context, event *events.QuizEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

func hasEssayQuestions(questions []models.Question) bool {
	for i := range questions {
		if questions[i].Type == models.Essay {
			return true
		}
	}
	return false
}
