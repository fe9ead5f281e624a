package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/soley-bot/acadex-sub012/internal/events"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
	"github.com/soley-bot/acadex-sub012/internal/validator"
)

type gradingService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewGradingService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) GradingService {
	return &gradingService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== AUTO GRADING =====

// GradeAttempt scores every question of a submitted attempt and persists the
// aggregate. Attempts containing essay questions keep the submitted status
// until every essay has been graded manually; everything else moves straight
// to graded.
func (s *gradingService) GradeAttempt(ctx context.Context, attemptID string) (*AttemptResultResponse, error) {
	s.logger.Info("Grading attempt", "attempt_id", attemptID)

	attempt, err := s.repo.Attempt().GetByIDWithQuiz(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.Status == models.AttemptInProgress {
		return nil, NewBusinessRuleError("attempt_not_submitted",
			"attempt must be submitted before grading", map[string]interface{}{
				"attempt_id": attemptID,
				"status":     attempt.Status,
			})
	}

	answers, err := attempt.AnswerMap()
	if err != nil {
		// A broken answer document grades as all-incorrect rather than failing.
		s.logger.Warn("Attempt has malformed answers, grading as empty",
			"attempt_id", attemptID, "error", err)
		answers = make(map[string]json.RawMessage)
	}

	questions := attempt.Quiz.Questions
	results := make([]models.QuestionResult, 0, len(questions))
	pending := false

	for i := range questions {
		question := &questions[i]
		answer := s.toOriginalSpace(question, attempt.ID, answers[question.ID])
		result := s.GradeQuestion(question, answer)
		if result.RequiresManualGrade {
			pending = true
		}
		results = append(results, *result)
	}

	if err := s.applyResults(ctx, attempt, results, pending); err != nil {
		return nil, err
	}

	s.logger.Info("Attempt graded",
		"attempt_id", attemptID,
		"score", attempt.Score,
		"percentage", attempt.Percentage,
		"passed", attempt.Passed,
		"pending_manual", pending)

	return &AttemptResultResponse{Attempt: attempt, Results: results}, nil
}

// ===== MANUAL GRADING =====

// GradeEssay records an instructor's score for one essay question and
// recomputes the attempt aggregate. Once the last pending essay is graded the
// attempt transitions to graded.
func (s *gradingService) GradeEssay(ctx context.Context, attemptID string, req *ManualGradeRequest, graderID string) (*AttemptResultResponse, error) {
	s.logger.Info("Manually grading essay",
		"attempt_id", attemptID,
		"question_id", req.QuestionID,
		"points", req.PointsEarned,
		"grader_id", graderID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	attempt, err := s.repo.Attempt().GetByIDWithQuiz(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.Status == models.AttemptInProgress {
		return nil, NewBusinessRuleError("attempt_not_submitted",
			"attempt must be submitted before grading", map[string]interface{}{
				"attempt_id": attemptID,
			})
	}

	allowed, err := s.canGradeQuiz(ctx, &attempt.Quiz, graderID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(graderID, attemptID, "attempt", "grade",
			"only the quiz creator or an admin can grade attempts")
	}

	question := findQuestion(attempt.Quiz.Questions, req.QuestionID)
	if question == nil {
		return nil, ErrQuestionNotFound
	}
	if question.Type != models.Essay {
		return nil, ErrGradingNotAllowed
	}
	if req.PointsEarned < 0 || req.PointsEarned > question.Points {
		return nil, ErrGradingInvalidScore
	}

	results, err := decodeResults(attempt.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attempt results: %w", err)
	}

	graded := false
	pending := false
	for i := range results {
		if results[i].QuestionID == req.QuestionID {
			results[i].PointsEarned = req.PointsEarned
			results[i].Correct = req.PointsEarned == question.Points
			results[i].RequiresManualGrade = false
			graded = true
		}
		if results[i].RequiresManualGrade {
			pending = true
		}
	}
	if !graded {
		return nil, ErrQuestionNotFound
	}

	if err := s.applyResults(ctx, attempt, results, pending); err != nil {
		return nil, err
	}

	s.logger.Info("Essay graded",
		"attempt_id", attemptID,
		"question_id", req.QuestionID,
		"points", req.PointsEarned,
		"pending_manual", pending)

	return &AttemptResultResponse{Attempt: attempt, Results: results}, nil
}

// ListPendingGrading returns submitted attempts of a quiz that still have
// ungraded essay questions.
func (s *gradingService) ListPendingGrading(ctx context.Context, quizID string, filters repositories.AttemptFilters, userID string) (*models.AttemptListResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	allowed, err := s.canGradeQuiz(ctx, quiz, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrQuizAccessDenied
	}

	attempts, total, err := s.repo.Attempt().ListPendingGrading(ctx, nil, quizID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending attempts: %w", err)
	}

	return &models.AttemptListResponse{
		Attempts: attempts,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}, nil
}

// ===== PERSISTENCE =====

// applyResults writes per-question results and the recomputed aggregate onto
// the attempt. When nothing is left pending the attempt is marked graded and
// the graded event goes out.
func (s *gradingService) applyResults(ctx context.Context, attempt *models.QuizAttempt, results []models.QuestionResult, pending bool) error {
	earned, total := sumPoints(results)

	encoded, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	attempt.Results = datatypes.JSON(encoded)
	attempt.Score = float64(earned)
	attempt.TotalPoints = total
	attempt.Percentage = scorePercentage(earned, total)
	attempt.Passed = attemptPassed(attempt.Quiz.PassingScore, attempt.Percentage)

	if !pending {
		now := time.Now()
		attempt.Status = models.AttemptGraded
		attempt.GradedAt = &now
	}

	if err := s.repo.Attempt().Update(ctx, nil, attempt); err != nil {
		return fmt.Errorf("failed to persist grading results: %w", err)
	}

	if !pending && s.publisher != nil {
		event := events.NewAttemptGradedEvent(attempt.ID, attempt.QuizID, attempt.StudentID,
			attempt.Score, attempt.TotalPoints, attempt.Percentage, attempt.Passed)
		if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish attempt graded event",
				"attempt_id", attempt.ID, "error", err)
		}
	}

	return nil
}

// canGradeQuiz reports whether userID may grade attempts of the quiz.
func (s *gradingService) canGradeQuiz(ctx context.Context, quiz *models.Quiz, userID string) (bool, error) {
	if quiz.CreatedBy == userID {
		return true, nil
	}
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to check grader role: %w", err)
	}
	return isAdmin, nil
}
