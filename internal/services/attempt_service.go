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

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	grading   GradingService
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, grading GradingService) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		grading:   grading,
	}
}

// ===== CORE ATTEMPT FLOW =====

// Start opens a new attempt on a published quiz for an enrolled student. If
// the student already has an in-progress attempt on the quiz it is resumed
// instead of counting a new one against the limit.
func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting attempt", "quiz_id", req.QuizID, "student_id", studentID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if !quiz.IsPublished {
		return nil, ErrQuizNotPublished
	}

	enrolled, err := s.repo.Enrollment().Exists(ctx, nil, studentID, quiz.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	// Resume an open attempt rather than burning another one.
	active, err := s.repo.Attempt().GetActiveAttempt(ctx, nil, req.QuizID, studentID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}
	if active != nil {
		s.logger.Info("Resuming active attempt", "attempt_id", active.ID, "quiz_id", req.QuizID)
		return s.buildAttemptResponse(active, quiz)
	}

	count, err := s.repo.Attempt().CountByStudent(ctx, nil, req.QuizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if quiz.MaxAttempts > 0 && int(count) >= quiz.MaxAttempts {
		return nil, ErrAttemptLimitExceeded
	}

	attempt := &models.QuizAttempt{
		QuizID:    req.QuizID,
		StudentID: studentID,
		Status:    models.AttemptInProgress,
		Answers:   datatypes.JSON([]byte("{}")),
		StartedAt: time.Now(),
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// Re-check the limit inside the transaction so two racing starts
		// cannot both slip under it.
		txCount, txErr := txRepo.Attempt().CountByStudent(ctx, nil, req.QuizID, studentID)
		if txErr != nil {
			return fmt.Errorf("failed to count attempts: %w", txErr)
		}
		if quiz.MaxAttempts > 0 && int(txCount) >= quiz.MaxAttempts {
			return ErrAttemptLimitExceeded
		}
		return txRepo.Attempt().Create(ctx, nil, attempt)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewAttemptStartedEvent(attempt.ID, quiz.ID, studentID))

	s.logger.Info("Attempt started", "attempt_id", attempt.ID, "quiz_id", quiz.ID)

	return s.buildAttemptResponse(attempt, quiz)
}

// SaveAnswer upserts one answer into the attempt's answer document. Values are
// stored exactly as submitted; display-space indexes of randomized questions
// are translated at grading time, not here.
func (s *attemptService) SaveAnswer(ctx context.Context, attemptID string, req *SaveAnswerRequest, studentID string) error {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return errs
	}

	attempt, err := s.repo.Attempt().GetByIDWithQuiz(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.StudentID != studentID {
		return ErrAttemptAccessDenied
	}
	if !attempt.IsActive() {
		return ErrAttemptNotActive
	}
	if findQuestion(attempt.Quiz.Questions, req.QuestionID) == nil {
		return ErrQuestionNotFound
	}

	answers, err := attempt.AnswerMap()
	if err != nil {
		s.logger.Warn("Attempt has malformed answers, resetting document",
			"attempt_id", attemptID, "error", err)
		answers = make(map[string]json.RawMessage)
	}
	answers[req.QuestionID] = req.Answer

	encoded, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	if err := s.repo.Attempt().SaveAnswers(ctx, nil, attemptID, datatypes.JSON(encoded)); err != nil {
		// The write is guarded on in_progress status; losing the race with a
		// concurrent submit surfaces as not-found.
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotActive
		}
		return fmt.Errorf("failed to save answer: %w", err)
	}

	return nil
}

// Submit closes an attempt and grades it. The status transition happens in a
// transaction so a double submit cannot grade twice.
func (s *attemptService) Submit(ctx context.Context, attemptID string, studentID string) (*AttemptResultResponse, error) {
	s.logger.Info("Submitting attempt", "attempt_id", attemptID, "student_id", studentID)

	var gradingRequired bool
	var quizID string
	var timeSpent int

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		attempt, txErr := txRepo.Attempt().GetByIDWithQuiz(ctx, nil, attemptID)
		if txErr != nil {
			if repositories.IsNotFoundError(txErr) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", txErr)
		}

		if attempt.StudentID != studentID {
			return ErrAttemptAccessDenied
		}
		if !attempt.IsActive() {
			return ErrAttemptAlreadySubmitted
		}

		now := time.Now()
		attempt.Status = models.AttemptSubmitted
		attempt.SubmittedAt = &now
		attempt.TimeSpent = int(now.Sub(attempt.StartedAt).Seconds())

		gradingRequired = hasEssayQuestions(attempt.Quiz.Questions)
		quizID = attempt.QuizID
		timeSpent = attempt.TimeSpent

		return txRepo.Attempt().Update(ctx, nil, attempt)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewAttemptSubmittedEvent(attemptID, quizID, studentID, timeSpent, gradingRequired))

	result, err := s.grading.GradeAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to grade attempt: %w", err)
	}

	s.logger.Info("Attempt submitted",
		"attempt_id", attemptID,
		"score", result.Attempt.Score,
		"percentage", result.Attempt.Percentage,
		"grading_required", gradingRequired)

	result.Attempt.Quiz.Questions = nil
	return result, nil
}

// ===== GET OPERATIONS =====

// GetByID returns an attempt with its questions in display order. Answer keys
// never leave the server: the question views carry the randomized arrangement
// and the raw question list is stripped from the embedded quiz.
func (s *attemptService) GetByID(ctx context.Context, attemptID string, userID string) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithQuiz(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	allowed, err := s.canViewAttempt(ctx, attempt, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAttemptAccessDenied
	}

	quiz := attempt.Quiz
	return s.buildAttemptResponse(attempt, &quiz)
}

// GetResults returns the graded detail of an attempt. Attempts still in
// progress have no results to show.
func (s *attemptService) GetResults(ctx context.Context, attemptID string, userID string) (*AttemptResultResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithQuiz(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	allowed, err := s.canViewAttempt(ctx, attempt, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAttemptAccessDenied
	}

	if attempt.Status == models.AttemptInProgress {
		return nil, ErrAttemptNotGraded
	}

	results, err := decodeResults(attempt.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attempt results: %w", err)
	}

	attempt.Quiz.Questions = nil
	return &AttemptResultResponse{Attempt: attempt, Results: results}, nil
}
