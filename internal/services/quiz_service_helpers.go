package services

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
)

// ===== QUESTION MANAGEMENT =====

// AddQuestion appends a question to a quiz. Content is validated per type:
// option counts, answer index in range, matching key well formed.
func (s *quizService) AddQuestion(ctx context.Context, quizID string, req *CreateQuestionRequest, userID string) (*models.Question, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if _, err := s.getManagedQuiz(ctx, quizID, userID); err != nil {
		return nil, err
	}

	question := &models.Question{
		QuizID:            quizID,
		Type:              req.Type,
		Prompt:            req.Prompt,
		Options:           datatypes.JSON(req.Options),
		CorrectAnswer:     req.CorrectAnswer,
		CorrectAnswerText: req.CorrectAnswerText,
		CorrectAnswerJSON: datatypes.JSON(req.CorrectAnswerJSON),
		Explanation:       req.Explanation,
		Points:            req.Points,
		OrderIndex:        req.OrderIndex,
		Randomize:         true,
	}
	if req.Randomize != nil {
		question.Randomize = *req.Randomize
	}

	if req.OrderIndex == 0 {
		max, err := s.repo.Question().MaxOrderIndex(ctx, nil, quizID)
		if err != nil {
			return nil, fmt.Errorf("failed to get question order: %w", err)
		}
		question.OrderIndex = max + 1
	}

	if errs := s.validator.ValidateQuestionContent(question); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question added", "quiz_id", quizID, "question_id", question.ID, "type", question.Type)
	return question, nil
}

func (s *quizService) UpdateQuestion(ctx context.Context, quizID, questionID string, req *UpdateQuestionRequest, userID string) (*models.Question, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if _, err := s.getManagedQuiz(ctx, quizID, userID); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != quizID {
		return nil, ErrQuestionNotFound
	}

	applyQuestionUpdate(question, req)

	if errs := s.validator.ValidateQuestionContent(question); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question updated", "quiz_id", quizID, "question_id", questionID)
	return question, nil
}

func (s *quizService) DeleteQuestion(ctx context.Context, quizID, questionID string, userID string) error {
	if _, err := s.getManagedQuiz(ctx, quizID, userID); err != nil {
		return err
	}

	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != quizID {
		return ErrQuestionNotFound
	}

	if err := s.repo.Question().Delete(ctx, nil, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted", "quiz_id", quizID, "question_id", questionID)
	return nil
}

// ListQuestions is the authoring list, answer keys included.
func (s *quizService) ListQuestions(ctx context.Context, quizID string, userID string) ([]*models.Question, error) {
	if _, err := s.getManagedQuiz(ctx, quizID, userID); err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().ListByQuiz(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// ReorderQuestions rewrites order indexes from the given complete ID list.
// The list must name every question of the quiz exactly once.
func (s *quizService) ReorderQuestions(ctx context.Context, quizID string, questionIDs []string, userID string) error {
	if _, err := s.getManagedQuiz(ctx, quizID, userID); err != nil {
		return err
	}

	seen := make(map[string]bool, len(questionIDs))
	for _, id := range questionIDs {
		if seen[id] {
			return NewValidationError("question_ids", "contains duplicate question IDs", id)
		}
		seen[id] = true
	}

	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		count, err := txRepo.Question().CountByQuiz(ctx, nil, quizID)
		if err != nil {
			return fmt.Errorf("failed to count questions: %w", err)
		}
		if int(count) != len(questionIDs) {
			return NewValidationError("question_ids",
				fmt.Sprintf("must list all %d questions of the quiz", count), len(questionIDs))
		}
		return txRepo.Question().Reorder(ctx, nil, quizID, questionIDs)
	})
}

// ===== RESPONSE BUILDING =====

// buildQuizResponse attaches the caller's attempt standing to the quiz.
func (s *quizService) buildQuizResponse(ctx context.Context, quiz *models.Quiz, userID string, canEdit bool) (*QuizResponse, error) {
	response := &QuizResponse{
		Quiz:    quiz,
		CanEdit: canEdit,
	}

	used, err := s.repo.Attempt().CountByStudent(ctx, nil, quiz.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	response.AttemptsUsed = int(used)

	if quiz.MaxAttempts > 0 {
		left := quiz.MaxAttempts - int(used)
		if left < 0 {
			left = 0
		}
		response.AttemptsLeft = &left
	}

	active, err := s.repo.Attempt().GetActiveAttempt(ctx, nil, quiz.ID, userID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}
	response.HasActive = active != nil

	if response.AttemptsUsed > 0 {
		best, err := s.bestScore(ctx, quiz.ID, userID)
		if err != nil {
			return nil, err
		}
		response.BestScore = best
	}

	return response, nil
}

// bestScore is the highest percentage across the student's finished attempts,
// nil when none are graded yet.
func (s *quizService) bestScore(ctx context.Context, quizID, studentID string) (*float64, error) {
	status := models.AttemptGraded
	attempts, _, err := s.repo.Attempt().ListByStudent(ctx, nil, studentID, repositories.AttemptFilters{
		QuizID: &quizID,
		Status: &status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	if len(attempts) == 0 {
		return nil, nil
	}

	best := attempts[0].Percentage
	for _, attempt := range attempts[1:] {
		if attempt.Percentage > best {
			best = attempt.Percentage
		}
	}
	return &best, nil
}

// ===== PERMISSIONS =====

// getManagedQuiz loads a quiz and verifies the caller may manage it.
func (s *quizService) getManagedQuiz(ctx context.Context, quizID, userID string) (*models.Quiz, error) {
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
	return quiz, nil
}

func (s *quizService) canManageQuiz(ctx context.Context, quiz *models.Quiz, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if quiz.CreatedBy == userID {
		return true, nil
	}
	return s.isAdmin(ctx, userID)
}

func (s *quizService) canManageCourse(ctx context.Context, course *models.Course, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if course.InstructorID == userID {
		return true, nil
	}
	return s.isAdmin(ctx, userID)
}

func (s *quizService) isAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to check user role: %w", err)
	}
	return isAdmin, nil
}

// ===== FIELD APPLICATION =====

func applyQuizUpdate(quiz *models.Quiz, req *UpdateQuizRequest) {
	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.Difficulty != nil {
		quiz.Difficulty = *req.Difficulty
	}
	if req.DurationMinutes != nil {
		quiz.DurationMinutes = *req.DurationMinutes
	}
	if req.PassingScore != nil {
		quiz.PassingScore = req.PassingScore
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = *req.MaxAttempts
	}
}

func applyQuestionUpdate(question *models.Question, req *UpdateQuestionRequest) {
	if req.Prompt != nil {
		question.Prompt = *req.Prompt
	}
	if len(req.Options) > 0 {
		question.Options = datatypes.JSON(req.Options)
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = req.CorrectAnswer
	}
	if req.CorrectAnswerText != nil {
		question.CorrectAnswerText = req.CorrectAnswerText
	}
	if len(req.CorrectAnswerJSON) > 0 {
		question.CorrectAnswerJSON = datatypes.JSON(req.CorrectAnswerJSON)
	}
	if req.Explanation != nil {
		question.Explanation = req.Explanation
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.OrderIndex != nil {
		question.OrderIndex = *req.OrderIndex
	}
	if req.Randomize != nil {
		question.Randomize = *req.Randomize
	}
}
