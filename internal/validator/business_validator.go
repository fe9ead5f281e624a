package validator

import (
	"fmt"
	"strings"

	"github.com/soley-bot/acadex-sub012/internal/models"
)

const (
	minOptionCount = 2
	maxOptionCount = 10
)

// ValidateQuestionContent checks that a question's payload is coherent for its
// type: options present and sized, the answer key present and inside the
// option range. Called on create and update after the request has been mapped
// onto the model.
func (v *Validator) ValidateQuestionContent(q *models.Question) ValidationErrors {
	switch q.Type {
	case models.MultipleChoice, models.SingleChoice:
		return v.validateChoiceContent(q)
	case models.TrueFalse:
		return v.validateTrueFalseContent(q)
	case models.FillBlank:
		return v.validateFillBlankContent(q)
	case models.Matching:
		return v.validateMatchingContent(q)
	case models.Ordering:
		return v.validateOrderingContent(q)
	case models.Essay:
		// Prompt-only; graded manually.
		return nil
	default:
		return ValidationErrors{{
			Field:   "type",
			Message: "unknown question type",
			Value:   q.Type,
			Rule:    "question_type",
		}}
	}
}

func (v *Validator) validateChoiceContent(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	options, err := q.StringOptions()
	if err != nil {
		return ValidationErrors{{Field: "options", Message: "must be a list of option strings", Rule: "options"}}
	}
	errs = append(errs, checkOptionList(options)...)

	if q.CorrectAnswer == nil {
		errs = append(errs, ValidationError{Field: "correct_answer", Message: "is required", Rule: "required"})
	} else if *q.CorrectAnswer < 0 || *q.CorrectAnswer >= len(options) {
		errs = append(errs, ValidationError{
			Field:   "correct_answer",
			Message: fmt.Sprintf("must be an option index between 0 and %d", len(options)-1),
			Value:   *q.CorrectAnswer,
			Rule:    "index_range",
		})
	}
	return errs
}

func (v *Validator) validateTrueFalseContent(q *models.Question) ValidationErrors {
	if q.CorrectAnswer == nil {
		return ValidationErrors{{Field: "correct_answer", Message: "is required", Rule: "required"}}
	}
	if *q.CorrectAnswer != 0 && *q.CorrectAnswer != 1 {
		return ValidationErrors{{
			Field:   "correct_answer",
			Message: "must be 0 (true) or 1 (false)",
			Value:   *q.CorrectAnswer,
			Rule:    "index_range",
		}}
	}
	return nil
}

func (v *Validator) validateFillBlankContent(q *models.Question) ValidationErrors {
	hasText := q.CorrectAnswerText != nil && strings.TrimSpace(*q.CorrectAnswerText) != ""
	// Legacy questions store the accepted answer under correct_answer; the
	// scorer falls back the same way.
	if !hasText && q.CorrectAnswer == nil {
		return ValidationErrors{{
			Field:   "correct_answer_text",
			Message: "is required for fill_blank questions",
			Rule:    "required",
		}}
	}
	return nil
}

func (v *Validator) validateMatchingContent(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	pairs, err := q.MatchingPairs()
	if err != nil {
		return ValidationErrors{{Field: "options", Message: "must be a list of left/right pairs", Rule: "options"}}
	}
	if len(pairs) < minOptionCount || len(pairs) > maxOptionCount {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: fmt.Sprintf("must contain between %d and %d pairs", minOptionCount, maxOptionCount),
			Value:   len(pairs),
			Rule:    "option_count",
		})
	}
	for i, pair := range pairs {
		if strings.TrimSpace(pair.Left) == "" || strings.TrimSpace(pair.Right) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("options[%d]", i),
				Message: "pair sides cannot be empty",
				Rule:    "options",
			})
		}
	}

	key, err := q.CorrectMatching()
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "correct_answer_json",
			Message: "must map each left index to a right index",
			Rule:    "answer_key",
		})
		return errs
	}
	if len(key) != len(pairs) {
		errs = append(errs, ValidationError{
			Field:   "correct_answer_json",
			Message: "must cover every pair exactly once",
			Value:   len(key),
			Rule:    "answer_key",
		})
	}
	seenRight := make(map[int]bool, len(key))
	for left, right := range key {
		if left < 0 || left >= len(pairs) || right < 0 || right >= len(pairs) {
			errs = append(errs, ValidationError{
				Field:   "correct_answer_json",
				Message: fmt.Sprintf("pair %d:%d is out of range", left, right),
				Rule:    "index_range",
			})
			continue
		}
		if seenRight[right] {
			errs = append(errs, ValidationError{
				Field:   "correct_answer_json",
				Message: fmt.Sprintf("right index %d is matched more than once", right),
				Rule:    "answer_key",
			})
		}
		seenRight[right] = true
	}
	return errs
}

func (v *Validator) validateOrderingContent(q *models.Question) ValidationErrors {
	options, err := q.StringOptions()
	if err != nil {
		return ValidationErrors{{Field: "options", Message: "must be a list of items in correct order", Rule: "options"}}
	}
	return checkOptionList(options)
}

func checkOptionList(options []string) ValidationErrors {
	var errs ValidationErrors
	if len(options) < minOptionCount || len(options) > maxOptionCount {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: fmt.Sprintf("must contain between %d and %d options", minOptionCount, maxOptionCount),
			Value:   len(options),
			Rule:    "option_count",
		})
	}
	for i, option := range options {
		if strings.TrimSpace(option) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("options[%d]", i),
				Message: "option cannot be empty",
				Rule:    "options",
			})
		}
	}
	return errs
}

// ValidateQuizPublish gates publishing on the quiz having content to serve.
func (v *Validator) ValidateQuizPublish(questionCount int) ValidationErrors {
	if questionCount == 0 {
		return ValidationErrors{{
			Field:   "questions",
			Message: "quiz must have at least one question before publishing",
			Value:   questionCount,
			Rule:    "business_logic",
		}}
	}
	return nil
}

// ValidateAttemptStart checks the gates between a student and a new attempt.
func (v *Validator) ValidateAttemptStart(quiz *models.Quiz, attemptCount int) ValidationErrors {
	var errs ValidationErrors

	if !quiz.IsPublished {
		errs = append(errs, ValidationError{
			Field:   "quiz",
			Message: "quiz is not published",
			Rule:    "business_logic",
		})
	}
	if quiz.MaxAttempts > 0 && attemptCount >= quiz.MaxAttempts {
		errs = append(errs, ValidationError{
			Field:   "attempts",
			Message: "maximum attempts exceeded",
			Value:   attemptCount,
			Rule:    "business_logic",
		})
	}
	return errs
}
