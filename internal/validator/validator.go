package validator

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/soley-bot/acadex-sub012/internal/errors"
	"github.com/soley-bot/acadex-sub012/internal/models"
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// Validator wraps go-playground struct validation plus the quiz-domain rules
// registered below. One instance is shared by services and handlers.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := &Validator{validate: validator.New()}
	v.registerDomainRules()
	return v
}

// Validate runs struct-tag validation and converts failures to the shared
// ValidationErrors shape. Returns nil when the struct passes.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return apperrors.ToValidationErrors(err)
	}
	return nil
}

func (v *Validator) registerDomainRules() {
	v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		switch models.QuestionType(fl.Field().String()) {
		case models.MultipleChoice, models.SingleChoice, models.TrueFalse,
			models.FillBlank, models.Matching, models.Ordering, models.Essay:
			return true
		}
		return false
	})

	v.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		switch models.DifficultyLevel(fl.Field().String()) {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
			return true
		}
		return false
	})

	// Percentage threshold a graded attempt must reach.
	v.validate.RegisterValidation("passing_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= 0 && score <= 100
	})

	// 0 means untimed.
	v.validate.RegisterValidation("quiz_duration", func(fl validator.FieldLevel) bool {
		duration := fl.Field().Int()
		return duration >= 0 && duration <= 300
	})

	// 0 means unlimited.
	v.validate.RegisterValidation("max_attempts", func(fl validator.FieldLevel) bool {
		attempts := fl.Field().Int()
		return attempts >= 0 && attempts <= 20
	})

	v.validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 100
	})
}
