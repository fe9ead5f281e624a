package models

import (
	"encoding/json"
)

// ===== COURSE DTOS =====

type CourseCreateRequest struct {
	Title       string      `json:"title" validate:"required,min=1,max=255"`
	Description string      `json:"description" validate:"max=5000"`
	Category    string      `json:"category" validate:"max=100"`
	Level       CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	ImageURL    *string     `json:"image_url" validate:"omitempty,url,max=500"`
}

type CourseUpdateRequest struct {
	Title       *string      `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string      `json:"description" validate:"omitempty,max=5000"`
	Category    *string      `json:"category" validate:"omitempty,max=100"`
	Level       *CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	ImageURL    *string      `json:"image_url" validate:"omitempty,url,max=500"`
}

type LessonCreateRequest struct {
	Title         string  `json:"title" validate:"required,min=1,max=255"`
	Content       string  `json:"content"`
	VideoURL      *string `json:"video_url" validate:"omitempty,url,max=500"`
	OrderIndex    int     `json:"order_index" validate:"min=0"`
	IsFreePreview bool    `json:"is_free_preview"`
}

type LessonUpdateRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content       *string `json:"content"`
	VideoURL      *string `json:"video_url" validate:"omitempty,url,max=500"`
	OrderIndex    *int    `json:"order_index" validate:"omitempty,min=0"`
	IsFreePreview *bool   `json:"is_free_preview"`
}

type ProgressUpdateRequest struct {
	Progress float64 `json:"progress" validate:"min=0,max=100"`
}

type LessonReorderRequest struct {
	// LessonIDs lists every lesson of the course in its new order.
	LessonIDs []string `json:"lesson_ids" validate:"required,min=1,dive,uuid4"`
}

type CourseListResponse struct {
	Courses []*Course `json:"courses"`
	Total   int64     `json:"total"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}

type EnrollmentListResponse struct {
	Enrollments []*Enrollment `json:"enrollments"`
	Total       int64         `json:"total"`
	Limit       int           `json:"limit"`
	Offset      int           `json:"offset"`
}

// ===== QUIZ DTOS =====

type QuizCreateRequest struct {
	CourseID        string          `json:"course_id" validate:"required,uuid4"`
	LessonID        *string         `json:"lesson_id" validate:"omitempty,uuid4"`
	Title           string          `json:"title" validate:"required,min=1,max=255"`
	Description     string          `json:"description" validate:"max=5000"`
	Difficulty      DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	DurationMinutes int             `json:"duration_minutes" validate:"quiz_duration"`
	PassingScore    *int            `json:"passing_score" validate:"omitempty,passing_score"`
	MaxAttempts     int             `json:"max_attempts" validate:"max_attempts"`
}

type QuizUpdateRequest struct {
	Title           *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Description     *string          `json:"description" validate:"omitempty,max=5000"`
	Difficulty      *DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	DurationMinutes *int             `json:"duration_minutes" validate:"omitempty,quiz_duration"`
	PassingScore    *int             `json:"passing_score" validate:"omitempty,passing_score"`
	MaxAttempts     *int             `json:"max_attempts" validate:"omitempty,max_attempts"`
}

type QuestionCreateRequest struct {
	Type              QuestionType    `json:"type" validate:"required,question_type"`
	Prompt            string          `json:"prompt" validate:"required"`
	Options           json.RawMessage `json:"options"`
	CorrectAnswer     *int            `json:"correct_answer"`
	CorrectAnswerText *string         `json:"correct_answer_text" validate:"omitempty,max=500"`
	CorrectAnswerJSON json.RawMessage `json:"correct_answer_json"`
	Explanation       *string         `json:"explanation"`
	Points            int             `json:"points" validate:"points_range"`
	OrderIndex        int             `json:"order_index" validate:"min=0"`
	Randomize         *bool           `json:"randomize"`
}

type QuestionUpdateRequest struct {
	Prompt            *string         `json:"prompt" validate:"omitempty,min=1"`
	Options           json.RawMessage `json:"options"`
	CorrectAnswer     *int            `json:"correct_answer"`
	CorrectAnswerText *string         `json:"correct_answer_text" validate:"omitempty,max=500"`
	CorrectAnswerJSON json.RawMessage `json:"correct_answer_json"`
	Explanation       *string         `json:"explanation"`
	Points            *int            `json:"points" validate:"omitempty,points_range"`
	OrderIndex        *int            `json:"order_index" validate:"omitempty,min=0"`
	Randomize         *bool           `json:"randomize"`
}

type QuestionReorderRequest struct {
	// QuestionIDs lists every question of the quiz in its new order.
	QuestionIDs []string `json:"question_ids" validate:"required,min=1,dive,uuid4"`
}

type QuizListResponse struct {
	Quizzes []*Quiz `json:"quizzes"`
	Total   int64   `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// ===== ATTEMPT DTOS =====

type StartAttemptRequest struct {
	QuizID string `json:"quiz_id" validate:"required,uuid4"`
}

type SaveAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required,uuid4"`
	// Answer is stored as submitted, in display space for randomized types.
	Answer json.RawMessage `json:"answer" validate:"required"`
}

type ManualGradeRequest struct {
	QuestionID   string `json:"question_id" validate:"required,uuid4"`
	PointsEarned int    `json:"points_earned" validate:"min=0"`
}

// AttemptQuestionView is a question as served inside an attempt: answer key
// fields stripped, randomized display content attached for matching/ordering.
type AttemptQuestionView struct {
	ID         string       `json:"id"`
	Type       QuestionType `json:"type"`
	Prompt     string       `json:"prompt"`
	Points     int          `json:"points"`
	OrderIndex int          `json:"order_index"`

	// Options is present for choice, true_false and fill_blank types.
	Options json.RawMessage `json:"options,omitempty"`

	// Matching and Ordering carry the per-attempt display arrangement.
	Matching *RandomizedMatching `json:"matching,omitempty"`
	Ordering *RandomizedOrdering `json:"ordering,omitempty"`
}

type AttemptResponse struct {
	Attempt   *QuizAttempt          `json:"attempt"`
	Questions []AttemptQuestionView `json:"questions,omitempty"`
	CanSubmit bool                  `json:"can_submit"`
}

type AttemptResultResponse struct {
	Attempt *QuizAttempt     `json:"attempt"`
	Results []QuestionResult `json:"results"`
}

type AttemptListResponse struct {
	Attempts []*QuizAttempt `json:"attempts"`
	Total    int64          `json:"total"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
}

// ===== IMPORT / EXPORT DTOS =====

type QuestionImportResult struct {
	Imported int                   `json:"imported"`
	Skipped  int                   `json:"skipped"`
	Errors   []QuestionImportError `json:"errors,omitempty"`
}

type QuestionImportError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}
