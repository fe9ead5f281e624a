package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	SingleChoice   QuestionType = "single_choice"
	TrueFalse      QuestionType = "true_false"
	FillBlank      QuestionType = "fill_blank"
	Matching       QuestionType = "matching"
	Ordering       QuestionType = "ordering"
	Essay          QuestionType = "essay"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type Quiz struct {
	ID       string  `json:"id" gorm:"primaryKey;size:36"`
	CourseID string  `json:"course_id" gorm:"not null;index;size:36"`
	LessonID *string `json:"lesson_id" gorm:"index;size:36"`

	Title       string          `json:"title" gorm:"not null;size:255" validate:"required,max=255"`
	Description string          `json:"description" gorm:"type:text"`
	Difficulty  DifficultyLevel `json:"difficulty" gorm:"size:20;default:medium;index"`

	// DurationMinutes of 0 means untimed.
	DurationMinutes int `json:"duration_minutes" gorm:"default:0"`

	// PassingScore is a percentage threshold. Nil means the quiz has no
	// passing bar and every graded attempt counts as passed.
	PassingScore *int `json:"passing_score" validate:"omitempty,min=0,max=100"`

	// MaxAttempts of 0 means unlimited.
	MaxAttempts int  `json:"max_attempts" gorm:"default:0" validate:"min=0,max=20"`
	IsPublished bool `json:"is_published" gorm:"default:false;index"`

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID"`

	// Computed
	QuestionCount int `json:"question_count" gorm:"-"`
	TotalPoints   int `json:"total_points" gorm:"-"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// Question holds one quiz question. Options carries the type-specific payload
// as JSONB: a string list for choice and ordering types (ordering options are
// stored in their correct order), or a MatchingPair list for matching.
//
// The answer key is split across three columns by type:
//   - CorrectAnswer: option index for choice types (true_false uses 0=true, 1=false)
//   - CorrectAnswerText: accepted text for fill_blank
//   - CorrectAnswerJSON: left->right original-index pair map for matching
type Question struct {
	ID     string       `json:"id" gorm:"primaryKey;size:36"`
	QuizID string       `json:"quiz_id" gorm:"not null;index;size:36"`
	Type   QuestionType `json:"type" gorm:"not null;size:20;index"`
	Prompt string       `json:"prompt" gorm:"type:text;not null" validate:"required"`

	Options           datatypes.JSON `json:"options" gorm:"type:jsonb"`
	CorrectAnswer     *int           `json:"correct_answer,omitempty"`
	CorrectAnswerText *string        `json:"correct_answer_text,omitempty" gorm:"size:500"`
	CorrectAnswerJSON datatypes.JSON `json:"correct_answer_json,omitempty" gorm:"type:jsonb"`

	Explanation *string `json:"explanation" gorm:"type:text"`
	Points      int     `json:"points" gorm:"default:1" validate:"min=1,max=100"`
	OrderIndex  int     `json:"order_index" gorm:"not null;default:0;index"`

	// Randomize controls per-question shuffling of matching/ordering content
	// when the question is served inside an attempt.
	Randomize bool `json:"randomize" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// MatchingPair is one left/right pair of a matching question, stored in
// Options in original order.
type MatchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// StringOptions decodes Options for choice, fill_blank and ordering types.
func (q *Question) StringOptions() ([]string, error) {
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, fmt.Errorf("question %s: invalid options payload: %w", q.ID, err)
	}
	return options, nil
}

// MatchingPairs decodes Options for matching questions.
func (q *Question) MatchingPairs() ([]MatchingPair, error) {
	var pairs []MatchingPair
	if err := json.Unmarshal(q.Options, &pairs); err != nil {
		return nil, fmt.Errorf("question %s: invalid matching options payload: %w", q.ID, err)
	}
	return pairs, nil
}

// CorrectMatching decodes the stored answer key for matching questions as a
// map from original left index to original right index. JSON object keys are
// strings, so indexes are parsed back to ints here.
func (q *Question) CorrectMatching() (map[int]int, error) {
	if len(q.CorrectAnswerJSON) == 0 {
		return nil, fmt.Errorf("question %s: missing matching answer key", q.ID)
	}
	raw := make(map[string]int)
	if err := json.Unmarshal(q.CorrectAnswerJSON, &raw); err != nil {
		return nil, fmt.Errorf("question %s: invalid matching answer key: %w", q.ID, err)
	}
	pairs := make(map[int]int, len(raw))
	for key, right := range raw {
		left, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("question %s: non-numeric answer key index %q", q.ID, key)
		}
		pairs[left] = right
	}
	return pairs, nil
}

// ===== RANDOMIZED DISPLAY SHAPES =====
//
// Matching and ordering questions are served shuffled. Each display item is
// tagged with the index it came from so answers submitted in display space can
// be translated back to original space at grading time.

type MatchingDisplayItem struct {
	Text          string `json:"text"`
	OriginalIndex int    `json:"original_index"`
	DisplayIndex  int    `json:"display_index"`
}

type OrderingDisplayItem struct {
	Text          string `json:"text"`
	OriginalIndex int    `json:"original_index"`
	// CorrectPosition is 1-based; ordering options are stored in correct
	// order, so it is always OriginalIndex+1. Stripped before serving.
	CorrectPosition int `json:"correct_position,omitempty"`
	DisplayIndex    int `json:"display_index"`
}

// RandomizedMatching is the display arrangement of one matching question.
// Mappings translate display index to original index, one per column.
type RandomizedMatching struct {
	LeftItems    []MatchingDisplayItem `json:"left_items"`
	RightItems   []MatchingDisplayItem `json:"right_items"`
	LeftMapping  []int                 `json:"left_mapping"`
	RightMapping []int                 `json:"right_mapping"`
}

// RandomizedOrdering is the display arrangement of one ordering question.
type RandomizedOrdering struct {
	Items   []OrderingDisplayItem `json:"items"`
	Mapping []int                 `json:"mapping"`
}
