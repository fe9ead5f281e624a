package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
)

// QuizAttempt is one student's run at a quiz. Answers live in a single JSONB
// column keyed by question ID, holding whatever the client submitted in
// display space; translation back to original indexes happens at grading.
type QuizAttempt struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	QuizID    string `json:"quiz_id" gorm:"not null;index;size:36"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255"`

	Status  AttemptStatus  `json:"status" gorm:"not null;size:20;default:in_progress;index"`
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	Results datatypes.JSON `json:"results,omitempty" gorm:"type:jsonb"`

	Score       float64 `json:"score" gorm:"default:0"`
	TotalPoints int     `json:"total_points" gorm:"default:0"`
	Percentage  float64 `json:"percentage" gorm:"default:0"`
	Passed      bool    `json:"passed" gorm:"default:false"`

	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at"`

	// TimeSpent is wall-clock seconds between start and submission.
	TimeSpent int `json:"time_spent" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz    Quiz `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	Student User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AnswerMap decodes the answers column. Values stay raw because their shape
// depends on the question type they answer.
func (a *QuizAttempt) AnswerMap() (map[string]json.RawMessage, error) {
	answers := make(map[string]json.RawMessage)
	if len(a.Answers) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(a.Answers, &answers); err != nil {
		return nil, fmt.Errorf("attempt %s: invalid answers payload: %w", a.ID, err)
	}
	return answers, nil
}

// IsActive reports whether the attempt still accepts answers.
func (a *QuizAttempt) IsActive() bool {
	return a.Status == AttemptInProgress
}

// QuestionResult is the per-question grading detail stored on the attempt's
// Results column.
type QuestionResult struct {
	QuestionID     string `json:"question_id"`
	Correct        bool   `json:"correct"`
	PointsEarned   int    `json:"points_earned"`
	PointsPossible int    `json:"points_possible"`

	// RequiresManualGrade marks essay questions awaiting instructor review.
	RequiresManualGrade bool `json:"requires_manual_grade,omitempty"`
}
