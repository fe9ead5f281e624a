package repositories

import (
	"time"

	"github.com/soley-bot/acadex-sub012/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Category     *string             `json:"category"`
	Level        *models.CourseLevel `json:"level"`
	InstructorID *string             `json:"instructor_id"`
	IsPublished  *bool               `json:"is_published"`
	Query        string              `json:"query"`
	Limit        int                 `json:"limit"`
	Offset       int                 `json:"offset"`
	SortBy       string              `json:"sort_by"`    // "created_at", "title", "student_count"
	SortOrder    string              `json:"sort_order"` // "asc", "desc"
}

type QuizFilters struct {
	CourseID    *string                 `json:"course_id"`
	LessonID    *string                 `json:"lesson_id"`
	CreatedBy   *string                 `json:"created_by"`
	IsPublished *bool                   `json:"is_published"`
	Difficulty  *models.DifficultyLevel `json:"difficulty"`
	Limit       int                     `json:"limit"`
	Offset      int                     `json:"offset"`
	SortBy      string                  `json:"sort_by"`
	SortOrder   string                  `json:"sort_order"`
}

type AttemptFilters struct {
	QuizID    *string               `json:"quiz_id"`
	StudentID *string               `json:"student_id"`
	Status    *models.AttemptStatus `json:"status"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type EnrollmentFilters struct {
	StudentID *string `json:"student_id"`
	CourseID  *string `json:"course_id"`
	Completed *bool   `json:"completed"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
}

// ===== SHARED HELPER STRUCTS =====

type QuestionOrder struct {
	QuestionID string `json:"question_id"`
	Order      int    `json:"order"`
}

// ===== SHARED STATISTICS STRUCTS =====

type QuizStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	AverageScore      float64 `json:"average_score"`
	PassRate          float64 `json:"pass_rate"`
	AverageTimeSpent  int     `json:"average_time_spent"`
	QuestionCount     int     `json:"question_count"`
	TotalPoints       int     `json:"total_points"`
}

type CourseStats struct {
	EnrollmentCount int     `json:"enrollment_count"`
	LessonCount     int     `json:"lesson_count"`
	QuizCount       int     `json:"quiz_count"`
	AverageProgress float64 `json:"average_progress"`
	CompletionRate  float64 `json:"completion_rate"`
}

type StudentQuizSummary struct {
	QuizID       string     `json:"quiz_id"`
	QuizTitle    string     `json:"quiz_title"`
	AttemptCount int        `json:"attempt_count"`
	BestScore    float64    `json:"best_score"`
	BestPassed   bool       `json:"best_passed"`
	LastAttempt  *time.Time `json:"last_attempt"`
}
