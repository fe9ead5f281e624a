package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of quiz event
type EventType string

const (
	EventCoursePublished   EventType = "course.published"
	EventQuizPublished     EventType = "quiz.published"
	EventAttemptStarted    EventType = "attempt.started"
	EventAttemptSubmitted  EventType = "attempt.submitted"
	EventAttemptGraded     EventType = "attempt.graded"
	EventEnrollmentCreated EventType = "enrollment.created"
)

// QuizEvent is the envelope shared by every event the service emits.
// Consumers route on Type; Data carries the type-specific payload.
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// CoursePublishedEvent is emitted when an instructor publishes a course
type CoursePublishedEvent struct {
	CourseID     string `json:"course_id"`
	Title        string `json:"title"`
	InstructorID string `json:"instructor_id"`
	Category     string `json:"category"`
	Level        string `json:"level"`
}

// QuizPublishedEvent is emitted when a quiz becomes available to students
type QuizPublishedEvent struct {
	QuizID        string `json:"quiz_id"`
	CourseID      string `json:"course_id"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
	CreatedBy     string `json:"created_by"`
}

// AttemptStartedEvent is emitted when a student begins a quiz attempt
type AttemptStartedEvent struct {
	AttemptID string `json:"attempt_id"`
	QuizID    string `json:"quiz_id"`
	StudentID string `json:"student_id"`
}

// AttemptSubmittedEvent is emitted when a student submits an attempt.
// GradingRequired is true when the quiz contains essay questions that
// need instructor review before the final score is known.
type AttemptSubmittedEvent struct {
	AttemptID       string `json:"attempt_id"`
	QuizID          string `json:"quiz_id"`
	StudentID       string `json:"student_id"`
	TimeSpent       int    `json:"time_spent_seconds"`
	GradingRequired bool   `json:"grading_required"`
}

// AttemptGradedEvent is emitted once an attempt has a final score
type AttemptGradedEvent struct {
	AttemptID   string  `json:"attempt_id"`
	QuizID      string  `json:"quiz_id"`
	StudentID   string  `json:"student_id"`
	Score       float64 `json:"score"`
	TotalPoints int     `json:"total_points"`
	Percentage  float64 `json:"percentage"`
	Passed      bool    `json:"passed"`
}

// EnrollmentCreatedEvent is emitted when a student enrolls in a course
type EnrollmentCreatedEvent struct {
	EnrollmentID string `json:"enrollment_id"`
	CourseID     string `json:"course_id"`
	StudentID    string `json:"student_id"`
}

func newQuizEvent(eventType EventType, data interface{}) *QuizEvent {
	return &QuizEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data:      data,
	}
}

// NewCoursePublishedEvent creates a course.published event
func NewCoursePublishedEvent(courseID, title, instructorID, category, level string) *QuizEvent {
	return newQuizEvent(EventCoursePublished, CoursePublishedEvent{
		CourseID:     courseID,
		Title:        title,
		InstructorID: instructorID,
		Category:     category,
		Level:        level,
	})
}

// NewQuizPublishedEvent creates a quiz.published event
func NewQuizPublishedEvent(quizID, courseID, title string, questionCount int, createdBy string) *QuizEvent {
	return newQuizEvent(EventQuizPublished, QuizPublishedEvent{
		QuizID:        quizID,
		CourseID:      courseID,
		Title:         title,
		QuestionCount: questionCount,
		CreatedBy:     createdBy,
	})
}

// NewAttemptStartedEvent creates an attempt.started event
func NewAttemptStartedEvent(attemptID, quizID, studentID string) *QuizEvent {
	return newQuizEvent(EventAttemptStarted, AttemptStartedEvent{
		AttemptID: attemptID,
		QuizID:    quizID,
		StudentID: studentID,
	})
}

// NewAttemptSubmittedEvent creates an attempt.submitted event
func NewAttemptSubmittedEvent(attemptID, quizID, studentID string, timeSpent int, gradingRequired bool) *QuizEvent {
	return newQuizEvent(EventAttemptSubmitted, AttemptSubmittedEvent{
		AttemptID:       attemptID,
		QuizID:          quizID,
		StudentID:       studentID,
		TimeSpent:       timeSpent,
		GradingRequired: gradingRequired,
	})
}

// NewAttemptGradedEvent creates an attempt.graded event
func NewAttemptGradedEvent(attemptID, quizID, studentID string, score float64, totalPoints int, percentage float64, passed bool) *QuizEvent {
	return newQuizEvent(EventAttemptGraded, AttemptGradedEvent{
		AttemptID:   attemptID,
		QuizID:      quizID,
		StudentID:   studentID,
		Score:       score,
		TotalPoints: totalPoints,
		Percentage:  percentage,
		Passed:      passed,
	})
}

// NewEnrollmentCreatedEvent creates an enrollment.created event
func NewEnrollmentCreatedEvent(enrollmentID, courseID, studentID string) *QuizEvent {
	return newQuizEvent(EventEnrollmentCreated, EnrollmentCreatedEvent{
		EnrollmentID: enrollmentID,
		CourseID:     courseID,
		StudentID:    studentID,
	})
}
