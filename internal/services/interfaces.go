package services

import (
	"context"
	"encoding/json"
	"io"

	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use API request types from models
type CreateCourseRequest = models.CourseCreateRequest
type UpdateCourseRequest = models.CourseUpdateRequest
type CreateLessonRequest = models.LessonCreateRequest
type UpdateLessonRequest = models.LessonUpdateRequest
type CreateQuizRequest = models.QuizCreateRequest
type UpdateQuizRequest = models.QuizUpdateRequest
type CreateQuestionRequest = models.QuestionCreateRequest
type UpdateQuestionRequest = models.QuestionUpdateRequest
type StartAttemptRequest = models.StartAttemptRequest
type SaveAnswerRequest = models.SaveAnswerRequest
type ManualGradeRequest = models.ManualGradeRequest

type AttemptResponse = models.AttemptResponse
type AttemptResultResponse = models.AttemptResultResponse

type CourseResponse struct {
	*models.Course
	IsEnrolled bool     `json:"is_enrolled"`
	Progress   *float64 `json:"progress,omitempty"`
	CanEdit    bool     `json:"can_edit"`
}

type QuizResponse struct {
	*models.Quiz
	CanEdit      bool     `json:"can_edit"`
	AttemptsUsed int      `json:"attempts_used"`
	AttemptsLeft *int     `json:"attempts_left,omitempty"`
	HasActive    bool     `json:"has_active_attempt"`
	BestScore    *float64 `json:"best_score,omitempty"`
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateCourseRequest, instructorID string) (*models.Course, error)
	GetByID(ctx context.Context, id string, userID string) (*CourseResponse, error)
	GetByIDWithDetails(ctx context.Context, id string, userID string) (*CourseResponse, error)
	Update(ctx context.Context, id string, req *UpdateCourseRequest, userID string) (*models.Course, error)
	Delete(ctx context.Context, id string, userID string) error

	// Catalog operations
	List(ctx context.Context, filters repositories.CourseFilters, userID string) (*models.CourseListResponse, error)
	Search(ctx context.Context, query string, filters repositories.CourseFilters) (*models.CourseListResponse, error)
	GetByInstructor(ctx context.Context, instructorID string, filters repositories.CourseFilters) (*models.CourseListResponse, error)
	Categories(ctx context.Context) ([]string, error)

	// Publishing
	Publish(ctx context.Context, id string, userID string) error

	// Lesson management
	AddLesson(ctx context.Context, courseID string, req *CreateLessonRequest, userID string) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, courseID, lessonID string, req *UpdateLessonRequest, userID string) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, courseID, lessonID string, userID string) error
	ReorderLessons(ctx context.Context, courseID string, lessonIDs []string, userID string) error

	// Enrollment
	Enroll(ctx context.Context, courseID, studentID string) (*models.Enrollment, error)
	GetEnrollment(ctx context.Context, courseID, studentID string) (*models.Enrollment, error)
	ListEnrollments(ctx context.Context, studentID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error)
	UpdateProgress(ctx context.Context, courseID, studentID string, progress float64) (*models.Enrollment, error)

	// Statistics and permission checks
	GetStats(ctx context.Context, id string, userID string) (*repositories.CourseStats, error)
	CanEdit(ctx context.Context, courseID, userID string) (bool, error)
}

type QuizService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*models.Quiz, error)
	GetByID(ctx context.Context, id string, userID string) (*QuizResponse, error)
	GetByIDWithQuestions(ctx context.Context, id string, userID string) (*models.Quiz, error)
	Update(ctx context.Context, id string, req *UpdateQuizRequest, userID string) (*models.Quiz, error)
	Delete(ctx context.Context, id string, userID string) error

	// List operations
	List(ctx context.Context, filters repositories.QuizFilters, userID string) (*models.QuizListResponse, error)
	GetByCourse(ctx context.Context, courseID string, filters repositories.QuizFilters, userID string) (*models.QuizListResponse, error)
	GetByCreator(ctx context.Context, creatorID string, filters repositories.QuizFilters) (*models.QuizListResponse, error)

	// Publishing
	Publish(ctx context.Context, id string, userID string) error
	Unpublish(ctx context.Context, id string, userID string) error

	// Question management
	AddQuestion(ctx context.Context, quizID string, req *CreateQuestionRequest, userID string) (*models.Question, error)
	UpdateQuestion(ctx context.Context, quizID, questionID string, req *UpdateQuestionRequest, userID string) (*models.Question, error)
	DeleteQuestion(ctx context.Context, quizID, questionID string, userID string) error
	ListQuestions(ctx context.Context, quizID string, userID string) ([]*models.Question, error)
	ReorderQuestions(ctx context.Context, quizID string, questionIDs []string, userID string) error

	// Statistics and permission checks
	GetStats(ctx context.Context, id string, userID string) (*repositories.QuizStats, error)
	CanEdit(ctx context.Context, quizID, userID string) (bool, error)
}

type AttemptService interface {
	// Core attempt operations
	Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error)
	SaveAnswer(ctx context.Context, attemptID string, req *SaveAnswerRequest, studentID string) error
	Submit(ctx context.Context, attemptID string, studentID string) (*AttemptResultResponse, error)

	// Get operations
	GetByID(ctx context.Context, attemptID string, userID string) (*AttemptResponse, error)
	GetResults(ctx context.Context, attemptID string, userID string) (*AttemptResultResponse, error)

	// List operations
	ListByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) (*models.AttemptListResponse, error)
	ListByQuiz(ctx context.Context, quizID string, filters repositories.AttemptFilters, userID string) (*models.AttemptListResponse, error)
	GetStudentSummaries(ctx context.Context, studentID string, courseID *string) ([]*repositories.StudentQuizSummary, error)

	// Validation
	CanStart(ctx context.Context, quizID, studentID string) (bool, error)
	GetAttemptCount(ctx context.Context, quizID, studentID string) (int, error)
}

type GradingService interface {
	// Auto grading
	GradeQuestion(question *models.Question, answer json.RawMessage) *models.QuestionResult
	GradeAttempt(ctx context.Context, attemptID string) (*AttemptResultResponse, error)

	// Manual grading
	GradeEssay(ctx context.Context, attemptID string, req *ManualGradeRequest, graderID string) (*AttemptResultResponse, error)
	ListPendingGrading(ctx context.Context, quizID string, filters repositories.AttemptFilters, userID string) (*models.AttemptListResponse, error)
}

type ImportExportService interface {
	// Spreadsheet import/export of quiz questions
	ImportQuestions(ctx context.Context, quizID string, file io.Reader, userID string) (*models.QuestionImportResult, error)
	ExportQuestions(ctx context.Context, quizID string, userID string) ([]byte, error)
	ExportResults(ctx context.Context, quizID string, userID string) ([]byte, error)
	GetImportTemplate() ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Course() CourseService
	Quiz() QuizService
	Attempt() AttemptService
	Grading() GradingService
	ImportExport() ImportExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
