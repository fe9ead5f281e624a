package services

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
)

// Map-backed repository fakes for service tests. Each fake embeds its
// interface, so only the methods a test path actually reaches need an
// implementation; an unexpected call panics and fails the test loudly.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepository struct {
	course     *fakeCourseRepo
	lesson     *fakeLessonRepo
	enrollment *fakeEnrollmentRepo
	quiz       *fakeQuizRepo
	question   *fakeQuestionRepo
	attempt    *fakeAttemptRepo
	user       *fakeUserRepo
}

func newFakeRepository() *fakeRepository {
	quizzes := make(map[string]*models.Quiz)
	return &fakeRepository{
		course:     &fakeCourseRepo{courses: make(map[string]*models.Course)},
		lesson:     &fakeLessonRepo{lessons: make(map[string]*models.Lesson)},
		enrollment: &fakeEnrollmentRepo{enrollments: make(map[string]*models.Enrollment)},
		quiz:       &fakeQuizRepo{quizzes: quizzes, hasAttempts: make(map[string]bool)},
		question:   &fakeQuestionRepo{questions: make(map[string]*models.Question), quizzes: quizzes},
		attempt:    &fakeAttemptRepo{attempts: make(map[string]*models.QuizAttempt), quizzes: quizzes},
		user:       &fakeUserRepo{roles: make(map[string]models.UserRole)},
	}
}

func (f *fakeRepository) Course() repositories.CourseRepository         { return f.course }
func (f *fakeRepository) Lesson() repositories.LessonRepository         { return f.lesson }
func (f *fakeRepository) Enrollment() repositories.EnrollmentRepository { return f.enrollment }
func (f *fakeRepository) Quiz() repositories.QuizRepository             { return f.quiz }
func (f *fakeRepository) Question() repositories.QuestionRepository     { return f.question }
func (f *fakeRepository) Attempt() repositories.AttemptRepository       { return f.attempt }
func (f *fakeRepository) User() repositories.UserRepository             { return f.user }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== COURSE =====

type fakeCourseRepo struct {
	repositories.CourseRepository
	courses map[string]*models.Course
}

func (f *fakeCourseRepo) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (f *fakeCourseRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeCourseRepo) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	delete(f.courses, id)
	return nil
}

func (f *fakeCourseRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	_, ok := f.courses[id]
	return ok, nil
}

func (f *fakeCourseRepo) UpdatePublishStatus(ctx context.Context, tx *gorm.DB, id string, published bool) error {
	course, ok := f.courses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	course.IsPublished = published
	return nil
}

// ===== LESSON =====

type fakeLessonRepo struct {
	repositories.LessonRepository
	lessons map[string]*models.Lesson
}

func (f *fakeLessonRepo) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	f.lessons[lesson.ID] = lesson
	return nil
}

func (f *fakeLessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Lesson, error) {
	lesson, ok := f.lessons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return lesson, nil
}

func (f *fakeLessonRepo) Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	f.lessons[lesson.ID] = lesson
	return nil
}

func (f *fakeLessonRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	delete(f.lessons, id)
	return nil
}

func (f *fakeLessonRepo) CountByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error) {
	var count int64
	for _, lesson := range f.lessons {
		if lesson.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLessonRepo) MaxOrderIndex(ctx context.Context, tx *gorm.DB, courseID string) (int, error) {
	max := 0
	for _, lesson := range f.lessons {
		if lesson.CourseID == courseID && lesson.OrderIndex > max {
			max = lesson.OrderIndex
		}
	}
	return max, nil
}

// ===== ENROLLMENT =====

type fakeEnrollmentRepo struct {
	repositories.EnrollmentRepository
	enrollments map[string]*models.Enrollment
}

func enrollmentKey(studentID, courseID string) string {
	return studentID + "/" + courseID
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	f.enrollments[enrollmentKey(enrollment.StudentID, enrollment.CourseID)] = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID string) (*models.Enrollment, error) {
	enrollment, ok := f.enrollments[enrollmentKey(studentID, courseID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return enrollment, nil
}

func (f *fakeEnrollmentRepo) Exists(ctx context.Context, tx *gorm.DB, studentID, courseID string) (bool, error) {
	_, ok := f.enrollments[enrollmentKey(studentID, courseID)]
	return ok, nil
}

func (f *fakeEnrollmentRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, id string, progress float64) error {
	for _, enrollment := range f.enrollments {
		if enrollment.ID == id {
			enrollment.Progress = progress
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentRepo) CountByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error) {
	var count int64
	for _, enrollment := range f.enrollments {
		if enrollment.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

// ===== QUIZ =====

type fakeQuizRepo struct {
	repositories.QuizRepository
	quizzes     map[string]*models.Quiz
	hasAttempts map[string]bool
}

func (f *fakeQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	f.quizzes[quiz.ID] = quiz
	return nil
}

func (f *fakeQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) {
	quiz, ok := f.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (f *fakeQuizRepo) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeQuizRepo) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	f.quizzes[quiz.ID] = quiz
	return nil
}

func (f *fakeQuizRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	delete(f.quizzes, id)
	return nil
}

func (f *fakeQuizRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	_, ok := f.quizzes[id]
	return ok, nil
}

func (f *fakeQuizRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var out []*models.Quiz
	for _, quiz := range f.quizzes {
		if filters.IsPublished != nil && quiz.IsPublished != *filters.IsPublished {
			continue
		}
		if filters.CreatedBy != nil && quiz.CreatedBy != *filters.CreatedBy {
			continue
		}
		out = append(out, quiz)
	}
	return out, int64(len(out)), nil
}

func (f *fakeQuizRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var out []*models.Quiz
	for _, quiz := range f.quizzes {
		if quiz.CourseID != courseID {
			continue
		}
		if filters.IsPublished != nil && quiz.IsPublished != *filters.IsPublished {
			continue
		}
		out = append(out, quiz)
	}
	return out, int64(len(out)), nil
}

func (f *fakeQuizRepo) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var out []*models.Quiz
	for _, quiz := range f.quizzes {
		if quiz.CreatedBy == creatorID {
			out = append(out, quiz)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeQuizRepo) HasAttempts(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	return f.hasAttempts[id], nil
}

func (f *fakeQuizRepo) UpdatePublishStatus(ctx context.Context, tx *gorm.DB, id string, published bool) error {
	quiz, ok := f.quizzes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	quiz.IsPublished = published
	return nil
}

// ===== QUESTION =====

type fakeQuestionRepo struct {
	repositories.QuestionRepository
	questions map[string]*models.Question
	quizzes   map[string]*models.Quiz
}

func (f *fakeQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	f.questions[question.ID] = question
	f.syncQuiz(question.QuizID)
	return nil
}

func (f *fakeQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, question := range questions {
		if err := f.Create(ctx, tx, question); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error) {
	question, ok := f.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return question, nil
}

func (f *fakeQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	f.questions[question.ID] = question
	f.syncQuiz(question.QuizID)
	return nil
}

func (f *fakeQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	question, ok := f.questions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.questions, id)
	f.syncQuiz(question.QuizID)
	return nil
}

func (f *fakeQuestionRepo) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID string) ([]*models.Question, error) {
	var out []*models.Question
	for _, question := range f.questions {
		if question.QuizID == quizID {
			out = append(out, question)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (f *fakeQuestionRepo) CountByQuiz(ctx context.Context, tx *gorm.DB, quizID string) (int64, error) {
	var count int64
	for _, question := range f.questions {
		if question.QuizID == quizID {
			count++
		}
	}
	return count, nil
}

func (f *fakeQuestionRepo) MaxOrderIndex(ctx context.Context, tx *gorm.DB, quizID string) (int, error) {
	max := 0
	for _, question := range f.questions {
		if question.QuizID == quizID && question.OrderIndex > max {
			max = question.OrderIndex
		}
	}
	return max, nil
}

func (f *fakeQuestionRepo) Reorder(ctx context.Context, tx *gorm.DB, quizID string, questionIDs []string) error {
	for position, id := range questionIDs {
		question, ok := f.questions[id]
		if !ok || question.QuizID != quizID {
			return gorm.ErrRecordNotFound
		}
		question.OrderIndex = position
	}
	f.syncQuiz(quizID)
	return nil
}

// syncQuiz keeps the quiz's embedded question slice consistent with the
// question table, the way a preload would see it.
func (f *fakeQuestionRepo) syncQuiz(quizID string) {
	quiz, ok := f.quizzes[quizID]
	if !ok {
		return
	}
	questions, _ := f.ListByQuiz(context.Background(), nil, quizID)
	quiz.Questions = make([]models.Question, 0, len(questions))
	for _, question := range questions {
		quiz.Questions = append(quiz.Questions, *question)
	}
}

// ===== ATTEMPT =====

type fakeAttemptRepo struct {
	repositories.AttemptRepository
	attempts  map[string]*models.QuizAttempt
	quizzes   map[string]*models.Quiz
	summaries []*repositories.StudentQuizSummary
}

func (f *fakeAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	f.attempts[attempt.ID] = attempt
	return nil
}

func (f *fakeAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error) {
	attempt, ok := f.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return attempt, nil
}

func (f *fakeAttemptRepo) GetByIDWithQuiz(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error) {
	attempt, ok := f.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// Reattach the quiz on every read, like a preload would.
	if quiz, ok := f.quizzes[attempt.QuizID]; ok {
		attempt.Quiz = *quiz
	}
	return attempt, nil
}

func (f *fakeAttemptRepo) Update(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	f.attempts[attempt.ID] = attempt
	return nil
}

func (f *fakeAttemptRepo) GetActiveAttempt(ctx context.Context, tx *gorm.DB, quizID, studentID string) (*models.QuizAttempt, error) {
	for _, attempt := range f.attempts {
		if attempt.QuizID == quizID && attempt.StudentID == studentID && attempt.Status == models.AttemptInProgress {
			return attempt, nil
		}
	}
	return nil, nil
}

func (f *fakeAttemptRepo) CountByStudent(ctx context.Context, tx *gorm.DB, quizID, studentID string) (int64, error) {
	var count int64
	for _, attempt := range f.attempts {
		if attempt.QuizID == quizID && attempt.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttemptRepo) SaveAnswers(ctx context.Context, tx *gorm.DB, attemptID string, answers datatypes.JSON) error {
	attempt, ok := f.attempts[attemptID]
	if !ok || attempt.Status != models.AttemptInProgress {
		return gorm.ErrRecordNotFound
	}
	attempt.Answers = answers
	return nil
}

func (f *fakeAttemptRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var out []*models.QuizAttempt
	for _, attempt := range f.attempts {
		if attempt.StudentID != studentID {
			continue
		}
		if filters.QuizID != nil && attempt.QuizID != *filters.QuizID {
			continue
		}
		if filters.Status != nil && attempt.Status != *filters.Status {
			continue
		}
		out = append(out, attempt)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttemptRepo) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var out []*models.QuizAttempt
	for _, attempt := range f.attempts {
		if attempt.QuizID == quizID {
			out = append(out, attempt)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttemptRepo) ListPendingGrading(ctx context.Context, tx *gorm.DB, quizID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var out []*models.QuizAttempt
	for _, attempt := range f.attempts {
		if attempt.QuizID == quizID && attempt.Status == models.AttemptSubmitted {
			out = append(out, attempt)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttemptRepo) GetStudentSummaries(ctx context.Context, tx *gorm.DB, studentID string, courseID *string) ([]*repositories.StudentQuizSummary, error) {
	return f.summaries, nil
}

// ===== USER =====

type fakeUserRepo struct {
	repositories.UserRepository
	roles map[string]models.UserRole
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	role, ok := f.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.User{ID: id, Role: role}, nil
}

func (f *fakeUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := f.roles[id]
	return ok, nil
}

func (f *fakeUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	return f.roles[id] == role, nil
}
