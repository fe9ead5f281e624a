package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/soley-bot/acadex-sub012/internal/events"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
	"github.com/soley-bot/acadex-sub012/internal/validator"
)

func newTestQuizService(repo *fakeRepository) (*quizService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	return &quizService{
		repo:      repo,
		logger:    testLogger(),
		validator: validator.New(),
		publisher: publisher,
	}, publisher
}

func seedCourse(t *testing.T, repo *fakeRepository, instructorID string) *models.Course {
	t.Helper()
	course := &models.Course{
		ID:           uuid.NewString(),
		Title:        "Go basics",
		InstructorID: instructorID,
		IsPublished:  true,
	}
	if err := repo.Course().Create(context.Background(), nil, course); err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}
	return course
}

func seedDraftQuiz(t *testing.T, repo *fakeRepository, courseID, creatorID string) *models.Quiz {
	t.Helper()
	quiz := &models.Quiz{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Title:     "Draft quiz",
		CreatedBy: creatorID,
	}
	if err := repo.Quiz().Create(context.Background(), nil, quiz); err != nil {
		t.Fatalf("failed to seed quiz: %v", err)
	}
	return quiz
}

func TestCreateQuiz(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	t.Run("instructor creates quiz with defaults", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)

		quiz, err := svc.Create(ctx, &CreateQuizRequest{CourseID: course.ID, Title: "Week 1 quiz"}, instructor)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if quiz.ID == "" {
			t.Error("quiz has no ID")
		}
		if quiz.CreatedBy != instructor {
			t.Errorf("CreatedBy = %s, want %s", quiz.CreatedBy, instructor)
		}
		if quiz.Difficulty != models.DifficultyMedium {
			t.Errorf("Difficulty = %s, want default medium", quiz.Difficulty)
		}
		if quiz.IsPublished {
			t.Error("new quiz must start as a draft")
		}
	})

	t.Run("explicit difficulty kept", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)

		quiz, err := svc.Create(ctx, &CreateQuizRequest{
			CourseID:   course.ID,
			Title:      "Hard quiz",
			Difficulty: models.DifficultyHard,
		}, instructor)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if quiz.Difficulty != models.DifficultyHard {
			t.Errorf("Difficulty = %s, want hard", quiz.Difficulty)
		}
	})

	t.Run("admin can create in any course", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		repo.user.roles["admin-1"] = models.RoleAdmin
		course := seedCourse(t, repo, instructor)

		if _, err := svc.Create(ctx, &CreateQuizRequest{CourseID: course.ID, Title: "Admin quiz"}, "admin-1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	})

	t.Run("non-instructor denied", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)

		_, err := svc.Create(ctx, &CreateQuizRequest{CourseID: course.ID, Title: "Nope"}, "student-1")
		var perr *PermissionError
		if !errors.As(err, &perr) {
			t.Errorf("error = %v, want PermissionError", err)
		}
	})

	t.Run("course not found", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)

		_, err := svc.Create(ctx, &CreateQuizRequest{CourseID: uuid.NewString(), Title: "Orphan"}, instructor)
		if !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("error = %v, want ErrCourseNotFound", err)
		}
	})

	t.Run("lesson must belong to the course", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)

		foreign := &models.Lesson{ID: uuid.NewString(), CourseID: uuid.NewString(), Title: "Elsewhere"}
		if err := repo.Lesson().Create(ctx, nil, foreign); err != nil {
			t.Fatalf("failed to seed lesson: %v", err)
		}

		_, err := svc.Create(ctx, &CreateQuizRequest{
			CourseID: course.ID,
			LessonID: &foreign.ID,
			Title:    "Lesson quiz",
		}, instructor)
		if !errors.Is(err, ErrLessonNotFound) {
			t.Errorf("error = %v, want ErrLessonNotFound", err)
		}
	})

	t.Run("lesson attached when it matches", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)

		lesson := &models.Lesson{ID: uuid.NewString(), CourseID: course.ID, Title: "Intro"}
		if err := repo.Lesson().Create(ctx, nil, lesson); err != nil {
			t.Fatalf("failed to seed lesson: %v", err)
		}

		quiz, err := svc.Create(ctx, &CreateQuizRequest{
			CourseID: course.ID,
			LessonID: &lesson.ID,
			Title:    "Lesson quiz",
		}, instructor)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if quiz.LessonID == nil || *quiz.LessonID != lesson.ID {
			t.Errorf("LessonID = %v, want %s", quiz.LessonID, lesson.ID)
		}
	})

	t.Run("missing title rejected", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)

		_, err := svc.Create(ctx, &CreateQuizRequest{CourseID: course.ID}, instructor)
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("error = %v, want ValidationErrors", err)
		}
	})
}

func TestQuizVisibility(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestQuizService(repo)
	repo.user.roles["admin-1"] = models.RoleAdmin

	course := seedCourse(t, repo, instructor)
	draft := seedDraftQuiz(t, repo, course.ID, instructor)

	t.Run("creator sees draft", func(t *testing.T) {
		resp, err := svc.GetByID(ctx, draft.ID, instructor)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if !resp.CanEdit {
			t.Error("CanEdit = false for the creator")
		}
	})

	t.Run("admin sees draft", func(t *testing.T) {
		if _, err := svc.GetByID(ctx, draft.ID, "admin-1"); err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
	})

	t.Run("draft hidden from students", func(t *testing.T) {
		if _, err := svc.GetByID(ctx, draft.ID, "student-1"); !errors.Is(err, ErrQuizNotFound) {
			t.Errorf("error = %v, want ErrQuizNotFound (drafts are invisible)", err)
		}
	})

	t.Run("missing quiz", func(t *testing.T) {
		if _, err := svc.GetByID(ctx, uuid.NewString(), instructor); !errors.Is(err, ErrQuizNotFound) {
			t.Errorf("error = %v, want ErrQuizNotFound", err)
		}
	})
}

func TestQuizResponseAttemptStanding(t *testing.T) {
	ctx := context.Background()
	student := "student-1"

	repo := newFakeRepository()
	svc, _ := newTestQuizService(repo)

	course := seedCourse(t, repo, "instructor-1")
	quiz := &models.Quiz{
		ID:          uuid.NewString(),
		CourseID:    course.ID,
		Title:       "Published quiz",
		CreatedBy:   "instructor-1",
		IsPublished: true,
		MaxAttempts: 3,
	}
	if err := repo.Quiz().Create(ctx, nil, quiz); err != nil {
		t.Fatalf("failed to seed quiz: %v", err)
	}

	graded := &models.QuizAttempt{
		ID:         uuid.NewString(),
		QuizID:     quiz.ID,
		StudentID:  student,
		Status:     models.AttemptGraded,
		Percentage: 80,
	}
	active := &models.QuizAttempt{
		ID:        uuid.NewString(),
		QuizID:    quiz.ID,
		StudentID: student,
		Status:    models.AttemptInProgress,
	}
	for _, attempt := range []*models.QuizAttempt{graded, active} {
		if err := repo.Attempt().Create(ctx, nil, attempt); err != nil {
			t.Fatalf("failed to seed attempt: %v", err)
		}
	}

	resp, err := svc.GetByID(ctx, quiz.ID, student)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if resp.CanEdit {
		t.Error("CanEdit = true for a student")
	}
	if resp.AttemptsUsed != 2 {
		t.Errorf("AttemptsUsed = %d, want 2", resp.AttemptsUsed)
	}
	if resp.AttemptsLeft == nil || *resp.AttemptsLeft != 1 {
		t.Errorf("AttemptsLeft = %v, want 1", resp.AttemptsLeft)
	}
	if !resp.HasActive {
		t.Error("HasActive = false with an open attempt")
	}
	if resp.BestScore == nil || *resp.BestScore != 80 {
		t.Errorf("BestScore = %v, want 80", resp.BestScore)
	}
}

func TestGetQuizWithQuestions(t *testing.T) {
	ctx := context.Background()

	repo := newFakeRepository()
	svc, _ := newTestQuizService(repo)

	quiz := seedPublishedQuiz(t, repo, choiceQuestion(t, uuid.NewString(), 1, 2))

	got, err := svc.GetByIDWithQuestions(ctx, quiz.ID, "instructor-1")
	if err != nil {
		t.Fatalf("GetByIDWithQuestions() error = %v", err)
	}
	if len(got.Questions) != 1 {
		t.Errorf("got %d questions, want 1", len(got.Questions))
	}
	if got.Questions[0].CorrectAnswer == nil {
		t.Error("authoring view must include the answer key")
	}

	if _, err := svc.GetByIDWithQuestions(ctx, quiz.ID, "student-1"); !errors.Is(err, ErrQuizAccessDenied) {
		t.Errorf("error = %v, want ErrQuizAccessDenied", err)
	}
}

func TestUpdateQuiz(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestQuizService(repo)

	course := seedCourse(t, repo, instructor)
	quiz := seedDraftQuiz(t, repo, course.ID, instructor)

	title := "Renamed quiz"
	maxAttempts := 5
	updated, err := svc.Update(ctx, quiz.ID, &UpdateQuizRequest{Title: &title, MaxAttempts: &maxAttempts}, instructor)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != title || updated.MaxAttempts != maxAttempts {
		t.Errorf("got title %q, max attempts %d", updated.Title, updated.MaxAttempts)
	}

	if _, err := svc.Update(ctx, quiz.ID, &UpdateQuizRequest{Title: &title}, "student-1"); !errors.Is(err, ErrQuizAccessDenied) {
		t.Errorf("error = %v, want ErrQuizAccessDenied", err)
	}
}

func TestPublishQuiz(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	t.Run("empty quiz stays a draft", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)
		quiz := seedDraftQuiz(t, repo, course.ID, instructor)

		err := svc.Publish(ctx, quiz.ID, instructor)
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("error = %v, want ValidationErrors", err)
		}
		if quiz.IsPublished {
			t.Error("quiz published despite having no questions")
		}
	})

	t.Run("publishes once it has a question", func(t *testing.T) {
		repo := newFakeRepository()
		svc, publisher := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)
		quiz := seedDraftQuiz(t, repo, course.ID, instructor)

		question := choiceQuestion(t, uuid.NewString(), 0, 1)
		question.QuizID = quiz.ID
		if err := repo.Question().Create(ctx, nil, question); err != nil {
			t.Fatalf("failed to seed question: %v", err)
		}

		if err := svc.Publish(ctx, quiz.ID, instructor); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if !quiz.IsPublished {
			t.Error("quiz not marked published")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventQuizPublished {
			t.Errorf("published events = %+v, want one quiz.published", published)
		}
	})

	t.Run("stranger denied", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)
		quiz := seedDraftQuiz(t, repo, course.ID, instructor)

		if err := svc.Publish(ctx, quiz.ID, "student-1"); !errors.Is(err, ErrQuizAccessDenied) {
			t.Errorf("error = %v, want ErrQuizAccessDenied", err)
		}
	})

	t.Run("unpublish", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		quiz := seedPublishedQuiz(t, repo, choiceQuestion(t, uuid.NewString(), 0, 1))

		if err := svc.Unpublish(ctx, quiz.ID, "instructor-1"); err != nil {
			t.Fatalf("Unpublish() error = %v", err)
		}
		if quiz.IsPublished {
			t.Error("quiz still published")
		}
	})
}

func TestDeleteQuiz(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestQuizService(repo)
	course := seedCourse(t, repo, instructor)

	t.Run("attempt history blocks deletion", func(t *testing.T) {
		quiz := seedDraftQuiz(t, repo, course.ID, instructor)
		repo.quiz.hasAttempts[quiz.ID] = true

		if err := svc.Delete(ctx, quiz.ID, instructor); !errors.Is(err, ErrQuizNotDeletable) {
			t.Errorf("error = %v, want ErrQuizNotDeletable", err)
		}
		exists, _ := repo.Quiz().ExistsByID(ctx, nil, quiz.ID)
		if !exists {
			t.Error("quiz removed despite existing attempts")
		}
	})

	t.Run("clean quiz deleted", func(t *testing.T) {
		quiz := seedDraftQuiz(t, repo, course.ID, instructor)

		if err := svc.Delete(ctx, quiz.ID, instructor); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		exists, _ := repo.Quiz().ExistsByID(ctx, nil, quiz.ID)
		if exists {
			t.Error("quiz still present after delete")
		}
	})

	t.Run("stranger denied", func(t *testing.T) {
		quiz := seedDraftQuiz(t, repo, course.ID, instructor)

		if err := svc.Delete(ctx, quiz.ID, "student-1"); !errors.Is(err, ErrQuizAccessDenied) {
			t.Errorf("error = %v, want ErrQuizAccessDenied", err)
		}
	})
}

func TestQuizCatalogHidesDrafts(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestQuizService(repo)
	repo.user.roles["admin-1"] = models.RoleAdmin

	course := seedCourse(t, repo, instructor)
	seedDraftQuiz(t, repo, course.ID, instructor)
	published := seedDraftQuiz(t, repo, course.ID, instructor)
	published.IsPublished = true

	t.Run("students see published only", func(t *testing.T) {
		list, err := svc.List(ctx, repositories.QuizFilters{}, "student-1")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if list.Total != 1 {
			t.Errorf("total = %d, want 1", list.Total)
		}
	})

	t.Run("admins see drafts", func(t *testing.T) {
		list, err := svc.List(ctx, repositories.QuizFilters{}, "admin-1")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if list.Total != 2 {
			t.Errorf("total = %d, want 2", list.Total)
		}
	})

	t.Run("course listing follows the same gate", func(t *testing.T) {
		list, err := svc.GetByCourse(ctx, course.ID, repositories.QuizFilters{}, "student-1")
		if err != nil {
			t.Fatalf("GetByCourse() error = %v", err)
		}
		if list.Total != 1 {
			t.Errorf("total = %d, want 1 for a student", list.Total)
		}

		list, err = svc.GetByCourse(ctx, course.ID, repositories.QuizFilters{}, instructor)
		if err != nil {
			t.Fatalf("GetByCourse() error = %v", err)
		}
		if list.Total != 2 {
			t.Errorf("total = %d, want 2 for the course instructor", list.Total)
		}
	})
}

func TestAddQuestion(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	correct := 1
	newRequest := func() *CreateQuestionRequest {
		return &CreateQuestionRequest{
			Type:          models.SingleChoice,
			Prompt:        "Pick the second option",
			Options:       json.RawMessage(`["first","second","third"]`),
			CorrectAnswer: &correct,
			Points:        2,
		}
	}

	t.Run("appends after existing questions", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)
		quiz := seedDraftQuiz(t, repo, course.ID, instructor)

		existing := choiceQuestion(t, uuid.NewString(), 0, 1)
		existing.QuizID = quiz.ID
		existing.OrderIndex = 2
		if err := repo.Question().Create(ctx, nil, existing); err != nil {
			t.Fatalf("failed to seed question: %v", err)
		}

		question, err := svc.AddQuestion(ctx, quiz.ID, newRequest(), instructor)
		if err != nil {
			t.Fatalf("AddQuestion() error = %v", err)
		}
		if question.OrderIndex != 3 {
			t.Errorf("OrderIndex = %d, want 3", question.OrderIndex)
		}
		if !question.Randomize {
			t.Error("Randomize must default to true")
		}
		if len(quiz.Questions) != 2 {
			t.Errorf("quiz carries %d questions, want 2", len(quiz.Questions))
		}
	})

	t.Run("randomize opt-out respected", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)
		quiz := seedDraftQuiz(t, repo, course.ID, instructor)

		req := newRequest()
		off := false
		req.Randomize = &off

		question, err := svc.AddQuestion(ctx, quiz.ID, req, instructor)
		if err != nil {
			t.Fatalf("AddQuestion() error = %v", err)
		}
		if question.Randomize {
			t.Error("Randomize = true after explicit opt-out")
		}
	})

	t.Run("answer index out of range rejected", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)
		quiz := seedDraftQuiz(t, repo, course.ID, instructor)

		req := newRequest()
		outOfRange := 5
		req.CorrectAnswer = &outOfRange

		_, err := svc.AddQuestion(ctx, quiz.ID, req, instructor)
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("error = %v, want ValidationErrors", err)
		}
	})

	t.Run("stranger denied", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestQuizService(repo)
		course := seedCourse(t, repo, instructor)
		quiz := seedDraftQuiz(t, repo, course.ID, instructor)

		if _, err := svc.AddQuestion(ctx, quiz.ID, newRequest(), "student-1"); !errors.Is(err, ErrQuizAccessDenied) {
			t.Errorf("error = %v, want ErrQuizAccessDenied", err)
		}
	})
}

func TestUpdateQuestion(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestQuizService(repo)
	course := seedCourse(t, repo, instructor)
	quiz := seedDraftQuiz(t, repo, course.ID, instructor)

	question := choiceQuestion(t, uuid.NewString(), 0, 1)
	question.QuizID = quiz.ID
	if err := repo.Question().Create(ctx, nil, question); err != nil {
		t.Fatalf("failed to seed question: %v", err)
	}

	prompt := "Updated prompt"
	updated, err := svc.UpdateQuestion(ctx, quiz.ID, question.ID, &UpdateQuestionRequest{Prompt: &prompt}, instructor)
	if err != nil {
		t.Fatalf("UpdateQuestion() error = %v", err)
	}
	if updated.Prompt != prompt {
		t.Errorf("Prompt = %q, want %q", updated.Prompt, prompt)
	}

	otherQuiz := seedDraftQuiz(t, repo, course.ID, instructor)
	if _, err := svc.UpdateQuestion(ctx, otherQuiz.ID, question.ID, &UpdateQuestionRequest{Prompt: &prompt}, instructor); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("error = %v, want ErrQuestionNotFound for a question of another quiz", err)
	}
}

func TestDeleteQuestion(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestQuizService(repo)
	course := seedCourse(t, repo, instructor)
	quiz := seedDraftQuiz(t, repo, course.ID, instructor)

	question := choiceQuestion(t, uuid.NewString(), 0, 1)
	question.QuizID = quiz.ID
	if err := repo.Question().Create(ctx, nil, question); err != nil {
		t.Fatalf("failed to seed question: %v", err)
	}

	if err := svc.DeleteQuestion(ctx, quiz.ID, question.ID, instructor); err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}
	if len(quiz.Questions) != 0 {
		t.Errorf("quiz still carries %d questions", len(quiz.Questions))
	}

	if err := svc.DeleteQuestion(ctx, quiz.ID, question.ID, instructor); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("error = %v, want ErrQuestionNotFound", err)
	}
}

func TestReorderQuestions(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestQuizService(repo)
	course := seedCourse(t, repo, instructor)
	quiz := seedDraftQuiz(t, repo, course.ID, instructor)

	var ids []string
	for i := 0; i < 3; i++ {
		question := choiceQuestion(t, uuid.NewString(), 0, 1)
		question.QuizID = quiz.ID
		question.OrderIndex = i + 1
		if err := repo.Question().Create(ctx, nil, question); err != nil {
			t.Fatalf("failed to seed question: %v", err)
		}
		ids = append(ids, question.ID)
	}

	t.Run("rewrites order", func(t *testing.T) {
		reordered := []string{ids[2], ids[0], ids[1]}
		if err := svc.ReorderQuestions(ctx, quiz.ID, reordered, instructor); err != nil {
			t.Fatalf("ReorderQuestions() error = %v", err)
		}

		questions, err := svc.ListQuestions(ctx, quiz.ID, instructor)
		if err != nil {
			t.Fatalf("ListQuestions() error = %v", err)
		}
		for i, question := range questions {
			if question.ID != reordered[i] {
				t.Errorf("position %d = %s, want %s", i, question.ID, reordered[i])
			}
		}
	})

	t.Run("duplicate IDs rejected", func(t *testing.T) {
		err := svc.ReorderQuestions(ctx, quiz.ID, []string{ids[0], ids[0], ids[1]}, instructor)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("error = %v, want ValidationError", err)
		}
	})

	t.Run("partial list rejected", func(t *testing.T) {
		err := svc.ReorderQuestions(ctx, quiz.ID, []string{ids[0]}, instructor)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("error = %v, want ValidationError", err)
		}
	})
}

func TestCanEditQuiz(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestQuizService(repo)
	repo.user.roles["admin-1"] = models.RoleAdmin

	course := seedCourse(t, repo, instructor)
	quiz := seedDraftQuiz(t, repo, course.ID, instructor)

	tests := []struct {
		name   string
		userID string
		want   bool
	}{
		{"creator", instructor, true},
		{"admin", "admin-1", true},
		{"student", "student-1", false},
		{"anonymous", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CanEdit(ctx, quiz.ID, tt.userID)
			if err != nil {
				t.Fatalf("CanEdit() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanEdit() = %v, want %v", got, tt.want)
			}
		})
	}
}
