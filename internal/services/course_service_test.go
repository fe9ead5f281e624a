package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/soley-bot/acadex-sub012/internal/events"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/validator"
)

func newTestCourseService(repo *fakeRepository) (*courseService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	return &courseService{
		repo:      repo,
		logger:    testLogger(),
		validator: validator.New(),
		publisher: publisher,
	}, publisher
}

func TestCreateCourse(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	t.Run("defaults level to beginner", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)

		course, err := svc.Create(ctx, &CreateCourseRequest{Title: "Go basics"}, instructor)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if course.ID == "" {
			t.Error("course has no ID")
		}
		if course.Level != models.LevelBeginner {
			t.Errorf("Level = %s, want beginner", course.Level)
		}
		if course.InstructorID != instructor {
			t.Errorf("InstructorID = %s, want %s", course.InstructorID, instructor)
		}
		if course.IsPublished {
			t.Error("new course must start as a draft")
		}
	})

	t.Run("explicit level kept", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)

		course, err := svc.Create(ctx, &CreateCourseRequest{Title: "Go deep", Level: models.LevelAdvanced}, instructor)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if course.Level != models.LevelAdvanced {
			t.Errorf("Level = %s, want advanced", course.Level)
		}
	})

	t.Run("missing title rejected", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)

		_, err := svc.Create(ctx, &CreateCourseRequest{}, instructor)
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("error = %v, want ValidationErrors", err)
		}
	})
}

func TestCourseVisibility(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestCourseService(repo)

	draft := &models.Course{
		ID:           uuid.NewString(),
		Title:        "Unreleased course",
		InstructorID: instructor,
	}
	if err := repo.Course().Create(ctx, nil, draft); err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}

	resp, err := svc.GetByID(ctx, draft.ID, instructor)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !resp.CanEdit {
		t.Error("CanEdit = false for the instructor")
	}

	if _, err := svc.GetByID(ctx, draft.ID, "student-1"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("error = %v, want ErrCourseNotFound (drafts are invisible)", err)
	}

	if _, err := svc.GetByID(ctx, uuid.NewString(), instructor); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("error = %v, want ErrCourseNotFound", err)
	}
}

func TestCourseDetailsLockContent(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	videoURL := "https://cdn.example.com/lesson-2.mp4"
	seed := func(t *testing.T) (*fakeRepository, *courseService, *models.Course) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)

		course := &models.Course{
			ID:           uuid.NewString(),
			Title:        "Go basics",
			InstructorID: instructor,
			IsPublished:  true,
			Lessons: []models.Lesson{
				{ID: uuid.NewString(), Title: "Intro", Content: "welcome", IsFreePreview: true},
				{ID: uuid.NewString(), Title: "Pointers", Content: "the good stuff", VideoURL: &videoURL},
			},
		}
		if err := repo.Course().Create(ctx, nil, course); err != nil {
			t.Fatalf("failed to seed course: %v", err)
		}
		return repo, svc, course
	}

	t.Run("visitor sees previews only", func(t *testing.T) {
		_, svc, course := seed(t)

		resp, err := svc.GetByIDWithDetails(ctx, course.ID, "student-1")
		if err != nil {
			t.Fatalf("GetByIDWithDetails() error = %v", err)
		}
		if resp.IsEnrolled {
			t.Error("IsEnrolled = true for a visitor")
		}

		lessons := resp.Course.Lessons
		if lessons[0].Content != "welcome" {
			t.Error("free preview content must stay visible")
		}
		if lessons[1].Content != "" || lessons[1].VideoURL != nil {
			t.Error("locked lesson content leaked to a visitor")
		}
		if lessons[1].Title != "Pointers" {
			t.Error("lesson titles must stay visible")
		}
	})

	t.Run("enrolled student sees everything", func(t *testing.T) {
		repo, svc, course := seed(t)
		enrollStudent(t, repo, "student-1", course.ID)

		resp, err := svc.GetByIDWithDetails(ctx, course.ID, "student-1")
		if err != nil {
			t.Fatalf("GetByIDWithDetails() error = %v", err)
		}
		if !resp.IsEnrolled {
			t.Error("IsEnrolled = false for an enrolled student")
		}
		if resp.Course.Lessons[1].Content != "the good stuff" {
			t.Error("enrolled student lost lesson content")
		}
	})

	t.Run("instructor sees everything", func(t *testing.T) {
		_, svc, course := seed(t)

		resp, err := svc.GetByIDWithDetails(ctx, course.ID, instructor)
		if err != nil {
			t.Fatalf("GetByIDWithDetails() error = %v", err)
		}
		if resp.Course.Lessons[1].Content != "the good stuff" {
			t.Error("instructor lost lesson content")
		}
	})
}

func TestUpdateCourse(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestCourseService(repo)
	course := seedCourse(t, repo, instructor)

	title := "Renamed course"
	category := "programming"
	updated, err := svc.Update(ctx, course.ID, &UpdateCourseRequest{Title: &title, Category: &category}, instructor)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != title || updated.Category != category {
		t.Errorf("got title %q, category %q", updated.Title, updated.Category)
	}

	if _, err := svc.Update(ctx, course.ID, &UpdateCourseRequest{Title: &title}, "student-1"); !errors.Is(err, ErrCourseAccessDenied) {
		t.Errorf("error = %v, want ErrCourseAccessDenied", err)
	}
}

func TestDeleteCourse(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	t.Run("enrollments block deletion", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)
		course := seedCourse(t, repo, instructor)
		enrollStudent(t, repo, "student-1", course.ID)

		if err := svc.Delete(ctx, course.ID, instructor); !errors.Is(err, ErrCourseNotDeletable) {
			t.Errorf("error = %v, want ErrCourseNotDeletable", err)
		}
		exists, _ := repo.Course().ExistsByID(ctx, nil, course.ID)
		if !exists {
			t.Error("course removed despite enrolled students")
		}
	})

	t.Run("empty course deleted", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)
		course := seedCourse(t, repo, instructor)

		if err := svc.Delete(ctx, course.ID, instructor); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		exists, _ := repo.Course().ExistsByID(ctx, nil, course.ID)
		if exists {
			t.Error("course still present after delete")
		}
	})
}

func TestPublishCourse(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	t.Run("needs a lesson", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)
		course := seedCourse(t, repo, instructor)
		course.IsPublished = false

		err := svc.Publish(ctx, course.ID, instructor)
		var bre *BusinessRuleError
		if !errors.As(err, &bre) {
			t.Fatalf("error = %v, want BusinessRuleError", err)
		}
		if course.IsPublished {
			t.Error("course published despite having no lessons")
		}
	})

	t.Run("publishes with a lesson", func(t *testing.T) {
		repo := newFakeRepository()
		svc, publisher := newTestCourseService(repo)
		course := seedCourse(t, repo, instructor)
		course.IsPublished = false

		lesson := &models.Lesson{ID: uuid.NewString(), CourseID: course.ID, Title: "Intro"}
		if err := repo.Lesson().Create(ctx, nil, lesson); err != nil {
			t.Fatalf("failed to seed lesson: %v", err)
		}

		if err := svc.Publish(ctx, course.ID, instructor); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if !course.IsPublished {
			t.Error("course not marked published")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventCoursePublished {
			t.Errorf("published events = %+v, want one course.published", published)
		}
	})

	t.Run("stranger denied", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)
		course := seedCourse(t, repo, instructor)

		if err := svc.Publish(ctx, course.ID, "student-1"); !errors.Is(err, ErrCourseAccessDenied) {
			t.Errorf("error = %v, want ErrCourseAccessDenied", err)
		}
	})
}

func TestAddLesson(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestCourseService(repo)
	course := seedCourse(t, repo, instructor)

	first, err := svc.AddLesson(ctx, course.ID, &CreateLessonRequest{Title: "Intro", Content: "welcome"}, instructor)
	if err != nil {
		t.Fatalf("AddLesson() error = %v", err)
	}
	if first.OrderIndex != 1 {
		t.Errorf("first lesson OrderIndex = %d, want 1", first.OrderIndex)
	}

	second, err := svc.AddLesson(ctx, course.ID, &CreateLessonRequest{Title: "Pointers"}, instructor)
	if err != nil {
		t.Fatalf("AddLesson() error = %v", err)
	}
	if second.OrderIndex != 2 {
		t.Errorf("second lesson OrderIndex = %d, want 2", second.OrderIndex)
	}

	if _, err := svc.AddLesson(ctx, course.ID, &CreateLessonRequest{Title: "Nope"}, "student-1"); !errors.Is(err, ErrCourseAccessDenied) {
		t.Errorf("error = %v, want ErrCourseAccessDenied", err)
	}
}

func TestUpdateAndDeleteLesson(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestCourseService(repo)
	course := seedCourse(t, repo, instructor)

	lesson, err := svc.AddLesson(ctx, course.ID, &CreateLessonRequest{Title: "Intro"}, instructor)
	if err != nil {
		t.Fatalf("AddLesson() error = %v", err)
	}

	title := "Introduction"
	preview := true
	updated, err := svc.UpdateLesson(ctx, course.ID, lesson.ID, &UpdateLessonRequest{Title: &title, IsFreePreview: &preview}, instructor)
	if err != nil {
		t.Fatalf("UpdateLesson() error = %v", err)
	}
	if updated.Title != title || !updated.IsFreePreview {
		t.Errorf("got title %q, preview %v", updated.Title, updated.IsFreePreview)
	}

	otherCourse := seedCourse(t, repo, instructor)
	if _, err := svc.UpdateLesson(ctx, otherCourse.ID, lesson.ID, &UpdateLessonRequest{Title: &title}, instructor); !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("error = %v, want ErrLessonNotFound for a lesson of another course", err)
	}

	if err := svc.DeleteLesson(ctx, course.ID, lesson.ID, instructor); err != nil {
		t.Fatalf("DeleteLesson() error = %v", err)
	}
	if err := svc.DeleteLesson(ctx, course.ID, lesson.ID, instructor); !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("error = %v, want ErrLessonNotFound after deletion", err)
	}
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()
	student := "student-1"

	t.Run("enrolls in a published course", func(t *testing.T) {
		repo := newFakeRepository()
		svc, publisher := newTestCourseService(repo)
		course := seedCourse(t, repo, "instructor-1")

		enrollment, err := svc.Enroll(ctx, course.ID, student)
		if err != nil {
			t.Fatalf("Enroll() error = %v", err)
		}
		if enrollment.ID == "" {
			t.Error("enrollment has no ID")
		}
		if enrollment.Progress != 0 {
			t.Errorf("Progress = %v, want 0", enrollment.Progress)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventEnrollmentCreated {
			t.Errorf("published events = %+v, want one enrollment.created", published)
		}
	})

	t.Run("draft course rejects enrollment", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)
		course := seedCourse(t, repo, "instructor-1")
		course.IsPublished = false

		if _, err := svc.Enroll(ctx, course.ID, student); !errors.Is(err, ErrCourseNotPublished) {
			t.Errorf("error = %v, want ErrCourseNotPublished", err)
		}
	})

	t.Run("double enrollment rejected", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)
		course := seedCourse(t, repo, "instructor-1")

		if _, err := svc.Enroll(ctx, course.ID, student); err != nil {
			t.Fatalf("Enroll() error = %v", err)
		}
		if _, err := svc.Enroll(ctx, course.ID, student); !errors.Is(err, ErrAlreadyEnrolled) {
			t.Errorf("error = %v, want ErrAlreadyEnrolled", err)
		}
	})

	t.Run("missing course", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestCourseService(repo)

		if _, err := svc.Enroll(ctx, uuid.NewString(), student); !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("error = %v, want ErrCourseNotFound", err)
		}
	})
}

func TestUpdateProgress(t *testing.T) {
	ctx := context.Background()
	student := "student-1"

	repo := newFakeRepository()
	svc, _ := newTestCourseService(repo)
	course := seedCourse(t, repo, "instructor-1")
	enrollStudent(t, repo, student, course.ID)

	t.Run("records progress", func(t *testing.T) {
		enrollment, err := svc.UpdateProgress(ctx, course.ID, student, 40)
		if err != nil {
			t.Fatalf("UpdateProgress() error = %v", err)
		}
		if enrollment.Progress != 40 {
			t.Errorf("Progress = %v, want 40", enrollment.Progress)
		}
		if enrollment.CompletedAt != nil {
			t.Error("CompletedAt set before reaching 100")
		}
	})

	t.Run("full progress completes the course", func(t *testing.T) {
		enrollment, err := svc.UpdateProgress(ctx, course.ID, student, 100)
		if err != nil {
			t.Fatalf("UpdateProgress() error = %v", err)
		}
		if enrollment.CompletedAt == nil {
			t.Error("CompletedAt not set at 100%")
		}
	})

	t.Run("out of range rejected", func(t *testing.T) {
		_, err := svc.UpdateProgress(ctx, course.ID, student, 140)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("error = %v, want ValidationError", err)
		}
	})

	t.Run("not enrolled", func(t *testing.T) {
		if _, err := svc.UpdateProgress(ctx, course.ID, "student-2", 10); !errors.Is(err, ErrNotEnrolled) {
			t.Errorf("error = %v, want ErrNotEnrolled", err)
		}
	})
}

func TestCanEditCourse(t *testing.T) {
	ctx := context.Background()
	instructor := "instructor-1"

	repo := newFakeRepository()
	svc, _ := newTestCourseService(repo)
	repo.user.roles["admin-1"] = models.RoleAdmin
	course := seedCourse(t, repo, instructor)

	tests := []struct {
		name   string
		userID string
		want   bool
	}{
		{"instructor", instructor, true},
		{"admin", "admin-1", true},
		{"student", "student-1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CanEdit(ctx, course.ID, tt.userID)
			if err != nil {
				t.Fatalf("CanEdit() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanEdit() = %v, want %v", got, tt.want)
			}
		})
	}
}
