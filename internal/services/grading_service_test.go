package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/soley-bot/acadex-sub012/internal/events"
	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
	"github.com/soley-bot/acadex-sub012/internal/validator"
)

func newTestGradingService(repo *fakeRepository) (*gradingService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	return &gradingService{
		repo:      repo,
		logger:    testLogger(),
		validator: validator.New(),
		publisher: publisher,
	}, publisher
}

// ===== QUESTION FIXTURES =====

func choiceQuestion(t *testing.T, id string, correct, points int) *models.Question {
	t.Helper()
	options, err := json.Marshal([]string{"red", "green", "blue"})
	if err != nil {
		t.Fatalf("failed to marshal options: %v", err)
	}
	return &models.Question{
		ID:            id,
		Type:          models.SingleChoice,
		Prompt:        "Which color is the sky?",
		Options:       datatypes.JSON(options),
		CorrectAnswer: &correct,
		Points:        points,
	}
}

func trueFalseQuestion(id string, correct, points int) *models.Question {
	return &models.Question{
		ID:            id,
		Type:          models.TrueFalse,
		Prompt:        "Water boils at 100C at sea level",
		CorrectAnswer: &correct,
		Points:        points,
	}
}

func fillBlankQuestion(id, answer string, points int) *models.Question {
	return &models.Question{
		ID:                id,
		Type:              models.FillBlank,
		Prompt:            "The capital of France is ____",
		CorrectAnswerText: &answer,
		Points:            points,
	}
}

func essayQuestion(id string, points int) *models.Question {
	return &models.Question{
		ID:     id,
		Type:   models.Essay,
		Prompt: "Discuss the causes of the industrial revolution",
		Points: points,
	}
}

// ===== PER-QUESTION SCORING =====

func TestGradeQuestionChoice(t *testing.T) {
	svc, _ := newTestGradingService(newFakeRepository())
	question := choiceQuestion(t, "q-choice", 1, 2)

	tests := []struct {
		name    string
		answer  string
		correct bool
	}{
		{"correct index", `1`, true},
		{"wrong index", `0`, false},
		{"numeric string", `"1"`, true},
		{"out of range index", `7`, false},
		{"undecodable answer", `{"pick":1}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.GradeQuestion(question, json.RawMessage(tt.answer))
			if result.Correct != tt.correct {
				t.Errorf("Correct = %v, want %v", result.Correct, tt.correct)
			}
			wantPoints := 0
			if tt.correct {
				wantPoints = question.Points
			}
			if result.PointsEarned != wantPoints {
				t.Errorf("PointsEarned = %d, want %d", result.PointsEarned, wantPoints)
			}
			if result.PointsPossible != question.Points {
				t.Errorf("PointsPossible = %d, want %d", result.PointsPossible, question.Points)
			}
		})
	}
}

func TestGradeQuestionTrueFalse(t *testing.T) {
	svc, _ := newTestGradingService(newFakeRepository())

	tests := []struct {
		name    string
		correct int
		answer  string
		want    bool
	}{
		{"boolean true against true", 0, `true`, true},
		{"boolean false against true", 0, `false`, false},
		{"boolean false against false", 1, `false`, true},
		{"index form", 1, `1`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			question := trueFalseQuestion("q-tf", tt.correct, 1)
			result := svc.GradeQuestion(question, json.RawMessage(tt.answer))
			if result.Correct != tt.want {
				t.Errorf("Correct = %v, want %v", result.Correct, tt.want)
			}
		})
	}
}

func TestGradeQuestionFillBlank(t *testing.T) {
	svc, _ := newTestGradingService(newFakeRepository())

	tests := []struct {
		name     string
		question *models.Question
		answer   string
		want     bool
	}{
		{"exact match", fillBlankQuestion("q-fb", "Paris", 3), `"Paris"`, true},
		{"case and whitespace", fillBlankQuestion("q-fb", "Paris", 3), `"  PARIS "`, true},
		{"wrong text", fillBlankQuestion("q-fb", "Paris", 3), `"London"`, false},
		{"numeric key fallback", func() *models.Question {
			q := fillBlankQuestion("q-fb", "", 3)
			q.CorrectAnswerText = nil
			answer := 42
			q.CorrectAnswer = &answer
			return q
		}(), `"42"`, true},
		{"no answer key", func() *models.Question {
			q := fillBlankQuestion("q-fb", "", 3)
			q.CorrectAnswerText = nil
			return q
		}(), `"anything"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.GradeQuestion(tt.question, json.RawMessage(tt.answer))
			if result.Correct != tt.want {
				t.Errorf("Correct = %v, want %v", result.Correct, tt.want)
			}
		})
	}
}

func TestGradeQuestionMatching(t *testing.T) {
	svc, _ := newTestGradingService(newFakeRepository())
	question := matchingFixture(t, false)
	question.Points = 4

	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"all pairs correct", `{"0":0,"1":1,"2":2,"3":3,"4":4}`, true},
		{"one pair swapped", `{"0":1,"1":0,"2":2,"3":3,"4":4}`, false},
		{"missing pair", `{"0":0,"1":1,"2":2,"3":3}`, false},
		{"not a map", `[0,1,2,3,4]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.GradeQuestion(question, json.RawMessage(tt.answer))
			if result.Correct != tt.want {
				t.Errorf("Correct = %v, want %v", result.Correct, tt.want)
			}
		})
	}
}

func TestGradeQuestionOrdering(t *testing.T) {
	svc, _ := newTestGradingService(newFakeRepository())
	question := orderingFixture(t, false)
	question.Points = 5

	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"correct positions", `{"0":1,"1":2,"2":3,"3":4,"4":5}`, true},
		{"two items swapped", `{"0":2,"1":1,"2":3,"3":4,"4":5}`, false},
		{"incomplete", `{"0":1,"1":2}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.GradeQuestion(question, json.RawMessage(tt.answer))
			if result.Correct != tt.want {
				t.Errorf("Correct = %v, want %v", result.Correct, tt.want)
			}
		})
	}
}

func TestGradeQuestionEssay(t *testing.T) {
	svc, _ := newTestGradingService(newFakeRepository())
	question := essayQuestion("q-essay", 10)

	for _, answer := range []json.RawMessage{json.RawMessage(`"my essay text"`), nil} {
		result := svc.GradeQuestion(question, answer)
		if !result.RequiresManualGrade {
			t.Errorf("RequiresManualGrade = false, want true")
		}
		if result.Correct || result.PointsEarned != 0 {
			t.Errorf("essay auto-graded: correct=%v earned=%d", result.Correct, result.PointsEarned)
		}
		if result.PointsPossible != 10 {
			t.Errorf("PointsPossible = %d, want 10", result.PointsPossible)
		}
	}
}

func TestGradeQuestionEmptyAnswer(t *testing.T) {
	svc, _ := newTestGradingService(newFakeRepository())
	question := choiceQuestion(t, "q-choice", 0, 2)

	for _, answer := range []json.RawMessage{nil, json.RawMessage(`null`), json.RawMessage(`  `)} {
		result := svc.GradeQuestion(question, answer)
		if result.Correct || result.PointsEarned != 0 || result.RequiresManualGrade {
			t.Errorf("empty answer graded as %+v", result)
		}
	}
}

// ===== AGGREGATES =====

func TestScorePercentage(t *testing.T) {
	if got := scorePercentage(3, 4); got != 75 {
		t.Errorf("scorePercentage(3,4) = %v, want 75", got)
	}
	if got := scorePercentage(0, 0); got != 0 {
		t.Errorf("scorePercentage(0,0) = %v, want 0", got)
	}
}

func TestAttemptPassed(t *testing.T) {
	if !attemptPassed(nil, 0) {
		t.Error("attempt without passing bar should pass")
	}
	bar := 60
	if attemptPassed(&bar, 59.9) {
		t.Error("59.9 should not pass a bar of 60")
	}
	if !attemptPassed(&bar, 60) {
		t.Error("60 should pass a bar of 60")
	}
}

// ===== FULL ATTEMPT GRADING =====

func submittedAttempt(t *testing.T, quizID, studentID string, answers map[string]interface{}) *models.QuizAttempt {
	t.Helper()
	encoded, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("failed to marshal answers: %v", err)
	}
	now := time.Now()
	return &models.QuizAttempt{
		ID:          uuid.NewString(),
		QuizID:      quizID,
		StudentID:   studentID,
		Status:      models.AttemptSubmitted,
		Answers:     datatypes.JSON(encoded),
		StartedAt:   now.Add(-5 * time.Minute),
		SubmittedAt: &now,
	}
}

func TestGradeAttempt(t *testing.T) {
	ctx := context.Background()
	passing := 60

	q1 := choiceQuestion(t, uuid.NewString(), 1, 2)
	q2 := fillBlankQuestion(uuid.NewString(), "Paris", 3)

	setup := func(answers map[string]interface{}) (*gradingService, *events.MockEventPublisher, *models.QuizAttempt) {
		repo := newFakeRepository()
		svc, publisher := newTestGradingService(repo)

		quiz := &models.Quiz{
			ID:           uuid.NewString(),
			CourseID:     uuid.NewString(),
			Title:        "Geography basics",
			PassingScore: &passing,
			IsPublished:  true,
			CreatedBy:    "instructor-1",
			Questions:    []models.Question{*q1, *q2},
		}
		if err := repo.Quiz().Create(ctx, nil, quiz); err != nil {
			t.Fatalf("failed to seed quiz: %v", err)
		}

		attempt := submittedAttempt(t, quiz.ID, "student-1", answers)
		if err := repo.Attempt().Create(ctx, nil, attempt); err != nil {
			t.Fatalf("failed to seed attempt: %v", err)
		}
		return svc, publisher, attempt
	}

	t.Run("all answers correct", func(t *testing.T) {
		svc, publisher, attempt := setup(map[string]interface{}{
			q1.ID: 1,
			q2.ID: "  PARIS ",
		})

		result, err := svc.GradeAttempt(ctx, attempt.ID)
		if err != nil {
			t.Fatalf("GradeAttempt() error = %v", err)
		}

		if result.Attempt.Score != 5 || result.Attempt.TotalPoints != 5 {
			t.Errorf("score = %v/%d, want 5/5", result.Attempt.Score, result.Attempt.TotalPoints)
		}
		if result.Attempt.Percentage != 100 {
			t.Errorf("percentage = %v, want 100", result.Attempt.Percentage)
		}
		if !result.Attempt.Passed {
			t.Error("attempt should pass")
		}
		if result.Attempt.Status != models.AttemptGraded {
			t.Errorf("status = %s, want graded", result.Attempt.Status)
		}
		if result.Attempt.GradedAt == nil {
			t.Error("GradedAt not set")
		}
		if len(result.Results) != 2 {
			t.Fatalf("got %d results, want 2", len(result.Results))
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventAttemptGraded {
			t.Errorf("published events = %+v, want one attempt.graded", published)
		}
	})

	t.Run("partial score below passing bar", func(t *testing.T) {
		svc, _, attempt := setup(map[string]interface{}{
			q1.ID: 1,
			q2.ID: "Lyon",
		})

		result, err := svc.GradeAttempt(ctx, attempt.ID)
		if err != nil {
			t.Fatalf("GradeAttempt() error = %v", err)
		}

		if result.Attempt.Score != 2 {
			t.Errorf("score = %v, want 2", result.Attempt.Score)
		}
		if result.Attempt.Percentage != 40 {
			t.Errorf("percentage = %v, want 40", result.Attempt.Percentage)
		}
		if result.Attempt.Passed {
			t.Error("attempt should not pass at 40%")
		}
	})

	t.Run("unanswered questions score zero", func(t *testing.T) {
		svc, _, attempt := setup(map[string]interface{}{})

		result, err := svc.GradeAttempt(ctx, attempt.ID)
		if err != nil {
			t.Fatalf("GradeAttempt() error = %v", err)
		}
		if result.Attempt.Score != 0 || result.Attempt.TotalPoints != 5 {
			t.Errorf("score = %v/%d, want 0/5", result.Attempt.Score, result.Attempt.TotalPoints)
		}
	})

	t.Run("attempt not found", func(t *testing.T) {
		svc, _, _ := setup(nil)
		_, err := svc.GradeAttempt(ctx, uuid.NewString())
		if !errors.Is(err, ErrAttemptNotFound) {
			t.Errorf("error = %v, want ErrAttemptNotFound", err)
		}
	})

	t.Run("in-progress attempt rejected", func(t *testing.T) {
		svc, _, attempt := setup(map[string]interface{}{q1.ID: 1})
		attempt.Status = models.AttemptInProgress

		_, err := svc.GradeAttempt(ctx, attempt.ID)
		var ruleErr *BusinessRuleError
		if !errors.As(err, &ruleErr) {
			t.Errorf("error = %v, want BusinessRuleError", err)
		}
	})
}

func TestGradeAttemptWithEssayStaysSubmitted(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc, publisher := newTestGradingService(repo)

	q1 := choiceQuestion(t, uuid.NewString(), 0, 2)
	q2 := essayQuestion(uuid.NewString(), 5)
	quiz := &models.Quiz{
		ID:        uuid.NewString(),
		CourseID:  uuid.NewString(),
		Title:     "Mixed quiz",
		CreatedBy: "instructor-1",
		Questions: []models.Question{*q1, *q2},
	}
	if err := repo.Quiz().Create(ctx, nil, quiz); err != nil {
		t.Fatalf("failed to seed quiz: %v", err)
	}

	attempt := submittedAttempt(t, quiz.ID, "student-1", map[string]interface{}{
		q1.ID: 0,
		q2.ID: "long form answer",
	})
	if err := repo.Attempt().Create(ctx, nil, attempt); err != nil {
		t.Fatalf("failed to seed attempt: %v", err)
	}

	result, err := svc.GradeAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("GradeAttempt() error = %v", err)
	}

	if result.Attempt.Status != models.AttemptSubmitted {
		t.Errorf("status = %s, want submitted while essay is pending", result.Attempt.Status)
	}
	if result.Attempt.GradedAt != nil {
		t.Error("GradedAt set while grading is pending")
	}
	if result.Attempt.Score != 2 || result.Attempt.TotalPoints != 7 {
		t.Errorf("score = %v/%d, want 2/7", result.Attempt.Score, result.Attempt.TotalPoints)
	}

	pending := 0
	for _, qr := range result.Results {
		if qr.RequiresManualGrade {
			pending++
		}
	}
	if pending != 1 {
		t.Errorf("pending results = %d, want 1", pending)
	}

	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("published %d events, want none until grading completes", len(got))
	}
}

// Display-space answers on randomized questions must grade through the
// seed-recomputed arrangement.
func TestGradeAttemptDisplaySpaceAnswers(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc, _ := newTestGradingService(repo)

	matchingQ := matchingFixture(t, true)
	matchingQ.Points = 4
	orderingQ := orderingFixture(t, true)
	orderingQ.Points = 6

	quiz := &models.Quiz{
		ID:        uuid.NewString(),
		CourseID:  uuid.NewString(),
		Title:     "Randomized quiz",
		CreatedBy: "instructor-1",
		Questions: []models.Question{*matchingQ, *orderingQ},
	}
	if err := repo.Quiz().Create(ctx, nil, quiz); err != nil {
		t.Fatalf("failed to seed quiz: %v", err)
	}

	attemptID := uuid.NewString()

	matchingArr, err := RandomizeMatchingQuestion(matchingQ, attemptID)
	if err != nil {
		t.Fatalf("RandomizeMatchingQuestion() error = %v", err)
	}
	orderingArr, err := RandomizeOrderingQuestion(orderingQ, attemptID)
	if err != nil {
		t.Fatalf("RandomizeOrderingQuestion() error = %v", err)
	}

	// The key maps every left item to the right item of the same original
	// index, so the correct display answer pairs display-left with the
	// display-right holding that original.
	matchingAnswer := make(map[string]int)
	for displayLeft, originalLeft := range matchingArr.LeftMapping {
		displayRight := -1
		for dr, originalRight := range matchingArr.RightMapping {
			if originalRight == originalLeft {
				displayRight = dr
				break
			}
		}
		if displayRight < 0 {
			t.Fatalf("no display slot found for right item %d", originalLeft)
		}
		matchingAnswer[strconv.Itoa(displayLeft)] = displayRight
	}

	orderingAnswer := make(map[string]int)
	for displayIndex, originalIndex := range orderingArr.Mapping {
		orderingAnswer[strconv.Itoa(displayIndex)] = originalIndex + 1
	}

	attempt := submittedAttempt(t, quiz.ID, "student-1", map[string]interface{}{
		matchingQ.ID: matchingAnswer,
		orderingQ.ID: orderingAnswer,
	})
	attempt.ID = attemptID
	if err := repo.Attempt().Create(ctx, nil, attempt); err != nil {
		t.Fatalf("failed to seed attempt: %v", err)
	}

	result, err := svc.GradeAttempt(ctx, attemptID)
	if err != nil {
		t.Fatalf("GradeAttempt() error = %v", err)
	}

	for _, qr := range result.Results {
		if !qr.Correct {
			t.Errorf("question %s graded incorrect, want correct", qr.QuestionID)
		}
	}
	if result.Attempt.Score != 10 || result.Attempt.Percentage != 100 {
		t.Errorf("score = %v (%v%%), want 10 (100%%)", result.Attempt.Score, result.Attempt.Percentage)
	}
}

func TestGradeAttemptDisplaySpaceWrongAnswer(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc, _ := newTestGradingService(repo)

	orderingQ := orderingFixture(t, true)
	orderingQ.Points = 6

	quiz := &models.Quiz{
		ID:        uuid.NewString(),
		CourseID:  uuid.NewString(),
		Title:     "Randomized quiz",
		CreatedBy: "instructor-1",
		Questions: []models.Question{*orderingQ},
	}
	if err := repo.Quiz().Create(ctx, nil, quiz); err != nil {
		t.Fatalf("failed to seed quiz: %v", err)
	}

	attemptID := uuid.NewString()
	arrangement, err := RandomizeOrderingQuestion(orderingQ, attemptID)
	if err != nil {
		t.Fatalf("RandomizeOrderingQuestion() error = %v", err)
	}

	// Correct positions for all but the first two display items, which are
	// swapped with each other.
	answer := make(map[string]int)
	for displayIndex, originalIndex := range arrangement.Mapping {
		answer[strconv.Itoa(displayIndex)] = originalIndex + 1
	}
	answer["0"], answer["1"] = answer["1"], answer["0"]

	attempt := submittedAttempt(t, quiz.ID, "student-1", map[string]interface{}{
		orderingQ.ID: answer,
	})
	attempt.ID = attemptID
	if err := repo.Attempt().Create(ctx, nil, attempt); err != nil {
		t.Fatalf("failed to seed attempt: %v", err)
	}

	result, err := svc.GradeAttempt(ctx, attemptID)
	if err != nil {
		t.Fatalf("GradeAttempt() error = %v", err)
	}
	if result.Results[0].Correct {
		t.Error("swapped ordering graded correct, want incorrect")
	}
	if result.Attempt.Score != 0 {
		t.Errorf("score = %v, want 0 (no partial credit)", result.Attempt.Score)
	}
}

// ===== MANUAL GRADING =====

func TestGradeEssay(t *testing.T) {
	ctx := context.Background()

	essayID := uuid.NewString()
	choiceID := uuid.NewString()

	setup := func(t *testing.T) (*gradingService, *events.MockEventPublisher, *models.QuizAttempt) {
		repo := newFakeRepository()
		svc, publisher := newTestGradingService(repo)
		repo.user.roles["admin-1"] = models.RoleAdmin

		q1 := essayQuestion(essayID, 5)
		q2 := choiceQuestion(t, choiceID, 1, 2)
		quiz := &models.Quiz{
			ID:        uuid.NewString(),
			CourseID:  uuid.NewString(),
			Title:     "Essay quiz",
			CreatedBy: "instructor-1",
			Questions: []models.Question{*q1, *q2},
		}
		if err := repo.Quiz().Create(ctx, nil, quiz); err != nil {
			t.Fatalf("failed to seed quiz: %v", err)
		}

		attempt := submittedAttempt(t, quiz.ID, "student-1", map[string]interface{}{
			essayID:  "a long answer",
			choiceID: 1,
		})
		if err := repo.Attempt().Create(ctx, nil, attempt); err != nil {
			t.Fatalf("failed to seed attempt: %v", err)
		}

		// Auto grading first, as Submit would do.
		if _, err := svc.GradeAttempt(ctx, attempt.ID); err != nil {
			t.Fatalf("GradeAttempt() error = %v", err)
		}
		return svc, publisher, attempt
	}

	t.Run("creator grades last pending essay", func(t *testing.T) {
		svc, publisher, attempt := setup(t)

		result, err := svc.GradeEssay(ctx, attempt.ID, &ManualGradeRequest{
			QuestionID:   essayID,
			PointsEarned: 4,
		}, "instructor-1")
		if err != nil {
			t.Fatalf("GradeEssay() error = %v", err)
		}

		if result.Attempt.Status != models.AttemptGraded {
			t.Errorf("status = %s, want graded", result.Attempt.Status)
		}
		if result.Attempt.Score != 6 {
			t.Errorf("score = %v, want 6", result.Attempt.Score)
		}
		for _, qr := range result.Results {
			if qr.QuestionID == essayID {
				if qr.RequiresManualGrade {
					t.Error("essay still marked pending after grading")
				}
				if qr.Correct {
					t.Error("partial essay score marked correct")
				}
			}
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventAttemptGraded {
			t.Errorf("published events = %+v, want one attempt.graded", published)
		}
	})

	t.Run("full marks count as correct", func(t *testing.T) {
		svc, _, attempt := setup(t)

		result, err := svc.GradeEssay(ctx, attempt.ID, &ManualGradeRequest{
			QuestionID:   essayID,
			PointsEarned: 5,
		}, "instructor-1")
		if err != nil {
			t.Fatalf("GradeEssay() error = %v", err)
		}
		for _, qr := range result.Results {
			if qr.QuestionID == essayID && !qr.Correct {
				t.Error("full-mark essay not marked correct")
			}
		}
	})

	t.Run("admin may grade", func(t *testing.T) {
		svc, _, attempt := setup(t)
		_, err := svc.GradeEssay(ctx, attempt.ID, &ManualGradeRequest{
			QuestionID:   essayID,
			PointsEarned: 3,
		}, "admin-1")
		if err != nil {
			t.Fatalf("GradeEssay() by admin error = %v", err)
		}
	})

	t.Run("stranger denied", func(t *testing.T) {
		svc, _, attempt := setup(t)
		_, err := svc.GradeEssay(ctx, attempt.ID, &ManualGradeRequest{
			QuestionID:   essayID,
			PointsEarned: 3,
		}, "student-2")
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("error = %v, want PermissionError", err)
		}
	})

	t.Run("points above question maximum", func(t *testing.T) {
		svc, _, attempt := setup(t)
		_, err := svc.GradeEssay(ctx, attempt.ID, &ManualGradeRequest{
			QuestionID:   essayID,
			PointsEarned: 6,
		}, "instructor-1")
		if !errors.Is(err, ErrGradingInvalidScore) {
			t.Errorf("error = %v, want ErrGradingInvalidScore", err)
		}
	})

	t.Run("non-essay question", func(t *testing.T) {
		svc, _, attempt := setup(t)
		_, err := svc.GradeEssay(ctx, attempt.ID, &ManualGradeRequest{
			QuestionID:   choiceID,
			PointsEarned: 1,
		}, "instructor-1")
		if !errors.Is(err, ErrGradingNotAllowed) {
			t.Errorf("error = %v, want ErrGradingNotAllowed", err)
		}
	})

	t.Run("unknown question", func(t *testing.T) {
		svc, _, attempt := setup(t)
		_, err := svc.GradeEssay(ctx, attempt.ID, &ManualGradeRequest{
			QuestionID:   uuid.NewString(),
			PointsEarned: 1,
		}, "instructor-1")
		if !errors.Is(err, ErrQuestionNotFound) {
			t.Errorf("error = %v, want ErrQuestionNotFound", err)
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		svc, _, attempt := setup(t)
		_, err := svc.GradeEssay(ctx, attempt.ID, &ManualGradeRequest{
			QuestionID:   "not-a-uuid",
			PointsEarned: 1,
		}, "instructor-1")
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("error = %v, want ValidationErrors", err)
		}
	})
}

func TestListPendingGrading(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc, _ := newTestGradingService(repo)

	quiz := &models.Quiz{
		ID:        uuid.NewString(),
		CourseID:  uuid.NewString(),
		Title:     "Essay quiz",
		CreatedBy: "instructor-1",
	}
	if err := repo.Quiz().Create(ctx, nil, quiz); err != nil {
		t.Fatalf("failed to seed quiz: %v", err)
	}

	pending := submittedAttempt(t, quiz.ID, "student-1", nil)
	if err := repo.Attempt().Create(ctx, nil, pending); err != nil {
		t.Fatalf("failed to seed attempt: %v", err)
	}
	graded := submittedAttempt(t, quiz.ID, "student-2", nil)
	graded.Status = models.AttemptGraded
	if err := repo.Attempt().Create(ctx, nil, graded); err != nil {
		t.Fatalf("failed to seed attempt: %v", err)
	}

	list, err := svc.ListPendingGrading(ctx, quiz.ID, repositories.AttemptFilters{}, "instructor-1")
	if err != nil {
		t.Fatalf("ListPendingGrading() error = %v", err)
	}
	if list.Total != 1 || len(list.Attempts) != 1 {
		t.Fatalf("got %d attempts (total %d), want 1", len(list.Attempts), list.Total)
	}
	if list.Attempts[0].ID != pending.ID {
		t.Errorf("listed attempt = %s, want %s", list.Attempts[0].ID, pending.ID)
	}

	if _, err := svc.ListPendingGrading(ctx, quiz.ID, repositories.AttemptFilters{}, "student-9"); !errors.Is(err, ErrQuizAccessDenied) {
		t.Errorf("error = %v, want ErrQuizAccessDenied", err)
	}

	if _, err := svc.ListPendingGrading(ctx, uuid.NewString(), repositories.AttemptFilters{}, "instructor-1"); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("error = %v, want ErrQuizNotFound", err)
	}
}
