package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/repositories"
	"github.com/soley-bot/acadex-sub012/internal/validator"
)

// Spreadsheet column layout shared by import, export and the template. One
// row per question; list cells use "|" between entries and matching pairs
// use "left=right".
var questionSheetHeaders = []string{
	"type", "prompt", "options", "correct_answer", "points", "explanation", "randomize",
}

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== IMPORT =====

// ImportQuestions reads an .xlsx workbook and appends its rows as questions
// of the quiz. Rows that fail parsing or content validation are reported and
// skipped; the rest are inserted in one batch.
func (s *importExportService) ImportQuestions(ctx context.Context, quizID string, file io.Reader, userID string) (*models.QuestionImportResult, error) {
	s.logger.Info("Starting question import", "quiz_id", quizID, "user_id", userID)

	if _, err := s.getManagedQuiz(ctx, quizID, userID); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, NewValidationError("file", "could not be read as an xlsx workbook", err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "sheet needs a header row and at least one question row", len(rows))
	}

	headers := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		headers[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"type", "prompt"} {
		if _, ok := headers[required]; !ok {
			return nil, NewValidationError("file", fmt.Sprintf("missing required column %q", required), required)
		}
	}

	nextOrder, err := s.repo.Question().MaxOrderIndex(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question order: %w", err)
	}
	nextOrder++

	result := &models.QuestionImportResult{}
	var questions []*models.Question

	for i, row := range rows[1:] {
		rowNum := i + 2
		if rowIsEmpty(row) {
			continue
		}

		question, parseErr := parseQuestionRow(row, headers)
		if parseErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, models.QuestionImportError{Row: rowNum, Message: parseErr.Error()})
			continue
		}

		question.QuizID = quizID
		question.OrderIndex = nextOrder + len(questions)

		if errs := s.validator.ValidateQuestionContent(question); len(errs) > 0 {
			result.Skipped++
			result.Errors = append(result.Errors, models.QuestionImportError{Row: rowNum, Message: errs.Error()})
			continue
		}

		questions = append(questions, question)
	}

	if len(questions) > 0 {
		if err := s.repo.Question().CreateBatch(ctx, nil, questions); err != nil {
			return nil, fmt.Errorf("failed to save imported questions: %w", err)
		}
	}
	result.Imported = len(questions)

	s.logger.Info("Question import completed",
		"quiz_id", quizID,
		"imported", result.Imported,
		"skipped", result.Skipped)

	return result, nil
}

// ===== EXPORT =====

// ExportQuestions writes the quiz's questions, answer keys included, into an
// .xlsx workbook in the same layout the importer reads.
func (s *importExportService) ExportQuestions(ctx context.Context, quizID string, userID string) ([]byte, error) {
	if _, err := s.getManagedQuiz(ctx, quizID, userID); err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().ListByQuiz(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet so the data lands on the workbook's first
	// sheet, which is where the importer reads.
	sheetName := "Questions"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	writeHeaderRow(f, sheetName, questionSheetHeaders)

	for rowIndex, question := range questions {
		row, rowErr := questionToRow(question)
		if rowErr != nil {
			return nil, fmt.Errorf("question %s: %w", question.ID, rowErr)
		}
		writeDataRow(f, sheetName, rowIndex+2, row)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Questions exported", "quiz_id", quizID, "count", len(questions))
	return buf.Bytes(), nil
}

// ExportResults writes every attempt of the quiz into an .xlsx workbook, one
// row per attempt.
func (s *importExportService) ExportResults(ctx context.Context, quizID string, userID string) ([]byte, error) {
	if _, err := s.getManagedQuiz(ctx, quizID, userID); err != nil {
		return nil, err
	}

	attempts, _, err := s.repo.Attempt().ListByQuiz(ctx, nil, quizID, repositories.AttemptFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Results"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	writeHeaderRow(f, sheetName, []string{
		"Student ID", "Status", "Started At", "Submitted At",
		"Score", "Total Points", "Percentage", "Passed", "Time Spent (min)",
	})

	for rowIndex, attempt := range attempts {
		submittedAt := ""
		if attempt.SubmittedAt != nil {
			submittedAt = attempt.SubmittedAt.Format("2006-01-02 15:04:05")
		}
		passed := "no"
		if attempt.Passed {
			passed = "yes"
		}
		writeDataRow(f, sheetName, rowIndex+2, []interface{}{
			attempt.StudentID,
			string(attempt.Status),
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
			submittedAt,
			attempt.Score,
			attempt.TotalPoints,
			attempt.Percentage,
			passed,
			attempt.TimeSpent / 60,
		})
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Results exported", "quiz_id", quizID, "count", len(attempts))
	return buf.Bytes(), nil
}

// GetImportTemplate builds a workbook with the expected header row and one
// example row per question type.
func (s *importExportService) GetImportTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Questions"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	writeHeaderRow(f, sheetName, questionSheetHeaders)

	examples := [][]interface{}{
		{"multiple_choice", "Which of these is a fruit?", "Apple|Carrot|Potato|Onion", "A", 1, "Apples grow on trees.", "true"},
		{"single_choice", "Pick the capital of France.", "Paris|London|Berlin", "A", 1, "", "true"},
		{"true_false", "The Earth orbits the Sun.", "", "true", 1, "", "false"},
		{"fill_blank", "Water freezes at ___ degrees Celsius.", "", "0", 1, "", "false"},
		{"matching", "Match each animal to its French name.", "Dog=Chien|Cat=Chat|Bird=Oiseau", "", 2, "", "true"},
		{"ordering", "Put these numbers in ascending order.", "one|two|three|four", "", 2, "List items in the correct order.", "true"},
		{"essay", "Describe your favourite holiday.", "", "", 5, "Graded by the instructor.", "false"},
	}
	for rowIndex, example := range examples {
		writeDataRow(f, sheetName, rowIndex+2, example)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== ROW PARSING =====

func parseQuestionRow(row []string, headers map[string]int) (*models.Question, error) {
	getColumn := func(name string) string {
		if index, ok := headers[name]; ok && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	prompt := getColumn("prompt")
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	question := &models.Question{
		Type:      models.QuestionType(strings.ToLower(getColumn("type"))),
		Prompt:    prompt,
		Points:    1,
		Randomize: true,
	}

	if pointsStr := getColumn("points"); pointsStr != "" {
		points, err := strconv.Atoi(pointsStr)
		if err != nil || points < 1 {
			return nil, fmt.Errorf("points must be a positive integer, got %q", pointsStr)
		}
		question.Points = points
	}

	if randomizeStr := getColumn("randomize"); randomizeStr != "" {
		randomize, err := strconv.ParseBool(strings.ToLower(randomizeStr))
		if err != nil {
			return nil, fmt.Errorf("randomize must be true or false, got %q", randomizeStr)
		}
		question.Randomize = randomize
	}

	if explanation := getColumn("explanation"); explanation != "" {
		question.Explanation = &explanation
	}

	optionsValue := getColumn("options")
	answerValue := getColumn("correct_answer")

	switch question.Type {
	case models.MultipleChoice, models.SingleChoice:
		options := splitListCell(optionsValue)
		if len(options) == 0 {
			return nil, fmt.Errorf("options are required for %s questions", question.Type)
		}
		correct, err := parseCorrectOption(answerValue, len(options))
		if err != nil {
			return nil, err
		}
		question.Options = mustJSON(options)
		question.CorrectAnswer = &correct

	case models.TrueFalse:
		answer, err := strconv.ParseBool(strings.ToLower(answerValue))
		if err != nil {
			return nil, fmt.Errorf("correct_answer must be true or false, got %q", answerValue)
		}
		correct := 1
		if answer {
			correct = 0
		}
		question.CorrectAnswer = &correct

	case models.FillBlank:
		if answerValue == "" {
			return nil, fmt.Errorf("correct_answer is required for fill_blank questions")
		}
		question.CorrectAnswerText = &answerValue

	case models.Matching:
		pairs, err := parseMatchingCell(optionsValue)
		if err != nil {
			return nil, err
		}
		key := make(map[string]int, len(pairs))
		for i := range pairs {
			key[strconv.Itoa(i)] = i
		}
		question.Options = mustJSON(pairs)
		question.CorrectAnswerJSON = mustJSON(key)

	case models.Ordering:
		items := splitListCell(optionsValue)
		if len(items) == 0 {
			return nil, fmt.Errorf("options are required for ordering questions")
		}
		question.Options = mustJSON(items)

	case models.Essay:
		// Prompt-only.

	default:
		return nil, fmt.Errorf("unsupported question type %q", question.Type)
	}

	return question, nil
}

// parseCorrectOption accepts a letter (A, B, ...) or a 1-based position.
func parseCorrectOption(value string, optionCount int) (int, error) {
	if value == "" {
		return 0, fmt.Errorf("correct_answer is required for choice questions")
	}

	var index int
	upper := strings.ToUpper(value)
	if len(upper) == 1 && upper[0] >= 'A' && upper[0] <= 'Z' {
		index = int(upper[0] - 'A')
	} else {
		position, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("correct_answer must be an option letter or position, got %q", value)
		}
		index = position - 1
	}

	if index < 0 || index >= optionCount {
		return 0, fmt.Errorf("correct_answer %q is outside the %d listed options", value, optionCount)
	}
	return index, nil
}

func parseMatchingCell(value string) ([]models.MatchingPair, error) {
	entries := splitListCell(value)
	if len(entries) == 0 {
		return nil, fmt.Errorf("options are required for matching questions")
	}

	pairs := make([]models.MatchingPair, 0, len(entries))
	for _, entry := range entries {
		sides := strings.SplitN(entry, "=", 2)
		if len(sides) != 2 || strings.TrimSpace(sides[0]) == "" || strings.TrimSpace(sides[1]) == "" {
			return nil, fmt.Errorf("matching entry %q must look like left=right", entry)
		}
		pairs = append(pairs, models.MatchingPair{
			Left:  strings.TrimSpace(sides[0]),
			Right: strings.TrimSpace(sides[1]),
		})
	}
	return pairs, nil
}

func splitListCell(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, "|")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func mustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal of %T cannot fail: %v", v, err))
	}
	return datatypes.JSON(data)
}

// ===== ROW WRITING =====

func questionToRow(question *models.Question) ([]interface{}, error) {
	options := ""
	answer := ""

	switch question.Type {
	case models.MultipleChoice, models.SingleChoice:
		items, err := question.StringOptions()
		if err != nil {
			return nil, err
		}
		options = strings.Join(items, "|")
		if question.CorrectAnswer != nil {
			answer = string(rune('A' + *question.CorrectAnswer))
		}

	case models.TrueFalse:
		answer = "false"
		if question.CorrectAnswer != nil && *question.CorrectAnswer == 0 {
			answer = "true"
		}

	case models.FillBlank:
		if key, ok := fillBlankAnswerKey(question); ok {
			answer = key
		}

	case models.Matching:
		pairs, err := question.MatchingPairs()
		if err != nil {
			return nil, err
		}
		key, err := question.CorrectMatching()
		if err != nil {
			return nil, err
		}
		entries := make([]string, 0, len(pairs))
		for i, pair := range pairs {
			right := pair.Right
			if j, ok := key[i]; ok && j >= 0 && j < len(pairs) {
				right = pairs[j].Right
			}
			entries = append(entries, fmt.Sprintf("%s=%s", pair.Left, right))
		}
		options = strings.Join(entries, "|")

	case models.Ordering:
		items, err := question.StringOptions()
		if err != nil {
			return nil, err
		}
		options = strings.Join(items, "|")
	}

	return []interface{}{
		string(question.Type),
		question.Prompt,
		options,
		answer,
		question.Points,
		stringOrEmpty(question.Explanation),
		strconv.FormatBool(question.Randomize),
	}, nil
}

func writeHeaderRow(f *excelize.File, sheetName string, headers []string) {
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}
}

func writeDataRow(f *excelize.File, sheetName string, rowNum int, values []interface{}) {
	for i, value := range values {
		cell := fmt.Sprintf("%c%d", 'A'+i, rowNum)
		f.SetCellValue(sheetName, cell, value)
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ===== PERMISSIONS =====

func (s *importExportService) getManagedQuiz(ctx context.Context, quizID, userID string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.CreatedBy != userID {
		isAdmin, roleErr := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if roleErr != nil {
			return nil, fmt.Errorf("failed to check user role: %w", roleErr)
		}
		if !isAdmin {
			return nil, ErrQuizAccessDenied
		}
	}
	return quiz, nil
}
