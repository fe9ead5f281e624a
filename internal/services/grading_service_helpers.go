package services

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/soley-bot/acadex-sub012/internal/models"
)

// ===== PER-QUESTION SCORING =====

// GradeQuestion scores one question against a submitted answer. The answer
// must already be in original index space for matching and ordering types;
// display-space answers go through toOriginalSpace first. Malformed or missing
// answers score as incorrect, never as an error.
func (s *gradingService) GradeQuestion(question *models.Question, answer json.RawMessage) *models.QuestionResult {
	result := &models.QuestionResult{
		QuestionID:     question.ID,
		PointsPossible: question.Points,
	}

	// Essays never auto-grade, answered or not.
	if question.Type == models.Essay {
		result.RequiresManualGrade = true
		return result
	}

	if isEmptyAnswer(answer) {
		return result
	}

	var correct bool
	switch question.Type {
	case models.MultipleChoice, models.SingleChoice, models.TrueFalse:
		correct = gradeChoiceAnswer(question, answer)
	case models.FillBlank:
		correct = gradeFillBlankAnswer(question, answer)
	case models.Matching:
		correct = gradeMatchingAnswer(question, answer)
	case models.Ordering:
		correct = gradeOrderingAnswer(question, answer)
	default:
		s.logger.Warn("Unknown question type, scored as incorrect",
			"question_id", question.ID, "type", question.Type)
	}

	result.Correct = correct
	if correct {
		result.PointsEarned = question.Points
	}
	return result
}

// gradeChoiceAnswer compares the submitted option index against the stored one.
func gradeChoiceAnswer(question *models.Question, answer json.RawMessage) bool {
	if question.CorrectAnswer == nil {
		return false
	}
	index, ok := decodeAnswerIndex(answer)
	if !ok {
		return false
	}
	return index == *question.CorrectAnswer
}

// gradeFillBlankAnswer compares trimmed, lowercased text.
func gradeFillBlankAnswer(question *models.Question, answer json.RawMessage) bool {
	var submitted string
	if err := json.Unmarshal(answer, &submitted); err != nil {
		return false
	}
	expected, ok := fillBlankAnswerKey(question)
	if !ok {
		return false
	}
	return normalizeAnswerText(submitted) == normalizeAnswerText(expected)
}

// gradeMatchingAnswer checks the whole pair map at once. One wrong pair, or a
// missing one, scores the question incorrect; there is no partial credit.
func gradeMatchingAnswer(question *models.Question, answer json.RawMessage) bool {
	submitted, err := decodeIndexMap(answer)
	if err != nil {
		return false
	}
	key, err := question.CorrectMatching()
	if err != nil {
		return false
	}
	if len(submitted) != len(key) {
		return false
	}
	for left, right := range key {
		got, ok := submitted[left]
		if !ok || got != right {
			return false
		}
	}
	return true
}

// gradeOrderingAnswer checks that every item sits at its correct 1-based
// position. Options are stored in correct order, so item i belongs at i+1.
// All-or-nothing like matching.
func gradeOrderingAnswer(question *models.Question, answer json.RawMessage) bool {
	submitted, err := decodeIndexMap(answer)
	if err != nil {
		return false
	}
	options, err := question.StringOptions()
	if err != nil {
		return false
	}
	if len(submitted) != len(options) {
		return false
	}
	for original := range options {
		position, ok := submitted[original]
		if !ok || position != original+1 {
			return false
		}
	}
	return true
}

// ===== DISPLAY SPACE TRANSLATION =====

// toOriginalSpace translates a display-space matching/ordering answer back to
// original index space by recomputing the attempt's display arrangement from
// its seed. Answers of other types pass through unchanged, as do answers that
// fail to decode (the grader scores those incorrect anyway).
func (s *gradingService) toOriginalSpace(question *models.Question, attemptID string, answer json.RawMessage) json.RawMessage {
	if isEmptyAnswer(answer) {
		return answer
	}

	switch question.Type {
	case models.Matching:
		submitted, err := decodeIndexMap(answer)
		if err != nil {
			return answer
		}
		arrangement, err := RandomizeMatchingQuestion(question, attemptID)
		if err != nil {
			s.logger.Warn("Failed to rebuild matching arrangement",
				"question_id", question.ID, "attempt_id", attemptID, "error", err)
			return answer
		}
		converted := ConvertMatchingAnswerToOriginal(submitted, arrangement.LeftMapping, arrangement.RightMapping)
		if len(converted) < len(submitted) {
			s.logger.Debug("Dropped out-of-range matching answer entries",
				"question_id", question.ID, "submitted", len(submitted), "kept", len(converted))
		}
		return encodeIndexMap(converted)

	case models.Ordering:
		submitted, err := decodeIndexMap(answer)
		if err != nil {
			return answer
		}
		arrangement, err := RandomizeOrderingQuestion(question, attemptID)
		if err != nil {
			s.logger.Warn("Failed to rebuild ordering arrangement",
				"question_id", question.ID, "attempt_id", attemptID, "error", err)
			return answer
		}
		converted := ConvertOrderingAnswerToOriginal(submitted, arrangement.Mapping)
		if len(converted) < len(submitted) {
			s.logger.Debug("Dropped out-of-range ordering answer entries",
				"question_id", question.ID, "submitted", len(submitted), "kept", len(converted))
		}
		return encodeIndexMap(converted)

	default:
		return answer
	}
}

// ===== DECODE HELPERS =====

func isEmptyAnswer(answer json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(answer))
	return trimmed == "" || trimmed == "null"
}

// decodeAnswerIndex accepts the index encodings clients actually send: a JSON
// number, a boolean for true_false (true maps to index 0), or a numeric string.
func decodeAnswerIndex(answer json.RawMessage) (int, bool) {
	var index int
	if err := json.Unmarshal(answer, &index); err == nil {
		return index, true
	}

	var boolean bool
	if err := json.Unmarshal(answer, &boolean); err == nil {
		if boolean {
			return 0, true
		}
		return 1, true
	}

	var text string
	if err := json.Unmarshal(answer, &text); err == nil {
		if parsed, convErr := strconv.Atoi(strings.TrimSpace(text)); convErr == nil {
			return parsed, true
		}
	}

	return 0, false
}

// decodeIndexMap parses a JSON object with numeric keys into an int map.
// JSON object keys are always strings on the wire.
func decodeIndexMap(answer json.RawMessage) (map[int]int, error) {
	raw := make(map[string]int)
	if err := json.Unmarshal(answer, &raw); err != nil {
		return nil, err
	}
	out := make(map[int]int, len(raw))
	for key, value := range raw {
		index, err := strconv.Atoi(key)
		if err != nil {
			return nil, err
		}
		out[index] = value
	}
	return out, nil
}

func encodeIndexMap(values map[int]int) json.RawMessage {
	raw := make(map[string]int, len(values))
	for index, value := range values {
		raw[strconv.Itoa(index)] = value
	}
	encoded, _ := json.Marshal(raw)
	return encoded
}

// fillBlankAnswerKey returns the accepted answer text. Older questions store
// the answer in the numeric column; its decimal form is the accepted text.
func fillBlankAnswerKey(question *models.Question) (string, bool) {
	if question.CorrectAnswerText != nil && strings.TrimSpace(*question.CorrectAnswerText) != "" {
		return *question.CorrectAnswerText, true
	}
	if question.CorrectAnswer != nil {
		return strconv.Itoa(*question.CorrectAnswer), true
	}
	return "", false
}

func normalizeAnswerText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ===== AGGREGATE HELPERS =====

func sumPoints(results []models.QuestionResult) (earned, total int) {
	for _, result := range results {
		earned += result.PointsEarned
		total += result.PointsPossible
	}
	return earned, total
}

// scorePercentage is earned over possible as a percentage, 0 when the quiz
// has no points at all.
func scorePercentage(earned, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(earned) / float64(total) * 100
}

// attemptPassed applies the quiz passing bar. A quiz without one passes every
// graded attempt.
func attemptPassed(passingScore *int, percentage float64) bool {
	if passingScore == nil {
		return true
	}
	return percentage >= float64(*passingScore)
}

func findQuestion(questions []models.Question, questionID string) *models.Question {
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i]
		}
	}
	return nil
}

func decodeResults(stored []byte) ([]models.QuestionResult, error) {
	var results []models.QuestionResult
	if len(stored) == 0 {
		return results, nil
	}
	if err := json.Unmarshal(stored, &results); err != nil {
		return nil, err
	}
	return results, nil
}
