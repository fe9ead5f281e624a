package services

import (
	"fmt"

	"github.com/soley-bot/acadex-sub012/internal/models"
	"github.com/soley-bot/acadex-sub012/internal/random"
)

// Question randomization builds the per-attempt display arrangement of
// matching and ordering questions. The arrangement is never persisted: it is
// recomputed from the (attemptID, questionID) seed, so serving and grading
// always see the same layout.

// RandomizeMatchingQuestion shuffles the two columns of a matching question
// independently. If the columns shared one shuffle the pairs would stay
// visually aligned. Both shuffles draw from a single per-question source,
// left column first.
func RandomizeMatchingQuestion(question *models.Question, attemptID string) (*models.RandomizedMatching, error) {
	pairs, err := question.MatchingPairs()
	if err != nil {
		return nil, fmt.Errorf("failed to decode matching pairs: %w", err)
	}

	left := make([]models.MatchingDisplayItem, len(pairs))
	right := make([]models.MatchingDisplayItem, len(pairs))
	for i, pair := range pairs {
		left[i] = models.MatchingDisplayItem{Text: pair.Left, OriginalIndex: i}
		right[i] = models.MatchingDisplayItem{Text: pair.Right, OriginalIndex: i}
	}

	if question.Randomize {
		src := random.NewSource(random.QuestionSeed(attemptID, question.ID))
		left = random.Shuffle(left, src)
		right = random.Shuffle(right, src)
	}

	result := &models.RandomizedMatching{
		LeftItems:    left,
		RightItems:   right,
		LeftMapping:  make([]int, len(left)),
		RightMapping: make([]int, len(right)),
	}
	for display := range left {
		result.LeftItems[display].DisplayIndex = display
		result.LeftMapping[display] = result.LeftItems[display].OriginalIndex
	}
	for display := range right {
		result.RightItems[display].DisplayIndex = display
		result.RightMapping[display] = result.RightItems[display].OriginalIndex
	}

	return result, nil
}

// RandomizeOrderingQuestion shuffles the items of an ordering question.
// Options are stored in correct order, so CorrectPosition is the 1-based
// original index.
func RandomizeOrderingQuestion(question *models.Question, attemptID string) (*models.RandomizedOrdering, error) {
	options, err := question.StringOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to decode ordering options: %w", err)
	}

	items := make([]models.OrderingDisplayItem, len(options))
	for i, text := range options {
		items[i] = models.OrderingDisplayItem{
			Text:            text,
			OriginalIndex:   i,
			CorrectPosition: i + 1,
		}
	}

	if question.Randomize {
		src := random.NewSource(random.QuestionSeed(attemptID, question.ID))
		items = random.Shuffle(items, src)
	}

	result := &models.RandomizedOrdering{
		Items:   items,
		Mapping: make([]int, len(items)),
	}
	for display := range items {
		result.Items[display].DisplayIndex = display
		result.Mapping[display] = result.Items[display].OriginalIndex
	}

	return result, nil
}

// ConvertMatchingAnswerToOriginal translates a matching answer from display
// space to original space. Both the key (left column) and the value (right
// column) go through their mapping. Entries whose index falls outside either
// mapping are dropped; the count difference is the caller's signal that the
// client sent stale indexes.
func ConvertMatchingAnswerToOriginal(answer map[int]int, leftMapping, rightMapping []int) map[int]int {
	original := make(map[int]int, len(answer))
	for displayLeft, displayRight := range answer {
		if displayLeft < 0 || displayLeft >= len(leftMapping) {
			continue
		}
		if displayRight < 0 || displayRight >= len(rightMapping) {
			continue
		}
		original[leftMapping[displayLeft]] = rightMapping[displayRight]
	}
	return original
}

// ConvertOrderingAnswerToOriginal translates an ordering answer from display
// space to original space. Only the key is an index; the value is the
// position the student chose and passes through unchanged. Out-of-range keys
// are dropped.
func ConvertOrderingAnswerToOriginal(answer map[int]int, mapping []int) map[int]int {
	original := make(map[int]int, len(answer))
	for displayIndex, position := range answer {
		if displayIndex < 0 || displayIndex >= len(mapping) {
			continue
		}
		original[mapping[displayIndex]] = position
	}
	return original
}
