package flow

import (
	"fmt"

	"quoteflow/internal/model"
)

// NextIndex resolves the index that follows current, honoring per-option skip
// targets. Returning len(questions) means "end of survey, submit". Pure: it is
// also the replay primitive for IsVisible.
func NextIndex(questions []model.QuestionDefinition, current int, answers map[string]string) int {
	length := len(questions)
	if current >= length-1 {
		return length
	}

	q := questions[current]
	if q.Type != model.QuestionTypeSelect {
		return current + 1
	}

	answered := answers[q.FieldID()]
	if answered == "" {
		return current + 1
	}

	for _, opt := range q.Options {
		if opt.Value != answered {
			continue
		}
		if opt.SkipToQuestionID == "" {
			break
		}
		if opt.SkipToQuestionID == model.SkipToEnd {
			return length
		}
		if target := IndexOf(questions, opt.SkipToQuestionID); target >= 0 {
			return target
		}
		break
	}
	return current + 1
}

// PrevIndex is plain decrement: backward navigation does not replay skip
// routing in reverse, so it can land on a question that was skipped going
// forward.
func PrevIndex(current int) int {
	if current <= 1 {
		return 0
	}
	return current - 1
}

// IndexOf returns the index of the question with the given id, or -1
func IndexOf(questions []model.QuestionDefinition, id string) int {
	for i, q := range questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// IsVisible reports whether target is reachable by replaying skip routing
// from index 0 with the recorded answers. A replay that stalls (next == cur,
// malformed cyclic config) or jumps past target resolves to not visible.
func IsVisible(questions []model.QuestionDefinition, target int, answers map[string]string) bool {
	if target < 0 || target >= len(questions) {
		return false
	}
	cur := 0
	for cur < len(questions) {
		if cur == target {
			return true
		}
		if cur > target {
			return false
		}
		next := NextIndex(questions, cur, answers)
		if next <= cur {
			return false
		}
		cur = next
	}
	return false
}

// ValidateQuestions rejects question lists the runtime cannot traverse
// safely: duplicate ids, unknown types, options on non-select questions
// pointing nowhere, and skip targets that are unknown or non-forward.
// Run at tool-config save time.
func ValidateQuestions(questions []model.QuestionDefinition) error {
	sorted := model.SortQuestions(questions)
	if _, err := BuildSchema(sorted); err != nil {
		return err
	}

	seen := make(map[string]bool, len(sorted))
	for _, q := range sorted {
		if q.ID == "" {
			return fmt.Errorf("question with empty id")
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
	}

	for _, q := range sorted {
		for _, opt := range q.Options {
			if opt.SkipToQuestionID == "" || opt.SkipToQuestionID == model.SkipToEnd {
				continue
			}
			target := IndexOf(sorted, opt.SkipToQuestionID)
			if target < 0 {
				return fmt.Errorf("question %q option %q skips to unknown question %q", q.ID, opt.Value, opt.SkipToQuestionID)
			}
			// Forward-only branching keeps visibility replay loop-free
			if sorted[target].Order <= q.Order {
				return fmt.Errorf("question %q option %q skips backward to %q", q.ID, opt.Value, opt.SkipToQuestionID)
			}
		}
	}
	return nil
}
