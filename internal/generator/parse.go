package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
)

// extractJSON pulls a JSON object out of model output that may be wrapped in
// markdown fences or surrounded by prose.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
		// optional language tag on the fence line
		if nl := strings.Index(s, "\n"); nl != -1 && nl < 20 {
			s = s[nl+1:]
		}
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	// Prefer `{"` so braces in prose like "{see below}" are not picked up.
	start := strings.Index(s, `{"`)
	if start == -1 {
		start = strings.Index(s, "{")
	}
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

func decodeJSON(raw string, out any) error {
	clean := extractJSON(raw)
	if clean == "" {
		return fmt.Errorf("%w: empty output", dialogue.ErrMalformedOutput)
	}
	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return fmt.Errorf("%w: %w", dialogue.ErrMalformedOutput, err)
	}
	return nil
}

func parseQuestion(raw string) (dialogue.Question, error) {
	var q dialogue.Question
	if err := decodeJSON(raw, &q); err != nil {
		return dialogue.Question{}, err
	}
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return dialogue.Question{}, fmt.Errorf("%w: question text missing", dialogue.ErrMalformedOutput)
	}
	if len(q.Options) == 0 {
		return dialogue.Question{}, fmt.Errorf("%w: question has no options", dialogue.ErrMalformedOutput)
	}
	return q, nil
}

func parseExplanation(raw string) (dialogue.Explanation, error) {
	var e dialogue.Explanation
	if err := decodeJSON(raw, &e); err != nil {
		return dialogue.Explanation{}, err
	}
	e.QuestionExplanation = strings.TrimSpace(e.QuestionExplanation)
	if e.OptionExplanations == nil {
		e.OptionExplanations = map[string]string{}
	}
	return e, nil
}
