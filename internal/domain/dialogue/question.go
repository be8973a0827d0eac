package dialogue

import "strings"

type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type Explanation struct {
	QuestionExplanation string            `json:"question_explanation"`
	OptionExplanations  map[string]string `json:"option_explanations"`
}

// DedupeOptions trims options, drops blanks and keeps the first occurrence of each text.
func DedupeOptions(options []string) []string {
	seen := make(map[string]struct{}, len(options))
	out := make([]string, 0, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

// DuplicateOption returns the first option text that appears more than once.
func DuplicateOption(options []string) (string, bool) {
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		if _, ok := seen[o]; ok {
			return o, true
		}
		seen[o] = struct{}{}
	}
	return "", false
}
