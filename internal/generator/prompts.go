package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
)

const questionSystemPrompt = `You are a senior software architect interviewing a founder about a project idea.
Ask exactly one multiple-choice question that moves the design forward in the given phase.
Do not repeat questions that were already answered.
Offer between 2 and 5 short, mutually exclusive options.
Respond with JSON: {"text": "...", "options": ["...", "..."]}.`

const explanationSystemPrompt = `You help a non-expert understand a design question about their project.
Explain why the question matters, then give a one or two sentence rationale for each option.
Use the option text exactly as given for the keys of option_explanations.
Respond with JSON: {"question_explanation": "...", "option_explanations": {"<option>": "..."}}.`

const finalSystemPrompt = `You write implementation briefs for AI coding assistants.
Turn the project idea and the interview answers into a single, well-structured Markdown prompt.
Cover only the listed focus areas, state concrete decisions taken in the interview,
and call out open questions where the answers were vague.`

func formatHistory(history []dialogue.Answer) string {
	if len(history) == 0 {
		return "(no questions answered yet)"
	}
	var b strings.Builder
	for i, a := range history {
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, strings.TrimSpace(a.Question), strings.TrimSpace(a.SelectedOption))
	}
	return strings.TrimRight(b.String(), "\n")
}

func questionUserPrompt(idea string, history []dialogue.Answer, phase string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project idea:\n%s\n\n", strings.TrimSpace(idea))
	fmt.Fprintf(&b, "Current phase: %s\n\n", strings.TrimSpace(phase))
	fmt.Fprintf(&b, "Answered so far:\n%s\n", formatHistory(history))
	return b.String()
}

// OptionsHeader introduces the option list in explanation prompts. The list
// follows on the next line as a single-line JSON array and ends the prompt.
const OptionsHeader = "Options (JSON array, use each string verbatim as a key):"

func explanationUserPrompt(idea, question string, options []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project idea:\n%s\n\n", strings.TrimSpace(idea))
	fmt.Fprintf(&b, "Question:\n%s\n\n", strings.TrimSpace(question))
	list, err := json.Marshal(options)
	if err != nil {
		list = []byte("[]")
	}
	fmt.Fprintf(&b, "%s\n%s\n", OptionsHeader, list)
	return b.String()
}

func finalUserPrompt(idea string, history []dialogue.Answer, selectedPhases []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project idea:\n%s\n\n", strings.TrimSpace(idea))
	if len(selectedPhases) > 0 {
		fmt.Fprintf(&b, "Focus areas: %s\n\n", strings.Join(selectedPhases, ", "))
	}
	fmt.Fprintf(&b, "Interview:\n%s\n", formatHistory(history))
	return b.String()
}

var questionSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"text": map[string]any{"type": "string"},
		"options": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string"},
		},
	},
	"required": []string{"text", "options"},
}

var explanationSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"question_explanation": map[string]any{"type": "string"},
		"option_explanations": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		},
	},
	"required": []string{"question_explanation", "option_explanations"},
}
