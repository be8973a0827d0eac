package promptstyle

import "strings"

const marker = "PROMPTGEN_PROMPT_STYLE_V1"

// Output modes accepted by ApplySystem.
const (
	ModeJSON     = "json"
	ModeMarkdown = "markdown"
)

// ApplySystem prefixes a system prompt with the shared guidance block. It is a
// no-op for empty prompts and for prompts that already carry the block.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou help a founder turn a rough project idea into a precise build plan.")
	b.WriteString("\nStay specific to the stated idea and the answers already given.")
	b.WriteString("\nNever repeat a question that the history already answers.")
	switch mode {
	case ModeJSON:
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
		b.WriteString("\nDo not wrap the JSON in code fences or add commentary.")
	case ModeMarkdown:
		b.WriteString("\nReturn Markdown only, starting with a top-level heading.")
	default:
		b.WriteString("\nBe concise and structured.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
