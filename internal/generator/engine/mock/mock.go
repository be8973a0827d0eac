package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/promptgen-backend/internal/generator"
	"github.com/yungbote/promptgen-backend/internal/generator/engine"
)

// Engine answers without network access. Output is a pure function of the
// transcript so repeated calls with the same input agree.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	user := lastUser(messages)
	seed := seedOf(model + "\n" + user)

	if opts.JSONSchema == nil {
		return fmt.Sprintf("# Project Prompt\n\n%s\n", strings.TrimSpace(user)), nil
	}

	var obj any
	switch opts.JSONSchema.Name {
	case generator.SchemaQuestion:
		n := seed%3 + 2
		options := make([]string, 0, n)
		for i := uint32(0); i < n; i++ {
			options = append(options, fmt.Sprintf("Option %c", 'A'+rune(i)))
		}
		obj = map[string]any{
			"text":    fmt.Sprintf("Mock question #%d: which approach fits best?", seed%1000),
			"options": options,
		}
	case generator.SchemaExplanation:
		expl := map[string]string{}
		for _, o := range optionsFrom(user) {
			expl[o] = "Choosing " + o + " trades flexibility for simplicity."
		}
		obj = map[string]any{
			"question_explanation": "This question narrows down a design decision.",
			"option_explanations":  expl,
		}
	default:
		obj = map[string]any{"ok": true, "schema": opts.JSONSchema.Name}
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func lastUser(messages []engine.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, engine.RoleUser) {
			return messages[i].Content
		}
	}
	return ""
}

func seedOf(s string) uint32 {
	h := sha256.Sum256([]byte(s))
	return binary.LittleEndian.Uint32(h[:4])
}

// optionsFrom decodes the JSON option list after the last options header.
func optionsFrom(prompt string) []string {
	idx := strings.LastIndex(prompt, generator.OptionsHeader+"\n")
	if idx < 0 {
		return nil
	}
	rest := prompt[idx+len(generator.OptionsHeader)+1:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	var out []string
	if err := json.Unmarshal([]byte(rest), &out); err != nil {
		return nil
	}
	return out
}
