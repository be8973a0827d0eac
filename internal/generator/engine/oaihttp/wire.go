package oaihttp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/promptgen-backend/internal/generator/engine"
)

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`

	// response_format is understood by OpenAI; guided_json by vLLM and SGLang.
	ResponseFormat map[string]any `json:"response_format,omitempty"`
	GuidedJSON     any            `json:"guided_json,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (r completionResponse) text() string {
	for _, c := range r.Choices {
		switch {
		case strings.TrimSpace(c.Message.Content) != "":
			return c.Message.Content
		case strings.TrimSpace(c.Text) != "":
			return c.Text
		}
	}
	return ""
}

// refusal returns the first explicit refusal, or "content_filter" when a
// choice was cut by moderation without producing text.
func (r completionResponse) refusal() string {
	for _, c := range r.Choices {
		if reason := strings.TrimSpace(c.Message.Refusal); reason != "" {
			return reason
		}
		if c.FinishReason == "content_filter" && strings.TrimSpace(c.Message.Content) == "" {
			return "content_filter"
		}
	}
	return ""
}

func toWire(messages []engine.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		role, content := strings.TrimSpace(m.Role), strings.TrimSpace(m.Content)
		if role == "" || content == "" {
			continue
		}
		out = append(out, wireMessage{Role: role, Content: content})
	}
	return out
}

func (e *Engine) buildRequest(model string, msgs []wireMessage, opts engine.GenerateOptions, attempt int) completionRequest {
	req := completionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = e.maxTokens
	}

	s := opts.JSONSchema
	if s == nil || e.schema.mode == modeNone {
		return req
	}

	if e.schema.native(attempt) && s.Schema != nil {
		if e.schema.mode == modeStructured {
			req.ResponseFormat = map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   schemaName(s),
					"schema": s.Schema,
					"strict": s.Strict,
				},
			}
		} else {
			req.ResponseFormat = map[string]any{"type": "json_object"}
			req.GuidedJSON = s.Schema
		}
	}

	if e.schema.prompted(attempt) {
		withReminder := make([]wireMessage, len(msgs), len(msgs)+1)
		copy(withReminder, msgs)
		req.Messages = append(withReminder, wireMessage{
			Role:    engine.RoleSystem,
			Content: e.schemaReminder(s),
		})
	}
	return req
}

func schemaName(s *engine.JSONSchema) string {
	if n := strings.TrimSpace(s.Name); n != "" {
		return n
	}
	return "dialogue_output"
}

// schemaReminder is appended as a trailing system message when the upstream
// cannot enforce the schema itself. Oversized schemas are described by name only.
func (e *Engine) schemaReminder(s *engine.JSONSchema) string {
	lines := []string{
		"Your previous reply could not be parsed.",
		"Reply with a single JSON object and nothing else: no markdown fences, no prose.",
	}
	lines = append(lines, "The object must match the schema named "+schemaName(s)+".")
	if s.Schema != nil {
		if raw, err := json.Marshal(s.Schema); err == nil && len(raw) <= e.schema.maxPromptBytes {
			lines = append(lines, "Schema: "+string(raw))
		}
	}
	return strings.Join(lines, "\n")
}

// stripFences removes a surrounding ```json block if the model added one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	body := s[nl+1:]
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func checkJSON(s string) error {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}
