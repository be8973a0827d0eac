package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/generator/engine"
	"github.com/yungbote/promptgen-backend/internal/generator/engine/oaihttp"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/platform/promptstyle"
)

// JSON schema names sent with structured requests.
const (
	SchemaQuestion    = "next_question"
	SchemaExplanation = "question_explanation"
)

// LLM implements Generator on top of a chat Engine.
type LLM struct {
	eng         engine.Engine
	model       string
	temperature float64
	log         *logger.Logger
}

func NewLLM(eng engine.Engine, model string, temperature float64, baseLog *logger.Logger) *LLM {
	return &LLM{
		eng:         eng,
		model:       strings.TrimSpace(model),
		temperature: temperature,
		log:         baseLog.With("generator", "LLM", "model", model),
	}
}

func (g *LLM) GenerateQuestion(ctx context.Context, idea string, history []dialogue.Answer, phase string) (dialogue.Question, error) {
	text, err := g.eng.GenerateText(ctx, g.model, []engine.Message{
		engine.System(promptstyle.ApplySystem(questionSystemPrompt, promptstyle.ModeJSON)),
		engine.User(questionUserPrompt(idea, history, phase)),
	}, engine.GenerateOptions{
		Temperature: g.temperature,
		JSONSchema: &engine.JSONSchema{
			Name:   SchemaQuestion,
			Schema: questionSchema,
			Strict: true,
		},
	})
	if err != nil {
		return dialogue.Question{}, classify(err)
	}
	q, err := parseQuestion(text)
	if err != nil {
		g.log.Warn("Unparseable question output", "error", err, "bytes", len(text))
		return dialogue.Question{}, err
	}
	return q, nil
}

func (g *LLM) GenerateExplanation(ctx context.Context, idea, question string, options []string) (dialogue.Explanation, error) {
	text, err := g.eng.GenerateText(ctx, g.model, []engine.Message{
		engine.System(promptstyle.ApplySystem(explanationSystemPrompt, promptstyle.ModeJSON)),
		engine.User(explanationUserPrompt(idea, question, options)),
	}, engine.GenerateOptions{
		Temperature: g.temperature,
		JSONSchema: &engine.JSONSchema{
			Name:   SchemaExplanation,
			Schema: explanationSchema,
			Strict: true,
		},
	})
	if err != nil {
		return dialogue.Explanation{}, classify(err)
	}
	e, err := parseExplanation(text)
	if err != nil {
		g.log.Warn("Unparseable explanation output", "error", err, "bytes", len(text))
		return dialogue.Explanation{}, err
	}
	return e, nil
}

func (g *LLM) GenerateFinalDocument(ctx context.Context, idea string, history []dialogue.Answer, selectedPhases []string) (string, error) {
	text, err := g.eng.GenerateText(ctx, g.model, []engine.Message{
		engine.System(promptstyle.ApplySystem(finalSystemPrompt, promptstyle.ModeMarkdown)),
		engine.User(finalUserPrompt(idea, history, selectedPhases)),
	}, engine.GenerateOptions{Temperature: g.temperature})
	if err != nil {
		return "", classify(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty document", dialogue.ErrMalformedOutput)
	}
	return text, nil
}

// classify tags engine errors with the dialogue cause sentinels.
func classify(err error) error {
	var re *oaihttp.RefusalError
	var he *oaihttp.HTTPError
	switch {
	case errors.As(err, &re):
		return fmt.Errorf("%w: %w", dialogue.ErrRefused, err)
	case errors.As(err, &he) && he.Timeout():
		return fmt.Errorf("%w: %w", dialogue.ErrTimeout, err)
	case errors.Is(err, oaihttp.ErrEmptyCompletion):
		return fmt.Errorf("%w: %w", dialogue.ErrMalformedOutput, err)
	}
	return err
}
