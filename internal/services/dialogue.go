package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/generator"
	"github.com/yungbote/promptgen-backend/internal/observability"
	"github.com/yungbote/promptgen-backend/internal/platform/ctxutil"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
)

// NextQuestionInput is the caller's full session snapshot. Nothing is kept between calls.
type NextQuestionInput struct {
	Idea           string
	History        []dialogue.Answer
	TotalQuestions int
	CurrentPhase   string
	SelectedPhases []string
}

// DialogueService drives the question/answer dialogue. It holds no session state;
// every call carries the complete snapshot it needs.
type DialogueService interface {
	NextQuestion(ctx context.Context, in NextQuestionInput) (dialogue.Question, error)
	Explain(ctx context.Context, idea, question string, options []string) (dialogue.Explanation, error)
	Finalize(ctx context.Context, idea string, history []dialogue.Answer, selectedPhases []string) (string, error)
}

type dialogueService struct {
	gen generator.Generator
	log *logger.Logger
}

func NewDialogueService(gen generator.Generator, baseLog *logger.Logger) DialogueService {
	return &dialogueService{
		gen: gen,
		log: baseLog.With("service", "DialogueService"),
	}
}

func (s *dialogueService) NextQuestion(ctx context.Context, in NextQuestionInput) (q dialogue.Question, err error) {
	const op = "DialogueService.NextQuestion"
	answered := len(in.History)
	ctx, span := observability.StartSpan(ctx, op,
		attribute.Int("dialogue.answered", answered),
		attribute.Int("dialogue.total_questions", in.TotalQuestions),
	)
	defer func() { observability.EndSpan(span, err) }()

	if answered >= in.TotalQuestions {
		return dialogue.Question{}, dialogue.LimitReached(op, answered, in.TotalQuestions)
	}
	if strings.TrimSpace(in.Idea) == "" {
		return dialogue.Question{}, dialogue.Validation(op, "idea is required")
	}

	phase := strings.TrimSpace(in.CurrentPhase)
	if phase == "" {
		phase = dialogue.PhaseFor(answered, in.TotalQuestions, in.SelectedPhases)
	}
	span.SetAttributes(attribute.String("dialogue.phase", phase))

	q, err = s.gen.GenerateQuestion(ctx, in.Idea, in.History, phase)
	if err != nil {
		s.log.Warn("Question generation failed", append(ctxutil.LogFields(ctx), "phase", phase, "error", err)...)
		return dialogue.Question{}, dialogue.GenerationFailure(op, err)
	}

	q.Text = strings.TrimSpace(q.Text)
	options := dialogue.DedupeOptions(q.Options)
	if len(options) != len(q.Options) {
		s.log.Debug("Dropped duplicate or blank options", "before", len(q.Options), "after", len(options))
	}
	if q.Text == "" || len(options) == 0 {
		return dialogue.Question{}, dialogue.GenerationFailure(op,
			fmt.Errorf("%w: question without text or options", dialogue.ErrMalformedOutput))
	}
	q.Options = options
	return q, nil
}

func (s *dialogueService) Explain(ctx context.Context, idea, question string, options []string) (ex dialogue.Explanation, err error) {
	const op = "DialogueService.Explain"
	ctx, span := observability.StartSpan(ctx, op, attribute.Int("dialogue.options", len(options)))
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(question) == "" {
		return dialogue.Explanation{}, dialogue.Validation(op, "question is required")
	}
	if len(options) == 0 {
		return dialogue.Explanation{}, dialogue.Validation(op, "at least one option is required")
	}
	for _, o := range options {
		if strings.TrimSpace(o) == "" {
			return dialogue.Explanation{}, dialogue.Validation(op, "options must not be blank")
		}
	}
	if dup, ok := dialogue.DuplicateOption(options); ok {
		return dialogue.Explanation{}, dialogue.Validation(op, fmt.Sprintf("duplicate option %q", dup))
	}

	raw, err := s.gen.GenerateExplanation(ctx, idea, question, options)
	if err != nil {
		s.log.Warn("Explanation generation failed", append(ctxutil.LogFields(ctx), "error", err)...)
		return dialogue.Explanation{}, dialogue.GenerationFailure(op, err)
	}

	out := dialogue.Explanation{
		QuestionExplanation: strings.TrimSpace(raw.QuestionExplanation),
		OptionExplanations:  make(map[string]string, len(options)),
	}
	var missing []string
	for _, o := range options {
		text, ok := lookupExplanation(raw.OptionExplanations, o)
		if !ok {
			missing = append(missing, o)
			continue
		}
		out.OptionExplanations[o] = text
	}
	if len(missing) > 0 {
		return dialogue.Explanation{}, dialogue.GenerationFailure(op,
			fmt.Errorf("%w: no explanation for options %q", dialogue.ErrMalformedOutput, missing))
	}
	if extra := len(raw.OptionExplanations) - len(out.OptionExplanations); extra > 0 {
		s.log.Debug("Dropped explanations for unknown options", "count", extra)
	}
	return out, nil
}

// lookupExplanation matches the exact option text first, then ignores surrounding
// whitespace and case.
func lookupExplanation(m map[string]string, option string) (string, bool) {
	if v, ok := m[option]; ok {
		return v, true
	}
	want := strings.ToLower(strings.TrimSpace(option))
	for k, v := range m {
		if strings.ToLower(strings.TrimSpace(k)) == want {
			return v, true
		}
	}
	return "", false
}

func (s *dialogueService) Finalize(ctx context.Context, idea string, history []dialogue.Answer, selectedPhases []string) (doc string, err error) {
	const op = "DialogueService.Finalize"
	ctx, span := observability.StartSpan(ctx, op,
		attribute.Int("dialogue.answered", len(history)),
		attribute.StringSlice("dialogue.selected_phases", selectedPhases),
	)
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(idea) == "" {
		return "", dialogue.Validation(op, "idea is required")
	}

	doc, err = s.gen.GenerateFinalDocument(ctx, idea, history, selectedPhases)
	if err != nil {
		s.log.Warn("Final document generation failed", append(ctxutil.LogFields(ctx), "error", err)...)
		return "", dialogue.GenerationFailure(op, err)
	}
	return doc, nil
}
