package generator

import (
	"context"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
)

// Generator produces dialogue content. Calls are not idempotent: identical input
// may yield different output, so callers must not cache results.
type Generator interface {
	GenerateQuestion(ctx context.Context, idea string, history []dialogue.Answer, phase string) (dialogue.Question, error)
	GenerateExplanation(ctx context.Context, idea, question string, options []string) (dialogue.Explanation, error)
	GenerateFinalDocument(ctx context.Context, idea string, history []dialogue.Answer, selectedPhases []string) (string, error)
}
