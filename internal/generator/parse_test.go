package generator

import (
	"errors"
	"testing"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "Sure!\n```json\n{\"a\":1}\n```\nDone.", want: `{"a":1}`},
		{name: "plain fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", input: "Here you go {see below}: {\"a\":1} hope it helps", want: `{"a":1}`},
		{name: "nothing", input: "  no json here ", want: "no json here"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := extractJSON(tt.input); got != tt.want {
				t.Fatalf("extractJSON()=%q want=%q", got, tt.want)
			}
		})
	}
}

func TestParseQuestion(t *testing.T) {
	t.Parallel()

	q, err := parseQuestion("```json\n{\"text\":\" Which DB? \",\"options\":[\"Postgres\",\"SQLite\"]}\n```")
	if err != nil {
		t.Fatalf("parseQuestion: %v", err)
	}
	if q.Text != "Which DB?" || len(q.Options) != 2 {
		t.Fatalf("q=%+v", q)
	}

	for _, raw := range []string{"not json", `{"text":"","options":["a"]}`, `{"text":"q","options":[]}`} {
		if _, err := parseQuestion(raw); !errors.Is(err, dialogue.ErrMalformedOutput) {
			t.Fatalf("parseQuestion(%q) err=%v", raw, err)
		}
	}
}

func TestParseExplanationDefaultsMap(t *testing.T) {
	t.Parallel()

	e, err := parseExplanation(`{"question_explanation":"why"}`)
	if err != nil {
		t.Fatalf("parseExplanation: %v", err)
	}
	if e.OptionExplanations == nil {
		t.Fatalf("expected non-nil map")
	}
}
