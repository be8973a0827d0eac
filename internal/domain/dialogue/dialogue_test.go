package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestPhaseFor(t *testing.T) {
	t.Parallel()

	selected := []string{"Core Features", "Tech Stack", "UI/UX Design", "Data Strategy"}
	cases := []struct {
		name     string
		answered int
		total    int
		selected []string
		want     string
	}{
		{name: "empty selection falls back", answered: 3, total: 10, selected: nil, want: FallbackPhase},
		{name: "first question", answered: 0, total: 8, selected: selected, want: "Core Features"},
		{name: "second bucket", answered: 2, total: 8, selected: selected, want: "Tech Stack"},
		{name: "last bucket", answered: 7, total: 8, selected: selected, want: "Data Strategy"},
		{name: "past the budget clamps", answered: 12, total: 8, selected: selected, want: "Data Strategy"},
		{name: "zero budget", answered: 0, total: 0, selected: selected, want: "Core Features"},
		{name: "uneven split", answered: 10, total: 20, selected: selected[:3], want: "Tech Stack"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := PhaseFor(tc.answered, tc.total, tc.selected); got != tc.want {
				t.Fatalf("PhaseFor(%d,%d)=%q want=%q", tc.answered, tc.total, got, tc.want)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	t.Parallel()

	valid := []string{"abc", "session-1", "A.b_c-9", strings.Repeat("x", 128)}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Fatalf("ValidateID(%q): %v", id, err)
		}
	}
	invalid := []string{"", ".", "..", "../etc/passwd", "a/b", "with space", strings.Repeat("x", 129), "ümlaut"}
	for _, id := range invalid {
		err := ValidateID(id)
		if !IsCode(err, CodeValidation) {
			t.Fatalf("ValidateID(%q)=%v want validation", id, err)
		}
	}
}

func TestSessionSummaryDefaults(t *testing.T) {
	t.Parallel()

	s := &Session{ID: "abc", TotalQuestions: 5, History: []Answer{{Question: "q", SelectedOption: "a"}}}
	sum := s.Summary()
	if sum.Idea != UntitledIdea {
		t.Fatalf("idea=%q", sum.Idea)
	}
	if sum.Progress != "1/5" {
		t.Fatalf("progress=%q", sum.Progress)
	}
}

func TestSessionLimitReached(t *testing.T) {
	t.Parallel()

	for _, total := range []int{0, 1, 7} {
		s := &Session{TotalQuestions: total, History: make([]Answer, total)}
		if !s.LimitReached() {
			t.Fatalf("total=%d: expected limit reached", total)
		}
	}
	s := &Session{TotalQuestions: 3, History: make([]Answer, 2)}
	if s.LimitReached() {
		t.Fatalf("expected room for one more question")
	}
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	t.Parallel()

	s := &Session{History: []Answer{{Question: "q1"}}, SelectedPhases: []string{"Tech Stack"}}
	c := s.Clone()
	c.History[0].Question = "changed"
	c.SelectedPhases[0] = "changed"
	if s.History[0].Question != "q1" || s.SelectedPhases[0] != "Tech Stack" {
		t.Fatalf("clone mutated original: %+v", s)
	}
}

func TestDedupeOptions(t *testing.T) {
	t.Parallel()

	got := DedupeOptions([]string{" A ", "B", "A", "", "C", "B"})
	want := []string{"A", "B", "C"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got=%v want=%v", got, want)
	}
	if dup, ok := DuplicateOption([]string{"x", "y", "x"}); !ok || dup != "x" {
		t.Fatalf("DuplicateOption=%q,%v", dup, ok)
	}
	if _, ok := DuplicateOption([]string{"x", "y"}); ok {
		t.Fatalf("unexpected duplicate")
	}
}

func TestGenerationFailureClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: ErrTimeout},
		{name: "syntax", err: json.Unmarshal([]byte("{"), &struct{}{}), want: ErrMalformedOutput},
		{name: "explicit refusal", err: fmt.Errorf("model: %w", ErrRefused), want: ErrRefused},
		{name: "anything else", err: errors.New("boom"), want: ErrUpstream},
	}
	for _, tc := range cases {
		err := GenerationFailure("op", tc.err)
		if !IsCode(err, CodeGenerationFailure) {
			t.Fatalf("%s: code=%q", tc.name, CodeOf(err))
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected errors.Is(err, %v)", tc.name, tc.want)
		}
		if !errors.Is(err, tc.err) {
			t.Fatalf("%s: original cause lost", tc.name)
		}
	}
}

func TestWrapKeepsExistingCode(t *testing.T) {
	t.Parallel()

	nf := NotFound("store.Get", "abc")
	if got := StoreFailure("svc.Load", nf); CodeOf(got) != CodeNotFound {
		t.Fatalf("code=%q", CodeOf(got))
	}
	if got := Wrap(CodeStoreFailure, "x", errors.New("disk full")); CodeOf(got) != CodeStoreFailure {
		t.Fatalf("code=%q", CodeOf(got))
	}
	if Message(nf) != "Save file not found" {
		t.Fatalf("message=%q", Message(nf))
	}
}

func TestZeroTimestampEncodesEmpty(t *testing.T) {
	t.Parallel()

	s := &Session{ID: "legacy", TotalQuestions: 20, History: []Answer{}, SelectedPhases: []string{}}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal session: %v", err)
	}
	if !strings.Contains(string(raw), `"timestamp":""`) {
		t.Fatalf("session json=%s", raw)
	}
	raw, err = json.Marshal(s.Summary())
	if err != nil {
		t.Fatalf("Marshal summary: %v", err)
	}
	if !strings.Contains(string(raw), `"timestamp":""`) || !strings.Contains(string(raw), `"progress":"0/20"`) {
		t.Fatalf("summary json=%s", raw)
	}

	var back Session
	if err := json.Unmarshal([]byte(`{"id":"legacy","timestamp":""}`), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.ID != "legacy" || !back.Timestamp.IsZero() {
		t.Fatalf("back=%+v", back)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 1, 12, 30, 0, 500, time.UTC)
	raw, err := json.Marshal(SessionSummary{ID: "a", Idea: "Todo app", Timestamp: ts, Progress: "1/3"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back SessionSummary
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Timestamp.Equal(ts) || back.Idea != "Todo app" || back.Progress != "1/3" {
		t.Fatalf("back=%+v json=%s", back, raw)
	}
}
