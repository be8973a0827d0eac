package store

import (
	"testing"
	"time"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
)

func TestDecodeRecordDefaults(t *testing.T) {
	t.Parallel()

	s, err := DecodeRecord("legacy", []byte(`{"history":[{"question":"q","selected_option":"a"}]}`))
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if s.ID != "legacy" {
		t.Fatalf("id=%q", s.ID)
	}
	if s.TotalQuestions != dialogue.DefaultTotalQuestions {
		t.Fatalf("total=%d", s.TotalQuestions)
	}
	if sum := s.Summary(); sum.Idea != dialogue.UntitledIdea || sum.Progress != "1/20" {
		t.Fatalf("summary=%+v", sum)
	}
	if !s.Timestamp.IsZero() {
		t.Fatalf("timestamp=%s", s.Timestamp)
	}
	if s.SelectedPhases == nil {
		t.Fatalf("selected phases should default to empty")
	}
}

func TestDecodeRecordExplicitZeroTotal(t *testing.T) {
	t.Parallel()

	s, err := DecodeRecord("k", []byte(`{"id":"x","total_questions":0}`))
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if s.TotalQuestions != 0 || s.ID != "x" {
		t.Fatalf("session=%+v", s)
	}
}

func TestDecodeRecordRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`{not json`, `{"timestamp":"yesterday"}`, `{"history":"nope"}`, `null`, ` null `, `[]`, `"x"`, ``} {
		if _, err := DecodeRecord("k", []byte(raw)); err == nil {
			t.Fatalf("DecodeRecord(%s) expected error", raw)
		}
	}
}

func TestEncodeDecodeKeepsFields(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 1, 12, 30, 0, 123000, time.UTC)
	in := &dialogue.Session{
		ID:             "abc",
		Idea:           "Todo app",
		TotalQuestions: 0,
		History:        []dialogue.Answer{{Question: "q", SelectedOption: "a"}},
		CurrentPhase:   "Tech Stack",
		SelectedPhases: []string{"Tech Stack"},
		FinalPrompt:    "done",
		Timestamp:      ts,
		Version:        7,
	}
	b, err := EncodeRecord(in)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	out, err := DecodeRecord("ignored", b)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if out.ID != "abc" || out.TotalQuestions != 0 || out.FinalPrompt != "done" || out.Version != 7 {
		t.Fatalf("out=%+v", out)
	}
	if !out.Timestamp.Equal(ts) {
		t.Fatalf("timestamp=%s want=%s", out.Timestamp, ts)
	}
}

func TestParseTimestampZoneless(t *testing.T) {
	t.Parallel()

	got, err := ParseTimestamp("2024-05-06T07:08:09.123456")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	want := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.Local)
	if !got.Equal(want) {
		t.Fatalf("got=%s want=%s", got, want)
	}
}

func TestClockIsMonotonic(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(func() time.Time { return fixed })
	a := c.Stamp()
	b := c.Stamp()
	if !b.After(a) {
		t.Fatalf("stamps not increasing: %s then %s", a, b)
	}
	c.Observe(fixed.Add(time.Hour))
	if d := c.Stamp(); !d.After(fixed.Add(time.Hour)) {
		t.Fatalf("stamp %s not after observed time", d)
	}
}

func TestNextVersion(t *testing.T) {
	t.Parallel()

	if v, err := NextVersion("op", "id", 0, 0, false); err != nil || v != 1 {
		t.Fatalf("new record: v=%d err=%v", v, err)
	}
	if v, err := NextVersion("op", "id", 0, 4, true); err != nil || v != 5 {
		t.Fatalf("blind overwrite: v=%d err=%v", v, err)
	}
	if v, err := NextVersion("op", "id", 4, 4, true); err != nil || v != 5 {
		t.Fatalf("matching version: v=%d err=%v", v, err)
	}
	if _, err := NextVersion("op", "id", 3, 4, true); !dialogue.IsCode(err, dialogue.CodeConflict) {
		t.Fatalf("stale version err=%v", err)
	}
}

func TestSortSummaries(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []dialogue.SessionSummary{
		{ID: "b", Timestamp: base},
		{ID: "c", Timestamp: base.Add(time.Minute)},
		{ID: "a", Timestamp: base},
		{ID: "z"},
	}
	SortSummaries(list)
	got := []string{list[0].ID, list[1].ID, list[2].ID, list[3].ID}
	want := []string{"c", "a", "b", "z"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order=%v want=%v", got, want)
		}
	}
}
