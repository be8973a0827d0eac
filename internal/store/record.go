package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
)

// record is the persisted layout. Pointer fields distinguish "absent" from zero
// so older records decode with defaults instead of failing.
type record struct {
	ID             *string           `json:"id,omitempty"`
	Idea           *string           `json:"idea,omitempty"`
	TotalQuestions *int              `json:"total_questions,omitempty"`
	History        []dialogue.Answer `json:"history"`
	CurrentPhase   string            `json:"current_phase"`
	SelectedPhases []string          `json:"selected_phases"`
	FinalPrompt    string            `json:"final_prompt"`
	Timestamp      string            `json:"timestamp"`
	Version        int64             `json:"version,omitempty"`
}

// localTimestampLayouts covers ISO-8601 timestamps written without a zone.
var localTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// EncodeRecord renders a session in the persisted JSON layout.
func EncodeRecord(s *dialogue.Session) ([]byte, error) {
	id, idea, total := s.ID, s.Idea, s.TotalQuestions
	r := record{
		ID:             &id,
		Idea:           &idea,
		TotalQuestions: &total,
		History:        s.History,
		CurrentPhase:   s.CurrentPhase,
		SelectedPhases: s.SelectedPhases,
		FinalPrompt:    s.FinalPrompt,
		Timestamp:      FormatTimestamp(s.Timestamp),
		Version:        s.Version,
	}
	if r.History == nil {
		r.History = []dialogue.Answer{}
	}
	if r.SelectedPhases == nil {
		r.SelectedPhases = []string{}
	}
	return json.MarshalIndent(r, "", "    ")
}

// DecodeRecord parses a persisted record. key is used as the id when the record has none.
func DecodeRecord(key string, b []byte) (*dialogue.Session, error) {
	if trimmed := bytes.TrimSpace(b); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("decode record %q: not a JSON object", key)
	}
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode record %q: %w", key, err)
	}
	s := &dialogue.Session{
		ID:             key,
		TotalQuestions: dialogue.DefaultTotalQuestions,
		History:        r.History,
		CurrentPhase:   r.CurrentPhase,
		SelectedPhases: r.SelectedPhases,
		FinalPrompt:    r.FinalPrompt,
		Version:        r.Version,
	}
	if r.ID != nil && strings.TrimSpace(*r.ID) != "" {
		s.ID = *r.ID
	}
	if r.Idea != nil {
		s.Idea = *r.Idea
	}
	if r.TotalQuestions != nil {
		s.TotalQuestions = *r.TotalQuestions
	}
	if s.History == nil {
		s.History = []dialogue.Answer{}
	}
	if s.SelectedPhases == nil {
		s.SelectedPhases = []string{}
	}
	ts, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("decode record %q: %w", key, err)
	}
	s.Timestamp = ts
	return s, nil
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp accepts RFC 3339 and zone-less ISO-8601 (read as local time).
// An empty string is the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
