package dialogue

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTotalQuestions = 20
	UntitledIdea          = "Untitled Project"
	maxIDLength           = 128
)

// Answer is one completed question/answer exchange.
type Answer struct {
	Question       string `json:"question"`
	SelectedOption string `json:"selected_option"`
}

// Session is the client-held dialogue snapshot. The server only persists it on request.
type Session struct {
	ID             string    `json:"id"`
	Idea           string    `json:"idea"`
	TotalQuestions int       `json:"total_questions"`
	History        []Answer  `json:"history"`
	CurrentPhase   string    `json:"current_phase"`
	SelectedPhases []string  `json:"selected_phases"`
	FinalPrompt    string    `json:"final_prompt"`
	Timestamp      time.Time `json:"timestamp"`
	Version        int64     `json:"version"`
}

func (s *Session) Answered() int {
	if s == nil {
		return 0
	}
	return len(s.History)
}

// LimitReached reports whether no further question may be asked.
func (s *Session) LimitReached() bool {
	return s.Answered() >= s.TotalQuestions
}

func (s *Session) Progress() string {
	return FormatProgress(s.Answered(), s.TotalQuestions)
}

// Summary is the listing projection of a stored session.
func (s *Session) Summary() SessionSummary {
	idea := s.Idea
	if strings.TrimSpace(idea) == "" {
		idea = UntitledIdea
	}
	return SessionSummary{
		ID:        s.ID,
		Idea:      idea,
		Timestamp: s.Timestamp,
		Progress:  s.Progress(),
	}
}

// Clone returns a deep copy so stores never share slices with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.History != nil {
		out.History = append([]Answer(nil), s.History...)
	}
	if s.SelectedPhases != nil {
		out.SelectedPhases = append([]string(nil), s.SelectedPhases...)
	}
	return &out
}

type SessionSummary struct {
	ID        string    `json:"id"`
	Idea      string    `json:"idea"`
	Timestamp time.Time `json:"timestamp"`
	Progress  string    `json:"progress"`
}

func FormatProgress(answered, total int) string {
	return fmt.Sprintf("%d/%d", answered, total)
}

// ValidateID checks that id is usable as a file name and cache key.
func ValidateID(id string) error {
	const op = "dialogue.ValidateID"
	if id == "" {
		return Validation(op, "session id is required")
	}
	if len(id) > maxIDLength {
		return Validation(op, fmt.Sprintf("session id longer than %d characters", maxIDLength))
	}
	if id == "." || id == ".." {
		return Validation(op, "invalid session id")
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return Validation(op, fmt.Sprintf("session id contains invalid character %q", r))
		}
	}
	return nil
}
