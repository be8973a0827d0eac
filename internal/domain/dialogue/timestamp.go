package dialogue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Records saved before timestamps existed carry the zero time. On the wire it
// is an empty string rather than year one.

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func (s Session) MarshalJSON() ([]byte, error) {
	type plain Session
	return json.Marshal(struct {
		plain
		Timestamp string `json:"timestamp"`
	}{plain(s), formatTimestamp(s.Timestamp)})
}

func (s *Session) UnmarshalJSON(b []byte) error {
	type plain Session
	aux := struct {
		*plain
		Timestamp string `json:"timestamp"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	s.Timestamp = ts
	return nil
}

func (s SessionSummary) MarshalJSON() ([]byte, error) {
	type plain SessionSummary
	return json.Marshal(struct {
		plain
		Timestamp string `json:"timestamp"`
	}{plain(s), formatTimestamp(s.Timestamp)})
}

func (s *SessionSummary) UnmarshalJSON(b []byte) error {
	type plain SessionSummary
	aux := struct {
		*plain
		Timestamp string `json:"timestamp"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	s.Timestamp = ts
	return nil
}
