package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
)

// Store persists dialogue sessions keyed by id.
//
// Put stamps s.Timestamp and s.Version in place. When s.Version is non-zero it
// must equal the stored version or Put fails with a conflict; zero keeps
// last-write-wins. Readers never observe a partially written record.
type Store interface {
	Put(ctx context.Context, s *dialogue.Session) error
	Get(ctx context.Context, id string) (*dialogue.Session, error)
	List(ctx context.Context) ([]dialogue.SessionSummary, error)
	Delete(ctx context.Context, id string) error
}

// Pinger is implemented by stores backed by an external system. Readiness
// probes call it; stores without it are always ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NextVersion validates the caller's optimistic token against the stored version
// and returns the version to persist.
func NextVersion(op, id string, callerVersion, storedVersion int64, exists bool) (int64, error) {
	if callerVersion > 0 {
		if !exists {
			return 0, dialogue.Conflict(op, fmt.Sprintf("session %s no longer exists", id))
		}
		if callerVersion != storedVersion {
			return 0, dialogue.Conflict(op, fmt.Sprintf("session %s was modified (version %d, have %d)", id, storedVersion, callerVersion))
		}
	}
	if !exists {
		return 1, nil
	}
	return storedVersion + 1, nil
}

// SortSummaries orders by timestamp descending, then id for a stable listing.
func SortSummaries(out []dialogue.SessionSummary) {
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
}
