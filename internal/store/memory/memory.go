package memory

import (
	"context"
	"sync"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/store"
)

// Store keeps sessions in process memory. Useful for tests and ephemeral deployments.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*dialogue.Session
	clock    *store.Clock
	log      *logger.Logger
}

func New(clock *store.Clock, baseLog *logger.Logger) *Store {
	if clock == nil {
		clock = store.NewClock(nil)
	}
	return &Store{
		sessions: make(map[string]*dialogue.Session),
		clock:    clock,
		log:      baseLog.With("store", "MemoryStore"),
	}
}

func (s *Store) Put(ctx context.Context, sess *dialogue.Session) error {
	const op = "memory.Put"
	if err := ctx.Err(); err != nil {
		return dialogue.StoreFailure(op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.sessions[sess.ID]
	var curVersion int64
	if exists {
		curVersion = cur.Version
	}
	next, err := store.NextVersion(op, sess.ID, sess.Version, curVersion, exists)
	if err != nil {
		return err
	}
	sess.Version = next
	sess.Timestamp = s.clock.Stamp()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*dialogue.Session, error) {
	const op = "memory.Get"
	if err := ctx.Err(); err != nil {
		return nil, dialogue.StoreFailure(op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, dialogue.NotFound(op, id)
	}
	return sess.Clone(), nil
}

func (s *Store) List(ctx context.Context) ([]dialogue.SessionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, dialogue.StoreFailure("memory.List", err)
	}
	s.mu.RLock()
	out := make([]dialogue.SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Summary())
	}
	s.mu.RUnlock()
	store.SortSummaries(out)
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "memory.Delete"
	if err := ctx.Err(); err != nil {
		return dialogue.StoreFailure(op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return dialogue.NotFound(op, id)
	}
	delete(s.sessions, id)
	return nil
}
