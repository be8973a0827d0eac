package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/store"
)

const (
	ext         = ".json"
	listWorkers = 8
)

// Store writes one JSON document per session id into a directory.
type Store struct {
	dir   string
	clock *store.Clock
	log   *logger.Logger

	// mu serialises read-check-write in Put and Delete within this process.
	mu sync.Mutex
}

func New(dir string, clock *store.Clock, baseLog *logger.Logger) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("filestore: dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", dir, err)
	}
	if clock == nil {
		clock = store.NewClock(nil)
	}
	return &Store{
		dir:   dir,
		clock: clock,
		log:   baseLog.With("store", "FileStore", "dir", dir),
	}, nil
}

// Ping checks that the saves directory is still a reachable directory.
func (s *Store) Ping(ctx context.Context) error {
	fi, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("filestore: %s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) path(id string) (string, error) {
	if err := dialogue.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id+ext), nil
}

func (s *Store) Put(ctx context.Context, sess *dialogue.Session) error {
	const op = "filestore.Put"
	if err := ctx.Err(); err != nil {
		return dialogue.StoreFailure(op, err)
	}
	p, err := s.path(sess.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var curVersion int64
	cur, err := s.read(sess.ID, p)
	exists := err == nil
	switch {
	case exists:
		curVersion = cur.Version
		s.clock.Observe(cur.Timestamp)
	case dialogue.IsCode(err, dialogue.CodeNotFound):
	default:
		// An unreadable record is overwritten unless the caller asked for a version check.
		if sess.Version > 0 {
			return err
		}
		s.log.Warn("Overwriting unreadable session record", "session_id", sess.ID, "error", err)
	}

	next, err := store.NextVersion(op, sess.ID, sess.Version, curVersion, exists)
	if err != nil {
		return err
	}

	out := sess.Clone()
	out.Version = next
	out.Timestamp = s.clock.Stamp()
	b, err := store.EncodeRecord(out)
	if err != nil {
		return dialogue.StoreFailure(op, err)
	}
	if err := writeAtomic(p, b); err != nil {
		return dialogue.StoreFailure(op, err)
	}
	sess.Version = out.Version
	sess.Timestamp = out.Timestamp
	return nil
}

// writeAtomic writes to a temp file in the same directory and renames it over p.
func writeAtomic(p string, b []byte) error {
	dir := filepath.Dir(p)
	tmp := filepath.Join(dir, "."+filepath.Base(p)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *Store) read(id, p string) (*dialogue.Session, error) {
	const op = "filestore.Get"
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, dialogue.NotFound(op, id)
		}
		return nil, dialogue.StoreFailure(op, err)
	}
	sess, err := store.DecodeRecord(id, b)
	if err != nil {
		return nil, dialogue.StoreFailure(op, err)
	}
	return sess, nil
}

func (s *Store) Get(ctx context.Context, id string) (*dialogue.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, dialogue.StoreFailure("filestore.Get", err)
	}
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	return s.read(id, p)
}

// List decodes every record concurrently. Records that cannot be read or parsed are
// logged and skipped so one bad file never hides the rest.
func (s *Store) List(ctx context.Context) ([]dialogue.SessionSummary, error) {
	const op = "filestore.List"
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []dialogue.SessionSummary{}, nil
		}
		return nil, dialogue.StoreFailure(op, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		names = append(names, name)
	}

	results := make([]*dialogue.SessionSummary, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listWorkers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := strings.TrimSuffix(name, ext)
			b, err := os.ReadFile(filepath.Join(s.dir, name))
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					s.log.Warn("Skipping unreadable session record", "key", key, "error", err)
				}
				return nil
			}
			sess, err := store.DecodeRecord(key, b)
			if err != nil {
				s.log.Warn("Skipping corrupt session record", "key", key, "error", err)
				return nil
			}
			sum := sess.Summary()
			results[i] = &sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dialogue.StoreFailure(op, err)
	}

	out := make([]dialogue.SessionSummary, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	store.SortSummaries(out)
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "filestore.Delete"
	if err := ctx.Err(); err != nil {
		return dialogue.StoreFailure(op, err)
	}
	p, err := s.path(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dialogue.NotFound(op, id)
		}
		return dialogue.StoreFailure(op, err)
	}
	return nil
}
