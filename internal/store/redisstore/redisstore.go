package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/store"
)

const maxWatchRetries = 5

// Store keeps each session as a JSON string and indexes ids in a sorted set
// scored by write time.
type Store struct {
	rdb    goredis.UniversalClient
	prefix string
	clock  *store.Clock
	log    *logger.Logger
}

// Dial builds a client and pings it so misconfiguration fails at startup.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func New(rdb goredis.UniversalClient, prefix string, clock *store.Clock, baseLog *logger.Logger) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "promptgen"
	}
	if clock == nil {
		clock = store.NewClock(nil)
	}
	return &Store{
		rdb:    rdb,
		prefix: prefix,
		clock:  clock,
		log:    baseLog.With("store", "RedisStore", "prefix", prefix),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) key(id string) string { return s.prefix + ":session:" + id }
func (s *Store) indexKey() string     { return s.prefix + ":sessions" }

func (s *Store) Put(ctx context.Context, sess *dialogue.Session) error {
	const op = "redisstore.Put"
	key := s.key(sess.ID)

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		var written *dialogue.Session
		err := s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
			var curVersion int64
			exists := false
			raw, err := tx.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				exists = true
				if cur, derr := store.DecodeRecord(sess.ID, raw); derr == nil {
					curVersion = cur.Version
					s.clock.Observe(cur.Timestamp)
				} else if sess.Version > 0 {
					return dialogue.StoreFailure(op, derr)
				} else {
					s.log.Warn("Overwriting unreadable session record", "session_id", sess.ID, "error", derr)
				}
			case errors.Is(err, goredis.Nil):
			default:
				return err
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
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, key, b, 0)
				pipe.ZAdd(ctx, s.indexKey(), goredis.Z{
					Score:  float64(out.Timestamp.UnixMicro()),
					Member: sess.ID,
				})
				return nil
			})
			if err != nil {
				return err
			}
			written = out
			return nil
		}, key)

		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return mapError(op, err)
		}
		sess.Version = written.Version
		sess.Timestamp = written.Timestamp
		return nil
	}
	return dialogue.Conflict(op, fmt.Sprintf("session %s is being written concurrently", sess.ID))
}

func (s *Store) Get(ctx context.Context, id string) (*dialogue.Session, error) {
	const op = "redisstore.Get"
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, dialogue.NotFound(op, id)
	}
	if err != nil {
		return nil, mapError(op, err)
	}
	sess, err := store.DecodeRecord(id, raw)
	if err != nil {
		return nil, dialogue.StoreFailure(op, err)
	}
	return sess, nil
}

// List reads every indexed record. Index entries whose record vanished are pruned;
// records that fail to decode are logged and skipped.
func (s *Store) List(ctx context.Context) ([]dialogue.SessionSummary, error) {
	const op = "redisstore.List"
	ids, err := s.rdb.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, mapError(op, err)
	}
	out := make([]dialogue.SessionSummary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, mapError(op, err)
	}

	var stale []any
	for i, v := range vals {
		if v == nil {
			stale = append(stale, ids[i])
			continue
		}
		raw, ok := v.(string)
		if !ok {
			s.log.Warn("Skipping corrupt session record", "key", ids[i], "error", fmt.Sprintf("unexpected type %T", v))
			continue
		}
		sess, err := store.DecodeRecord(ids[i], []byte(raw))
		if err != nil {
			s.log.Warn("Skipping corrupt session record", "key", ids[i], "error", err)
			continue
		}
		out = append(out, sess.Summary())
	}
	if len(stale) > 0 {
		if err := s.rdb.ZRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			s.log.Warn("Failed to prune session index", "error", err)
		}
	}
	store.SortSummaries(out)
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "redisstore.Delete"
	var del *goredis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return mapError(op, err)
	}
	if del.Val() == 0 {
		return dialogue.NotFound(op, id)
	}
	return nil
}

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if dialogue.CodeOf(err) != "" {
		return err
	}
	return dialogue.StoreFailure(op, err)
}
