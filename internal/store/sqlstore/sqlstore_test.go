package sqlstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/store"
	"github.com/yungbote/promptgen-backend/internal/store/storetest"
)

func sqliteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open("sqlite", dsn, logger.NewNop())
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestStoreContractSQLite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New(sqliteDB(t), nil, logger.NewNop())
	})
}

func TestStoreContractPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run postgres store tests")
	}
	db, err := Open("postgres", dsn, logger.NewNop())
	if err != nil {
		t.Fatalf("Open postgres: %v", err)
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		if err := db.Exec("DELETE FROM dialogue_sessions").Error; err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return New(db, nil, logger.NewNop())
	})
}

func TestListSkipsCorruptRows(t *testing.T) {
	db := sqliteDB(t)
	s := New(db, nil, logger.NewNop())
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if err := s.Put(ctx, storetest.Sample(id)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	err := db.Exec(
		"INSERT INTO dialogue_sessions (id, idea, total_questions, history, current_phase, selected_phases, final_prompt, timestamp, version) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		"broken", "x", 3, "{not json", "", "[]", "", time.Now().UTC(), 1,
	).Error
	if err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list=%+v", list)
	}
	if _, err := s.Get(ctx, "broken"); !dialogue.IsCode(err, dialogue.CodeStoreFailure) {
		t.Fatalf("Get err=%v want store_failure", err)
	}
}

func TestPutKeepsZeroTotal(t *testing.T) {
	s := New(sqliteDB(t), nil, logger.NewNop())
	ctx := context.Background()
	sess := storetest.Sample("zero")
	sess.TotalQuestions = 0
	sess.History = nil
	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "zero")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TotalQuestions != 0 || got.Summary().Progress != "0/0" {
		t.Fatalf("got=%+v", got)
	}
}

func TestPing(t *testing.T) {
	var s store.Pinger = New(sqliteDB(t), nil, logger.NewNop())
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
