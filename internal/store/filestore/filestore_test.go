package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/store"
	"github.com/yungbote/promptgen-backend/internal/store/storetest"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir, nil, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, dir
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newStore(t)
		return s
	})
}

func TestListSkipsCorruptRecords(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, storetest.Sample(id)); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nul.json"), []byte("null"), 0o644); err != nil {
		t.Fatalf("write null: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatalf("write txt: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len=%d want=3: %+v", len(list), list)
	}
	for _, sum := range list {
		if sum.ID == "broken" || sum.ID == "nul" {
			t.Fatalf("corrupt record %q listed", sum.ID)
		}
	}

	if _, err := s.Get(ctx, "broken"); !dialogue.IsCode(err, dialogue.CodeStoreFailure) {
		t.Fatalf("Get corrupt err=%v want store_failure", err)
	}
}

func TestListReadsLegacyRecords(t *testing.T) {
	s, dir := newStore(t)
	legacy := `{
    "id": "old",
    "history": [{"question": "q1", "selected_option": "a"}, {"question": "q2", "selected_option": "b"}],
    "current_phase": "Core Features",
    "selected_phases": ["Core Features"],
    "timestamp": "2024-01-02T03:04:05.678901"
}`
	if err := os.WriteFile(filepath.Join(dir, "old.json"), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy: %v", err)
	}
	noID := `{"idea": "Recipe box", "total_questions": 5, "history": []}`
	if err := os.WriteFile(filepath.Join(dir, "fromname.json"), []byte(noID), 0o644); err != nil {
		t.Fatalf("write legacy: %v", err)
	}

	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list=%+v", list)
	}
	// The record with a timestamp sorts ahead of the one without.
	if list[0].ID != "old" || list[0].Idea != dialogue.UntitledIdea || list[0].Progress != "2/20" {
		t.Fatalf("legacy summary=%+v", list[0])
	}
	if list[1].ID != "fromname" || list[1].Progress != "0/5" {
		t.Fatalf("id fallback summary=%+v", list[1])
	}
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	s, dir := newStore(t)
	if err := s.Put(context.Background(), storetest.Sample("abc")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "abc.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("entries=%v", names)
	}
}

func TestRejectsPathTraversal(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	bad := storetest.Sample("../escape")
	if err := s.Put(ctx, bad); !dialogue.IsCode(err, dialogue.CodeValidation) {
		t.Fatalf("Put err=%v want validation", err)
	}
	if _, err := s.Get(ctx, ".."); !dialogue.IsCode(err, dialogue.CodeValidation) {
		t.Fatalf("Get err=%v want validation", err)
	}
}

func TestPingFailsWhenDirRemoved(t *testing.T) {
	s, dir := newStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping failure after removing %s", dir)
	}
}
