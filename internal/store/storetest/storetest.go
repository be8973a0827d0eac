// Package storetest holds the behavioural checks every store.Store must pass.
package storetest

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/store"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	t.Helper()
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("DeleteTwice", func(t *testing.T) { testDeleteTwice(t, newStore(t)) })
	t.Run("DeleteNeverSaved", func(t *testing.T) { testDeleteNeverSaved(t, newStore(t)) })
	t.Run("ListOrdering", func(t *testing.T) { testListOrdering(t, newStore(t)) })
	t.Run("ListEmpty", func(t *testing.T) { testListEmpty(t, newStore(t)) })
	t.Run("VersionConflict", func(t *testing.T) { testVersionConflict(t, newStore(t)) })
	t.Run("ConcurrentPuts", func(t *testing.T) { testConcurrentPuts(t, newStore(t)) })
}

// Sample builds a populated session for tests.
func Sample(id string) *dialogue.Session {
	return &dialogue.Session{
		ID:             id,
		Idea:           "Todo app",
		TotalQuestions: 3,
		History: []dialogue.Answer{
			{Question: "Who is it for?", SelectedOption: "Small teams"},
		},
		CurrentPhase:   "Core Features",
		SelectedPhases: []string{"Core Features", "Tech Stack"},
		FinalPrompt:    "",
	}
}

func sameContent(a, b *dialogue.Session) bool {
	return a.ID == b.ID &&
		a.Idea == b.Idea &&
		a.TotalQuestions == b.TotalQuestions &&
		reflect.DeepEqual(a.History, b.History) &&
		a.CurrentPhase == b.CurrentPhase &&
		reflect.DeepEqual(a.SelectedPhases, b.SelectedPhases) &&
		a.FinalPrompt == b.FinalPrompt
}

func testRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	in := Sample("abc")
	if err := s.Put(ctx, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	first := in.Timestamp
	if first.IsZero() {
		t.Fatalf("Put did not stamp timestamp")
	}

	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !sameContent(in, got) {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, in)
	}
	if got.Idea != "Todo app" {
		t.Fatalf("idea=%q", got.Idea)
	}
	if !got.Timestamp.Equal(first) {
		t.Fatalf("timestamp=%s want=%s", got.Timestamp, first)
	}

	again := Sample("abc")
	if err := s.Put(ctx, again); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if again.Timestamp.Before(first) {
		t.Fatalf("timestamp went backwards: %s < %s", again.Timestamp, first)
	}
}

func testOverwrite(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := Sample("same")
	if err := s.Put(ctx, a); err != nil {
		t.Fatalf("Put: %v", err)
	}
	b := Sample("same")
	b.Idea = "Chess trainer"
	b.History = append(b.History, dialogue.Answer{Question: "Platform?", SelectedOption: "Web"})
	b.FinalPrompt = "# Prompt"
	if err := s.Put(ctx, b); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "same")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !sameContent(b, got) {
		t.Fatalf("overwrite mismatch: got=%+v", got)
	}
	if got.Version != 2 {
		t.Fatalf("version=%d want=2", got.Version)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Progress != "2/3" {
		t.Fatalf("list=%+v", list)
	}
}

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.Get(context.Background(), "missing")
	if !dialogue.IsCode(err, dialogue.CodeNotFound) {
		t.Fatalf("err=%v want not_found", err)
	}
}

func testDeleteTwice(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.Put(ctx, Sample("gone")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := s.Delete(ctx, "gone"); !dialogue.IsCode(err, dialogue.CodeNotFound) {
		t.Fatalf("second Delete err=%v want not_found", err)
	}
	if _, err := s.Get(ctx, "gone"); !dialogue.IsCode(err, dialogue.CodeNotFound) {
		t.Fatalf("Get after delete err=%v", err)
	}
}

func testDeleteNeverSaved(t *testing.T, s store.Store) {
	if err := s.Delete(context.Background(), "never-saved"); !dialogue.IsCode(err, dialogue.CodeNotFound) {
		t.Fatalf("err=%v want not_found", err)
	}
}

func testListOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	const n = 5
	for i := 0; i < n; i++ {
		sess := Sample(fmt.Sprintf("s%d", i))
		sess.Idea = fmt.Sprintf("idea %d", i)
		if err := s.Put(ctx, sess); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != n {
		t.Fatalf("len=%d want=%d", len(list), n)
	}
	for i, sum := range list {
		want := fmt.Sprintf("s%d", n-1-i)
		if sum.ID != want {
			t.Fatalf("list[%d]=%s want=%s", i, sum.ID, want)
		}
		if sum.Progress != "1/3" {
			t.Fatalf("progress=%q", sum.Progress)
		}
		if i > 0 && sum.Timestamp.After(list[i-1].Timestamp) {
			t.Fatalf("not descending at %d", i)
		}
	}
}

func testListEmpty(t *testing.T, s store.Store) {
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("list=%+v", list)
	}
}

func testVersionConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := Sample("v")
	if err := s.Put(ctx, a); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.Version != 1 {
		t.Fatalf("version=%d want=1", a.Version)
	}

	b := Sample("v")
	b.Version = 1
	if err := s.Put(ctx, b); err != nil {
		t.Fatalf("versioned Put: %v", err)
	}
	if b.Version != 2 {
		t.Fatalf("version=%d want=2", b.Version)
	}

	stale := Sample("v")
	stale.Version = 1
	if err := s.Put(ctx, stale); !dialogue.IsCode(err, dialogue.CodeConflict) {
		t.Fatalf("stale Put err=%v want conflict", err)
	}

	blind := Sample("v")
	if err := s.Put(ctx, blind); err != nil {
		t.Fatalf("unversioned Put: %v", err)
	}
	if blind.Version != 3 {
		t.Fatalf("version=%d want=3", blind.Version)
	}

	ghost := Sample("ghost")
	ghost.Version = 4
	if err := s.Put(ctx, ghost); !dialogue.IsCode(err, dialogue.CodeConflict) {
		t.Fatalf("versioned Put of missing record err=%v want conflict", err)
	}
}

func testConcurrentPuts(t *testing.T, s store.Store) {
	ctx := context.Background()
	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Put(ctx, Sample(fmt.Sprintf("c%d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != n {
		t.Fatalf("len=%d want=%d", len(list), n)
	}
}
