package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arunsharma1203/grievance/internal/ident"
	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore must return a clean, migrated, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("Grievances", func(t *testing.T) { grievances(t, makeStore(t)) })
	t.Run("GrievanceConcurrentCreate", func(t *testing.T) { concurrentCreate(t, makeStore(t)) })
	t.Run("Moods", func(t *testing.T) { moods(t, makeStore(t)) })
	t.Run("Diary", func(t *testing.T) { diary(t, makeStore(t)) })
}

func assertReplyPair(t *testing.T, g *model.Grievance) {
	t.Helper()
	if (g.Reply == nil) != (g.RepliedAt == nil) {
		t.Fatalf("reply/repliedAt invariant broken: reply=%v repliedAt=%v", g.Reply, g.RepliedAt)
	}
}

func grievances(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	g1, err := s.Grievances().Create(ctx, &model.Grievance{ID: "12345", Username: "ana", Text: "too loud", CreatedAt: base})
	if err != nil {
		t.Fatalf("Create g1: %v", err)
	}
	assertReplyPair(t, g1)
	if _, err := s.Grievances().Create(ctx, &model.Grievance{
		ID: ident.New(), Username: "ben", Text: "voice note", CreatedAt: base.Add(time.Minute),
		Media: model.NewMedia("", "AwACAgQAAxkBAAI"),
	}); err != nil {
		t.Fatalf("Create g2: %v", err)
	}

	// duplicate identity must surface as a conflict
	_, err = s.Grievances().Create(ctx, &model.Grievance{ID: "12345", Username: "ana", Text: "again"})
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("duplicate create: expected ErrConflict, got %v", err)
	}

	got, err := s.Grievances().Get(ctx, "12345")
	if err != nil || got.Text != "too loud" || !got.CreatedAt.Equal(g1.CreatedAt) {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
	if _, err := s.Grievances().Get(ctx, "99999"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}

	lst, err := s.Grievances().List(ctx)
	if err != nil || len(lst) != 2 {
		t.Fatalf("List: n=%d err=%v", len(lst), err)
	}
	if lst[0].ID != "12345" {
		t.Fatalf("List must be oldest-first, got %s first", lst[0].ID)
	}
	if lst[1].TelegramFileID == "" || lst[1].AudioURL != "" {
		t.Fatalf("media not round-tripped: %+v", lst[1].Media)
	}
	for _, g := range lst {
		assertReplyPair(t, g)
	}

	at := time.Now()
	replied, err := s.Grievances().SetReply(ctx, "12345", "All good now", at)
	if err != nil {
		t.Fatalf("SetReply: %v", err)
	}
	assertReplyPair(t, replied)
	if replied.Reply == nil || *replied.Reply != "All good now" {
		t.Fatalf("SetReply: unexpected reply %v", replied.Reply)
	}
	// a second reply overwrites the first
	replied, err = s.Grievances().SetReply(ctx, "12345", "Actually fixed", at.Add(time.Second))
	if err != nil || *replied.Reply != "Actually fixed" {
		t.Fatalf("SetReply overwrite: got=%v err=%v", replied, err)
	}
	if _, err := s.Grievances().SetReply(ctx, "99999", "nope", at); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("SetReply missing: expected ErrNotFound, got %v", err)
	}

	n, err := s.Grievances().DeleteAll(ctx)
	if err != nil || n != 2 {
		t.Fatalf("DeleteAll: n=%d err=%v", n, err)
	}
	if lst, err := s.Grievances().List(ctx); err != nil || len(lst) != 0 {
		t.Fatalf("List after DeleteAll: n=%d err=%v", len(lst), err)
	}
}

func concurrentCreate(t *testing.T, s store.Store) {
	ctx := context.Background()
	const n = 100
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Grievances().Create(ctx, &model.Grievance{ID: ident.New(), Username: "load", Text: fmt.Sprintf("g-%d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent create: %v", err)
		}
	}
	lst, err := s.Grievances().List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	seen := map[string]bool{}
	for _, g := range lst {
		seen[g.ID] = true
	}
	if len(lst) != n || len(seen) != n {
		t.Fatalf("expected %d distinct grievances, got rows=%d distinct=%d", n, len(lst), len(seen))
	}
}

func moods(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	m1, err := s.Moods().Create(ctx, &model.Mood{Username: "ana", Value: 0, CreatedAt: base})
	if err != nil || m1.ID == 0 {
		t.Fatalf("Create m1: got=%+v err=%v", m1, err)
	}
	m2, err := s.Moods().Create(ctx, &model.Mood{Username: "ben", Value: 10, CreatedAt: base.Add(time.Minute)})
	if err != nil || m2.ID <= m1.ID {
		t.Fatalf("Create m2: got=%+v err=%v", m2, err)
	}
	if _, err := s.Moods().Create(ctx, &model.Mood{Username: "ana", Value: 7, CreatedAt: base.Add(2 * time.Minute)}); err != nil {
		t.Fatalf("Create m3: %v", err)
	}

	if got, err := s.Moods().Get(ctx, m2.ID); err != nil || got.Value != 10 {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
	lst, err := s.Moods().List(ctx, 0)
	if err != nil || len(lst) != 3 || lst[0].Value != 7 || lst[2].Value != 0 {
		t.Fatalf("List newest-first: n=%d err=%v", len(lst), err)
	}
	if latest, err := s.Moods().Latest(ctx, "ben"); err != nil || latest.ID != m2.ID {
		t.Fatalf("Latest(ben): got=%+v err=%v", latest, err)
	}
	if latest, err := s.Moods().Latest(ctx, ""); err != nil || latest.Value != 7 {
		t.Fatalf("Latest(any): got=%+v err=%v", latest, err)
	}
	if _, err := s.Moods().Latest(ctx, "nobody-"+uuid.NewString()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Latest(unknown): expected ErrNotFound, got %v", err)
	}

	n, err := s.Moods().DeleteAll(ctx)
	if err != nil || n != 3 {
		t.Fatalf("DeleteAll: n=%d err=%v", n, err)
	}
	if lst, err := s.Moods().List(ctx, 0); err != nil || len(lst) != 0 {
		t.Fatalf("List after DeleteAll: n=%d err=%v", len(lst), err)
	}
}

func diary(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Now().Add(-3 * time.Hour)
	title := "monday"

	var ids []string
	for i := 0; i < 105; i++ {
		n := &model.DiaryNote{ID: ident.New(), Body: fmt.Sprintf("note %d", i), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if i == 0 {
			n.Title = &title
			n.Media = model.NewMedia("/uploads/a.ogg", "")
		}
		if _, err := s.Diary().Create(ctx, n); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		ids = append(ids, n.ID)
	}

	first, err := s.Diary().Get(ctx, ids[0])
	if err != nil || first.Title == nil || *first.Title != "monday" || first.Username != nil || first.AudioURL != "/uploads/a.ogg" {
		t.Fatalf("Get: got=%+v err=%v", first, err)
	}

	lst, err := s.Diary().List(ctx, 500)
	if err != nil || len(lst) != 100 {
		t.Fatalf("List(500) must clamp to 100: n=%d err=%v", len(lst), err)
	}
	if lst[0].ID != ids[len(ids)-1] {
		t.Fatalf("List must be newest-first")
	}
	if lst, err := s.Diary().List(ctx, 0); err != nil || len(lst) != 1 {
		t.Fatalf("List(0) must clamp to 1: n=%d err=%v", len(lst), err)
	}

	existed, err := s.Diary().Delete(ctx, ids[0])
	if err != nil || !existed {
		t.Fatalf("Delete: existed=%v err=%v", existed, err)
	}
	existed, err = s.Diary().Delete(ctx, ids[0])
	if err != nil || existed {
		t.Fatalf("Delete again: existed=%v err=%v", existed, err)
	}

	n, err := s.Diary().DeleteAll(ctx)
	if err != nil || n != 104 {
		t.Fatalf("DeleteAll: n=%d err=%v", n, err)
	}
	if lst, err := s.Diary().List(ctx, 10); err != nil || len(lst) != 0 {
		t.Fatalf("List after DeleteAll: n=%d err=%v", len(lst), err)
	}
}
