package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := New(7)
	s.State = StateAwaitAnswer
	s.Step = 1
	s.Answers = []Answer{{Key: "question_1", Value: "yes"}}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	s.Answers[0].Value = "mutated"
	got, ok, err := store.Get(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Answers[0].Value != "yes" {
		t.Fatalf("store shares memory with caller: %q", got.Answers[0].Value)
	}
	got.Step = 99
	again, _, _ := store.Get(ctx, 7)
	if again.Step != 1 {
		t.Fatalf("step = %d, expected 1", again.Step)
	}
}

func TestMemoryStoreResetIssuesNewRun(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	first, _ := store.Reset(ctx, 1)
	second, _ := store.Reset(ctx, 1)
	if first.ID == second.ID {
		t.Fatal("expected a new run id after reset")
	}
	if second.State != StateAwaitLanguage {
		t.Fatalf("state = %s", second.State)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one session per user, got %d", store.Len())
	}
	if err := store.Delete(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatal("expected session to be deleted")
	}
}

func TestSessionResetClearsProgress(t *testing.T) {
	s := New(3)
	runID := s.ID
	s.State = StateAwaitAnswer
	s.Step = 2
	s.Language = "en"
	s.Answers = []Answer{{Key: "question_1", Value: "x"}}
	s.Admin = AdminAwaitText
	s.Edit = &EditContext{Language: "ru", Key: "final"}

	s.Reset()
	if s.State != StateAwaitLanguage || s.Step != 0 || s.Language != "" || len(s.Answers) != 0 {
		t.Fatalf("reset left progress: %+v", s)
	}
	if s.InAdmin() || s.Edit != nil {
		t.Fatalf("reset left admin context: %+v", s)
	}
	if s.ID == runID {
		t.Fatal("expected new run id")
	}
}

func TestDecodeSessionDefaultsState(t *testing.T) {
	s, err := decodeSession([]byte(`{"id":"r","user_id":5,"answers":[{"key":"question_1","value":"да"}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.State != StateAwaitLanguage || s.UserID != 5 || s.Answers[0].Value != "да" {
		t.Fatalf("unexpected session %+v", s)
	}
	if _, err := decodeSession([]byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLockerSerializesSameUser(t *testing.T) {
	l := NewLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(42)
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max concurrent holders = %d, expected 1", maxSeen)
	}
	if l.Active() != 0 {
		t.Fatalf("expected lock table to drain, got %d", l.Active())
	}
}

func TestLockerDifferentUsersDoNotBlock(t *testing.T) {
	l := NewLocker()
	unlockA := l.Lock(1)
	done := make(chan struct{})
	go func() {
		unlockB := l.Lock(2)
		unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another user blocked")
	}
	unlockA()
}

func TestMemoryStoreExpiresIdleSessions(t *testing.T) {
	store := NewMemoryStoreTTL(time.Hour)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	_ = store.Save(ctx, New(1))
	clock = clock.Add(30 * time.Minute)
	_ = store.Save(ctx, New(2))
	if _, ok, _ := store.Get(ctx, 1); !ok {
		t.Fatal("session expired early")
	}

	clock = clock.Add(45 * time.Minute)
	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatal("idle session still returned")
	}
	_ = store.Save(ctx, New(3))
	if store.Len() != 2 {
		t.Fatalf("expected the idle session to be swept, len = %d", store.Len())
	}
}

func TestPristine(t *testing.T) {
	s := New(1)
	if !s.Pristine() {
		t.Fatal("new session must be pristine")
	}
	s.Language = "en"
	if s.Pristine() {
		t.Fatal("session with a language is not pristine")
	}
	s.Reset()
	s.Admin = AdminMenu
	if s.Pristine() {
		t.Fatal("session in the edit flow is not pristine")
	}
}
