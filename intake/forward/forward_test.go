package forward

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/m3rciful/intakebot/intake/templates"
)

type fakeSink struct {
	mu    sync.Mutex
	err   error
	panic bool
	texts []string
	chats []int64
}

func (s *fakeSink) SendTo(_ context.Context, chatID int64, text string) error {
	if s.panic {
		panic("boom")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.texts = append(s.texts, text)
	s.chats = append(s.chats, chatID)
	return nil
}

type fakeQueue struct {
	err  error
	runs []func() error
}

func (q *fakeQueue) Enqueue(_ context.Context, _, _ string, run func() error) error {
	if q.err != nil {
		return q.err
	}
	q.runs = append(q.runs, run)
	return nil
}

func newTexts() *templates.Repository {
	return templates.NewRepository(nil, templates.Options{})
}

func TestIdentityReference(t *testing.T) {
	cases := []struct {
		id   Identity
		ref  string
		link string
	}{
		{Identity{UserID: 1, Username: "alice"}, "@alice", "https://t.me/alice"},
		{Identity{UserID: 1, Username: "@bob"}, "@bob", "https://t.me/bob"},
		{Identity{UserID: 2, FirstName: "Carol"}, "Carol (id: 2)", "tg://user?id=2"},
		{Identity{UserID: 3}, "id: 3", "tg://user?id=3"},
	}
	for _, tc := range cases {
		if got := tc.id.Reference(); got != tc.ref {
			t.Errorf("Reference(%+v) = %q, expected %q", tc.id, got, tc.ref)
		}
		if got := tc.id.Link(); got != tc.link {
			t.Errorf("Link(%+v) = %q, expected %q", tc.id, got, tc.link)
		}
	}
}

func TestForwardSynchronous(t *testing.T) {
	sink := &fakeSink{}
	f := New(sink, nil, newTexts(), Options{SupervisorID: 10, SupervisorLanguage: "en"})

	out := f.Forward(context.Background(), Identity{UserID: 1, Username: "alice"}, Note{
		Language:     "en",
		QuestionKey:  "question_1",
		QuestionText: "Registered before?",
		Answer:       "yes",
	})
	if out != OutcomeSent {
		t.Fatalf("outcome = %s", out)
	}
	if len(sink.texts) != 1 || sink.chats[0] != 10 {
		t.Fatalf("sent = %v to %v", sink.texts, sink.chats)
	}
	want := "Answer from @alice (en)\nRegistered before?\n→ yes\nhttps://t.me/alice"
	if sink.texts[0] != want {
		t.Fatalf("text = %q\nwant   %q", sink.texts[0], want)
	}
}

func TestForwardQueuedRunsLater(t *testing.T) {
	sink := &fakeSink{}
	q := &fakeQueue{}
	f := New(sink, q, newTexts(), Options{SupervisorID: 10})

	out := f.Forward(context.Background(), Identity{UserID: 1}, Note{QuestionKey: "question_1", Answer: "a"})
	if out != OutcomeQueued || len(sink.texts) != 0 {
		t.Fatalf("outcome = %s, sent %d", out, len(sink.texts))
	}
	if err := q.runs[0](); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.texts) != 1 || !strings.Contains(sink.texts[0], "question_1") {
		t.Fatalf("sent = %v", sink.texts)
	}
}

func TestForwardFallsBackWhenQueueFull(t *testing.T) {
	sink := &fakeSink{}
	f := New(sink, &fakeQueue{err: errors.New("queue full")}, newTexts(), Options{SupervisorID: 10})
	if out := f.Forward(context.Background(), Identity{UserID: 1}, Note{Answer: "a"}); out != OutcomeSent {
		t.Fatalf("outcome = %s", out)
	}
	if len(sink.texts) != 1 {
		t.Fatalf("sent = %v", sink.texts)
	}
}

func TestForwardFailureIsContained(t *testing.T) {
	f := New(&fakeSink{err: errors.New("chat not found")}, nil, newTexts(), Options{SupervisorID: 10})
	if out := f.Forward(context.Background(), Identity{UserID: 1}, Note{Answer: "a"}); out != OutcomeFailed {
		t.Fatalf("outcome = %s", out)
	}

	p := New(&fakeSink{panic: true}, nil, newTexts(), Options{SupervisorID: 10})
	if out := p.Forward(context.Background(), Identity{UserID: 1}, Note{Answer: "a"}); out != OutcomeFailed {
		t.Fatalf("panic outcome = %s", out)
	}
	if f.Failures() != 1 || p.Failures() != 1 {
		t.Fatalf("failures = %d, %d", f.Failures(), p.Failures())
	}
}

func TestForwardSkippedWithoutSupervisor(t *testing.T) {
	sink := &fakeSink{}
	f := New(sink, nil, newTexts(), Options{})
	if out := f.Forward(context.Background(), Identity{UserID: 1}, Note{Answer: "a"}); out != OutcomeSkipped {
		t.Fatalf("outcome = %s", out)
	}
	if len(sink.texts) != 0 {
		t.Fatal("message sent without supervisor")
	}
}

func TestSummaryNumbersAnswers(t *testing.T) {
	sink := &fakeSink{}
	f := New(sink, nil, newTexts(), Options{SupervisorID: 10, SupervisorLanguage: "en"})
	notes := []Note{
		{Language: "en", QuestionKey: "question_1", QuestionText: "Q1", Answer: "yes"},
		{Language: "en", QuestionKey: "question_2", QuestionText: "Q2", Answer: "curiosity"},
	}
	if out := f.Summary(context.Background(), Identity{UserID: 7}, notes); out != OutcomeSent {
		t.Fatalf("outcome = %s", out)
	}
	text := sink.texts[0]
	if !strings.Contains(text, "1. Q1\n→ yes\n2. Q2\n→ curiosity") {
		t.Fatalf("summary = %q", text)
	}
	if !strings.Contains(text, "tg://user?id=7") {
		t.Fatalf("summary link missing: %q", text)
	}

	if out := f.Summary(context.Background(), Identity{UserID: 7}, nil); out != OutcomeSkipped {
		t.Fatalf("empty summary outcome = %s", out)
	}
}
