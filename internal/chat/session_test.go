package chat_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"docs-chat/internal/chat"
)

// stubAsker returns canned answers and records every question it sees.
type stubAsker struct {
	mu        sync.Mutex
	questions []string
	answer    string
	sources   []chat.Source
	err       error
	delay     time.Duration
}

func (a *stubAsker) Ask(ctx context.Context, question string) (string, []chat.Source, error) {
	a.mu.Lock()
	a.questions = append(a.questions, question)
	a.mu.Unlock()
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	if a.err != nil {
		return "", nil, a.err
	}
	return a.answer, a.sources, nil
}

func (a *stubAsker) seen() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.questions))
	copy(out, a.questions)
	return out
}

func TestSessionSeedsGreeting(t *testing.T) {
	s := chat.NewSession(&stubAsker{})
	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 seeded message, got %d", len(msgs))
	}
	if msgs[0].Role != chat.RoleAssistant {
		t.Errorf("greeting role = %q, want assistant", msgs[0].Role)
	}
	if s.Loading() {
		t.Error("new session should not be loading")
	}
}

func TestSubmitBlankIsDropped(t *testing.T) {
	asker := &stubAsker{answer: "A"}
	s := chat.NewSession(asker)

	s.Submit(context.Background(), "")
	s.Submit(context.Background(), "   \t\n")

	if got := len(s.Messages()); got != 1 {
		t.Errorf("message count = %d, want 1", got)
	}
	if got := len(asker.seen()); got != 0 {
		t.Errorf("requests issued = %d, want 0", got)
	}
}

func TestSubmitKeepsRawText(t *testing.T) {
	asker := &stubAsker{answer: "A"}
	s := chat.NewSession(asker)

	s.Submit(context.Background(), "  what is this?  ")

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("message count = %d, want 3", len(msgs))
	}
	if msgs[1].Content != "  what is this?  " {
		t.Errorf("user content = %q, want verbatim raw text", msgs[1].Content)
	}
	if msgs[2].Content != "A" {
		t.Errorf("assistant content = %q, want %q", msgs[2].Content, "A")
	}
	if msgs[2].Sources == nil || len(msgs[2].Sources) != 0 {
		t.Errorf("assistant sources = %v, want empty", msgs[2].Sources)
	}
}

func TestSubmitWhileLoadingIsDropped(t *testing.T) {
	asker := &stubAsker{answer: "A", delay: 100 * time.Millisecond}
	s := chat.NewSession(asker)

	done := make(chan struct{})
	go func() {
		s.Submit(context.Background(), "first")
		close(done)
	}()

	// Wait for the first submission to take the loading flag.
	deadline := time.Now().Add(time.Second)
	for !s.Loading() {
		if time.Now().After(deadline) {
			t.Fatal("session never entered loading state")
		}
		time.Sleep(time.Millisecond)
	}

	s.Submit(context.Background(), "second")
	<-done

	if got := asker.seen(); len(got) != 1 || got[0] != "first" {
		t.Errorf("requests = %v, want [first]", got)
	}
	if got := len(s.Messages()); got != 3 {
		t.Errorf("message count = %d, want 3 (greeting + user + assistant)", got)
	}
}

func TestSubmitFailureAppendsErrorMessage(t *testing.T) {
	asker := &stubAsker{err: errors.New("API error: 500 Internal Server Error")}
	s := chat.NewSession(asker)

	s.Submit(context.Background(), "hello")

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("message count = %d, want 3", len(msgs))
	}
	last := msgs[2]
	if last.Role != chat.RoleAssistant {
		t.Errorf("error message role = %q, want assistant", last.Role)
	}
	want := "Sorry, I encountered an error: API error: 500 Internal Server Error. Please make sure you are connected to the internet."
	if last.Content != want {
		t.Errorf("error message = %q, want %q", last.Content, want)
	}
	if len(last.Sources) != 0 {
		t.Errorf("error message carries %d sources, want none", len(last.Sources))
	}
	if s.LastError() != "API error: 500 Internal Server Error" {
		t.Errorf("last error = %q", s.LastError())
	}
	if s.Loading() {
		t.Error("session should be idle after a failed request")
	}

	// Session stays usable: the next submission goes through.
	asker.err = nil
	asker.answer = "recovered"
	s.Submit(context.Background(), "retry")
	msgs = s.Messages()
	if msgs[len(msgs)-1].Content != "recovered" {
		t.Errorf("retry answer = %q, want %q", msgs[len(msgs)-1].Content, "recovered")
	}
}

func TestOpenSubmitsInitialMessageOnce(t *testing.T) {
	asker := &stubAsker{answer: "A"}
	s := chat.NewSession(asker, chat.WithInitialMessage("Explain: foo"))

	s.Open(context.Background())
	s.Open(context.Background())
	s.SetInitialMessage("Explain: bar")
	s.Open(context.Background())

	if got := asker.seen(); len(got) != 1 || got[0] != "Explain: foo" {
		t.Errorf("requests = %v, want exactly one for the first initial message", got)
	}
}

func TestOpenWithoutInitialMessageIsNoop(t *testing.T) {
	asker := &stubAsker{answer: "A"}
	s := chat.NewSession(asker)
	s.Open(context.Background())
	if got := len(asker.seen()); got != 0 {
		t.Errorf("requests issued = %d, want 0", got)
	}
}

func TestMessageOrderingAndLength(t *testing.T) {
	asker := &stubAsker{answer: "A"}
	s := chat.NewSession(asker)

	const n = 5
	for i := 0; i < n; i++ {
		s.Submit(context.Background(), fmt.Sprintf("question %d", i))
	}

	msgs := s.Messages()
	if len(msgs) != 1+2*n {
		t.Fatalf("message count = %d, want %d", len(msgs), 1+2*n)
	}
	for i := 0; i < n; i++ {
		user := msgs[1+2*i]
		assistant := msgs[2+2*i]
		if user.Role != chat.RoleUser || user.Content != fmt.Sprintf("question %d", i) {
			t.Errorf("message %d = %+v, want user question %d", 1+2*i, user, i)
		}
		if assistant.Role != chat.RoleAssistant {
			t.Errorf("message %d role = %q, want assistant", 2+2*i, assistant.Role)
		}
	}

	seen := map[string]bool{}
	for _, m := range msgs {
		if seen[m.ID] {
			t.Errorf("duplicate message id %q", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestSubmitInputClearsBuffer(t *testing.T) {
	asker := &stubAsker{answer: "A"}
	s := chat.NewSession(asker)

	s.SetInput("typed question")
	s.SubmitInput(context.Background())

	if s.Input() != "" {
		t.Errorf("input buffer = %q, want empty after submit", s.Input())
	}
	if got := asker.seen(); len(got) != 1 || got[0] != "typed question" {
		t.Errorf("requests = %v", got)
	}
}

func TestResetRestoresGreeting(t *testing.T) {
	asker := &stubAsker{answer: "A"}
	s := chat.NewSession(asker)
	s.Submit(context.Background(), "hello")

	s.Reset()

	msgs := s.Messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Content, "How can I help") {
		t.Errorf("after reset messages = %+v, want single greeting", msgs)
	}
	if s.LastError() != "" {
		t.Errorf("after reset last error = %q, want empty", s.LastError())
	}
}

func TestOnChangeFires(t *testing.T) {
	asker := &stubAsker{answer: "A"}
	var calls int
	s := chat.NewSession(asker, chat.WithOnChange(func() { calls++ }))

	s.Submit(context.Background(), "hello")

	// One notification for the user message, one for the settled reply.
	if calls != 2 {
		t.Errorf("onChange calls = %d, want 2", calls)
	}
}
