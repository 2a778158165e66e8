package widget_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"docs-chat/internal/auth"
	"docs-chat/internal/chat"
	"docs-chat/internal/selection"
	"docs-chat/internal/widget"
)

type fakeSurface struct {
	mu   sync.Mutex
	text string
}

func (f *fakeSurface) set(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
}

func (f *fakeSurface) Selection() (string, selection.Rect, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, selection.Rect{Left: 10, Top: 30, Width: 40}, f.text != ""
}

type recordingAsker struct {
	mu        sync.Mutex
	questions []string
}

func (a *recordingAsker) Ask(ctx context.Context, q string) (string, []chat.Source, error) {
	a.mu.Lock()
	a.questions = append(a.questions, q)
	a.mu.Unlock()
	return "answer", nil, nil
}

func (a *recordingAsker) seen() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.questions))
	copy(out, a.questions)
	return out
}

func gate() *auth.StaticGate {
	return &auth.StaticGate{Current: &auth.Session{UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition never became true")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSelectionToQuestionPipeline(t *testing.T) {
	surface := &fakeSurface{}
	asker := &recordingAsker{}
	c := widget.NewController(context.Background(), surface, gate(), asker)
	defer c.Close()

	// Nothing selected: no popup, ask is a no-op.
	if c.PopupVisible() {
		t.Error("popup visible without a selection")
	}
	if c.Ask() {
		t.Error("ask succeeded without a selection")
	}

	// Select text, popup appears.
	surface.set("the hard part")
	c.Detector().Handle(selection.Event{Type: selection.PointerUp})
	if !c.PopupVisible() {
		t.Fatal("popup not visible after selection")
	}

	// Submit with a custom prompt.
	c.Popup().SetPrompt("Summarize")
	if !c.Ask() {
		t.Fatal("ask failed")
	}
	if c.PopupVisible() {
		t.Error("popup still visible while the chat is open")
	}

	s := c.Session()
	if s == nil {
		t.Fatal("no session opened")
	}
	waitFor(t, func() bool { return len(s.Messages()) == 3 })

	msgs := s.Messages()
	if msgs[1].Content != "Summarize: the hard part" {
		t.Errorf("initial question = %q", msgs[1].Content)
	}
	if got := asker.seen(); len(got) != 1 || got[0] != "Summarize: the hard part" {
		t.Errorf("requests = %v", got)
	}
}

func TestCloseDiscardsSession(t *testing.T) {
	surface := &fakeSurface{}
	asker := &recordingAsker{}
	c := widget.NewController(context.Background(), surface, gate(), asker)
	defer c.Close()

	surface.set("passage one")
	c.Detector().Handle(selection.Event{Type: selection.PointerUp})
	c.Ask()
	first := c.Session()
	waitFor(t, func() bool { return len(first.Messages()) == 3 })

	c.CloseChat()
	if c.Session() != nil {
		t.Error("session survived close")
	}

	// A fresh selection and ask start a brand-new conversation.
	surface.set("passage two")
	c.Detector().Handle(selection.Event{Type: selection.PointerUp})
	if !c.PopupVisible() {
		t.Fatal("popup not visible after reopening")
	}
	c.Ask()
	second := c.Session()
	if second == first {
		t.Error("session reused across reopen")
	}
	waitFor(t, func() bool { return len(second.Messages()) == 3 })
	if second.Messages()[1].Content != "Explain: passage two" {
		t.Errorf("initial question = %q", second.Messages()[1].Content)
	}
}

func TestUnauthenticatedAskOpensLogin(t *testing.T) {
	surface := &fakeSurface{}
	asker := &recordingAsker{}
	var loginCalls int
	g := &auth.StaticGate{OnLogin: func() { loginCalls++ }}
	c := widget.NewController(context.Background(), surface, g, asker)
	defer c.Close()

	surface.set("locked passage")
	c.Detector().Handle(selection.Event{Type: selection.PointerUp})
	if c.Ask() {
		t.Error("ask succeeded while signed out")
	}
	if loginCalls != 1 {
		t.Errorf("login prompt calls = %d, want 1", loginCalls)
	}
	if c.Session() != nil {
		t.Error("session opened while signed out")
	}
	if got := len(asker.seen()); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}
