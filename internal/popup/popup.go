// Package popup implements the floating "ask with AI" control shown next
// to a text selection.
package popup

import (
	"fmt"
	"strings"
	"sync"

	"docs-chat/internal/auth"
	"docs-chat/internal/selection"
)

// DefaultPrompt prefixes the selected text when the user submits without
// typing a prompt of their own.
const DefaultPrompt = "Explain"

// Opener is called with the composed question when a new chat session
// should open.
type Opener func(initialMessage string)

// AskPopup turns a selection into a question, gated by authentication.
type AskPopup struct {
	mu       sync.Mutex
	gate     auth.Gate
	open     Opener
	prompt   string
	chatOpen bool
}

func NewAskPopup(gate auth.Gate, open Opener) *AskPopup {
	return &AskPopup{gate: gate, open: open}
}

// Visible reports whether the popup should render for the given selection
// state. It renders only when text and position are both present and no
// chat is open for this interaction.
func (p *AskPopup) Visible(st selection.State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return st.Text != "" && st.Position != nil && !p.chatOpen
}

func (p *AskPopup) SetPrompt(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompt = text
}

func (p *AskPopup) Prompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompt
}

// Submit composes "<prompt or Explain>: <selected text>" and opens a chat
// with it. An unauthenticated submit routes to the login prompt instead and
// composes nothing. Returns whether a chat was opened.
func (p *AskPopup) Submit(selectedText string) bool {
	if p.gate.Session() == nil {
		p.gate.OpenLoginModal()
		return false
	}

	p.mu.Lock()
	prefix := strings.TrimSpace(p.prompt)
	if prefix == "" {
		prefix = DefaultPrompt
	}
	question := fmt.Sprintf("%s: %s", prefix, selectedText)
	p.prompt = ""
	p.chatOpen = true
	open := p.open
	p.mu.Unlock()

	if open != nil {
		open(question)
	}
	return true
}

// ChatOpen reports whether a chat is open for this interaction; while true
// the popup is consumed and never renders.
func (p *AskPopup) ChatOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chatOpen
}

// CloseChat ends the interaction so a new selection can show the popup
// again.
func (p *AskPopup) CloseChat() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chatOpen = false
}
