package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	greeting      = "Hi! How can I help you with the documentation today?"
	errorTemplate = "Sorry, I encountered an error: %s. Please make sure you are connected to the internet."
)

// Asker is the network boundary of a session.
type Asker interface {
	Ask(ctx context.Context, question string) (string, []Source, error)
}

// Session owns one conversation: the ordered message list and the request
// lifecycle against the answer API. A session is either idle or waiting on
// exactly one in-flight request; submissions made while waiting are dropped.
type Session struct {
	mu sync.Mutex

	asker    Asker
	messages []Message
	loading  bool
	lastErr  string
	input    string

	initial          string
	submittedInitial bool

	onChange func()
}

type SessionOption func(*Session)

// WithInitialMessage pre-fills a question that is auto-submitted exactly
// once, the first time the session is opened.
func WithInitialMessage(msg string) SessionOption {
	return func(s *Session) {
		s.initial = msg
	}
}

// WithOnChange registers a callback invoked after every change to the
// message list or the loading flag. Hosts use it to re-render and scroll
// to the newest message.
func WithOnChange(fn func()) SessionOption {
	return func(s *Session) {
		s.onChange = fn
	}
}

func NewSession(asker Asker, opts ...SessionOption) *Session {
	s := &Session{
		asker: asker,
		messages: []Message{{
			ID:      "1",
			Role:    RoleAssistant,
			Content: greeting,
		}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open submits the initial message, if one was provided. Repeat calls and
// later changes to the initial message never re-trigger the submission.
func (s *Session) Open(ctx context.Context) {
	s.mu.Lock()
	if s.initial == "" || s.submittedInitial {
		s.mu.Unlock()
		return
	}
	s.submittedInitial = true
	msg := s.initial
	s.mu.Unlock()

	s.Submit(ctx, msg)
}

// SetInitialMessage replaces the pending initial message. It has no effect
// on a session that has already auto-submitted.
func (s *Session) SetInitialMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initial = msg
}

// SetInput updates the pending input buffer.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SubmitInput submits the pending input buffer.
func (s *Session) SubmitInput(ctx context.Context) {
	s.mu.Lock()
	text := s.input
	s.mu.Unlock()
	s.Submit(ctx, text)
}

// Submit appends a user message carrying rawText verbatim, issues one
// request, and appends the assistant's reply when it settles. Blank input
// and submissions made while a request is in flight are silently dropped.
func (s *Session) Submit(ctx context.Context, rawText string) {
	s.mu.Lock()
	if strings.TrimSpace(rawText) == "" || s.loading {
		s.mu.Unlock()
		return
	}

	s.messages = append(s.messages, Message{
		ID:      uuid.New().String(),
		Role:    RoleUser,
		Content: rawText,
	})
	s.input = ""
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
	s.notify()

	answer, sources, err := s.asker.Ask(ctx, rawText)

	s.mu.Lock()
	if err != nil {
		desc := err.Error()
		log.Warn().Str("error", desc).Msg("Answer request failed")
		s.lastErr = desc
		s.messages = append(s.messages, Message{
			ID:      uuid.New().String(),
			Role:    RoleAssistant,
			Content: fmt.Sprintf(errorTemplate, desc),
		})
	} else {
		s.messages = append(s.messages, Message{
			ID:      uuid.New().String(),
			Role:    RoleAssistant,
			Content: answer,
			Sources: sources,
		})
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// Messages returns a snapshot of the conversation in insertion order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the description of the most recent failed request, or
// an empty string.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Reset clears the conversation back to the greeting. Dropped while a
// request is in flight.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return
	}
	s.messages = []Message{{
		ID:      "1",
		Role:    RoleAssistant,
		Content: greeting,
	}}
	s.lastErr = ""
	s.input = ""
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
