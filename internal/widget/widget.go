// Package widget wires the selection detector, the ask popup and the chat
// session into one embeddable controller. Each opened chat owns a fresh
// session; closing it discards the conversation.
package widget

import (
	"context"
	"sync"

	"docs-chat/internal/auth"
	"docs-chat/internal/chat"
	"docs-chat/internal/popup"
	"docs-chat/internal/selection"
)

type Controller struct {
	mu       sync.Mutex
	detector *selection.Detector
	popup    *popup.AskPopup
	asker    chat.Asker
	session  *chat.Session
	ctx      context.Context

	sessionOpts []chat.SessionOption
}

type Option func(*Controller)

// WithSessionOptions forwards options to every session the controller
// opens, e.g. a change callback for re-rendering.
func WithSessionOptions(opts ...chat.SessionOption) Option {
	return func(c *Controller) {
		c.sessionOpts = opts
	}
}

// WithDetector replaces the default detector, e.g. to add a highlighter
// or a state callback.
func WithDetector(d *selection.Detector) Option {
	return func(c *Controller) {
		c.detector = d
	}
}

func NewController(ctx context.Context, surface selection.Surface, gate auth.Gate, asker chat.Asker, opts ...Option) *Controller {
	c := &Controller{
		detector: selection.NewDetector(surface),
		asker:    asker,
		ctx:      ctx,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.popup = popup.NewAskPopup(gate, c.openChat)
	return c
}

func (c *Controller) Detector() *selection.Detector {
	return c.detector
}

func (c *Controller) Popup() *popup.AskPopup {
	return c.popup
}

// PopupVisible reports whether the ask popup should currently render.
func (c *Controller) PopupVisible() bool {
	return c.popup.Visible(c.detector.State())
}

// Ask submits the current selection through the popup. No-op when nothing
// is selected.
func (c *Controller) Ask() bool {
	st := c.detector.State()
	if st.Text == "" {
		return false
	}
	return c.popup.Submit(st.Text)
}

// Session returns the open chat session, or nil when no chat is open.
func (c *Controller) Session() *chat.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// CloseChat discards the open session. The next selection shows the popup
// again and a later ask starts a fresh conversation.
func (c *Controller) CloseChat() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	c.popup.CloseChat()
}

// Close tears down the selection detector.
func (c *Controller) Close() {
	c.detector.Close()
}

func (c *Controller) openChat(initialMessage string) {
	s := chat.NewSession(c.asker, append([]chat.SessionOption{
		chat.WithInitialMessage(initialMessage),
	}, c.sessionOpts...)...)
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	// The auto-submit performs the network round trip, keep it off the
	// caller's event path.
	go s.Open(c.ctx)
}
