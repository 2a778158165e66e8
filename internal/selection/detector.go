package selection

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// popupAnchorOffset lifts the popup slightly above the selection box.
const popupAnchorOffset = 10

// Detector observes selection-changing input events and publishes State.
type Detector struct {
	mu          sync.Mutex
	surface     Surface
	highlighter Highlighter
	notify      func(State)
	state       State
	cancels     []func()
	highlighted bool
}

type DetectorOption func(*Detector)

// WithHighlighter enables best-effort native highlight registration.
func WithHighlighter(h Highlighter) DetectorOption {
	return func(d *Detector) {
		d.highlighter = h
	}
}

// WithNotify registers a callback invoked with every published state.
func WithNotify(fn func(State)) DetectorOption {
	return func(d *Detector) {
		d.notify = fn
	}
}

func NewDetector(surface Surface, opts ...DetectorOption) *Detector {
	d := &Detector{surface: surface}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Attach subscribes the detector to an event source. The subscription is
// removed on Close.
func (d *Detector) Attach(src EventSource) {
	cancel := src.Subscribe(d.Handle)
	d.mu.Lock()
	d.cancels = append(d.cancels, cancel)
	d.mu.Unlock()
}

// Handle processes one input event. Events flagged as originating inside
// the popup are ignored.
func (d *Detector) Handle(ev Event) {
	if ev.WithinPopup {
		return
	}
	switch ev.Type {
	case PointerUp, TouchEnd, KeyUp:
		d.refresh()
	case Scroll, PointerDown:
		// The selection can go away without a selection event firing,
		// clear published state when the live selection is empty.
		if text, _, ok := d.surface.Selection(); !ok || strings.TrimSpace(text) == "" {
			d.clear()
		}
	}
}

// State returns the last published selection state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Close removes all subscriptions and clears any highlight registration.
func (d *Detector) Close() {
	d.mu.Lock()
	cancels := d.cancels
	d.cancels = nil
	d.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	d.clearHighlight()
}

func (d *Detector) refresh() {
	text, rect, ok := d.surface.Selection()
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		d.clear()
		return
	}

	pos := &Point{
		X: rect.Left + rect.Width/2,
		Y: rect.Top - popupAnchorOffset,
	}
	d.publish(State{Text: text, Position: pos})
	d.setHighlight()
}

func (d *Detector) clear() {
	d.mu.Lock()
	empty := d.state.Text == "" && d.state.Position == nil
	d.mu.Unlock()
	if empty {
		return
	}
	d.publish(State{})
	d.clearHighlight()
}

func (d *Detector) publish(s State) {
	d.mu.Lock()
	d.state = s
	notify := d.notify
	d.mu.Unlock()
	if notify != nil {
		notify(s)
	}
}

func (d *Detector) setHighlight() {
	if d.highlighter == nil {
		return
	}
	if err := d.highlighter.Set(HighlightName); err != nil {
		// Highlighting is cosmetic, never let it break selection state.
		log.Debug().Err(err).Msg("Failed to register selection highlight")
		return
	}
	d.mu.Lock()
	d.highlighted = true
	d.mu.Unlock()
}

func (d *Detector) clearHighlight() {
	if d.highlighter == nil {
		return
	}
	d.mu.Lock()
	was := d.highlighted
	d.highlighted = false
	d.mu.Unlock()
	if was {
		d.highlighter.Clear(HighlightName)
	}
}
