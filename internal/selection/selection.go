// Package selection derives the widget's selection state from the host
// platform's text-selection primitive. The platform surface (selection
// query, bounding rects, event delivery, highlight registration) is
// injected, so the detector itself carries no UI-framework dependency.
package selection

// Point is a viewport coordinate anchoring the ask popup.
type Point struct {
	X float64
	Y float64
}

// Rect is the bounding box of the first selection range.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// State is the published selection state. Position is non-nil exactly when
// Text is non-empty.
type State struct {
	Text     string
	Position *Point
}

// Surface reads the platform's live text selection. ok is false when
// nothing is selected.
type Surface interface {
	Selection() (text string, rect Rect, ok bool)
}

type EventType int

const (
	PointerUp EventType = iota
	TouchEnd
	KeyUp
	PointerDown
	Scroll
)

// Event is one input event delivered by the host. WithinPopup marks events
// originating inside the ask popup's subtree; the detector ignores those so
// the popup cannot cause its own dismissal.
type Event struct {
	Type        EventType
	WithinPopup bool
}

// EventSource delivers input events to a subscriber. Subscribe returns a
// disposer that removes the subscription.
type EventSource interface {
	Subscribe(fn func(Event)) (cancel func())
}

// Highlighter is an optional platform capability that keeps the selection
// visually marked after focus moves into the popup. Registration failures
// are tolerated.
type Highlighter interface {
	Set(name string) error
	Clear(name string)
}

// HighlightName is the well-known name the detector registers the current
// selection range under.
const HighlightName = "docs-chat-selection"

// PopupMarker is the stable marker hosts place on the popup subtree so its
// events can be flagged WithinPopup.
const PopupMarker = "docs-chat-ask"
