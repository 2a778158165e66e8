// Package auth adapts the external authentication collaborator. The widget
// only ever reads whether a signed-in session exists and asks for the login
// prompt; credentials, tokens and cookies stay with the provider.
package auth

import "time"

// Session is a signed-in user's login state.
type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Gate is what the widget sees of the authentication collaborator.
type Gate interface {
	// Session returns the current auth session, or nil when signed out.
	Session() *Session
	// OpenLoginModal triggers the host's login prompt.
	OpenLoginModal()
}

// StaticGate is an in-process Gate holding a fixed session. Used by the CLI
// and by tests.
type StaticGate struct {
	Current *Session
	OnLogin func()
}

func (g *StaticGate) Session() *Session {
	return g.Current
}

func (g *StaticGate) OpenLoginModal() {
	if g.OnLogin != nil {
		g.OnLogin()
	}
}
