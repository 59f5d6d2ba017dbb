package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/interface/cli/presenter"
)

// Navigator follows session events and tells the user where to go next.
// A terminal has no screens to swap, so "navigating to login" means printing
// the login instruction once and remembering the route for the exit code.
type Navigator struct {
	out io.Writer

	mu      sync.Mutex
	route   string
	expired bool
}

// NewNavigator creates a Navigator that writes notices to out.
func NewNavigator(out io.Writer) *Navigator {
	return &Navigator{out: out}
}

// Attach subscribes the navigator to the session events.
func (n *Navigator) Attach(bus Subscriber) error {
	if err := bus.Subscribe(shared.EventSessionExpired, n.onExpired); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventSessionEnded, n.onEnded)
}

func redirect(e shared.Event) string {
	if ended, ok := e.(shared.SessionEndedEvent); ok && ended.RedirectTo != "" {
		return ended.RedirectTo
	}
	return shared.LoginRoute
}

func (n *Navigator) onExpired(e shared.Event) error {
	n.mu.Lock()
	first := !n.expired
	n.expired = true
	n.route = redirect(e)
	n.mu.Unlock()

	if first {
		fmt.Fprintf(n.out, "✖ %s\n", presenter.MsgSessionExpired)
	}
	return nil
}

func (n *Navigator) onEnded(e shared.Event) error {
	n.mu.Lock()
	n.route = redirect(e)
	n.mu.Unlock()
	return nil
}

// Expired reports whether the API rejected the session during this run.
func (n *Navigator) Expired() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.expired
}

// Route returns the route requested by the last session event, if any.
func (n *Navigator) Route() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route
}
