package cli

import (
	"fmt"
	"runtime/debug"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY
// A panicking command becomes an ordinary error: the user sees the generic
// message, the stack goes to the log and the error to Sentry.
// ══════════════════════════════════════════════════════════════════════════════

// PanicError is a recovered panic.
type PanicError struct {
	Command string
	Value   any
	Stack   string
}

// Error implements error.
func (p *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", p.Command, p.Value)
}

// Unwrap exposes the panic value when it was an error.
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// guard runs fn, converting a panic into a *PanicError.
func (a *App) guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := &PanicError{Command: name, Value: r, Stack: string(debug.Stack())}
			a.deps.Logger.Error("command panicked",
				"command", name, "panic", fmt.Sprint(r), "stack", pe.Stack)
			err = pe
		}
	}()
	return fn()
}
